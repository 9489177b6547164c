// Package prometheus exports wait engine metrics: wait outcomes and
// durations, poll counts by status, and transient errors by probe kind.
package prometheus

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/probekit/vigil/observe"
	"github.com/probekit/vigil/policy"
	"github.com/probekit/vigil/probe"
)

const (
	outcomeSuccess = "success"
	outcomeTimeout = "timeout"
	outcomeFatal   = "fatal"
)

// Observer implements observe.Observer on top of a Prometheus registry.
// Labels are low-cardinality by construction: condition descriptions are
// deliberately not a label.
type Observer struct {
	waitsStarted    prom.Counter
	waits           *prom.CounterVec
	waitDuration    *prom.HistogramVec
	polls           *prom.CounterVec
	pollsPerWait    prom.Histogram
	transientErrors *prom.CounterVec
}

// NewObserver creates an Observer and registers its collectors with reg.
func NewObserver(reg prom.Registerer) (*Observer, error) {
	o := &Observer{
		waitsStarted: prom.NewCounter(prom.CounterOpts{
			Name: "vigil_waits_started_total",
			Help: "Waits started.",
		}),
		waits: prom.NewCounterVec(prom.CounterOpts{
			Name: "vigil_waits_total",
			Help: "Waits completed, by outcome.",
		}, []string{"outcome"}),
		waitDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "vigil_wait_duration_seconds",
			Help:    "Wall-clock duration of completed waits.",
			Buckets: prom.ExponentialBuckets(0.01, 2, 12),
		}, []string{"outcome"}),
		polls: prom.NewCounterVec(prom.CounterOpts{
			Name: "vigil_polls_total",
			Help: "Condition evaluations, by result status.",
		}, []string{"status"}),
		pollsPerWait: prom.NewHistogram(prom.HistogramOpts{
			Name:    "vigil_polls_per_wait",
			Help:    "Number of polls a completed wait needed.",
			Buckets: prom.ExponentialBuckets(1, 2, 10),
		}),
		transientErrors: prom.NewCounterVec(prom.CounterOpts{
			Name: "vigil_transient_errors_total",
			Help: "Transient probe errors ridden out, by kind.",
		}, []string{"kind"}),
	}

	collectors := []prom.Collector{
		o.waitsStarted, o.waits, o.waitDuration, o.polls, o.pollsPerWait, o.transientErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) OnStart(_ context.Context, _ string, _ policy.WaitPolicy) {
	o.waitsStarted.Inc()
}

func (o *Observer) OnPoll(_ context.Context, _ string, rec observe.PollRecord) {
	o.polls.WithLabelValues(rec.Status.String()).Inc()
	if rec.Status == observe.PollTransientError {
		kind := "unclassified"
		if k, ok := probe.KindOf(rec.Err); ok {
			kind = string(k)
		}
		o.transientErrors.WithLabelValues(kind).Inc()
	}
}

func (o *Observer) OnSuccess(_ context.Context, _ string, tl observe.Timeline) {
	o.complete(outcomeSuccess, tl)
}

func (o *Observer) OnTimeout(_ context.Context, _ string, tl observe.Timeline) {
	o.complete(outcomeTimeout, tl)
}

func (o *Observer) OnFailure(_ context.Context, _ string, tl observe.Timeline) {
	o.complete(outcomeFatal, tl)
}

func (o *Observer) complete(outcome string, tl observe.Timeline) {
	o.waits.WithLabelValues(outcome).Inc()
	o.waitDuration.WithLabelValues(outcome).Observe(tl.Elapsed().Seconds())
	o.pollsPerWait.Observe(float64(len(tl.Polls)))
}
