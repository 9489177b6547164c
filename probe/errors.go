package probe

import (
	"errors"
	"fmt"
)

// ErrorKind names a class of probe failure. Kinds are the unit of the wait
// policy's ignore set: a policy that ignores KindNotFound treats any
// not-found error as transient regardless of which condition raised it.
type ErrorKind string

const (
	// KindNotFound: no node matched the locator at query time.
	KindNotFound ErrorKind = "not_found"

	// KindDetached: the node existed at query time but the underlying state
	// changed before the accessor ran.
	KindDetached ErrorKind = "detached"

	// KindNotEnabled: the node exists and is visible but does not accept
	// interaction yet.
	KindNotEnabled ErrorKind = "not_enabled"

	// KindSessionClosed: the remote session is gone. Never transient.
	KindSessionClosed ErrorKind = "session_closed"
)

// Error is a probe failure tagged with a kind and the locator involved.
type Error struct {
	Kind    ErrorKind
	Locator Locator
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe: %s at %q: %v", e.Kind, string(e.Locator), e.Err)
	}
	return fmt.Sprintf("probe: %s at %q", e.Kind, string(e.Locator))
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports that no node matched loc.
func NotFound(loc Locator) error {
	return &Error{Kind: KindNotFound, Locator: loc}
}

// Detached reports that a node handle for loc no longer refers to live state.
func Detached(loc Locator) error {
	return &Error{Kind: KindDetached, Locator: loc}
}

// NotEnabled reports that the node at loc does not accept interaction yet.
func NotEnabled(loc Locator) error {
	return &Error{Kind: KindNotEnabled, Locator: loc}
}

// SessionClosed wraps cause as an irrecoverable session failure.
func SessionClosed(cause error) error {
	return &Error{Kind: KindSessionClosed, Err: cause}
}

// KindOf extracts the ErrorKind from err, unwrapping as needed.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
