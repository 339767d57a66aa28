package sei

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrSessionNotInitialized is returned by any operation invoked before Init,
// or after Close.
var ErrSessionNotInitialized = errors.New("sei: session not initialized (call Init first)")

// ElementNotFoundError is returned when neither the semantic (role + name)
// path nor the fallback selector of a locator could be resolved on the
// current screen.
type ElementNotFoundError struct {
	// Role is the ARIA role that was requested (empty when the locator had
	// no semantic path).
	Role string

	// Name is the accessible-name pattern that was requested.
	Name string

	// Fallback is the structural selector that was tried after the semantic
	// path failed (empty when none was supplied).
	Fallback string

	// Err is the underlying engine error from the last resolution attempt.
	Err error
}

func (e *ElementNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("sei: element not found")
	if e.Role != "" {
		fmt.Fprintf(&b, " (role=%s", e.Role)
		if e.Name != "" {
			fmt.Fprintf(&b, ", name=%q", e.Name)
		}
		b.WriteString(")")
	} else if e.Name != "" {
		fmt.Fprintf(&b, " (name=%q)", e.Name)
	}
	if e.Fallback != "" {
		fmt.Fprintf(&b, ", fallback %q also failed", e.Fallback)
	}
	return b.String()
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// ActionTimeoutError is returned when an explicit wait bound was exceeded.
// Timed-out mutating actions are recoverable: the caller may retry.
type ActionTimeoutError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *ActionTimeoutError) Error() string {
	return fmt.Sprintf("sei: %s timed out after %s", e.Op, e.Timeout)
}

func (e *ActionTimeoutError) Unwrap() error { return e.Err }

// RemoteOperationFailedError is returned when the portal surfaced its own
// error banner after a submit. The portal's message is carried verbatim.
type RemoteOperationFailedError struct {
	Op      string
	Message string
}

func (e *RemoteOperationFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sei: portal rejected %s", e.Op)
	}
	return fmt.Sprintf("sei: portal rejected %s: %s", e.Op, e.Message)
}

// isTimeout reports whether err came from an exceeded wait bound anywhere in
// its chain. The engine exposes a sentinel for this, but connection-level
// timeouts occasionally surface as plain errors, so messages are checked too.
func isTimeout(err error) bool {
	if errors.Is(err, playwright.ErrTimeout) {
		return true
	}
	for ; err != nil; err = errors.Unwrap(err) {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return true
		}
	}
	return false
}
