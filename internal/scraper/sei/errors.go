// Package sei implements the assisted navigation and document-extraction
// flow for the SEI portal: guided row selection over the paginated block
// listing, process tabs, tree expansion and document collection.
package sei

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing marks a required setting or locator that is
	// absent. Fatal, never silently defaulted.
	ErrConfigurationMissing = errors.New("required configuration missing")

	// ErrNavigationIdentityLost means an expected new window or frame was
	// never observed within the timeout. Fatal for the current process
	// iteration only.
	ErrNavigationIdentityLost = errors.New("expected window or frame never appeared")

	// ErrReplayFailed means the previously selected row could not be
	// re-acquired after the listing reload.
	ErrReplayFailed = errors.New("replay of selected row failed")
)

// OpError gives an operation-scoped error its context.
type OpError struct {
	Op      string
	Cause   error
	Details string
}

func (e *OpError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v - %s", e.Op, e.Cause, e.Details)
}

func (e *OpError) Unwrap() error {
	return e.Cause
}
