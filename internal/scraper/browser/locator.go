package browser

import (
	"fmt"
	"time"
)

// LocateError reports that a locator never matched within its budget. It
// carries the frame inventory seen during the final sweep so log output
// shows where the search actually looked.
type LocateError struct {
	Tag     string
	Expr    string
	Timeout time.Duration
	Frames  []FrameInfo
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("locate %s: no match for %q within %s (%d frames scanned)",
		e.Tag, e.Expr, e.Timeout, len(e.Frames))
}

// LocateOption adjusts a single Locate call.
type LocateOption func(*locateOptions)

type locateOptions struct {
	restoreContext bool
}

// RestoreContext switches the driver back to the default document after a
// match. Without it the context stays wherever the match was found, which
// is what call sites that keep working "as found" rely on (document
// collection inside the tree frame, for one).
func RestoreContext() LocateOption {
	return func(o *locateOptions) { o.restoreContext = true }
}

// Locate searches the default document and then every frame at the top
// nesting level for the expression, retrying with capped backoff until the
// deadline. Transient per-frame errors count as "no match in this frame";
// only deadline expiry fails the call.
func Locate(d Driver, expr, tag string, timeout time.Duration, opts ...LocateOption) ([]Element, error) {
	var o locateOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := WaitReady(d, timeout); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	backoff := 100 * time.Millisecond
	var lastInventory []FrameInfo

	for {
		els, inventory := sweep(d, expr, o.restoreContext)
		if len(inventory) > 0 {
			lastInventory = inventory
		}
		if len(els) > 0 {
			return els, nil
		}
		if time.Now().After(deadline) {
			return nil, &LocateError{Tag: tag, Expr: expr, Timeout: timeout, Frames: lastInventory}
		}
		time.Sleep(backoff)
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

// LocateClickable locates and returns the first visible match. Matches that
// exist but are not yet visible keep the retry loop going, since a control
// mid-render is not safely clickable.
func LocateClickable(d Driver, expr, tag string, timeout time.Duration, opts ...LocateOption) (Element, error) {
	var o locateOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := WaitReady(d, timeout); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	backoff := 100 * time.Millisecond
	var lastInventory []FrameInfo

	for {
		els, inventory := sweep(d, expr, o.restoreContext)
		if len(inventory) > 0 {
			lastInventory = inventory
		}
		for _, el := range els {
			visible, err := el.Visible()
			if err != nil {
				continue
			}
			if visible {
				return el, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, &LocateError{Tag: tag, Expr: expr, Timeout: timeout, Frames: lastInventory}
		}
		time.Sleep(backoff)
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

// sweep runs one two-phase search round: the default document first, then
// each frame at the current level, restoring the default document between
// frame attempts so nested-frame state never compounds. On a frame match
// the context is left inside that frame unless restoreContext is set.
func sweep(d Driver, expr string, restoreContext bool) ([]Element, []FrameInfo) {
	if err := d.DefaultContent(); err != nil {
		return nil, nil
	}

	if els, err := d.Find(expr); err == nil && len(els) > 0 {
		return els, nil
	}

	frames, err := d.Frames()
	if err != nil {
		return nil, nil
	}

	for _, frame := range frames {
		if err := d.EnterFrame(frame.Index); err != nil {
			// Frame detached mid-scan. Treat as no match here.
			_ = d.DefaultContent()
			continue
		}
		els, err := d.Find(expr)
		if err == nil && len(els) > 0 {
			if restoreContext {
				_ = d.DefaultContent()
			}
			return els, frames
		}
		_ = d.DefaultContent()
	}

	return nil, frames
}
