// Package browser provides the automation capability the scraper drives:
// a minimal driver abstraction plus frame-aware element location utilities.
package browser

// Element is a live handle to a DOM node inside the driver's current
// context. Handles are only valid until the next full-page navigation
// (reload, back, window switch); after that they must be re-obtained.
type Element interface {
	// Text returns the rendered text of the node.
	Text() (string, error)
	// Click issues a single left click on the node.
	Click() error
	// Input types text into the node (form fields).
	Input(text string) error
	// Attribute returns the value of the named attribute, or "" when the
	// attribute is absent.
	Attribute(name string) (string, error)
	// Visible reports whether the node is rendered and visible.
	Visible() (bool, error)
	// Find runs a relative locator query scoped to this node.
	Find(expr string) ([]Element, error)
}

// FrameInfo describes one frame found at the current nesting level. It is
// used both for entering a frame by index and for diagnostics when a
// locator times out.
type FrameInfo struct {
	Index int
	ID    string
	Name  string
	Src   string
}

// Driver is the browser automation capability. Implementations hold a
// single mutable context cursor (current window + current frame); every
// frame- or window-changing call moves that cursor. Callers that enter a
// frame are responsible for restoring DefaultContent when done.
type Driver interface {
	Navigate(url string) error
	Reload() error
	Back() error

	// Find evaluates a locator expression (XPath or CSS) in the current
	// context and returns all matches without waiting.
	Find(expr string) ([]Element, error)
	// Eval runs a JavaScript expression in the current context and returns
	// its string value.
	Eval(js string) (string, error)

	// Frames lists the frames at the current nesting level.
	Frames() ([]FrameInfo, error)
	// EnterFrame moves the context cursor into the frame at the given
	// index of the most recent Frames() listing.
	EnterFrame(index int) error
	EnterFrameByID(id string) error
	EnterFrameByName(name string) error
	// DefaultContent restores the cursor to the top document of the
	// current window.
	DefaultContent() error

	WindowHandles() ([]string, error)
	CurrentWindow() (string, error)
	SwitchWindow(handle string) error
	// CloseWindow closes the current window; the caller must switch to a
	// surviving window afterwards.
	CloseWindow() error

	URL() (string, error)
	Title() (string, error)
	PageSource() (string, error)

	// Close tears the browser down. Safe to call more than once.
	Close() error
}

// IsXPath reports whether a locator expression should be evaluated as
// XPath rather than CSS. The selector tables for this application are
// XPath throughout; CSS is accepted for the handful of structural
// fallbacks.
func IsXPath(expr string) bool {
	if expr == "" {
		return false
	}
	switch expr[0] {
	case '/', '(', '.':
		return true
	}
	return false
}
