package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodDriver implements Driver on top of a go-rod browser. The context
// cursor is the pair (page, ctx): page is the top document of the current
// window, ctx is either page itself or a frame page reached via EnterFrame.
type RodDriver struct {
	browser *rod.Browser
	page    *rod.Page
	ctx     *rod.Page

	// frameEls caches the elements backing the last Frames() listing so
	// that EnterFrame(index) resolves against what the caller saw.
	frameEls []*rod.Element

	opTimeout time.Duration
	closed    bool
}

// RodOption configures a RodDriver.
type RodOption func(*rodOptions)

type rodOptions struct {
	headless  bool
	opTimeout time.Duration
}

// WithHeadless controls whether the browser runs without a window. Manual
// login requires a visible window.
func WithHeadless(enabled bool) RodOption {
	return func(o *rodOptions) { o.headless = enabled }
}

// WithOpTimeout bounds individual protocol calls (not locator retry loops).
func WithOpTimeout(d time.Duration) RodOption {
	return func(o *rodOptions) { o.opTimeout = d }
}

// NewRodDriver launches a Chrome instance with stealth patches applied and
// returns a driver bound to a fresh page.
func NewRodDriver(opts ...RodOption) (*RodDriver, error) {
	o := rodOptions{headless: true, opTimeout: 20 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := launcher.New().Headless(o.headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open stealth page: %w", err)
	}

	return &RodDriver{
		browser:   b,
		page:      page,
		ctx:       page,
		opTimeout: o.opTimeout,
	}, nil
}

func (d *RodDriver) op(p *rod.Page) *rod.Page {
	return p.Timeout(d.opTimeout)
}

func (d *RodDriver) Navigate(url string) error {
	d.ctx = d.page
	d.frameEls = nil
	return d.op(d.page).Navigate(url)
}

func (d *RodDriver) Reload() error {
	d.ctx = d.page
	d.frameEls = nil
	return d.op(d.page).Reload()
}

func (d *RodDriver) Back() error {
	d.ctx = d.page
	d.frameEls = nil
	return d.op(d.page).NavigateBack()
}

func (d *RodDriver) Find(expr string) ([]Element, error) {
	var (
		els rod.Elements
		err error
	)
	if IsXPath(expr) {
		els, err = d.op(d.ctx).ElementsX(expr)
	} else {
		els, err = d.op(d.ctx).Elements(expr)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (d *RodDriver) Eval(js string) (string, error) {
	res, err := d.op(d.ctx).Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d *RodDriver) Frames() ([]FrameInfo, error) {
	// Legacy framesets and iframes both occur in this application.
	els, err := d.op(d.ctx).Elements("iframe, frame")
	if err != nil {
		return nil, err
	}
	d.frameEls = els
	infos := make([]FrameInfo, 0, len(els))
	for i, el := range els {
		infos = append(infos, FrameInfo{
			Index: i,
			ID:    attrOr(el, "id"),
			Name:  attrOr(el, "name"),
			Src:   attrOr(el, "src"),
		})
	}
	return infos, nil
}

func (d *RodDriver) EnterFrame(index int) error {
	if index < 0 || index >= len(d.frameEls) {
		return fmt.Errorf("frame index %d out of range (%d frames)", index, len(d.frameEls))
	}
	frame, err := d.frameEls[index].Frame()
	if err != nil {
		return fmt.Errorf("enter frame %d: %w", index, err)
	}
	d.ctx = frame
	return nil
}

func (d *RodDriver) EnterFrameByID(id string) error {
	return d.enterFrameBySelector(fmt.Sprintf(`iframe[id=%q], frame[id=%q]`, id, id))
}

func (d *RodDriver) EnterFrameByName(name string) error {
	return d.enterFrameBySelector(fmt.Sprintf(`iframe[name=%q], frame[name=%q]`, name, name))
}

func (d *RodDriver) enterFrameBySelector(sel string) error {
	el, err := d.op(d.ctx).Element(sel)
	if err != nil {
		return fmt.Errorf("frame element not found: %w", err)
	}
	frame, err := el.Frame()
	if err != nil {
		return fmt.Errorf("get frame context: %w", err)
	}
	d.ctx = frame
	return nil
}

func (d *RodDriver) DefaultContent() error {
	// The frame element cache survives so a Frames/EnterFrame pair can
	// bracket a restore, Selenium style.
	d.ctx = d.page
	return nil
}

func (d *RodDriver) WindowHandles() ([]string, error) {
	pages, err := d.browser.Pages()
	if err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(pages))
	for _, p := range pages {
		handles = append(handles, string(p.TargetID))
	}
	return handles, nil
}

func (d *RodDriver) CurrentWindow() (string, error) {
	return string(d.page.TargetID), nil
}

func (d *RodDriver) SwitchWindow(handle string) error {
	pages, err := d.browser.Pages()
	if err != nil {
		return err
	}
	for _, p := range pages {
		if string(p.TargetID) == handle {
			if _, err := p.Activate(); err != nil {
				return fmt.Errorf("activate window %s: %w", handle, err)
			}
			d.page = p
			d.ctx = p
			d.frameEls = nil
			return nil
		}
	}
	return fmt.Errorf("window %s not found", handle)
}

func (d *RodDriver) CloseWindow() error {
	return d.page.Close()
}

func (d *RodDriver) URL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (d *RodDriver) Title() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (d *RodDriver) PageSource() (string, error) {
	return d.op(d.ctx).HTML()
}

func (d *RodDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.browser.Close()
}

func attrOr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	t, err := e.el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(t), nil
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Find(expr string) ([]Element, error) {
	var (
		els rod.Elements
		err error
	)
	if IsXPath(expr) {
		els, err = e.el.ElementsX(expr)
	} else {
		els, err = e.el.Elements(expr)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}
