// Package testutil provides a scripted in-memory browser driver so the
// navigation engine can be tested without a real browser: pages, frames,
// windows and stale elements are all plain values wired up by each test.
package testutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
)

// ErrStaleElement mimics a handle whose node left the DOM.
var ErrStaleElement = errors.New("stale element reference")

// FakeElement is a scriptable browser.Element.
type FakeElement struct {
	TextValue string
	Attrs     map[string]string
	Hidden    bool
	Stale     bool

	// OnClick runs on every successful click; tests use it to swap pages,
	// open windows or mutate the DOM.
	OnClick func() error
	// Children maps relative locator expressions to child elements.
	Children map[string][]*FakeElement

	Clicks int
	Typed  []string
}

func (e *FakeElement) Text() (string, error) {
	if e.Stale {
		return "", ErrStaleElement
	}
	return e.TextValue, nil
}

func (e *FakeElement) Click() error {
	if e.Stale {
		return ErrStaleElement
	}
	e.Clicks++
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}

func (e *FakeElement) Input(text string) error {
	if e.Stale {
		return ErrStaleElement
	}
	e.Typed = append(e.Typed, text)
	return nil
}

func (e *FakeElement) Attribute(name string) (string, error) {
	if e.Stale {
		return "", ErrStaleElement
	}
	return e.Attrs[name], nil
}

func (e *FakeElement) Visible() (bool, error) {
	if e.Stale {
		return false, ErrStaleElement
	}
	return !e.Hidden, nil
}

func (e *FakeElement) Find(expr string) ([]browser.Element, error) {
	if e.Stale {
		return nil, ErrStaleElement
	}
	return wrap(e.Children[expr]), nil
}

// FakeFrame is one frame slot of a page.
type FakeFrame struct {
	ID       string
	Name     string
	Src      string
	Detached bool
	Page     *FakePage
}

// FakePage is one document: a top window document or a frame document.
type FakePage struct {
	PageURL   string
	PageTitle string
	Source    string
	// Loading keeps document.readyState away from "complete".
	Loading bool

	Els    map[string][]*FakeElement
	Frames []*FakeFrame
}

// Set registers elements for a locator expression.
func (p *FakePage) Set(expr string, els ...*FakeElement) {
	if p.Els == nil {
		p.Els = map[string][]*FakeElement{}
	}
	p.Els[expr] = els
}

type fakeWindow struct {
	handle string
	page   *FakePage
}

// FakeDriver implements browser.Driver over scripted pages.
type FakeDriver struct {
	windows []*fakeWindow
	current int
	ctx     *FakePage

	// NavigateFn maps a URL to the page shown after navigation. Without
	// it, Navigate just rewrites the current page's URL.
	NavigateFn func(url string) *FakePage
	ReloadFn   func() *FakePage
	BackFn     func() *FakePage

	// Log records navigation-level events in order.
	Log []string

	nextHandle int
	Closed     bool
}

// NewFakeDriver starts with a single window showing the given page.
func NewFakeDriver(start *FakePage) *FakeDriver {
	d := &FakeDriver{current: 0, ctx: start, nextHandle: 2}
	d.windows = []*fakeWindow{{handle: "w1", page: start}}
	return d
}

// OpenWindow adds a window without switching to it and returns its handle.
// Click closures use it to simulate target=_blank.
func (d *FakeDriver) OpenWindow(p *FakePage) string {
	handle := fmt.Sprintf("w%d", d.nextHandle)
	d.nextHandle++
	d.windows = append(d.windows, &fakeWindow{handle: handle, page: p})
	return handle
}

// ShowPage swaps the current window's document, as a same-window
// navigation would.
func (d *FakeDriver) ShowPage(p *FakePage) {
	if d.current >= 0 {
		d.windows[d.current].page = p
	}
	d.ctx = p
}

// CurrentPage exposes the current window's top document to assertions.
func (d *FakeDriver) CurrentPage() *FakePage {
	if d.current < 0 {
		return nil
	}
	return d.windows[d.current].page
}

// InDefaultContent reports whether the context cursor is at the top
// document of the current window.
func (d *FakeDriver) InDefaultContent() bool {
	return d.current >= 0 && d.ctx == d.windows[d.current].page
}

func (d *FakeDriver) Navigate(url string) error {
	d.Log = append(d.Log, "navigate:"+url)
	if d.NavigateFn != nil {
		d.ShowPage(d.NavigateFn(url))
		return nil
	}
	if p := d.CurrentPage(); p != nil {
		p.PageURL = url
		d.ctx = p
	}
	return nil
}

func (d *FakeDriver) Reload() error {
	d.Log = append(d.Log, "reload")
	if d.ReloadFn != nil {
		d.ShowPage(d.ReloadFn())
	} else {
		d.ctx = d.CurrentPage()
	}
	return nil
}

func (d *FakeDriver) Back() error {
	d.Log = append(d.Log, "back")
	if d.BackFn != nil {
		d.ShowPage(d.BackFn())
	}
	return nil
}

func (d *FakeDriver) Find(expr string) ([]browser.Element, error) {
	if d.ctx == nil {
		return nil, errors.New("no current context")
	}
	return wrap(d.ctx.Els[expr]), nil
}

func (d *FakeDriver) Eval(js string) (string, error) {
	if d.ctx == nil {
		return "", errors.New("no current context")
	}
	if strings.Contains(js, "readyState") {
		if d.ctx.Loading {
			return "loading", nil
		}
		return "complete", nil
	}
	return "", nil
}

func (d *FakeDriver) Frames() ([]browser.FrameInfo, error) {
	if d.ctx == nil {
		return nil, errors.New("no current context")
	}
	infos := make([]browser.FrameInfo, 0, len(d.ctx.Frames))
	for i, f := range d.ctx.Frames {
		infos = append(infos, browser.FrameInfo{Index: i, ID: f.ID, Name: f.Name, Src: f.Src})
	}
	return infos, nil
}

func (d *FakeDriver) EnterFrame(index int) error {
	if d.ctx == nil || index < 0 || index >= len(d.ctx.Frames) {
		return fmt.Errorf("frame index %d out of range", index)
	}
	f := d.ctx.Frames[index]
	if f.Detached {
		return errors.New("frame detached")
	}
	d.ctx = f.Page
	return nil
}

func (d *FakeDriver) EnterFrameByID(id string) error {
	return d.enterFrameBy(func(f *FakeFrame) bool { return f.ID == id })
}

func (d *FakeDriver) EnterFrameByName(name string) error {
	return d.enterFrameBy(func(f *FakeFrame) bool { return f.Name == name })
}

func (d *FakeDriver) enterFrameBy(match func(*FakeFrame) bool) error {
	if d.ctx == nil {
		return errors.New("no current context")
	}
	if f := findFrame(d.ctx, match); f != nil {
		if f.Detached {
			return errors.New("frame detached")
		}
		d.ctx = f.Page
		return nil
	}
	return errors.New("frame not found")
}

func findFrame(p *FakePage, match func(*FakeFrame) bool) *FakeFrame {
	for _, f := range p.Frames {
		if match(f) {
			return f
		}
		if f.Page != nil {
			if nested := findFrame(f.Page, match); nested != nil {
				return nested
			}
		}
	}
	return nil
}

func (d *FakeDriver) DefaultContent() error {
	if d.current < 0 {
		return errors.New("no current window")
	}
	d.ctx = d.windows[d.current].page
	return nil
}

func (d *FakeDriver) WindowHandles() ([]string, error) {
	handles := make([]string, 0, len(d.windows))
	for _, w := range d.windows {
		handles = append(handles, w.handle)
	}
	return handles, nil
}

func (d *FakeDriver) CurrentWindow() (string, error) {
	if d.current < 0 {
		return "", errors.New("no current window")
	}
	return d.windows[d.current].handle, nil
}

func (d *FakeDriver) SwitchWindow(handle string) error {
	for i, w := range d.windows {
		if w.handle == handle {
			d.current = i
			d.ctx = w.page
			return nil
		}
	}
	return fmt.Errorf("window %s not found", handle)
}

func (d *FakeDriver) CloseWindow() error {
	if d.current < 0 {
		return errors.New("no current window")
	}
	d.Log = append(d.Log, "close-window:"+d.windows[d.current].handle)
	d.windows = append(d.windows[:d.current], d.windows[d.current+1:]...)
	d.current = -1
	d.ctx = nil
	return nil
}

func (d *FakeDriver) URL() (string, error) {
	if p := d.CurrentPage(); p != nil {
		return p.PageURL, nil
	}
	return "", errors.New("no current window")
}

func (d *FakeDriver) Title() (string, error) {
	if p := d.CurrentPage(); p != nil {
		return p.PageTitle, nil
	}
	return "", errors.New("no current window")
}

func (d *FakeDriver) PageSource() (string, error) {
	if d.ctx == nil {
		return "", errors.New("no current context")
	}
	return d.ctx.Source, nil
}

func (d *FakeDriver) Close() error {
	d.Closed = true
	return nil
}

func wrap(els []*FakeElement) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}
