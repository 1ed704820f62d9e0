package sei

import (
	"fmt"
	"sort"
	"time"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"go.uber.org/zap"
)

// State tracks where the extraction session is in its flow.
type State int

const (
	StateInit State = iota
	StateAwaitingLogin
	StateMenuOpen
	StateListing
	StateNoSelection
	StateProcessLoop
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAwaitingLogin:
		return "awaiting-login"
	case StateMenuOpen:
		return "menu-open"
	case StateListing:
		return "listing"
	case StateNoSelection:
		return "no-selection"
	case StateProcessLoop:
		return "process-loop"
	case StateDone:
		return "done"
	default:
		return "error"
	}
}

// popupBudget bounds the best-effort popup dismissal; a popup that never
// shows up is success.
const popupBudget = 3 * time.Second

// SessionOptions carries everything the session needs from configuration.
type SessionOptions struct {
	BaseURL  string
	Username string
	Password string

	ManualLogin bool
	// LoginWait bounds the post-login confirmation loop (and the whole
	// manual-login wait when no interactive channel exists).
	LoginWait time.Duration
	// Timeout is the per-operation locate budget.
	Timeout time.Duration

	SearchTargets []string
	MatchMode     MatchMode

	MaxPages     int
	MaxProcesses int
	MaxCycles    int
}

// Session owns the browser for its lifetime and drives the whole flow:
// readiness, popup dismissal, menu navigation, guided selection, the
// per-process window loop, and the final deduplicated result.
type Session struct {
	driver browser.Driver
	sel    *Selectors
	opts   SessionOptions
	log    *zap.Logger

	guided   *GuidedSelector
	expander *TreeExpander

	// confirmLogin blocks until the operator signals that manual login is
	// done. Nil means no interactive channel; the bounded wait applies.
	confirmLogin func()

	state State
	found map[string]bool
}

// NewSession validates configuration eagerly and builds the session.
func NewSession(d browser.Driver, sel *Selectors, opts SessionOptions, log *zap.Logger) (*Session, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url", ErrConfigurationMissing)
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 20
	}
	if opts.MaxProcesses <= 0 {
		opts.MaxProcesses = 5
	}
	if opts.MaxCycles <= 0 {
		opts.MaxCycles = 10
	}

	collector := NewCollector(d, sel, opts.Timeout, log)
	return &Session{
		driver:   d,
		sel:      sel,
		opts:     opts,
		log:      log,
		guided:   NewGuidedSelector(d, collector, log),
		expander: NewTreeExpander(d, sel, log),
		state:    StateInit,
		found:    make(map[string]bool),
	}, nil
}

// SetLoginConfirmation installs an interactive confirmation channel for
// manual login (typically an ENTER prompt on a terminal).
func (s *Session) SetLoginConfirmation(fn func()) {
	s.confirmLogin = fn
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Run executes the full extraction flow and returns the sorted, unique
// document texts. Default frame context is restored on every exit path;
// the caller owns driver teardown.
func (s *Session) Run() (result []string, err error) {
	defer func() {
		_ = s.driver.DefaultContent()
		if err != nil {
			s.state = StateError
		}
	}()

	if err := s.openAndLogin(); err != nil {
		return nil, err
	}

	s.state = StateMenuOpen
	s.dismissPopup()
	if err := s.openInternalMenu(); err != nil {
		return nil, err
	}

	s.state = StateListing
	selection, err := s.guided.SelectBySearchTargets(s.opts.SearchTargets, s.opts.MatchMode, s.opts.MaxPages)
	if err != nil {
		return nil, err
	}
	if selection == nil {
		s.state = StateNoSelection
		s.log.Info("no selection made, finishing with empty result")
		return s.sortedResult(), nil
	}
	if err := s.guided.ClickSelection(selection); err != nil {
		return nil, err
	}

	s.state = StateProcessLoop
	s.runProcessLoop()

	// Best-effort return towards the listing; the result is already
	// accumulated.
	if err := s.driver.Back(); err != nil {
		s.log.Debug("navigate back failed", zap.Error(err))
	}

	s.state = StateDone
	result = s.sortedResult()
	s.log.Info("extraction finished", zap.Int("documents", len(result)))
	return result, nil
}

// openAndLogin opens the base URL and confirms authentication, either
// after the operator finishes a manual login or after the automated
// credential submission.
func (s *Session) openAndLogin() error {
	s.state = StateAwaitingLogin
	s.log.Info("opening portal", zap.String("url", s.opts.BaseURL))
	if err := s.driver.Navigate(s.opts.BaseURL); err != nil {
		return &OpError{Op: "open portal", Cause: err}
	}
	if err := browser.WaitReady(s.driver, s.opts.Timeout); err != nil {
		return &OpError{Op: "open portal", Cause: err}
	}

	if s.opts.ManualLogin {
		s.log.Info("waiting for manual login")
		if s.confirmLogin != nil {
			s.confirmLogin()
		}
	} else {
		s.automatedLogin()
	}

	return browser.ConfirmLogin(s.driver, s.sel.Home.BlockMenu, s.opts.LoginWait, s.log)
}

// automatedLogin types credentials and submits, when both the credentials
// and the login selectors are configured. Anything missing skips the
// attempt with an info log; manual login remains the fallback.
func (s *Session) automatedLogin() {
	if s.opts.Username == "" || s.opts.Password == "" {
		s.log.Info("no credentials configured, skipping automated login")
		return
	}
	login := s.sel.Login
	if login.Username == "" || login.Password == "" || login.Submit == "" {
		s.log.Info("login selectors not configured, skipping automated login")
		return
	}

	userEl, err := browser.LocateClickable(s.driver, login.Username, "login username", s.opts.Timeout)
	if err != nil {
		s.log.Warn("automated login: username field not found", zap.Error(err))
		return
	}
	if err := userEl.Input(s.opts.Username); err != nil {
		s.log.Warn("automated login: typing username failed", zap.Error(err))
		return
	}

	passEl, err := browser.LocateClickable(s.driver, login.Password, "login password", s.opts.Timeout)
	if err != nil {
		s.log.Warn("automated login: password field not found", zap.Error(err))
		return
	}
	if err := passEl.Input(s.opts.Password); err != nil {
		s.log.Warn("automated login: typing password failed", zap.Error(err))
		return
	}

	submitEl, err := browser.LocateClickable(s.driver, login.Submit, "login submit", s.opts.Timeout)
	if err != nil {
		s.log.Warn("automated login: submit button not found", zap.Error(err))
		return
	}
	if err := submitEl.Click(); err != nil {
		s.log.Warn("automated login: submit click failed", zap.Error(err))
		return
	}
	s.log.Info("automated login submitted")
}

// dismissPopup closes the optional announcement popup. Absence is success.
func (s *Session) dismissPopup() {
	expr := s.sel.Home.DismissPopup
	if expr == "" {
		return
	}
	el, err := browser.LocateClickable(s.driver, expr, "dismiss popup", popupBudget, browser.RestoreContext())
	if err != nil {
		return
	}
	if err := el.Click(); err == nil {
		s.log.Info("popup dismissed")
	}
	_ = s.driver.DefaultContent()
}

// openInternalMenu clicks the block menu then the internal-documents menu.
// Each click tries the configured locator first and a small list of
// text-based fallbacks after it; the first actionable candidate wins.
func (s *Session) openInternalMenu() error {
	blockCandidates := []string{
		s.sel.Home.BlockMenu,
		`//a[contains(normalize-space(.),'Bloco')]`,
		`//span[contains(normalize-space(.),'Bloco')]`,
	}
	if err := s.clickFirstCandidate(blockCandidates, "block menu"); err != nil {
		return err
	}

	internalCandidates := []string{
		s.sel.Home.InternalMenu,
		`//a[contains(normalize-space(.),'Interno')]`,
		`//span[contains(normalize-space(.),'Interno')]`,
	}
	return s.clickFirstCandidate(internalCandidates, "internal menu")
}

func (s *Session) clickFirstCandidate(candidates []string, tag string) error {
	var lastErr error
	for _, expr := range candidates {
		if expr == "" {
			continue
		}
		el, err := browser.LocateClickable(s.driver, expr, tag, s.opts.Timeout, browser.RestoreContext())
		if err != nil {
			lastErr = err
			continue
		}
		if err := el.Click(); err != nil {
			lastErr = err
			continue
		}
		_ = s.driver.DefaultContent()
		return browser.WaitReady(s.driver, s.opts.Timeout)
	}
	return &OpError{Op: "click " + tag, Cause: lastErr, Details: "no candidate locator was actionable"}
}

// runProcessLoop opens each process of the selected row in its own window,
// expands the document tree and collects the leaves. One misbehaving
// process is logged and skipped; the loop moves to the next entry.
func (s *Session) runProcessLoop() {
	for i := 0; i < s.opts.MaxProcesses; i++ {
		done, err := s.visitProcess(i)
		if err != nil {
			s.log.Warn("process iteration failed, continuing",
				zap.Int("index", i), zap.Error(err))
		}
		if done {
			return
		}
	}
	s.log.Debug("process loop hit cap", zap.Int("max_processes", s.opts.MaxProcesses))
}

// visitProcess opens the i-th process entry in a new window and harvests
// its documents. Process entries are re-located on every iteration since
// window switches invalidate prior handles. Returns done=true when no
// entry exists at the index.
func (s *Session) visitProcess(index int) (done bool, err error) {
	entries, err := browser.Locate(s.driver, s.sel.Internal.Process, "process entries", s.opts.Timeout, browser.RestoreContext())
	if err != nil {
		return true, err
	}
	if index >= len(entries) {
		return true, nil
	}

	before, err := s.driver.WindowHandles()
	if err != nil {
		return false, err
	}
	prior, err := s.driver.CurrentWindow()
	if err != nil {
		return false, err
	}

	if err := entries[index].Click(); err != nil {
		return false, err
	}

	newWindow, err := s.waitNewWindow(before)
	if err != nil {
		return false, err
	}

	// From here on the prior window's focus must be restored no matter
	// what happens inside the process window.
	defer func() {
		if switchErr := s.driver.SwitchWindow(prior); switchErr != nil {
			s.log.Warn("restoring prior window failed", zap.Error(switchErr))
		}
	}()

	if err := s.driver.SwitchWindow(newWindow); err != nil {
		return false, err
	}
	if err := browser.WaitReady(s.driver, s.opts.Timeout); err != nil {
		s.log.Debug("process window never settled", zap.Error(err))
	}

	s.expander.ExpandAllFolders(s.opts.MaxCycles)
	s.collectDocuments()

	if err := s.driver.CloseWindow(); err != nil {
		s.log.Warn("closing process window failed", zap.Error(err))
	}
	return false, nil
}

// waitNewWindow polls the window-handle set until it grows, returning the
// handle that appeared.
func (s *Session) waitNewWindow(before []string) (string, error) {
	known := make(map[string]bool, len(before))
	for _, h := range before {
		known[h] = true
	}

	deadline := time.Now().Add(s.opts.Timeout)
	for {
		handles, err := s.driver.WindowHandles()
		if err == nil {
			for _, h := range handles {
				if !known[h] {
					return h, nil
				}
			}
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: no new window within %s", ErrNavigationIdentityLost, s.opts.Timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// collectDocuments reads the document leaves of the current process
// window, wherever the locator finds them, and folds the normalized texts
// into the result set. Each newly seen value is logged once.
func (s *Session) collectDocuments() {
	defer func() { _ = s.driver.DefaultContent() }()

	// Collection happens "as found": the matching frame stays current so
	// the handles read below remain inside it.
	els, err := browser.Locate(s.driver, s.sel.Internal.Documents, "process documents", s.opts.Timeout)
	if err != nil {
		s.log.Debug("no documents found in process window", zap.Error(err))
		return
	}

	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		normalized := Normalize(text)
		if normalized == "" {
			continue
		}
		if !s.found[normalized] {
			s.log.Info("document found", zap.String("text", normalized))
			s.found[normalized] = true
		}
	}
}

// sortedResult emits the accumulated set alphabetically.
func (s *Session) sortedResult() []string {
	out := make([]string, 0, len(s.found))
	for text := range s.found {
		out = append(out, text)
	}
	sort.Strings(out)
	return out
}
