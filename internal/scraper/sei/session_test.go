package sei

import (
	"errors"
	"testing"
	"time"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://sei/sip/login.php"

// portalFixture wires a minimal but complete portal: a home page with the
// menus, a listing with one matching row, and process entries that open
// process windows with a document tree.
type portalFixture struct {
	driver      *testutil.FakeDriver
	home        *testutil.FakePage
	listing     *testutil.FakePage
	processPage *testutil.FakePage
	sel         *Selectors
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	sel := testSelectors()

	f := &portalFixture{sel: sel}

	start := &testutil.FakePage{PageURL: "about:blank"}
	f.driver = testutil.NewFakeDriver(start)

	// Page shown after clicking the selected row: it lists the processes.
	f.processPage = &testutil.FakePage{PageURL: listingURL + "&acao=rel"}

	row := listingRowEl("100", "TARGET C")
	row.OnClick = func() error {
		f.driver.ShowPage(f.processPage)
		return nil
	}
	f.listing = listingPage(listingURL, row)

	f.home = &testutil.FakePage{PageURL: baseURL + "?home"}
	f.home.Set(sel.Home.BlockMenu, &testutil.FakeElement{OnClick: func() error { return nil }})
	f.home.Set(sel.Home.InternalMenu, &testutil.FakeElement{OnClick: func() error {
		f.driver.ShowPage(f.listing)
		return nil
	}})

	f.driver.NavigateFn = func(url string) *testutil.FakePage {
		switch url {
		case baseURL:
			return f.home
		case listingURL:
			return f.listing
		}
		t.Fatalf("unexpected navigation to %s", url)
		return nil
	}
	return f
}

// addProcess registers one process entry that opens a new window whose
// tree frame carries the given document leaves.
func (f *portalFixture) addProcess(leaves ...string) {
	tree := &testutil.FakePage{Els: map[string][]*testutil.FakeElement{}}
	for _, leaf := range leaves {
		tree.Els[f.sel.Internal.Documents] = append(tree.Els[f.sel.Internal.Documents],
			&testutil.FakeElement{TextValue: leaf})
	}
	window := &testutil.FakePage{
		PageURL: "http://sei/processo",
		Frames:  []*testutil.FakeFrame{{ID: "ifrArvore", Name: "arvore", Page: tree}},
	}
	entry := &testutil.FakeElement{OnClick: func() error {
		f.driver.OpenWindow(window)
		return nil
	}}
	f.processPage.Els = appendEl(f.processPage.Els, testProcessExpr, entry)
}

func appendEl(m map[string][]*testutil.FakeElement, key string, el *testutil.FakeElement) map[string][]*testutil.FakeElement {
	if m == nil {
		m = map[string][]*testutil.FakeElement{}
	}
	m[key] = append(m[key], el)
	return m
}

// withLoginForm puts a credential form at the base URL; submitting it
// shows the home page.
func (f *portalFixture) withLoginForm() (user, pass, submit *testutil.FakeElement) {
	f.sel.Login = LoginSelectors{
		Username: `//input[@id='txtUsuario']`,
		Password: `//input[@id='pwdSenha']`,
		Submit:   `//button[@id='Acessar']`,
	}

	user = &testutil.FakeElement{}
	pass = &testutil.FakeElement{}
	submit = &testutil.FakeElement{OnClick: func() error {
		f.driver.ShowPage(f.home)
		return nil
	}}

	loginPage := &testutil.FakePage{PageURL: baseURL}
	loginPage.Set(f.sel.Login.Username, user)
	loginPage.Set(f.sel.Login.Password, pass)
	loginPage.Set(f.sel.Login.Submit, submit)

	prev := f.driver.NavigateFn
	f.driver.NavigateFn = func(url string) *testutil.FakePage {
		if url == baseURL {
			return loginPage
		}
		return prev(url)
	}
	return user, pass, submit
}

func testSessionOptions() SessionOptions {
	return SessionOptions{
		BaseURL:       baseURL,
		ManualLogin:   true,
		LoginWait:     5 * time.Second,
		Timeout:       500 * time.Millisecond,
		SearchTargets: []string{"TARGET"},
		MatchMode:     MatchContains,
		MaxPages:      1,
		MaxProcesses:  3,
		MaxCycles:     5,
	}
}

func newTestSession(t *testing.T, f *portalFixture, opts SessionOptions) *Session {
	t.Helper()
	s, err := NewSession(f.driver, f.sel, opts, testLogger())
	require.NoError(t, err)
	return s
}

func TestSession_FullFlow(t *testing.T) {
	f := newPortalFixture(t)
	f.addProcess("Despacho 12", "Ofício 7")
	f.addProcess("Ofício 7", "Parecer 3") // duplicate across processes

	s := newTestSession(t, f, testSessionOptions())

	docs, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"DESPACHO 12", "OFICIO 7", "PARECER 3"}, docs)
	assert.Equal(t, StateDone, s.State())

	handles, err := f.driver.WindowHandles()
	require.NoError(t, err)
	assert.Len(t, handles, 1, "every process window was closed")
	assert.True(t, f.driver.InDefaultContent())
}

func TestSession_NoTargetsEndsInNoSelection(t *testing.T) {
	f := newPortalFixture(t)
	opts := testSessionOptions()
	opts.SearchTargets = nil

	s := newTestSession(t, f, opts)

	docs, err := s.Run()
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, StateNoSelection, s.State())
}

func TestSession_NoMatchEndsInNoSelection(t *testing.T) {
	f := newPortalFixture(t)
	opts := testSessionOptions()
	opts.SearchTargets = []string{"NUNCA EXISTE"}

	s := newTestSession(t, f, opts)

	docs, err := s.Run()
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, StateNoSelection, s.State())
}

func TestSession_ProcessFailureDoesNotAbortLoop(t *testing.T) {
	f := newPortalFixture(t)

	// First entry never opens a window; the loop must still reach the
	// second entry.
	broken := &testutil.FakeElement{}
	f.processPage.Els = appendEl(f.processPage.Els, testProcessExpr, broken)
	f.addProcess("Despacho 12")

	s := newTestSession(t, f, testSessionOptions())

	docs, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"DESPACHO 12"}, docs)
	assert.Equal(t, 1, broken.Clicks)
}

func TestSession_AutomatedLoginSubmitsCredentials(t *testing.T) {
	f := newPortalFixture(t)
	user, pass, submit := f.withLoginForm()

	opts := testSessionOptions()
	opts.ManualLogin = false
	opts.Username = "maria"
	opts.Password = "s3cret"
	opts.SearchTargets = nil

	s := newTestSession(t, f, opts)

	_, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"maria"}, user.Typed)
	assert.Equal(t, []string{"s3cret"}, pass.Typed)
	assert.Equal(t, 1, submit.Clicks)
	assert.Equal(t, StateNoSelection, s.State())
}

func TestSession_AutomatedLoginSkipsWithoutCredentials(t *testing.T) {
	f := newPortalFixture(t)
	user, pass, submit := f.withLoginForm()

	opts := testSessionOptions()
	opts.ManualLogin = false
	s := newTestSession(t, f, opts)

	s.automatedLogin()

	assert.Empty(t, user.Typed)
	assert.Empty(t, pass.Typed)
	assert.Zero(t, submit.Clicks)
}

func TestSession_AutomatedLoginSkipsWithoutSelectors(t *testing.T) {
	f := newPortalFixture(t)
	user, pass, submit := f.withLoginForm()
	f.sel.Login = LoginSelectors{}

	opts := testSessionOptions()
	opts.ManualLogin = false
	opts.Username = "maria"
	opts.Password = "s3cret"
	s := newTestSession(t, f, opts)

	s.automatedLogin()

	assert.Empty(t, user.Typed)
	assert.Empty(t, pass.Typed)
	assert.Zero(t, submit.Clicks)
}

func TestSession_MissingBaseURLFailsFast(t *testing.T) {
	f := newPortalFixture(t)
	opts := testSessionOptions()
	opts.BaseURL = ""

	_, err := NewSession(f.driver, f.sel, opts, testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigurationMissing))
}

func TestSession_MissingRequiredSelectorFailsFast(t *testing.T) {
	f := newPortalFixture(t)
	f.sel.Home.InternalMenu = ""

	_, err := NewSession(f.driver, f.sel, testSessionOptions(), testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigurationMissing))
}

func TestSession_DismissesPopup(t *testing.T) {
	f := newPortalFixture(t)
	f.addProcess("Despacho 12")

	popup := &testutil.FakeElement{}
	f.sel.Home.DismissPopup = `//div[@id='popup']//img`
	f.home.Set(f.sel.Home.DismissPopup, popup)

	s := newTestSession(t, f, testSessionOptions())

	_, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, popup.Clicks)
}

func TestSession_MaxProcessesCapsTheLoop(t *testing.T) {
	f := newPortalFixture(t)
	for i := 0; i < 5; i++ {
		f.addProcess("Despacho 12")
	}

	opts := testSessionOptions()
	opts.MaxProcesses = 2
	s := newTestSession(t, f, opts)

	_, err := s.Run()
	require.NoError(t, err)

	total := 0
	for _, entry := range f.processPage.Els[testProcessExpr] {
		total += entry.Clicks
	}
	assert.Equal(t, 2, total)
}
