package sei

import (
	"errors"
	"testing"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingURL = "http://sei/controlador.php?acao=bloco_interno_listar"

func testGuided(d *testutil.FakeDriver, sel *Selectors) *GuidedSelector {
	return NewGuidedSelector(d, testCollector(d, sel), testLogger())
}

func TestSelectBySearchTargets_NoTargetsIsNoSelection(t *testing.T) {
	d := testutil.NewFakeDriver(listingPage(listingURL))
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets(nil, MatchContains, 3)
	require.NoError(t, err)
	assert.Nil(t, selection)
	// Nothing to do means nothing was collected either.
	assert.Empty(t, d.Log)
}

func TestSelectBySearchTargets_PriorityBeatsCollectionOrder(t *testing.T) {
	// BETA appears first in collection order, but ALPHA is the
	// higher-priority target and must win.
	page := listingPage(listingURL,
		listingRowEl("1", "BETA X"),
		listingRowEl("2", "ALPHA Y"),
	)
	d := testutil.NewFakeDriver(page)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"ALPHA", "BETA"}, MatchContains, 1)
	require.NoError(t, err)
	require.NotNil(t, selection)
	assert.Equal(t, "2", selection.Row.Number)
	assert.Equal(t, listingURL, selection.ListingURL)
}

func TestSelectBySearchTargets_ExactMode(t *testing.T) {
	page := listingPage(listingURL,
		listingRowEl("1", "TARGET C EXTENDED"),
		listingRowEl("2", "TARGET C"),
	)
	d := testutil.NewFakeDriver(page)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"TARGET C"}, MatchExact, 1)
	require.NoError(t, err)
	require.NotNil(t, selection)
	assert.Equal(t, "2", selection.Row.Number)
}

func TestSelectBySearchTargets_NoMatchIsNilNotError(t *testing.T) {
	page := listingPage(listingURL, listingRowEl("1", "OBJECT A"))
	d := testutil.NewFakeDriver(page)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"MISSING"}, MatchContains, 1)
	require.NoError(t, err)
	assert.Nil(t, selection)
}

// twoPageListing wires page1 -> page2 via the next control and makes the
// listing URL re-navigable for replay. Returns the driver, the next-page
// control and the page-2 target row.
func twoPageListing(t *testing.T) (*testutil.FakeDriver, *testutil.FakeElement, *testutil.FakeElement) {
	t.Helper()

	target := listingRowEl("200", "TARGET C")
	page2 := listingPage(listingURL+"&p=2", target)

	page1 := listingPage(listingURL,
		listingRowEl("100", "OBJECT A"),
		listingRowEl("101", "OBJECT B"),
	)
	d := testutil.NewFakeDriver(page1)
	next := &testutil.FakeElement{OnClick: func() error {
		d.ShowPage(page2)
		return nil
	}}
	page1.Set(testNextExpr, next)

	d.NavigateFn = func(url string) *testutil.FakePage {
		if url == listingURL {
			return page1
		}
		t.Fatalf("unexpected navigation to %s", url)
		return nil
	}
	return d, next, target
}

func TestReplay_AdvancesExactlyToRecordedPage(t *testing.T) {
	d, next, target := twoPageListing(t)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"TARGET"}, MatchContains, 5)
	require.NoError(t, err)
	require.NotNil(t, selection)
	assert.Equal(t, 2, selection.Row.Page)

	advancesDuringCollection := next.Clicks

	require.NoError(t, g.ClickSelection(selection))

	// Page 2 selection: exactly one advance during replay.
	assert.Equal(t, advancesDuringCollection+1, next.Clicks)
	assert.Equal(t, 1, target.Clicks, "the fresh matching row is clicked")
	assert.Contains(t, d.Log, "navigate:"+listingURL)
}

func TestReplay_FailsWhenSignatureGone(t *testing.T) {
	d, _, target := twoPageListing(t)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"TARGET"}, MatchContains, 5)
	require.NoError(t, err)
	require.NotNil(t, selection)

	// The row changes identity between collection and replay.
	target.Children[defaultNumberLink][0].TextValue = "999"

	err = g.ClickSelection(selection)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReplayFailed))
	assert.Zero(t, target.Clicks, "no unrelated row may be clicked")
}

func TestReplay_FailsWhenAdvanceStopsResolving(t *testing.T) {
	d, next, _ := twoPageListing(t)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"TARGET"}, MatchContains, 5)
	require.NoError(t, err)
	require.NotNil(t, selection)

	// The pagination control disappears before replay.
	next.Stale = true

	err = g.ClickSelection(selection)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReplayFailed))

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Contains(t, opErr.Details, "next-page control")
}

func TestEndToEnd_TwoPageGuidedSelection(t *testing.T) {
	// spec scenario: page1 rows (100, OBJECT A), (101, OBJECT B);
	// page2 row (200, TARGET C); target "TARGET", mode contains.
	d, next, target := twoPageListing(t)
	g := testGuided(d, testSelectors())

	selection, err := g.SelectBySearchTargets([]string{"TARGET"}, MatchContains, 10)
	require.NoError(t, err)
	require.NotNil(t, selection)

	assert.Equal(t, "200", selection.Row.Number)
	assert.Equal(t, "TARGET C", selection.Row.NormalizedDescription)
	assert.Equal(t, 2, selection.Row.Page)

	before := next.Clicks
	require.NoError(t, g.ClickSelection(selection))
	assert.Equal(t, 1, next.Clicks-before, "replay issues exactly one advance")
	assert.Equal(t, 1, target.Clicks)
}
