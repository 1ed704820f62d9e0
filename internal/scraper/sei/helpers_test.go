package sei

import (
	"time"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/testutil"
	"go.uber.org/zap"
)

const (
	testRowExpr     = `//table[@id='blocos']//tr`
	testNextExpr    = `//a[@id='proxima']`
	testProcessExpr = `//a[@class='processoVisualizado']`
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testSelectors() *Selectors {
	s := &Selectors{
		Home: HomeSelectors{
			BlockMenu:    `//a[@id='menu-bloco']`,
			InternalMenu: `//a[@id='menu-interno']`,
		},
		Internal: InternalSelectors{
			TableRows: testRowExpr,
			NextPage:  testNextExpr,
			Process:   testProcessExpr,
		},
	}
	s.applyDefaults()
	return s
}

func testCollector(d *testutil.FakeDriver, sel *Selectors) *Collector {
	c := NewCollector(d, sel, 500*time.Millisecond, testLogger())
	c.probe = 20 * time.Millisecond
	return c
}

// listingRowEl builds a listing row whose link text is the number and
// whose cells are the number followed by the description.
func listingRowEl(number, description string) *testutil.FakeElement {
	return &testutil.FakeElement{
		Children: map[string][]*testutil.FakeElement{
			defaultNumberLink: {{TextValue: number}},
			`.//td`: {
				{TextValue: number},
				{TextValue: description},
			},
		},
	}
}

func listingPage(url string, rows ...*testutil.FakeElement) *testutil.FakePage {
	p := &testutil.FakePage{PageURL: url}
	p.Set(testRowExpr, rows...)
	return p
}
