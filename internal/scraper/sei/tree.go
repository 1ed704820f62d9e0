package sei

import (
	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"go.uber.org/zap"
)

// TreeExpander opens every closed folder in a process window's document
// tree so all document leaves become visible. Best-effort: a process
// without the tree frame is simply left alone.
type TreeExpander struct {
	driver browser.Driver
	sel    *Selectors
	log    *zap.Logger
}

// NewTreeExpander builds an expander over the given driver and selectors.
func NewTreeExpander(d browser.Driver, sel *Selectors, log *zap.Logger) *TreeExpander {
	return &TreeExpander{driver: d, sel: sel, log: log}
}

// ExpandAllFolders clicks closed-folder icons in cycles until a cycle
// finds none, the visible leaf count stops changing across two cycles, or
// maxCycles is hit. Clicks re-resolve the live icon list by index so DOM
// mutation from earlier clicks in the same cycle cannot dereference a
// stale handle; an index that goes stale anyway is skipped.
func (t *TreeExpander) ExpandAllFolders(maxCycles int) {
	if maxCycles < 1 {
		maxCycles = 1
	}

	if !t.enterTreeFrame() {
		t.log.Debug("document tree frame not present, skipping expansion")
		return
	}
	defer func() { _ = t.driver.DefaultContent() }()

	prevStart := -1
	for cycle := 0; cycle < maxCycles; cycle++ {
		start := t.leafCount()

		icons, err := t.driver.Find(t.sel.Internal.ExpandIcon)
		if err != nil || len(icons) == 0 {
			t.log.Debug("tree fully expanded", zap.Int("cycles", cycle))
			return
		}

		clicked := 0
		for i := 0; i < len(icons); i++ {
			live, err := t.driver.Find(t.sel.Internal.ExpandIcon)
			if err != nil || i >= len(live) {
				break
			}
			if err := live[i].Click(); err != nil {
				continue
			}
			clicked++
		}

		end := t.leafCount()
		t.log.Debug("tree expansion cycle",
			zap.Int("cycle", cycle),
			zap.Int("clicked", clicked),
			zap.Int("leaves", end))

		if end == start && start == prevStart {
			// Two cycles without movement: converged.
			return
		}
		prevStart = start
	}
	t.log.Warn("tree expansion hit cycle ceiling", zap.Int("max_cycles", maxCycles))
}

// enterTreeFrame switches into the frame hosting the document tree,
// trying its id then its name as independent strategies.
func (t *TreeExpander) enterTreeFrame() bool {
	if err := t.driver.DefaultContent(); err != nil {
		return false
	}
	if err := t.driver.EnterFrameByID(t.sel.Internal.TreeFrameID); err == nil {
		return true
	}
	if err := t.driver.EnterFrameByName(t.sel.Internal.TreeFrameName); err == nil {
		return true
	}
	return false
}

// leafCount is the convergence proxy: how many document-node spans are
// currently rendered.
func (t *TreeExpander) leafCount() int {
	els, err := t.driver.Find(t.sel.Internal.Documents)
	if err != nil {
		return 0
	}
	return len(els)
}
