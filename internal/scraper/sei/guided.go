package sei

import (
	"fmt"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"go.uber.org/zap"
)

// Selection is the outcome of guided selection: the chosen row plus the
// listing URL it was collected from, which replay needs to reload.
type Selection struct {
	Row        ListingRow
	ListingURL string
}

// GuidedSelector matches the collected listing against prioritized search
// targets and re-acquires the chosen row after the listing reloads.
type GuidedSelector struct {
	driver    browser.Driver
	collector *Collector
	log       *zap.Logger
}

// NewGuidedSelector builds a selector over an existing collector.
func NewGuidedSelector(d browser.Driver, collector *Collector, log *zap.Logger) *GuidedSelector {
	return &GuidedSelector{driver: d, collector: collector, log: log}
}

// SelectBySearchTargets collects all pages and picks the first row, in
// collection order, matching the highest-priority target. Targets are
// normalized before comparison. A nil selection with nil error means
// nothing matched (or no targets were configured) - an expected outcome,
// not a fault.
func (g *GuidedSelector) SelectBySearchTargets(targets []string, mode MatchMode, maxPages int) (*Selection, error) {
	if len(targets) == 0 {
		g.log.Info("no search targets configured, nothing to select")
		return nil, nil
	}

	listingURL, err := g.driver.URL()
	if err != nil {
		return nil, &OpError{Op: "guided selection", Cause: err, Details: "reading listing url"}
	}

	rows, err := g.collector.CollectAllPages(maxPages)
	if err != nil {
		return nil, err
	}

	for _, target := range targets {
		normalized := Normalize(target)
		if normalized == "" {
			continue
		}
		for _, row := range rows {
			if mode.Matches(row.NormalizedDescription, normalized) {
				g.log.Info("search target matched",
					zap.String("target", target),
					zap.String("number", row.Number),
					zap.Int("page", row.Page))
				return &Selection{Row: row, ListingURL: listingURL}, nil
			}
		}
	}

	g.log.Warn("no row matched any search target",
		zap.Int("targets", len(targets)),
		zap.Int("rows", len(rows)),
		zap.String("mode", mode.String()))
	return nil, nil
}

// ClickSelection re-acquires the selected row and clicks it. The element
// handle recorded at collection time is never reused: the listing URL is
// reloaded, pagination is advanced to the recorded page, the page is
// re-collected, and the row is matched by signature against the fresh
// rows. Each replay stage fails explicitly rather than clicking an
// unrelated row.
func (g *GuidedSelector) ClickSelection(selection *Selection) error {
	row := selection.Row

	if err := g.driver.Navigate(selection.ListingURL); err != nil {
		return &OpError{Op: "replay", Cause: err, Details: "reloading listing"}
	}
	if err := browser.WaitReady(g.driver, g.collector.timeout); err != nil {
		return &OpError{Op: "replay", Cause: err, Details: "waiting for listing reload"}
	}

	for step := 1; step < row.Page; step++ {
		advanced, err := g.collector.AdvancePage()
		if err != nil {
			return &OpError{Op: "replay", Cause: err,
				Details: fmt.Sprintf("advancing to page %d (step %d)", row.Page, step)}
		}
		if !advanced {
			return &OpError{Op: "replay", Cause: ErrReplayFailed,
				Details: fmt.Sprintf("next-page control stopped resolving at step %d of %d", step, row.Page-1)}
		}
	}

	fresh, err := g.collector.CollectCurrentPage(row.Page)
	if err != nil {
		return &OpError{Op: "replay", Cause: err,
			Details: fmt.Sprintf("re-collecting page %d", row.Page)}
	}

	want := row.Signature()
	for _, candidate := range fresh {
		if candidate.Signature() == want {
			if err := candidate.Element.Click(); err != nil {
				return &OpError{Op: "replay", Cause: err,
					Details: fmt.Sprintf("clicking row %s", row.Number)}
			}
			g.log.Info("selected row clicked",
				zap.String("number", row.Number), zap.Int("page", row.Page))
			return nil
		}
	}

	return &OpError{Op: "replay", Cause: ErrReplayFailed,
		Details: fmt.Sprintf("row %q / %q not found on page %d after reload",
			row.Number, row.NormalizedDescription, row.Page)}
}
