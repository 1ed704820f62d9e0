package sei

import (
	"errors"
	"strings"
	"time"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"go.uber.org/zap"
)

// fallbackRowExpr finds any table row with data cells when no dedicated
// row locator is configured.
const fallbackRowExpr = `//tr[td]`

// fallbackNextPageExprs are tried, in order, after the configured next-page
// locator. The portal mixes Portuguese and English pagination controls
// across screens.
var fallbackNextPageExprs = []string{
	`//a[contains(@title,'Próxima')]`,
	`//a[contains(@title,'proxima')]`,
	`//*[contains(@aria-label,'Próxima')]`,
	`//*[contains(@aria-label,'next')]`,
	`//a[contains(@title,'Next')]`,
}

// descriptionBlacklist filters generic status cells out of the description
// heuristic. Values are compared in normalized form.
var descriptionBlacklist = map[string]bool{
	"GERADO":    true,
	"RECEBIDO":  true,
	"CONCLUIDO": true,
}

// minDescriptionLen drops boilerplate and icon-only cells.
const minDescriptionLen = 4

// nextPageProbe bounds how long each next-page candidate is searched for.
const nextPageProbe = 2 * time.Second

// Collector walks the paginated block listing and accumulates rows,
// deduplicated by signature, in page-ascending then row-ascending order.
type Collector struct {
	driver  browser.Driver
	sel     *Selectors
	log     *zap.Logger
	timeout time.Duration
	// probe bounds the search for each next-page candidate.
	probe time.Duration
}

// NewCollector builds a collector over the given driver and locator table.
func NewCollector(d browser.Driver, sel *Selectors, timeout time.Duration, log *zap.Logger) *Collector {
	return &Collector{driver: d, sel: sel, log: log, timeout: timeout, probe: nextPageProbe}
}

// CollectAllPages reads rows page by page until no next-page control is
// actionable or maxPages is reached. Duplicate (number, description)
// signatures across pages are dropped, first occurrence wins.
func (c *Collector) CollectAllPages(maxPages int) ([]ListingRow, error) {
	if maxPages < 1 {
		maxPages = 1
	}

	var out []ListingRow
	seen := make(map[RowSignature]bool)

	for page := 1; ; page++ {
		rows, err := c.CollectCurrentPage(page)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			sig := row.Signature()
			if seen[sig] {
				continue
			}
			seen[sig] = true
			out = append(out, row)
		}

		if page >= maxPages {
			// Warn only when the listing actually continues past the
			// ceiling; ending on exactly the last allowed page is not a
			// truncated sweep.
			if c.hasNextPage() {
				c.log.Warn("pagination stopped at page ceiling", zap.Int("max_pages", maxPages))
			}
			break
		}
		advanced, err := c.AdvancePage()
		if err != nil {
			return nil, err
		}
		if !advanced {
			break
		}
	}

	c.log.Info("listing collected",
		zap.Int("rows", len(out)))
	return out, nil
}

// CollectCurrentPage reads the rows of the page currently on screen,
// without deduplication. Rows lacking a usable link and rows that go stale
// mid-inspection are skipped.
func (c *Collector) CollectCurrentPage(pageNum int) ([]ListingRow, error) {
	rowExpr := c.sel.Internal.TableRows
	if rowExpr == "" {
		rowExpr = fallbackRowExpr
	}

	rowEls, err := browser.Locate(c.driver, rowExpr, "listing rows", c.timeout)
	if err != nil {
		var locErr *browser.LocateError
		if errors.As(err, &locErr) {
			c.log.Warn("no listing rows found", zap.Int("page", pageNum), zap.String("expr", rowExpr))
			return nil, nil
		}
		return nil, err
	}

	rows := make([]ListingRow, 0, len(rowEls))
	for i, rowEl := range rowEls {
		row, ok := c.inspectRow(rowEl, pageNum, i)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// inspectRow extracts one row's identity. Any stale-element error skips
// just this row.
func (c *Collector) inspectRow(rowEl browser.Element, pageNum, index int) (ListingRow, bool) {
	links, err := rowEl.Find(c.sel.Internal.NumberLink)
	if err != nil || len(links) == 0 {
		return ListingRow{}, false
	}
	number := c.extractNumber(rowEl, links[0])
	if number == "" {
		return ListingRow{}, false
	}

	description := c.extractDescription(rowEl, number)

	return ListingRow{
		Number:                number,
		Description:           description,
		NormalizedDescription: Normalize(description),
		Element:               rowEl,
		Page:                  pageNum,
		RowIndex:              index,
	}, true
}

// extractNumber reads the row's identity number from the configured
// number cell when one is set, falling back to the link text. Some
// screens render the clickable link with an icon or a truncated label,
// which is why the cell takes precedence.
func (c *Collector) extractNumber(rowEl, link browser.Element) string {
	if expr := c.sel.Internal.RowNumber; expr != "" {
		if cells, err := rowEl.Find(expr); err == nil {
			for _, cell := range cells {
				t, err := cell.Text()
				if err != nil {
					continue
				}
				if n := Normalize(t); n != "" {
					return n
				}
			}
		}
	}
	t, err := link.Text()
	if err != nil {
		return ""
	}
	return Normalize(t)
}

// extractDescription tries the configured description cell first, then
// scans the row's visible cells for the first plausible description:
// non-empty, not the row number itself, not a generic status word, and at
// least minDescriptionLen normalized characters. Best-effort; a row with
// no acceptable cell keeps an empty description.
func (c *Collector) extractDescription(rowEl browser.Element, number string) string {
	if expr := c.sel.Internal.DescriptionCell; expr != "" {
		if cells, err := rowEl.Find(expr); err == nil {
			for _, cell := range cells {
				t, err := cell.Text()
				if err != nil {
					continue
				}
				if Normalize(t) != "" {
					return strings.TrimSpace(t)
				}
			}
		}
	}

	cells, err := rowEl.Find(`.//td`)
	if err != nil {
		return ""
	}
	for _, cell := range cells {
		visible, err := cell.Visible()
		if err != nil || !visible {
			continue
		}
		t, err := cell.Text()
		if err != nil {
			continue
		}
		normalized := Normalize(t)
		if normalized == "" || normalized == number {
			continue
		}
		if descriptionBlacklist[normalized] {
			continue
		}
		if len([]rune(normalized)) < minDescriptionLen {
			continue
		}
		return strings.TrimSpace(t)
	}
	return ""
}

// nextPageCandidates lists the pagination locators in trial order: the
// configured one first, then the fallbacks.
func (c *Collector) nextPageCandidates() []string {
	candidates := make([]string, 0, 1+len(fallbackNextPageExprs))
	if c.sel.Internal.NextPage != "" {
		candidates = append(candidates, c.sel.Internal.NextPage)
	}
	return append(candidates, fallbackNextPageExprs...)
}

// hasNextPage reports whether an actionable next-page control is on
// screen, without clicking anything.
func (c *Collector) hasNextPage() bool {
	for _, expr := range c.nextPageCandidates() {
		el, err := browser.LocateClickable(c.driver, expr, "next page", c.probe)
		if err != nil {
			continue
		}
		if !looksDisabled(el) {
			return true
		}
	}
	return false
}

// AdvancePage clicks the first actionable next-page control. It reports
// false, without error, when pagination is exhausted.
func (c *Collector) AdvancePage() (bool, error) {
	for _, expr := range c.nextPageCandidates() {
		el, err := browser.LocateClickable(c.driver, expr, "next page", c.probe)
		if err != nil {
			continue
		}
		if looksDisabled(el) {
			continue
		}
		if err := el.Click(); err != nil {
			c.log.Debug("next-page candidate failed to click", zap.String("expr", expr), zap.Error(err))
			continue
		}
		if err := browser.WaitReady(c.driver, c.timeout); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// looksDisabled checks the class and aria-disabled signals pagination
// widgets use for an inert control.
func looksDisabled(el browser.Element) bool {
	if class, err := el.Attribute("class"); err == nil {
		lower := strings.ToLower(class)
		if strings.Contains(lower, "disabled") || strings.Contains(lower, "inactive") {
			return true
		}
	}
	if aria, err := el.Attribute("aria-disabled"); err == nil && strings.EqualFold(aria, "true") {
		return true
	}
	return false
}
