package sei

import (
	"strings"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"go.uber.org/zap"
)

// ListingRow is one entry of the paginated block listing at collection
// time. Element is only valid until the next full-page navigation; after
// that the row must be re-acquired through its Signature, never through
// the stale handle.
type ListingRow struct {
	Number                string
	Description           string
	NormalizedDescription string
	Element               browser.Element
	Page                  int
	RowIndex              int
}

// RowSignature is the durable, handle-independent identity of a row.
type RowSignature struct {
	Number                string
	NormalizedDescription string
}

// Signature returns the row's durable identity.
func (r ListingRow) Signature() RowSignature {
	return RowSignature{Number: r.Number, NormalizedDescription: r.NormalizedDescription}
}

// MatchMode governs how a row's normalized description is compared against
// a search target.
type MatchMode int

const (
	MatchContains MatchMode = iota
	MatchExact
)

func (m MatchMode) String() string {
	if m == MatchExact {
		return "exact"
	}
	return "contains"
}

// ParseMatchMode maps the configured string to a mode. Unknown values fail
// closed to contains with a warning.
func ParseMatchMode(s string, log *zap.Logger) MatchMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return MatchExact
	case "contains", "":
		return MatchContains
	default:
		log.Warn("unknown match mode, falling back to contains", zap.String("mode", s))
		return MatchContains
	}
}

// Matches reports whether a normalized description satisfies a normalized
// target under this mode.
func (m MatchMode) Matches(normalizedDescription, normalizedTarget string) bool {
	if m == MatchExact {
		return normalizedDescription == normalizedTarget
	}
	return strings.Contains(normalizedDescription, normalizedTarget)
}
