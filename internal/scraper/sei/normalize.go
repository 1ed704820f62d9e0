package sei

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// mojibakeReplacer repairs the UTF-8-read-as-Latin-1 sequences the portal
// produces for Portuguese text. The table covers the letters and symbols
// that actually occur in its tables; anything it misses is neutralized by
// the accent strip that follows.
var mojibakeReplacer = strings.NewReplacer(
	"Ã¡", "á", "Ã ", "à", "Ã¢", "â", "Ã£", "ã",
	"Ã©", "é", "Ãª", "ê",
	"Ã­", "í",
	"Ã³", "ó", "Ã´", "ô", "Ãµ", "õ",
	"Ãº", "ú", "Ã¼", "ü",
	"Ã§", "ç",
	"Ã‰", "É", "Ã“", "Ó", "Ãš", "Ú", "Ã‡", "Ç",
	"Ã‚", "Â", "Ãƒ", "Ã",
	"Âº", "º", "Âª", "ª", "Â°", "°",
	"Â ", " ",
)

// Normalize turns raw captured text into the canonical form every
// comparison in this package uses: mojibake repaired, accents stripped,
// upper-cased, whitespace collapsed. Idempotent.
func Normalize(s string) string {
	s = mojibakeReplacer.Replace(s)
	s = strings.ReplaceAll(s, " ", " ")

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripper, s); err == nil {
		s = out
	}

	s = strings.ToUpper(s)
	return strings.Join(strings.Fields(s), " ")
}
