package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Field patterns for OCR text. Each field is scanned independently and
// every match is kept as a candidate; disambiguation happens later in the
// resolver.
var (
	// RUC: exactly 11 digits starting with a taxpayer-class prefix.
	// Deliberately unanchored so ids embedded in longer digit runs are
	// still reported; the scan below is overlap-tolerant.
	taxIDPattern = regexp.MustCompile(`(?:10|15|16|17|20)[0-9]{9}`)

	// dd/mm/yyyy or dd-mm-yyyy, no semantic validation.
	datePattern = regexp.MustCompile(`\b(?:[0-9]{2}/[0-9]{2}/[0-9]{4}|[0-9]{2}-[0-9]{2}-[0-9]{4})\b`)

	// Decimal tokens with 1-2 fraction digits. Digit adjacency is checked
	// separately since RE2 has no lookaround.
	amountPattern = regexp.MustCompile(`[0-9]+\.[0-9]{1,2}`)

	// Series: document-class letter (Factura/Boleta/Electrónico/Ticket)
	// plus a three-digit point-of-issue code.
	seriesPattern = regexp.MustCompile(`\b[FBET][0-9]{3}\b`)

	// Correlative: the numeric part after a series token. Tuned
	// independently of seriesPattern; the two are not required to agree
	// on token boundaries.
	numberPattern = regexp.MustCompile(`[FBET][0-9]{3}[ \t]*-[ \t]*([0-9]{1,8})`)

	// Legal-name heuristics, run in sequence and concatenated.
	upperClass       = `A-ZÁÉÍÓÚÑÜ`
	legalNamePattern = regexp.MustCompile(`[` + upperClass + `][` + upperClass + `0-9&.\- ]* ?(?:S\.A\.C\.|S\.A\.A\.|S\.R\.L\.|E\.I\.R\.L\.|S\.A\.)`)
	upperRunPattern  = regexp.MustCompile(`[` + upperClass + `][` + upperClass + ` ]{9,}`)
	broadRunPattern  = regexp.MustCompile(`[` + upperClass + `][` + upperClass + `0-9&.,\- ]{9,199}`)
)

// Extractor turns raw OCR text or electronic-invoice XML into candidate
// sets for the six receipt fields. It never fails: empty input yields an
// empty Result and malformed XML degrades to the text scan.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a field extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractText scans OCR output for field candidates. All matches are
// kept; there is no early exit and no cross-field consistency check.
func (e *Extractor) ExtractText(raw string) *Result {
	result := &Result{}
	if raw == "" {
		return result
	}

	result.TaxIDs = findOverlapping(taxIDPattern, raw)
	result.IssueDates = datePattern.FindAllString(raw, -1)
	result.Amounts = findAmounts(raw)
	result.Series = seriesPattern.FindAllString(raw, -1)

	for _, m := range numberPattern.FindAllStringSubmatch(raw, -1) {
		result.Numbers = append(result.Numbers, m[1])
	}

	var names []string
	names = append(names, legalNamePattern.FindAllString(raw, -1)...)
	names = append(names, upperRunPattern.FindAllString(raw, -1)...)
	names = append(names, broadRunPattern.FindAllString(raw, -1)...)
	result.LegalNames = cleanLegalNames(names)

	e.logger.Debug("text extraction finished",
		zap.Int("tax_ids", len(result.TaxIDs)),
		zap.Int("legal_names", len(result.LegalNames)),
		zap.Int("dates", len(result.IssueDates)),
		zap.Int("amounts", len(result.Amounts)))

	return result
}

// findOverlapping returns every match of re in s, re-scanning one byte
// past each match start so overlapping and adjacent occurrences are all
// reported.
func findOverlapping(re *regexp.Regexp, s string) []string {
	var out []string
	for i := 0; i < len(s); {
		loc := re.FindStringIndex(s[i:])
		if loc == nil {
			break
		}
		out = append(out, s[i+loc[0]:i+loc[1]])
		i += loc[0] + 1
	}
	return out
}

// findAmounts keeps decimal tokens that are not adjacent to other digits,
// so fragments of longer numbers are not reported as amounts.
func findAmounts(s string) []string {
	var out []string
	for _, loc := range amountPattern.FindAllStringIndex(s, -1) {
		if loc[0] > 0 && isDigit(s[loc[0]-1]) {
			continue
		}
		if loc[1] < len(s) && isDigit(s[loc[1]]) {
			continue
		}
		out = append(out, s[loc[0]:loc[1]])
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// cleanLegalNames trims candidates, drops page furniture, and
// deduplicates on exact string match preserving first-seen order.
func cleanLegalNames(names []string) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		if strings.Contains(name, "==") {
			continue
		}
		upper := strings.ToUpper(name)
		if strings.Contains(upper, "PAGINA") || strings.Contains(upper, "PÁGINA") {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
