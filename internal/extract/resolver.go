package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Resolution is the single value chosen per field, plus a manual-review
// flag raised when candidates were missing or implausible. An empty field
// together with NeedsReview=false never happens: absence is always
// reported, never silently encoded as "".
type Resolution struct {
	TaxID     string `json:"tax_id"`
	LegalName string `json:"legal_name"`
	IssueDate string `json:"issue_date"`
	Amount    string `json:"amount"`
	Series    string `json:"series"`
	Number    string `json:"number"`

	NeedsReview bool     `json:"needs_review"`
	Reasons     []string `json:"reasons,omitempty"`
}

// Resolver chooses one value per field from extractor candidate lists.
// It is deterministic for identical input: candidates are considered in
// document order and XML-sourced candidates always win over text-derived
// ones, since XML mode structurally yields a single value per field.
type Resolver struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewResolver creates a resolver. now supplies the reference time for
// plausibility checks such as future-dated receipts; nil means the wall
// clock.
func NewResolver(logger *zap.Logger, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{logger: logger, now: now}
}

// Resolve picks one value per field, preferring xmlResult candidates over
// textResult ones. Either argument may be nil.
func (r *Resolver) Resolve(xmlResult, textResult *Result) *Resolution {
	res := &Resolution{}

	res.TaxID = r.pick("tax id", res, candidates(xmlResult, textResult, func(c *Result) []string { return c.TaxIDs }))
	res.LegalName = r.pick("legal name", res, candidates(xmlResult, textResult, func(c *Result) []string { return c.LegalNames }))
	res.IssueDate = r.pick("issue date", res, candidates(xmlResult, textResult, func(c *Result) []string { return c.IssueDates }))
	res.Amount = r.pick("amount", res, candidates(xmlResult, textResult, func(c *Result) []string { return c.Amounts }))
	res.Series = r.pick("series", res, candidates(xmlResult, textResult, func(c *Result) []string { return c.Series }))
	res.Number = r.pick("number", res, candidates(xmlResult, textResult, func(c *Result) []string { return c.Numbers }))

	r.checkPlausibility(res)

	if res.NeedsReview {
		r.logger.Info("receipt flagged for manual review", zap.Strings("reasons", res.Reasons))
	}
	return res
}

// candidates concatenates a field's XML candidates (first) and text
// candidates (after), so the preference order falls out of plain
// first-non-empty selection.
func candidates(xmlResult, textResult *Result, field func(*Result) []string) []string {
	var all []string
	if xmlResult != nil {
		all = append(all, field(xmlResult)...)
	}
	if textResult != nil {
		all = append(all, field(textResult)...)
	}
	return all
}

// pick returns the first non-empty candidate, or flags the field for
// review when none exists.
func (r *Resolver) pick(field string, res *Resolution, values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	res.flag(fmt.Sprintf("no candidate for %s", field))
	return ""
}

// checkPlausibility flags chosen values that cannot be right: unparseable
// or future issue dates and zero or unparseable amounts. The values are
// kept as chosen so a reviewer sees what was extracted.
func (r *Resolver) checkPlausibility(res *Resolution) {
	if res.IssueDate != "" {
		t, err := parseIssueDate(res.IssueDate)
		switch {
		case err != nil:
			res.flag(fmt.Sprintf("issue date %q is not a date", res.IssueDate))
		case t.After(r.now()):
			res.flag(fmt.Sprintf("issue date %s is in the future", res.IssueDate))
		}
	}

	if res.Amount != "" {
		amount, err := decimal.NewFromString(res.Amount)
		switch {
		case err != nil:
			res.flag(fmt.Sprintf("amount %q is not a number", res.Amount))
		case amount.IsZero():
			res.flag("amount is zero")
		}
	}
}

func (res *Resolution) flag(reason string) {
	res.NeedsReview = true
	res.Reasons = append(res.Reasons, reason)
}

// parseIssueDate accepts the text-mode dd/mm/yyyy and dd-mm-yyyy shapes
// and the ISO date UBL documents carry.
func parseIssueDate(s string) (time.Time, error) {
	for _, layout := range []string{"02/01/2006", "02-01-2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
