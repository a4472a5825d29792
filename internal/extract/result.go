package extract

// Result holds every plausible candidate found for each receipt field.
// Lists keep document order and are not deduplicated, except legal names.
// A Result is transient: the caller resolves it into a single value per
// field and discards it.
type Result struct {
	TaxIDs     []string `json:"tax_ids"`
	LegalNames []string `json:"legal_names"`
	IssueDates []string `json:"issue_dates"`
	Amounts    []string `json:"amounts"`
	Series     []string `json:"series"`
	Numbers    []string `json:"numbers"`
}

// Empty reports whether no candidates were found for any field.
func (r *Result) Empty() bool {
	return len(r.TaxIDs) == 0 &&
		len(r.LegalNames) == 0 &&
		len(r.IssueDates) == 0 &&
		len(r.Amounts) == 0 &&
		len(r.Series) == 0 &&
		len(r.Numbers) == 0
}
