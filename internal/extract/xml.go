package extract

import (
	"encoding/xml"
	"strings"

	"go.uber.org/zap"
)

// ublInvoice maps the subset of a UBL 2.1 electronic invoice the
// extractor cares about. Fields are matched by local name only, which
// makes the mapping tolerant of the document declaring its own default
// namespace instead of the standard cbc/cac ones.
type ublInvoice struct {
	XMLName   xml.Name `xml:"Invoice"`
	ID        string   `xml:"ID"`
	IssueDate string   `xml:"IssueDate"`

	Supplier struct {
		Party struct {
			Identification struct {
				ID string `xml:"ID"`
			} `xml:"PartyIdentification"`
			LegalEntity struct {
				RegistrationName string `xml:"RegistrationName"`
			} `xml:"PartyLegalEntity"`
		} `xml:"Party"`
	} `xml:"AccountingSupplierParty"`

	MonetaryTotal struct {
		PayableAmount      string `xml:"PayableAmount"`
		TaxInclusiveAmount string `xml:"TaxInclusiveAmount"`
	} `xml:"LegalMonetaryTotal"`
}

// ExtractXML parses a UBL electronic invoice and returns its fields as
// single-candidate lists. Input that does not parse as an Invoice
// document degrades to the text scan over the raw string, so the call
// never fails on malformed input.
func (e *Extractor) ExtractXML(content string) *Result {
	result := &Result{}
	if content == "" {
		return result
	}

	var inv ublInvoice
	if err := xml.Unmarshal([]byte(content), &inv); err != nil {
		e.logger.Debug("xml parse failed, falling back to text scan", zap.Error(err))
		return e.ExtractText(content)
	}

	// Document ID carries series and correlative joined by a single
	// hyphen. Any other shape yields no series/number candidate.
	if id := strings.TrimSpace(inv.ID); id != "" {
		parts := strings.Split(id, "-")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			result.Series = append(result.Series, parts[0])
			result.Numbers = append(result.Numbers, parts[1])
		}
	}

	if date := strings.TrimSpace(inv.IssueDate); date != "" {
		result.IssueDates = append(result.IssueDates, date)
	}
	if ruc := strings.TrimSpace(inv.Supplier.Party.Identification.ID); ruc != "" {
		result.TaxIDs = append(result.TaxIDs, ruc)
	}
	if name := strings.TrimSpace(inv.Supplier.Party.LegalEntity.RegistrationName); name != "" {
		result.LegalNames = append(result.LegalNames, name)
	}

	amount := strings.TrimSpace(inv.MonetaryTotal.PayableAmount)
	if amount == "" {
		amount = strings.TrimSpace(inv.MonetaryTotal.TaxInclusiveAmount)
	}
	if amount != "" {
		result.Amounts = append(result.Amounts, amount)
	}

	return result
}
