package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt represents a payment receipt or tax document (comprobante)
// attached to a report line during the rendición phase.
//
// ReportID and LineID are weak references: a receipt survives the report
// it was attached to. A zero value means the reference is unset.
// At most one receipt with Active=true may exist per (ReportID, LineID)
// pair; attaching a new one supersedes the previous ones.
type Receipt struct {
	ID          int64           `json:"id"`
	ReportID    int64           `json:"report_id,omitempty"`
	LineID      int64           `json:"line_id,omitempty"`
	DocType     string          `json:"doc_type"`
	Description string          `json:"description"`
	Series      string          `json:"series"`
	Number      string          `json:"number"`
	IssueDate   *time.Time      `json:"issue_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	IssuerTaxID string          `json:"issuer_tax_id"`
	IssuerName  string          `json:"issuer_name"`
	FilePath    string          `json:"file_path"`
	UploadedAt  time.Time       `json:"uploaded_at"`
	Validation  string          `json:"validation"`
	Notes       string          `json:"notes,omitempty"`
	Active      bool            `json:"active"`
	Read        bool            `json:"read"`
}
