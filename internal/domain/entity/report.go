package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseReport represents a travel-expense claim header (viático).
// A report owns its line items; lines never outlive the report.
type ExpenseReport struct {
	ID             int64           `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	Description    string          `json:"description"`
	Locality       string          `json:"locality"`
	RequestedTotal decimal.Decimal `json:"requested_total"`
	StateID        int64           `json:"state_id"`
	Comments       string          `json:"comments"`
	CreatedAt      time.Time       `json:"created_at"`

	Lines []*ExpenseLine `json:"lines,omitempty"`
}

// ExpenseLine represents a single claimed expense within a report.
// DistanceKM is only meaningful for mileage-based expense types.
type ExpenseLine struct {
	ID              int64           `json:"id"`
	ReportID        int64           `json:"report_id"`
	ExpenseTypeID   int64           `json:"expense_type_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Days            int             `json:"days"`
	DistanceKM      float64         `json:"distance_km"`
	Observed        bool            `json:"observed"`
	Observation     string          `json:"observation,omitempty"`
	Approved        bool            `json:"approved"`
}
