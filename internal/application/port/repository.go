package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

// ReportRepository defines persistence operations for ExpenseReport
// headers and their line items. Lookups return (nil, nil) when the row
// does not exist; errors always mean storage failure.
type ReportRepository interface {
	Create(ctx context.Context, report *entity.ExpenseReport) error
	GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error)
	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.ExpenseReport, error)
	UpdateHeader(ctx context.Context, report *entity.ExpenseReport) error
	UpdateState(ctx context.Context, id int64, stateID int64, comments string) error

	CreateLine(ctx context.Context, line *entity.ExpenseLine) error
	GetLineByID(ctx context.Context, id int64) (*entity.ExpenseLine, error)
	GetLines(ctx context.Context, reportID int64) ([]*entity.ExpenseLine, error)
	UpdateLine(ctx context.Context, line *entity.ExpenseLine) error
	DeleteLine(ctx context.Context, id int64) error
	SetLineObserved(ctx context.Context, id int64, observed bool, remark string) error
	SetLineApproved(ctx context.Context, id int64, approved bool) error

	// ClearObservations resets the observed flag and remark on every line
	// of the report, whether or not they were observed.
	ClearObservations(ctx context.Context, reportID int64) error

	// CountByStates counts reports in any of the given states created
	// inside [from, to], optionally filtered by employee. An empty state
	// list means any state.
	CountByStates(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (int64, error)

	// SumTotalsByStates sums requested totals of reports in any of the
	// given states created inside [from, to] for one employee. An empty
	// state list means any state.
	SumTotalsByStates(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (decimal.Decimal, error)
}

// ReceiptFilter narrows receipt counting for the dashboard.
type ReceiptFilter struct {
	// Validation restricts to one validation outcome; empty means any.
	Validation string
}

// ReceiptRepository defines persistence operations for Receipt.
// All queries are implicitly filtered to active receipts unless the
// method says otherwise.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, id int64) (*entity.Receipt, error)
	ListByReport(ctx context.Context, reportID int64) ([]*entity.Receipt, error)
	ListByLine(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error)
	GetBySeriesNumber(ctx context.Context, series, number string) (*entity.Receipt, error)
	ListByIssuer(ctx context.Context, taxID string) ([]*entity.Receipt, error)
	ListByIssueDateRange(ctx context.Context, from, to time.Time) ([]*entity.Receipt, error)

	// History returns every receipt ever attached to the pair, inactive
	// ones included, newest first.
	History(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error)

	UpdateFields(ctx context.Context, receipt *entity.Receipt) error
	UpdateValidation(ctx context.Context, id int64, outcome string) error
	Deactivate(ctx context.Context, id int64) error

	// DeactivatePair deactivates and invalidates every active receipt for
	// the (report, line) pair and returns how many were affected.
	DeactivatePair(ctx context.Context, reportID, lineID int64) (int64, error)

	// CountUploaded counts active receipts uploaded inside [from, to],
	// optionally narrowed by employee (through the owning report) and by
	// validation outcome.
	CountUploaded(ctx context.Context, employeeID string, from, to time.Time, filter ReceiptFilter) (int64, error)
}

// StateRepository reads the process-scoped workflow state catalog.
type StateRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.WorkflowState, error)
	ListByProcess(ctx context.Context, process string) ([]*entity.WorkflowState, error)
}

// NotificationRepository defines persistence operations for Notification.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByReceiver(ctx context.Context, receiverCode string, unreadOnly bool) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
}

// TransactionManager groups repository calls into one atomic unit. The
// transaction travels in the context; nested calls reuse it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
