package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

// Scope narrows a dashboard query. EmployeeID empty means all employees;
// StateIDs empty means the default pending subset.
type Scope struct {
	EmployeeID string
	From       time.Time
	To         time.Time
	StateIDs   []int64
}

// Summary is the scope-filtered rollup shown on the dashboard.
type Summary struct {
	PendingReports            int64 `json:"pending_reports"`
	ReceiptsUploaded          int64 `json:"receipts_uploaded"`
	ReceiptsValidated         int64 `json:"receipts_validated"`
	ReceiptsPendingValidation int64 `json:"receipts_pending_validation"`
}

// MonthlySummary is the per-employee rollup for the current calendar
// month.
type MonthlySummary struct {
	EmployeeID     string          `json:"employee_id"`
	MonthStart     time.Time       `json:"month_start"`
	RequestedTotal decimal.Decimal `json:"requested_total"`
	ApprovedTotal  decimal.Decimal `json:"approved_total"`
	CountsByState  map[int64]int64 `json:"counts_by_state"`
}

// defaultPendingStates is the state subset counted as "pending" when the
// caller does not narrow it.
var defaultPendingStates = []int64{entity.StateRequested, entity.StateOpen, entity.StateObserved}

// DashboardService computes read-only rollups over current report and
// receipt state. Every call recomputes from storage; nothing is
// incrementally maintained.
type DashboardService struct {
	reports  port.ReportRepository
	receipts port.ReceiptRepository
	clock    port.Clock
	logger   *zap.Logger
}

// NewDashboardService creates a dashboard aggregator.
func NewDashboardService(
	reports port.ReportRepository,
	receipts port.ReceiptRepository,
	clock port.Clock,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		reports:  reports,
		receipts: receipts,
		clock:    clock,
		logger:   logger,
	}
}

// Summarize computes the dashboard counts for the scope. An inverted
// date range is not an error: it is an empty scope and every count is
// zero.
func (s *DashboardService) Summarize(ctx context.Context, scope Scope) (*Summary, error) {
	summary := &Summary{}
	if scope.From.After(scope.To) {
		return summary, nil
	}

	stateIDs := scope.StateIDs
	if len(stateIDs) == 0 {
		stateIDs = defaultPendingStates
	}

	var err error
	summary.PendingReports, err = s.reports.CountByStates(ctx, scope.EmployeeID, scope.From, scope.To, stateIDs)
	if err != nil {
		return nil, wrapStorage("dashboard summary", err)
	}
	summary.ReceiptsUploaded, err = s.receipts.CountUploaded(ctx, scope.EmployeeID, scope.From, scope.To, port.ReceiptFilter{})
	if err != nil {
		return nil, wrapStorage("dashboard summary", err)
	}
	summary.ReceiptsValidated, err = s.receipts.CountUploaded(ctx, scope.EmployeeID, scope.From, scope.To,
		port.ReceiptFilter{Validation: entity.ValidationValid})
	if err != nil {
		return nil, wrapStorage("dashboard summary", err)
	}
	summary.ReceiptsPendingValidation, err = s.receipts.CountUploaded(ctx, scope.EmployeeID, scope.From, scope.To,
		port.ReceiptFilter{Validation: entity.ValidationPending})
	if err != nil {
		return nil, wrapStorage("dashboard summary", err)
	}

	return summary, nil
}

// EmployeeMonth computes one employee's totals and per-state counts for
// the current calendar month.
func (s *DashboardService) EmployeeMonth(ctx context.Context, employeeID string) (*MonthlySummary, error) {
	now := s.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	summary := &MonthlySummary{
		EmployeeID:    employeeID,
		MonthStart:    monthStart,
		CountsByState: make(map[int64]int64),
	}

	var err error
	summary.RequestedTotal, err = s.reports.SumTotalsByStates(ctx, employeeID, monthStart, monthEnd, nil)
	if err != nil {
		return nil, wrapStorage("employee month summary", err)
	}
	summary.ApprovedTotal, err = s.reports.SumTotalsByStates(ctx, employeeID, monthStart, monthEnd,
		[]int64{entity.StateApproved})
	if err != nil {
		return nil, wrapStorage("employee month summary", err)
	}

	for _, stateID := range []int64{entity.StateRequested, entity.StateOpen, entity.StateApproved, entity.StateObserved} {
		count, err := s.reports.CountByStates(ctx, employeeID, monthStart, monthEnd, []int64{stateID})
		if err != nil {
			return nil, wrapStorage("employee month summary", err)
		}
		summary.CountsByState[stateID] = count
	}

	return summary, nil
}
