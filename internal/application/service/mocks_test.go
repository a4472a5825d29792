package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

// Mock repositories with overridable function fields, defaulting to
// benign behavior.

type mockReportRepo struct {
	createFunc            func(ctx context.Context, report *entity.ExpenseReport) error
	getByIDFunc           func(ctx context.Context, id int64) (*entity.ExpenseReport, error)
	listByEmployeeFunc    func(ctx context.Context, employeeID string, limit, offset int) ([]*entity.ExpenseReport, error)
	updateHeaderFunc      func(ctx context.Context, report *entity.ExpenseReport) error
	updateStateFunc       func(ctx context.Context, id int64, stateID int64, comments string) error
	createLineFunc        func(ctx context.Context, line *entity.ExpenseLine) error
	getLineByIDFunc       func(ctx context.Context, id int64) (*entity.ExpenseLine, error)
	getLinesFunc          func(ctx context.Context, reportID int64) ([]*entity.ExpenseLine, error)
	updateLineFunc        func(ctx context.Context, line *entity.ExpenseLine) error
	deleteLineFunc        func(ctx context.Context, id int64) error
	setLineObservedFunc   func(ctx context.Context, id int64, observed bool, remark string) error
	setLineApprovedFunc   func(ctx context.Context, id int64, approved bool) error
	clearObservationsFunc func(ctx context.Context, reportID int64) error
	countByStatesFunc     func(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (int64, error)
	sumTotalsByStatesFunc func(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (decimal.Decimal, error)
}

func (m *mockReportRepo) Create(ctx context.Context, report *entity.ExpenseReport) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, report)
	}
	report.ID = 1
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.ExpenseReport{ID: id, StateID: entity.StateRequested}, nil
}

func (m *mockReportRepo) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.ExpenseReport, error) {
	if m.listByEmployeeFunc != nil {
		return m.listByEmployeeFunc(ctx, employeeID, limit, offset)
	}
	return nil, nil
}

func (m *mockReportRepo) UpdateHeader(ctx context.Context, report *entity.ExpenseReport) error {
	if m.updateHeaderFunc != nil {
		return m.updateHeaderFunc(ctx, report)
	}
	return nil
}

func (m *mockReportRepo) UpdateState(ctx context.Context, id int64, stateID int64, comments string) error {
	if m.updateStateFunc != nil {
		return m.updateStateFunc(ctx, id, stateID, comments)
	}
	return nil
}

func (m *mockReportRepo) CreateLine(ctx context.Context, line *entity.ExpenseLine) error {
	if m.createLineFunc != nil {
		return m.createLineFunc(ctx, line)
	}
	line.ID = 100
	return nil
}

func (m *mockReportRepo) GetLineByID(ctx context.Context, id int64) (*entity.ExpenseLine, error) {
	if m.getLineByIDFunc != nil {
		return m.getLineByIDFunc(ctx, id)
	}
	return &entity.ExpenseLine{ID: id, ReportID: 1}, nil
}

func (m *mockReportRepo) GetLines(ctx context.Context, reportID int64) ([]*entity.ExpenseLine, error) {
	if m.getLinesFunc != nil {
		return m.getLinesFunc(ctx, reportID)
	}
	return nil, nil
}

func (m *mockReportRepo) UpdateLine(ctx context.Context, line *entity.ExpenseLine) error {
	if m.updateLineFunc != nil {
		return m.updateLineFunc(ctx, line)
	}
	return nil
}

func (m *mockReportRepo) DeleteLine(ctx context.Context, id int64) error {
	if m.deleteLineFunc != nil {
		return m.deleteLineFunc(ctx, id)
	}
	return nil
}

func (m *mockReportRepo) SetLineObserved(ctx context.Context, id int64, observed bool, remark string) error {
	if m.setLineObservedFunc != nil {
		return m.setLineObservedFunc(ctx, id, observed, remark)
	}
	return nil
}

func (m *mockReportRepo) SetLineApproved(ctx context.Context, id int64, approved bool) error {
	if m.setLineApprovedFunc != nil {
		return m.setLineApprovedFunc(ctx, id, approved)
	}
	return nil
}

func (m *mockReportRepo) ClearObservations(ctx context.Context, reportID int64) error {
	if m.clearObservationsFunc != nil {
		return m.clearObservationsFunc(ctx, reportID)
	}
	return nil
}

func (m *mockReportRepo) CountByStates(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (int64, error) {
	if m.countByStatesFunc != nil {
		return m.countByStatesFunc(ctx, employeeID, from, to, stateIDs)
	}
	return 0, nil
}

func (m *mockReportRepo) SumTotalsByStates(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (decimal.Decimal, error) {
	if m.sumTotalsByStatesFunc != nil {
		return m.sumTotalsByStatesFunc(ctx, employeeID, from, to, stateIDs)
	}
	return decimal.Zero, nil
}

type mockReceiptRepo struct {
	createFunc               func(ctx context.Context, receipt *entity.Receipt) error
	getByIDFunc              func(ctx context.Context, id int64) (*entity.Receipt, error)
	listByReportFunc         func(ctx context.Context, reportID int64) ([]*entity.Receipt, error)
	listByLineFunc           func(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error)
	getBySeriesNumberFunc    func(ctx context.Context, series, number string) (*entity.Receipt, error)
	listByIssuerFunc         func(ctx context.Context, taxID string) ([]*entity.Receipt, error)
	listByIssueDateRangeFunc func(ctx context.Context, from, to time.Time) ([]*entity.Receipt, error)
	historyFunc              func(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error)
	updateFieldsFunc         func(ctx context.Context, receipt *entity.Receipt) error
	updateValidationFunc     func(ctx context.Context, id int64, outcome string) error
	deactivateFunc           func(ctx context.Context, id int64) error
	deactivatePairFunc       func(ctx context.Context, reportID, lineID int64) (int64, error)
	countUploadedFunc        func(ctx context.Context, employeeID string, from, to time.Time, filter port.ReceiptFilter) (int64, error)
}

func (m *mockReceiptRepo) Create(ctx context.Context, receipt *entity.Receipt) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, receipt)
	}
	receipt.ID = 1
	return nil
}

func (m *mockReceiptRepo) GetByID(ctx context.Context, id int64) (*entity.Receipt, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Receipt{ID: id, Active: true}, nil
}

func (m *mockReceiptRepo) ListByReport(ctx context.Context, reportID int64) ([]*entity.Receipt, error) {
	if m.listByReportFunc != nil {
		return m.listByReportFunc(ctx, reportID)
	}
	return nil, nil
}

func (m *mockReceiptRepo) ListByLine(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error) {
	if m.listByLineFunc != nil {
		return m.listByLineFunc(ctx, reportID, lineID)
	}
	return nil, nil
}

func (m *mockReceiptRepo) GetBySeriesNumber(ctx context.Context, series, number string) (*entity.Receipt, error) {
	if m.getBySeriesNumberFunc != nil {
		return m.getBySeriesNumberFunc(ctx, series, number)
	}
	return nil, nil
}

func (m *mockReceiptRepo) ListByIssuer(ctx context.Context, taxID string) ([]*entity.Receipt, error) {
	if m.listByIssuerFunc != nil {
		return m.listByIssuerFunc(ctx, taxID)
	}
	return nil, nil
}

func (m *mockReceiptRepo) ListByIssueDateRange(ctx context.Context, from, to time.Time) ([]*entity.Receipt, error) {
	if m.listByIssueDateRangeFunc != nil {
		return m.listByIssueDateRangeFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockReceiptRepo) History(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, reportID, lineID)
	}
	return nil, nil
}

func (m *mockReceiptRepo) UpdateFields(ctx context.Context, receipt *entity.Receipt) error {
	if m.updateFieldsFunc != nil {
		return m.updateFieldsFunc(ctx, receipt)
	}
	return nil
}

func (m *mockReceiptRepo) UpdateValidation(ctx context.Context, id int64, outcome string) error {
	if m.updateValidationFunc != nil {
		return m.updateValidationFunc(ctx, id, outcome)
	}
	return nil
}

func (m *mockReceiptRepo) Deactivate(ctx context.Context, id int64) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

func (m *mockReceiptRepo) DeactivatePair(ctx context.Context, reportID, lineID int64) (int64, error) {
	if m.deactivatePairFunc != nil {
		return m.deactivatePairFunc(ctx, reportID, lineID)
	}
	return 0, nil
}

func (m *mockReceiptRepo) CountUploaded(ctx context.Context, employeeID string, from, to time.Time, filter port.ReceiptFilter) (int64, error) {
	if m.countUploadedFunc != nil {
		return m.countUploadedFunc(ctx, employeeID, from, to, filter)
	}
	return 0, nil
}

type mockStateRepo struct {
	getByIDFunc       func(ctx context.Context, id int64) (*entity.WorkflowState, error)
	listByProcessFunc func(ctx context.Context, process string) ([]*entity.WorkflowState, error)
}

func (m *mockStateRepo) GetByID(ctx context.Context, id int64) (*entity.WorkflowState, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.WorkflowState{ID: id, Process: entity.ProcessExpenseReport, Enabled: true}, nil
}

func (m *mockStateRepo) ListByProcess(ctx context.Context, process string) ([]*entity.WorkflowState, error) {
	if m.listByProcessFunc != nil {
		return m.listByProcessFunc(ctx, process)
	}
	return []*entity.WorkflowState{
		{ID: entity.StateRequested, Process: process, Enabled: true},
		{ID: entity.StateOpen, Process: process, Enabled: true},
		{ID: entity.StateApproved, Process: process, Enabled: true},
		{ID: entity.StateObserved, Process: process, Enabled: true},
	}, nil
}

type mockNotificationRepo struct {
	createFunc         func(ctx context.Context, n *entity.Notification) error
	listByReceiverFunc func(ctx context.Context, receiverCode string, unreadOnly bool) ([]*entity.Notification, error)
	markReadFunc       func(ctx context.Context, id int64) error
	deactivateFunc     func(ctx context.Context, id int64) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	n.ID = 1
	return nil
}

func (m *mockNotificationRepo) ListByReceiver(ctx context.Context, receiverCode string, unreadOnly bool) ([]*entity.Notification, error) {
	if m.listByReceiverFunc != nil {
		return m.listByReceiverFunc(ctx, receiverCode, unreadOnly)
	}
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id int64) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id)
	}
	return nil
}

func (m *mockNotificationRepo) Deactivate(ctx context.Context, id int64) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

// mockTxManager runs the function directly; rollback semantics are
// covered by the repository integration tests.
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// fixedClock always returns the same instant.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}
