package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/internal/domain/workflow"
)

// ReportService drives the expense-report lifecycle: submission,
// line-set reconciliation, state transitions, review flags, and receipt
// supersession for corrected lines.
type ReportService struct {
	reports   port.ReportRepository
	receipts  port.ReceiptRepository
	states    port.StateRepository
	txManager port.TransactionManager
	clock     port.Clock
	logger    *zap.Logger
}

// NewReportService creates a report lifecycle service.
func NewReportService(
	reports port.ReportRepository,
	receipts port.ReceiptRepository,
	states port.StateRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		reports:   reports,
		receipts:  receipts,
		states:    states,
		txManager: txManager,
		clock:     clock,
		logger:    logger,
	}
}

// Submit persists a new report header and all its lines as one atomic
// unit. The report starts in the requested state; if anything fails,
// nothing is persisted.
func (s *ReportService) Submit(ctx context.Context, report *entity.ExpenseReport) error {
	report.StateID = entity.StateRequested
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.clock.Now()
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reports.Create(ctx, report); err != nil {
			return err
		}
		for _, line := range report.Lines {
			line.ID = 0
			line.ReportID = report.ID
			if err := s.reports.CreateLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapStorage("submit report", err)
	}

	s.logger.Info("report submitted",
		zap.Int64("report_id", report.ID),
		zap.String("employee_id", report.EmployeeID),
		zap.Int("lines", len(report.Lines)))
	return nil
}

// GetByID returns a report header with its lines loaded.
func (s *ReportService) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStorage("get report", err)
	}
	if report == nil {
		return nil, notFound("report", id)
	}
	lines, err := s.reports.GetLines(ctx, id)
	if err != nil {
		return nil, wrapStorage("get report", err)
	}
	report.Lines = lines
	return report, nil
}

// lineRef tags a target line as a brand-new row or an update of an
// existing one, so "identity 0" never travels further than this diff.
type lineRef struct {
	isNew bool
	id    int64
}

func classifyLine(line *entity.ExpenseLine, existing map[int64]*entity.ExpenseLine) lineRef {
	if line.ID == 0 {
		return lineRef{isNew: true}
	}
	if _, ok := existing[line.ID]; ok {
		return lineRef{id: line.ID}
	}
	// Caller supplied an identity that is not in the stored set: insert
	// as new and ignore the identity to avoid clashing with other rows.
	return lineRef{isNew: true}
}

// ReconcileLines updates the header and replaces its line set with the
// target set by identity diff: stored lines absent from the target are
// removed, matching identities are overwritten in place, and the rest
// are inserted as new rows. One atomic unit; any failure rolls back
// everything.
func (s *ReportService) ReconcileLines(ctx context.Context, report *entity.ExpenseReport, target []*entity.ExpenseLine) error {
	current, err := s.reports.GetByID(ctx, report.ID)
	if err != nil {
		return wrapStorage("reconcile report", err)
	}
	if current == nil {
		return notFound("report", report.ID)
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reports.UpdateHeader(ctx, report); err != nil {
			return err
		}

		stored, err := s.reports.GetLines(ctx, report.ID)
		if err != nil {
			return err
		}
		existing := make(map[int64]*entity.ExpenseLine, len(stored))
		for _, line := range stored {
			existing[line.ID] = line
		}

		kept := make(map[int64]bool, len(target))
		for _, line := range target {
			line.ReportID = report.ID
			ref := classifyLine(line, existing)
			if ref.isNew {
				line.ID = 0
				if err := s.reports.CreateLine(ctx, line); err != nil {
					return err
				}
				continue
			}
			kept[ref.id] = true
			if err := s.reports.UpdateLine(ctx, line); err != nil {
				return err
			}
		}

		for id := range existing {
			if !kept[id] {
				if err := s.reports.DeleteLine(ctx, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return wrapStorage("reconcile report", err)
	}

	s.logger.Info("report reconciled",
		zap.Int64("report_id", report.ID),
		zap.Int("target_lines", len(target)))
	return nil
}

// TransitionState moves the report to a new enabled state, records the
// comment, and clears the observed flag on every line of the report so
// stale review markers never survive a header-level decision.
func (s *ReportService) TransitionState(ctx context.Context, reportID, stateID int64, comment string) error {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return wrapStorage("transition report", err)
	}
	if report == nil {
		return notFound("report", reportID)
	}

	state, err := s.states.GetByID(ctx, stateID)
	if err != nil {
		return wrapStorage("transition report", err)
	}
	if state == nil || !state.Enabled || state.Process != entity.ProcessExpenseReport {
		return fmt.Errorf("state %d not enabled for process: %w", stateID, port.ErrConflict)
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reports.UpdateState(ctx, reportID, stateID, comment); err != nil {
			return err
		}
		return s.reports.ClearObservations(ctx, reportID)
	})
	if err != nil {
		return wrapStorage("transition report", err)
	}

	s.logger.Info("report transitioned",
		zap.Int64("report_id", reportID),
		zap.Int64("from_state", report.StateID),
		zap.Int64("to_state", stateID))
	return nil
}

// FlagLineObserved marks a line as observed with a remark and fires the
// observe override, forcing the owning header into the observed state
// whatever its current state is, approved included.
func (s *ReportService) FlagLineObserved(ctx context.Context, lineID int64, remark string) error {
	line, err := s.reports.GetLineByID(ctx, lineID)
	if err != nil {
		return wrapStorage("flag line observed", err)
	}
	if line == nil {
		return notFound("line", lineID)
	}
	report, err := s.reports.GetByID(ctx, line.ReportID)
	if err != nil {
		return wrapStorage("flag line observed", err)
	}
	if report == nil {
		return notFound("report", line.ReportID)
	}

	targetState, err := s.observedState(ctx, report.StateID)
	if err != nil {
		return wrapStorage("flag line observed", err)
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reports.SetLineObserved(ctx, lineID, true, remark); err != nil {
			return err
		}
		return s.reports.UpdateState(ctx, report.ID, targetState, report.Comments)
	})
	if err != nil {
		return wrapStorage("flag line observed", err)
	}

	s.logger.Info("line observed",
		zap.Int64("line_id", lineID),
		zap.Int64("report_id", report.ID),
		zap.Int64("from_state", report.StateID))
	return nil
}

// observedState resolves the observe override through the workflow
// machine. Reports parked on a state that has since been disabled in the
// catalog still get forced to the observed state; the override is
// unconditional.
func (s *ReportService) observedState(ctx context.Context, currentStateID int64) (int64, error) {
	states, err := s.states.ListByProcess(ctx, entity.ProcessExpenseReport)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for _, st := range states {
		if st.Enabled {
			ids = append(ids, st.ID)
		}
	}

	machine, err := workflow.ExpenseReportBuilder(workflow.NewStateSet(ids...)).
		Build(workflow.State(currentStateID))
	if err != nil {
		return entity.StateObserved, nil
	}
	if err := machine.Fire(ctx, workflow.TriggerObserve); err != nil {
		return entity.StateObserved, nil
	}
	return int64(machine.State()), nil
}

// ApproveLine sets or clears the per-line approved flag.
func (s *ReportService) ApproveLine(ctx context.Context, lineID int64, approved bool) error {
	line, err := s.reports.GetLineByID(ctx, lineID)
	if err != nil {
		return wrapStorage("approve line", err)
	}
	if line == nil {
		return notFound("line", lineID)
	}
	if err := s.reports.SetLineApproved(ctx, lineID, approved); err != nil {
		return wrapStorage("approve line", err)
	}
	return nil
}

// SupersedeReceipts deactivates and invalidates every active receipt for
// the (report, line) pair and returns the count affected.
func (s *ReportService) SupersedeReceipts(ctx context.Context, reportID, lineID int64) (int64, error) {
	var count int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.receipts.DeactivatePair(ctx, reportID, lineID)
		return err
	})
	if err != nil {
		return 0, wrapStorage("supersede receipts", err)
	}
	return count, nil
}
