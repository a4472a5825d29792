package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/sqlite"
)

// ReportRepository implements port.ReportRepository over SQLite.
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{db: db, logger: logger}
}

// Create inserts a new report header.
func (r *ReportRepository) Create(ctx context.Context, report *entity.ExpenseReport) error {
	query := `
		INSERT INTO expense_reports (
			employee_id, description, locality, requested_total, state_id,
			comments, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		report.EmployeeID,
		report.Description,
		report.Locality,
		report.RequestedTotal,
		report.StateID,
		report.Comments,
		report.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	report.ID = id
	return nil
}

// GetByID retrieves a report header by ID. Lines are not loaded.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	query := `
		SELECT id, employee_id, description, locality, requested_total,
			state_id, comments, created_at
		FROM expense_reports
		WHERE id = ?
	`

	var report entity.ExpenseReport
	err := r.executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.EmployeeID,
		&report.Description,
		&report.Locality,
		&report.RequestedTotal,
		&report.StateID,
		&report.Comments,
		&report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get report", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListByEmployee retrieves report headers for one employee, newest first.
func (r *ReportRepository) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.ExpenseReport, error) {
	query := `
		SELECT id, employee_id, description, locality, requested_total,
			state_id, comments, created_at
		FROM expense_reports
		WHERE employee_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, employeeID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*entity.ExpenseReport
	for rows.Next() {
		var report entity.ExpenseReport
		err := rows.Scan(
			&report.ID,
			&report.EmployeeID,
			&report.Description,
			&report.Locality,
			&report.RequestedTotal,
			&report.StateID,
			&report.Comments,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// UpdateHeader overwrites the descriptive fields of a report header.
// State and creation timestamp are managed by their own operations.
func (r *ReportRepository) UpdateHeader(ctx context.Context, report *entity.ExpenseReport) error {
	query := `
		UPDATE expense_reports
		SET description = ?, locality = ?, requested_total = ?, comments = ?
		WHERE id = ?
	`

	_, err := r.executor(ctx).ExecContext(ctx, query,
		report.Description,
		report.Locality,
		report.RequestedTotal,
		report.Comments,
		report.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update report header", zap.Int64("id", report.ID), zap.Error(err))
		return fmt.Errorf("failed to update report header: %w", err)
	}
	return nil
}

// UpdateState sets the workflow state and comment of a report.
func (r *ReportRepository) UpdateState(ctx context.Context, id int64, stateID int64, comments string) error {
	query := `UPDATE expense_reports SET state_id = ?, comments = ? WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, stateID, comments, id); err != nil {
		r.logger.Error("Failed to update report state", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update report state: %w", err)
	}
	return nil
}

// CreateLine inserts a new line for a report.
func (r *ReportRepository) CreateLine(ctx context.Context, line *entity.ExpenseLine) error {
	query := `
		INSERT INTO expense_lines (
			report_id, expense_type_id, unit_price, requested_amount,
			subtotal, start_date, end_date, days, distance_km, observed,
			observation, approved
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		line.ReportID,
		line.ExpenseTypeID,
		line.UnitPrice,
		line.RequestedAmount,
		line.Subtotal,
		line.StartDate,
		line.EndDate,
		line.Days,
		line.DistanceKM,
		line.Observed,
		line.Observation,
		line.Approved,
	)
	if err != nil {
		r.logger.Error("Failed to create line", zap.Int64("report_id", line.ReportID), zap.Error(err))
		return fmt.Errorf("failed to create line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	line.ID = id
	return nil
}

// GetLineByID retrieves a line by ID.
func (r *ReportRepository) GetLineByID(ctx context.Context, id int64) (*entity.ExpenseLine, error) {
	query := lineSelect + ` WHERE id = ?`

	line, err := scanLine(r.executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get line", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	return line, nil
}

// GetLines retrieves every line of a report in insertion order.
func (r *ReportRepository) GetLines(ctx context.Context, reportID int64) ([]*entity.ExpenseLine, error) {
	query := lineSelect + ` WHERE report_id = ? ORDER BY id`

	rows, err := r.executor(ctx).QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to get lines", zap.Int64("report_id", reportID), zap.Error(err))
		return nil, fmt.Errorf("failed to get lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.ExpenseLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// UpdateLine overwrites every mutable field of a line.
func (r *ReportRepository) UpdateLine(ctx context.Context, line *entity.ExpenseLine) error {
	query := `
		UPDATE expense_lines
		SET expense_type_id = ?, unit_price = ?, requested_amount = ?,
			subtotal = ?, start_date = ?, end_date = ?, days = ?,
			distance_km = ?, observed = ?, observation = ?, approved = ?
		WHERE id = ?
	`

	_, err := r.executor(ctx).ExecContext(ctx, query,
		line.ExpenseTypeID,
		line.UnitPrice,
		line.RequestedAmount,
		line.Subtotal,
		line.StartDate,
		line.EndDate,
		line.Days,
		line.DistanceKM,
		line.Observed,
		line.Observation,
		line.Approved,
		line.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update line", zap.Int64("id", line.ID), zap.Error(err))
		return fmt.Errorf("failed to update line: %w", err)
	}
	return nil
}

// DeleteLine physically removes a line from its report.
func (r *ReportRepository) DeleteLine(ctx context.Context, id int64) error {
	query := `DELETE FROM expense_lines WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to delete line", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete line: %w", err)
	}
	return nil
}

// SetLineObserved sets the observed flag and remark on one line.
func (r *ReportRepository) SetLineObserved(ctx context.Context, id int64, observed bool, remark string) error {
	query := `UPDATE expense_lines SET observed = ?, observation = ? WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, observed, remark, id); err != nil {
		r.logger.Error("Failed to set line observed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set line observed: %w", err)
	}
	return nil
}

// SetLineApproved sets the approved flag on one line.
func (r *ReportRepository) SetLineApproved(ctx context.Context, id int64, approved bool) error {
	query := `UPDATE expense_lines SET approved = ? WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, approved, id); err != nil {
		r.logger.Error("Failed to set line approved", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set line approved: %w", err)
	}
	return nil
}

// ClearObservations resets observed flags and remarks on every line of a
// report; lines that were never observed are an idempotent no-op.
func (r *ReportRepository) ClearObservations(ctx context.Context, reportID int64) error {
	query := `UPDATE expense_lines SET observed = 0, observation = '' WHERE report_id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, reportID); err != nil {
		r.logger.Error("Failed to clear observations", zap.Int64("report_id", reportID), zap.Error(err))
		return fmt.Errorf("failed to clear observations: %w", err)
	}
	return nil
}

// CountByStates counts reports created inside [from, to], optionally
// filtered by employee and state set.
func (r *ReportRepository) CountByStates(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (int64, error) {
	query := `SELECT COUNT(*) FROM expense_reports WHERE created_at >= ? AND created_at <= ?`
	args := []interface{}{from, to}
	query, args = appendScope(query, args, employeeID, stateIDs)

	var count int64
	if err := r.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count reports", zap.Error(err))
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// SumTotalsByStates sums requested totals of reports created inside
// [from, to], optionally filtered by employee and state set. Totals are
// stored as decimal text, so summing happens here rather than in SQL,
// where SUM would coerce the column through float.
func (r *ReportRepository) SumTotalsByStates(ctx context.Context, employeeID string, from, to time.Time, stateIDs []int64) (decimal.Decimal, error) {
	query := `SELECT requested_total FROM expense_reports WHERE created_at >= ? AND created_at <= ?`
	args := []interface{}{from, to}
	query, args = appendScope(query, args, employeeID, stateIDs)

	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to sum report totals", zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to sum report totals: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan report total: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum report totals: %w", err)
	}
	return total, nil
}

const lineSelect = `
	SELECT id, report_id, expense_type_id, unit_price, requested_amount,
		subtotal, start_date, end_date, days, distance_km, observed,
		observation, approved
	FROM expense_lines`

func scanLine(row rowScanner) (*entity.ExpenseLine, error) {
	var line entity.ExpenseLine
	err := row.Scan(
		&line.ID,
		&line.ReportID,
		&line.ExpenseTypeID,
		&line.UnitPrice,
		&line.RequestedAmount,
		&line.Subtotal,
		&line.StartDate,
		&line.EndDate,
		&line.Days,
		&line.DistanceKM,
		&line.Observed,
		&line.Observation,
		&line.Approved,
	)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// appendScope adds the optional employee and state filters shared by the
// dashboard aggregates.
func appendScope(query string, args []interface{}, employeeID string, stateIDs []int64) (string, []interface{}) {
	if employeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	if len(stateIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stateIDs)), ",")
		query += ` AND state_id IN (` + placeholders + `)`
		for _, id := range stateIDs {
			args = append(args, id)
		}
	}
	return query, args
}

func (r *ReportRepository) executor(ctx context.Context) sqlite.Executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.ReportRepository = (*ReportRepository)(nil)
