package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/sqlite"
)

const receiptColumns = `
	id, report_id, line_id, doc_type, description, series, number,
	issue_date, amount, issuer_tax_id, issuer_name, file_path,
	uploaded_at, validation, notes, active, read_flag
	`

// ReceiptRepository implements port.ReceiptRepository over SQLite.
// The one-active-receipt-per-pair invariant is backed by a partial
// unique index on (report_id, COALESCE(line_id, 0)) for active attached
// receipts; a violation is reported as port.ErrConflict. Zero
// identities are stored as NULL, so pair lookups match with IS.
type ReceiptRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReceiptRepository creates a new receipt repository.
func NewReceiptRepository(db *sql.DB, logger *zap.Logger) port.ReceiptRepository {
	return &ReceiptRepository{db: db, logger: logger}
}

// Create inserts a new receipt record.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *entity.Receipt) error {
	query := `
		INSERT INTO receipts (
			report_id, line_id, doc_type, description, series, number,
			issue_date, amount, issuer_tax_id, issuer_name, file_path,
			uploaded_at, validation, notes, active, read_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		nullID(receipt.ReportID),
		nullID(receipt.LineID),
		receipt.DocType,
		receipt.Description,
		receipt.Series,
		receipt.Number,
		nullTime(receipt.IssueDate),
		receipt.Amount,
		receipt.IssuerTaxID,
		receipt.IssuerName,
		receipt.FilePath,
		receipt.UploadedAt,
		receipt.Validation,
		receipt.Notes,
		receipt.Active,
		receipt.Read,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("active receipt already exists for pair: %w", port.ErrConflict)
		}
		r.logger.Error("Failed to create receipt", zap.Error(err))
		return fmt.Errorf("failed to create receipt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	receipt.ID = id
	return nil
}

// GetByID retrieves an active receipt by ID. Inactive receipts are
// treated as absent.
func (r *ReceiptRepository) GetByID(ctx context.Context, id int64) (*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE id = ? AND active = 1`
	return r.queryOne(ctx, query, id)
}

// ListByReport retrieves the active receipts attached to a report.
func (r *ReceiptRepository) ListByReport(ctx context.Context, reportID int64) ([]*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE report_id = ? AND active = 1 ORDER BY uploaded_at DESC`
	return r.queryMany(ctx, query, reportID)
}

// ListByLine retrieves the active receipts attached to one line. A zero
// line selects the header-only receipts of the report.
func (r *ReceiptRepository) ListByLine(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE report_id = ? AND line_id IS ? AND active = 1 ORDER BY uploaded_at DESC`
	return r.queryMany(ctx, query, reportID, nullID(lineID))
}

// GetBySeriesNumber retrieves the active receipt for a series and
// correlative pair.
func (r *ReceiptRepository) GetBySeriesNumber(ctx context.Context, series, number string) (*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE series = ? AND number = ? AND active = 1 LIMIT 1`
	return r.queryOne(ctx, query, series, number)
}

// ListByIssuer retrieves the active receipts issued by one taxpayer.
func (r *ReceiptRepository) ListByIssuer(ctx context.Context, taxID string) ([]*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE issuer_tax_id = ? AND active = 1 ORDER BY uploaded_at DESC`
	return r.queryMany(ctx, query, taxID)
}

// ListByIssueDateRange retrieves active receipts issued inside [from, to].
func (r *ReceiptRepository) ListByIssueDateRange(ctx context.Context, from, to time.Time) ([]*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE issue_date >= ? AND issue_date <= ? AND active = 1 ORDER BY issue_date`
	return r.queryMany(ctx, query, from, to)
}

// History retrieves every receipt ever attached to the pair, inactive
// ones included, newest first. A zero line means the header-only pair.
func (r *ReceiptRepository) History(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error) {
	query := `SELECT` + receiptColumns + `FROM receipts WHERE report_id = ? AND line_id IS ? ORDER BY uploaded_at DESC`
	return r.queryMany(ctx, query, reportID, nullID(lineID))
}

// UpdateFields overwrites the descriptive fields of an active receipt.
func (r *ReceiptRepository) UpdateFields(ctx context.Context, receipt *entity.Receipt) error {
	query := `
		UPDATE receipts
		SET doc_type = ?, description = ?, series = ?, number = ?,
			issue_date = ?, amount = ?, issuer_tax_id = ?, issuer_name = ?,
			file_path = ?, notes = ?, read_flag = ?
		WHERE id = ? AND active = 1
	`

	_, err := r.executor(ctx).ExecContext(ctx, query,
		receipt.DocType,
		receipt.Description,
		receipt.Series,
		receipt.Number,
		nullTime(receipt.IssueDate),
		receipt.Amount,
		receipt.IssuerTaxID,
		receipt.IssuerName,
		receipt.FilePath,
		receipt.Notes,
		receipt.Read,
		receipt.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update receipt", zap.Int64("id", receipt.ID), zap.Error(err))
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	return nil
}

// UpdateValidation records the external validation outcome.
func (r *ReceiptRepository) UpdateValidation(ctx context.Context, id int64, outcome string) error {
	query := `UPDATE receipts SET validation = ? WHERE id = ? AND active = 1`
	if _, err := r.executor(ctx).ExecContext(ctx, query, outcome, id); err != nil {
		r.logger.Error("Failed to update receipt validation", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update receipt validation: %w", err)
	}
	return nil
}

// Deactivate logically deletes a receipt.
func (r *ReceiptRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE receipts SET active = 0 WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to deactivate receipt", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to deactivate receipt: %w", err)
	}
	return nil
}

// DeactivatePair deactivates and invalidates every active receipt for
// the (report, line) pair. A zero line matches header-only receipts,
// which carry a NULL line_id, so IS is used instead of =.
func (r *ReceiptRepository) DeactivatePair(ctx context.Context, reportID, lineID int64) (int64, error) {
	if reportID == 0 && lineID == 0 {
		return 0, nil
	}

	query := `UPDATE receipts SET active = 0, validation = ? WHERE report_id IS ? AND line_id IS ? AND active = 1`
	result, err := r.executor(ctx).ExecContext(ctx, query, entity.ValidationInvalid, nullID(reportID), nullID(lineID))
	if err != nil {
		r.logger.Error("Failed to supersede receipts",
			zap.Int64("report_id", reportID),
			zap.Int64("line_id", lineID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to supersede receipts: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count superseded receipts: %w", err)
	}
	return count, nil
}

// CountUploaded counts active receipts uploaded inside [from, to],
// optionally narrowed by employee (through the owning report) and by
// validation outcome.
func (r *ReceiptRepository) CountUploaded(ctx context.Context, employeeID string, from, to time.Time, filter port.ReceiptFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM receipts rc
		LEFT JOIN expense_reports rp ON rp.id = rc.report_id
		WHERE rc.active = 1 AND rc.uploaded_at >= ? AND rc.uploaded_at <= ?
	`
	args := []interface{}{from, to}

	if employeeID != "" {
		query += ` AND rp.employee_id = ?`
		args = append(args, employeeID)
	}
	if filter.Validation != "" {
		query += ` AND rc.validation = ?`
		args = append(args, filter.Validation)
	}

	var count int64
	if err := r.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count receipts", zap.Error(err))
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return count, nil
}

func (r *ReceiptRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*entity.Receipt, error) {
	receipt, err := scanReceipt(r.executor(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get receipt", zap.Error(err))
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

func (r *ReceiptRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Receipt, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list receipts", zap.Error(err))
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*entity.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var receipt entity.Receipt
	var reportID, lineID sql.NullInt64
	var issueDate sql.NullTime

	err := row.Scan(
		&receipt.ID,
		&reportID,
		&lineID,
		&receipt.DocType,
		&receipt.Description,
		&receipt.Series,
		&receipt.Number,
		&issueDate,
		&receipt.Amount,
		&receipt.IssuerTaxID,
		&receipt.IssuerName,
		&receipt.FilePath,
		&receipt.UploadedAt,
		&receipt.Validation,
		&receipt.Notes,
		&receipt.Active,
		&receipt.Read,
	)
	if err != nil {
		return nil, err
	}

	if reportID.Valid {
		receipt.ReportID = reportID.Int64
	}
	if lineID.Valid {
		receipt.LineID = lineID.Int64
	}
	if issueDate.Valid {
		receipt.IssueDate = &issueDate.Time
	}
	return &receipt, nil
}

func (r *ReceiptRepository) executor(ctx context.Context) sqlite.Executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// nullID maps the zero identity to NULL so unattached receipts stay out
// of the active-pair unique index.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// Verify interface compliance
var _ port.ReceiptRepository = (*ReceiptRepository)(nil)
