package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/sqlite"
)

// openTestDB creates an in-memory database with the real schema applied.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "001_initial_schema.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func seedReport(t *testing.T, db *sql.DB, employeeID string, createdAt time.Time) *entity.ExpenseReport {
	t.Helper()
	repo := NewReportRepository(db, zap.NewNop())
	report := &entity.ExpenseReport{
		EmployeeID:     employeeID,
		Description:    "Comisión de servicio",
		Locality:       "Arequipa",
		RequestedTotal: decimal.RequireFromString("350.00"),
		StateID:        entity.StateRequested,
		CreatedAt:      createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), report))
	return report
}

func TestReportRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())
	ctx := context.Background()

	created := seedReport(t, db, "E001", time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "E001", got.EmployeeID)
	assert.True(t, got.RequestedTotal.Equal(decimal.RequireFromString("350.00")))
	assert.Equal(t, entity.StateRequested, got.StateID)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReportRepository_Lines(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())
	ctx := context.Background()

	report := seedReport(t, db, "E001", time.Now().UTC())

	line := &entity.ExpenseLine{
		ReportID:        report.ID,
		ExpenseTypeID:   1,
		UnitPrice:       decimal.RequireFromString("80.00"),
		RequestedAmount: decimal.RequireFromString("160.00"),
		Subtotal:        decimal.RequireFromString("160.00"),
		StartDate:       time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Days:            2,
	}
	require.NoError(t, repo.CreateLine(ctx, line))
	require.NotZero(t, line.ID)

	require.NoError(t, repo.SetLineObserved(ctx, line.ID, true, "sin sustento"))
	got, err := repo.GetLineByID(ctx, line.ID)
	require.NoError(t, err)
	assert.True(t, got.Observed)
	assert.Equal(t, "sin sustento", got.Observation)

	require.NoError(t, repo.ClearObservations(ctx, report.ID))
	got, err = repo.GetLineByID(ctx, line.ID)
	require.NoError(t, err)
	assert.False(t, got.Observed)
	assert.Empty(t, got.Observation)

	require.NoError(t, repo.DeleteLine(ctx, line.ID))
	got, err = repo.GetLineByID(ctx, line.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportRepository_Aggregates(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())
	ctx := context.Background()

	june := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	a := seedReport(t, db, "E001", june)
	seedReport(t, db, "E001", june.AddDate(0, 0, 1))
	seedReport(t, db, "E002", june)

	require.NoError(t, repo.UpdateState(ctx, a.ID, entity.StateApproved, "ok"))

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)

	count, err := repo.CountByStates(ctx, "E001", from, to, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountByStates(ctx, "E001", from, to, []int64{entity.StateApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	total, err := repo.SumTotalsByStates(ctx, "E001", from, to, nil)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("700")), "got %s", total)

	approved, err := repo.SumTotalsByStates(ctx, "E001", from, to, []int64{entity.StateApproved})
	require.NoError(t, err)
	assert.True(t, approved.Equal(decimal.RequireFromString("350")), "got %s", approved)

	// Out-of-range window counts nothing.
	count, err = repo.CountByStates(ctx, "E001", from.AddDate(0, 1, 0), to.AddDate(0, 1, 0), nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReportRepository_SumTotals_ExactDecimal(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())
	ctx := context.Background()

	day := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	for _, amount := range []string{"0.10", "0.20", "123456789012345678.90"} {
		report := &entity.ExpenseReport{
			EmployeeID:     "E001",
			RequestedTotal: decimal.RequireFromString(amount),
			StateID:        entity.StateRequested,
			CreatedAt:      day,
		}
		require.NoError(t, repo.Create(ctx, report))
	}

	// The last amount is beyond float64 precision; the sum has to stay
	// exact.
	total, err := repo.SumTotalsByStates(ctx, "E001", day.AddDate(0, 0, -1), day.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("123456789012345679.20")), "got %s", total)
}

func seedReceipt(reportID, lineID int64, series, number string) *entity.Receipt {
	issue := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &entity.Receipt{
		ReportID:    reportID,
		LineID:      lineID,
		DocType:     entity.DocTypeFactura,
		Series:      series,
		Number:      number,
		IssueDate:   &issue,
		Amount:      decimal.RequireFromString("150.50"),
		IssuerTaxID: "20123456789",
		IssuerName:  "EMPRESA DEMO S.A.C.",
		UploadedAt:  time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		Validation:  entity.ValidationPending,
		Active:      true,
	}
}

func TestReceiptRepository_ActivePairInvariant(t *testing.T) {
	db := openTestDB(t)
	repo := NewReceiptRepository(db, zap.NewNop())
	ctx := context.Background()

	report := seedReport(t, db, "E001", time.Now().UTC())
	reportRepo := NewReportRepository(db, zap.NewNop())
	line := &entity.ExpenseLine{ReportID: report.ID, StartDate: time.Now(), EndDate: time.Now()}
	require.NoError(t, reportRepo.CreateLine(ctx, line))

	first := seedReceipt(report.ID, line.ID, "F001", "00000001")
	require.NoError(t, repo.Create(ctx, first))

	// A second active receipt for the same pair hits the partial unique
	// index and surfaces as a conflict.
	dup := seedReceipt(report.ID, line.ID, "F001", "00000002")
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, port.ErrConflict)

	// Supersede, then the new receipt goes in.
	count, err := repo.DeactivatePair(ctx, report.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Create(ctx, dup))

	// Exactly one active receipt remains; history shows both.
	active, err := repo.ListByLine(ctx, report.ID, line.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "00000002", active[0].Number)

	history, err := repo.History(ctx, report.ID, line.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// The superseded receipt was invalidated on the way out.
	superseded, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, superseded, "inactive receipts read as absent")
}

func TestReceiptRepository_HeaderOnlyPairInvariant(t *testing.T) {
	db := openTestDB(t)
	repo := NewReceiptRepository(db, zap.NewNop())
	ctx := context.Background()

	report := seedReport(t, db, "E001", time.Now().UTC())

	// Attached to the header only: line_id stays NULL.
	first := seedReceipt(report.ID, 0, "B001", "00000001")
	require.NoError(t, repo.Create(ctx, first))

	dup := seedReceipt(report.ID, 0, "B001", "00000002")
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, port.ErrConflict)

	// Superseding the header pair must reach the NULL line_id rows.
	count, err := repo.DeactivatePair(ctx, report.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Create(ctx, dup))

	active, err := repo.ListByLine(ctx, report.ID, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "00000002", active[0].Number)

	history, err := repo.History(ctx, report.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	superseded, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, superseded)
}

func TestReceiptRepository_UnattachedReceiptsNeverCollide(t *testing.T) {
	db := openTestDB(t)
	repo := NewReceiptRepository(db, zap.NewNop())
	ctx := context.Background()

	a := seedReceipt(0, 0, "F001", "00000001")
	b := seedReceipt(0, 0, "F001", "00000002")

	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	// Deactivating the zero pair is a no-op, not a mass invalidation.
	count, err := repo.DeactivatePair(ctx, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Zero(t, got.ReportID)
	assert.Zero(t, got.LineID)
}

func TestReceiptRepository_Queries(t *testing.T) {
	db := openTestDB(t)
	repo := NewReceiptRepository(db, zap.NewNop())
	ctx := context.Background()

	report := seedReport(t, db, "E001", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	r := seedReceipt(report.ID, 0, "F001", "00000123")
	require.NoError(t, repo.Create(ctx, r))

	bySeries, err := repo.GetBySeriesNumber(ctx, "F001", "00000123")
	require.NoError(t, err)
	require.NotNil(t, bySeries)
	assert.Equal(t, r.ID, bySeries.ID)

	byIssuer, err := repo.ListByIssuer(ctx, "20123456789")
	require.NoError(t, err)
	assert.Len(t, byIssuer, 1)

	byDate, err := repo.ListByIssueDateRange(ctx,
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, byDate, 1)

	count, err := repo.CountUploaded(ctx, "E001",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		port.ReceiptFilter{Validation: entity.ValidationPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountUploaded(ctx, "E999",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		port.ReceiptFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStateRepository_Catalog(t *testing.T) {
	db := openTestDB(t)
	repo := NewStateRepository(db, zap.NewNop())
	ctx := context.Background()

	observed, err := repo.GetByID(ctx, entity.StateObserved)
	require.NoError(t, err)
	require.NotNil(t, observed)
	assert.Equal(t, "Observado", observed.Description)
	assert.Equal(t, entity.ProcessExpenseReport, observed.Process)
	assert.True(t, observed.Enabled)

	states, err := repo.ListByProcess(ctx, entity.ProcessExpenseReport)
	require.NoError(t, err)
	assert.Len(t, states, 4)

	none, err := repo.ListByProcess(ctx, "COMPRAS")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNotificationRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewNotificationRepository(db, zap.NewNop())
	ctx := context.Background()

	n := &entity.Notification{
		SenderCode:   "E001",
		ReceiverCode: "E002",
		Message:      "rendición observada",
		Stage:        "OBSERVADO",
		CreatedAt:    time.Now().UTC(),
		Active:       true,
	}
	require.NoError(t, repo.Create(ctx, n))
	require.NotZero(t, n.ID)

	unread, err := repo.ListByReceiver(ctx, "E002", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, repo.MarkRead(ctx, n.ID))
	unread, err = repo.ListByReceiver(ctx, "E002", true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := repo.ListByReceiver(ctx, "E002", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Deactivate(ctx, n.ID))
	all, err = repo.ListByReceiver(ctx, "E002", false)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	txDB := sqlite.NewDB(db, zap.NewNop())
	repo := NewReceiptRepository(db, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("boom")
	err := txDB.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, seedReceipt(0, 0, "F001", "00000001")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	receipts, err := repo.ListByIssuer(ctx, "20123456789")
	require.NoError(t, err)
	assert.Empty(t, receipts, "rolled-back insert must not be visible")
}

func TestWithTransaction_NestedCallJoins(t *testing.T) {
	db := openTestDB(t)
	txDB := sqlite.NewDB(db, zap.NewNop())
	repo := NewReceiptRepository(db, zap.NewNop())
	ctx := context.Background()

	err := txDB.WithTransaction(ctx, func(ctx context.Context) error {
		return txDB.WithTransaction(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, seedReceipt(0, 0, "F001", "00000001"))
		})
	})
	require.NoError(t, err)

	receipts, err := repo.ListByIssuer(ctx, "20123456789")
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
}
