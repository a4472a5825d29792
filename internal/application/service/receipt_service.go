package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

// ReceiptService is the receipt ledger: it attaches receipts to report
// lines with atomic supersession, serves the active-filtered queries, and
// records validation outcomes coming back from the tax authority.
type ReceiptService struct {
	receipts  port.ReceiptRepository
	txManager port.TransactionManager
	clock     port.Clock
	logger    *zap.Logger
}

// NewReceiptService creates a receipt ledger service.
func NewReceiptService(
	receipts port.ReceiptRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		receipts:  receipts,
		txManager: txManager,
		clock:     clock,
		logger:    logger,
	}
}

// Attach stores a new active receipt for the (report, line) pair. Any
// previously active receipt for the exact same pair is deactivated and
// marked invalid inside the same transaction, so the one-active-receipt
// invariant holds or nothing is applied.
func (s *ReceiptService) Attach(ctx context.Context, receipt *entity.Receipt) error {
	if receipt.UploadedAt.IsZero() {
		receipt.UploadedAt = s.clock.Now()
	}
	if receipt.Validation == "" {
		receipt.Validation = entity.ValidationPending
	}
	receipt.Active = true

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		superseded, err := s.receipts.DeactivatePair(ctx, receipt.ReportID, receipt.LineID)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.logger.Info("superseded previous receipts",
				zap.Int64("report_id", receipt.ReportID),
				zap.Int64("line_id", receipt.LineID),
				zap.Int64("count", superseded))
		}
		return s.receipts.Create(ctx, receipt)
	})
	if err != nil {
		return wrapStorage("attach receipt", err)
	}
	return nil
}

// GetByID returns the active receipt with the given id, or ErrNotFound
// when it does not exist or was logically deleted.
func (s *ReceiptService) GetByID(ctx context.Context, id int64) (*entity.Receipt, error) {
	receipt, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStorage("get receipt", err)
	}
	if receipt == nil {
		return nil, notFound("receipt", id)
	}
	return receipt, nil
}

// ListByReport returns the active receipts attached to a report header.
func (s *ReceiptService) ListByReport(ctx context.Context, reportID int64) ([]*entity.Receipt, error) {
	receipts, err := s.receipts.ListByReport(ctx, reportID)
	if err != nil {
		return nil, wrapStorage("list receipts by report", err)
	}
	return receipts, nil
}

// ListByLine returns the active receipts attached to one line.
func (s *ReceiptService) ListByLine(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error) {
	receipts, err := s.receipts.ListByLine(ctx, reportID, lineID)
	if err != nil {
		return nil, wrapStorage("list receipts by line", err)
	}
	return receipts, nil
}

// GetBySeriesNumber finds the active receipt identified by its tax
// document series and correlative.
func (s *ReceiptService) GetBySeriesNumber(ctx context.Context, series, number string) (*entity.Receipt, error) {
	receipt, err := s.receipts.GetBySeriesNumber(ctx, series, number)
	if err != nil {
		return nil, wrapStorage("get receipt by series", err)
	}
	if receipt == nil {
		return nil, notFound("receipt", 0)
	}
	return receipt, nil
}

// ListByIssuer returns the active receipts issued by one taxpayer.
func (s *ReceiptService) ListByIssuer(ctx context.Context, taxID string) ([]*entity.Receipt, error) {
	receipts, err := s.receipts.ListByIssuer(ctx, taxID)
	if err != nil {
		return nil, wrapStorage("list receipts by issuer", err)
	}
	return receipts, nil
}

// ListByIssueDateRange returns active receipts issued inside [from, to].
func (s *ReceiptService) ListByIssueDateRange(ctx context.Context, from, to time.Time) ([]*entity.Receipt, error) {
	receipts, err := s.receipts.ListByIssueDateRange(ctx, from, to)
	if err != nil {
		return nil, wrapStorage("list receipts by issue date", err)
	}
	return receipts, nil
}

// History returns every receipt ever attached to the pair, superseded
// ones included.
func (s *ReceiptService) History(ctx context.Context, reportID, lineID int64) ([]*entity.Receipt, error) {
	receipts, err := s.receipts.History(ctx, reportID, lineID)
	if err != nil {
		return nil, wrapStorage("receipt history", err)
	}
	return receipts, nil
}

// UpdateFields overwrites the descriptive fields of an active receipt.
// Activity state is untouched.
func (s *ReceiptService) UpdateFields(ctx context.Context, receipt *entity.Receipt) error {
	existing, err := s.receipts.GetByID(ctx, receipt.ID)
	if err != nil {
		return wrapStorage("update receipt", err)
	}
	if existing == nil {
		return notFound("receipt", receipt.ID)
	}
	if err := s.receipts.UpdateFields(ctx, receipt); err != nil {
		return wrapStorage("update receipt", err)
	}
	return nil
}

// UpdateValidation records the external tax-authority outcome for an
// active receipt.
func (s *ReceiptService) UpdateValidation(ctx context.Context, id int64, outcome string) error {
	existing, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return wrapStorage("update receipt validation", err)
	}
	if existing == nil {
		return notFound("receipt", id)
	}
	if err := s.receipts.UpdateValidation(ctx, id, outcome); err != nil {
		return wrapStorage("update receipt validation", err)
	}
	s.logger.Info("receipt validation recorded",
		zap.Int64("receipt_id", id),
		zap.String("outcome", outcome))
	return nil
}

// Delete logically deletes a receipt. The owning line and header are not
// touched.
func (s *ReceiptService) Delete(ctx context.Context, id int64) error {
	existing, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return wrapStorage("delete receipt", err)
	}
	if existing == nil {
		return notFound("receipt", id)
	}
	if err := s.receipts.Deactivate(ctx, id); err != nil {
		return wrapStorage("delete receipt", err)
	}
	return nil
}

// Supersede deactivates and invalidates every active receipt for the
// pair, returning how many were affected. Used when a correction
// invalidates previously uploaded documentation.
func (s *ReceiptService) Supersede(ctx context.Context, reportID, lineID int64) (int64, error) {
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
