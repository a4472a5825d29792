package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository over SQLite.
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			sender_code, sender_name, receiver_code, receiver_name,
			message, stage, created_at, read_flag, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		n.SenderCode,
		n.SenderName,
		n.ReceiverCode,
		n.ReceiverName,
		n.Message,
		n.Stage,
		n.CreatedAt,
		n.Read,
		n.Active,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

// ListByReceiver retrieves active notifications for a receiver, newest
// first, optionally only the unread ones.
func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverCode string, unreadOnly bool) ([]*entity.Notification, error) {
	query := `
		SELECT id, sender_code, sender_name, receiver_code, receiver_name,
			message, stage, created_at, read_flag, active
		FROM notifications
		WHERE receiver_code = ? AND active = 1
	`
	if unreadOnly {
		query += ` AND read_flag = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.executor(ctx).QueryContext(ctx, query, receiverCode)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("receiver", receiverCode), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		err := rows.Scan(
			&n.ID,
			&n.SenderCode,
			&n.SenderName,
			&n.ReceiverCode,
			&n.ReceiverName,
			&n.Message,
			&n.Stage,
			&n.CreatedAt,
			&n.Read,
			&n.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkRead flips the read flag on a notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET read_flag = 1 WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// Deactivate logically deletes a notification.
func (r *NotificationRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET active = 0 WHERE id = ?`
	if _, err := r.executor(ctx).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to deactivate notification", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to deactivate notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) executor(ctx context.Context) sqlite.Executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
