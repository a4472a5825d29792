package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

// NotificationService records workflow-stage notifications. It only
// persists them; delivery happens outside this core.
type NotificationService struct {
	notifications port.NotificationRepository
	clock         port.Clock
	logger        *zap.Logger
}

// NewNotificationService creates a notification recorder.
func NewNotificationService(
	notifications port.NotificationRepository,
	clock port.Clock,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		clock:         clock,
		logger:        logger,
	}
}

// Record stores a new unread, active notification.
func (s *NotificationService) Record(ctx context.Context, n *entity.Notification) error {
	n.CreatedAt = s.clock.Now()
	n.Read = false
	n.Active = true
	if err := s.notifications.Create(ctx, n); err != nil {
		return wrapStorage("record notification", err)
	}
	s.logger.Debug("notification recorded",
		zap.String("receiver", n.ReceiverCode),
		zap.String("stage", n.Stage))
	return nil
}

// ListUnread returns the active unread notifications for a receiver.
func (s *NotificationService) ListUnread(ctx context.Context, receiverCode string) ([]*entity.Notification, error) {
	notifications, err := s.notifications.ListByReceiver(ctx, receiverCode, true)
	if err != nil {
		return nil, wrapStorage("list notifications", err)
	}
	return notifications, nil
}

// MarkRead flips the read flag on a notification.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return wrapStorage("mark notification read", err)
	}
	return nil
}

// Dismiss logically deletes a notification.
func (s *NotificationService) Dismiss(ctx context.Context, id int64) error {
	if err := s.notifications.Deactivate(ctx, id); err != nil {
		return wrapStorage("dismiss notification", err)
	}
	return nil
}
