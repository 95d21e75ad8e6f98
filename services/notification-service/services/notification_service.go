package services

import (
	"context"
	"strings"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const Source = "notification-service"

type NotificationService interface {
	// Deliver writes n to the recipient's inbox once per eventID and
	// announces it with notification.sent. It reports whether a new entry
	// was written.
	Deliver(ctx context.Context, eventID string, n Notice) (bool, error)
	SendPlatformNotice(ctx context.Context, rtype models.RecipientType, userID int64, message string) error

	ListInbox(ctx context.Context, rtype models.RecipientType, recipientID int64, page, limit int) (*models.InboxList, error)
	UnreadCount(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, rtype models.RecipientType, recipientID, orderID int64) (int64, error)
	MarkAllRead(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error)
}

type notificationServiceImpl struct {
	repo      repository.InboxRepository
	publisher broker.Publisher
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
}

func NewNotificationService(repo repository.InboxRepository, publisher broker.Publisher, metrics *awspkg.MetricsClient, logger *zap.Logger) NotificationService {
	return &notificationServiceImpl{repo: repo, publisher: publisher, metrics: metrics, logger: logger}
}

func (s *notificationServiceImpl) Deliver(ctx context.Context, eventID string, n Notice) (bool, error) {
	entry := &models.InboxEntry{
		EventID:       eventID,
		RecipientType: n.RecipientType,
		RecipientID:   n.RecipientID,
		OrderID:       n.OrderID,
		Message:       n.Message,
	}
	inserted, err := s.repo.Insert(ctx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		s.logger.Debug("Inbox entry already written",
			zap.String("event_id", eventID),
			zap.String("recipient_type", string(n.RecipientType)),
			zap.Int64("recipient_id", n.RecipientID),
		)
		return false, nil
	}

	if s.metrics.IsEnabled() {
		go func() {
			_ = s.metrics.RecordCount(context.WithoutCancel(ctx), awspkg.MetricNotificationsWritten, map[string]string{
				"recipient_type": string(n.RecipientType),
			})
		}()
	}

	// notification.sent is best-effort; the inbox write stands either way
	if _, err := broker.PublishEvent(ctx, s.publisher, Source, events.NotificationSent{
		RecipientID:   n.RecipientID,
		RecipientType: string(n.RecipientType),
		OrderID:       n.OrderID,
		Message:       n.Message,
	}); err != nil {
		s.logger.Warn("Failed to publish notification.sent",
			zap.String("event_id", eventID),
			zap.Int64("recipient_id", n.RecipientID),
			zap.Error(err),
		)
	}
	return true, nil
}

func (s *notificationServiceImpl) SendPlatformNotice(ctx context.Context, rtype models.RecipientType, userID int64, message string) error {
	if !rtype.Valid() {
		return apperrors.Validation("Invalid recipient type")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return apperrors.Validation("Message is required")
	}
	if _, err := s.Deliver(ctx, uuid.NewString(), Notice{RecipientType: rtype, RecipientID: userID, Message: message}); err != nil {
		return apperrors.Internal("Failed to send notification", err)
	}
	s.logger.Info("Platform notice sent", zap.String("recipient_type", string(rtype)), zap.Int64("recipient_id", userID))
	return nil
}

func (s *notificationServiceImpl) ListInbox(ctx context.Context, rtype models.RecipientType, recipientID int64, page, limit int) (*models.InboxList, error) {
	entries, total, err := s.repo.List(ctx, rtype, recipientID, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to load inbox", err)
	}
	unread, err := s.repo.CountUnread(ctx, rtype, recipientID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load inbox", err)
	}
	return &models.InboxList{Items: entries, Total: total, Unread: unread, Page: page, Limit: limit}, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error) {
	n, err := s.repo.CountUnread(ctx, rtype, recipientID)
	if err != nil {
		return 0, apperrors.Internal("Failed to count unread notifications", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, rtype models.RecipientType, recipientID, orderID int64) (int64, error) {
	n, err := s.repo.MarkRead(ctx, rtype, recipientID, orderID)
	if err != nil {
		return 0, apperrors.Internal("Failed to mark notifications read", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, rtype, recipientID)
	if err != nil {
		return 0, apperrors.Internal("Failed to mark notifications read", err)
	}
	return n, nil
}
