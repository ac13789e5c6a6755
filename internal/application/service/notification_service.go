package service

import (
	"context"
	"fmt"
	"time"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// NotificationService stores user notifications and pushes them through the
// configured dispatcher. Push is best effort; a delivery failure never
// propagates to the workflow that raised it.
type NotificationService interface {
	Push(ctx context.Context, userID, title, message, priority string)
	Inbox(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, notificationID int64) error
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	dispatcher       port.NotificationDispatcher
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	dispatcher port.NotificationDispatcher,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		logger:           logger,
	}
}

// Push persists the notification and hands it to the delivery channel.
// Both steps are best effort and only logged on failure.
func (s *notificationServiceImpl) Push(ctx context.Context, userID, title, message, priority string) {
	if priority == "" {
		priority = entity.PriorityNormal
	}

	notification := &entity.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Priority:  priority,
		CreatedAt: time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("Failed to store notification",
			"error", err, "user_id", userID, "title", title)
	}

	if err := s.dispatcher.Notify(ctx, userID, title, message, priority); err != nil {
		s.logger.Error("Failed to deliver notification",
			"error", err, "user_id", userID, "title", title)
	}
}

// Inbox returns a user's notifications, newest first.
func (s *notificationServiceImpl) Inbox(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead marks a notification as read.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID int64) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
