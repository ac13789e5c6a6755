package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, priority, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		notification.UserID,
		notification.Title,
		notification.Message,
		notification.Priority,
		notification.IsRead,
		notification.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("user_id", notification.UserID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	notification.ID = id
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, title, message, priority, is_read, created_at
		FROM notifications
		WHERE user_id = ?
	`
	args := []interface{}{userID}

	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var notification entity.Notification
		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Title,
			&notification.Message,
			&notification.Priority,
			&notification.IsRead,
			&notification.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}

	return notifications, rows.Err()
}

// MarkRead marks a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
