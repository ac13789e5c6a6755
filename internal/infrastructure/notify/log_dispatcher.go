// Package notify carries the outbound notification channel. The default
// dispatcher only logs; deployments plug in a real channel behind the same
// port without touching the core.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/port"
)

// LogDispatcher implements port.NotificationDispatcher by writing the
// notification to the structured log.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a new log-backed dispatcher.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Notify logs the notification. Never fails.
func (d *LogDispatcher) Notify(ctx context.Context, userID, title, message, priority string) error {
	d.logger.Info("Notification dispatched",
		zap.String("user_id", userID),
		zap.String("title", title),
		zap.String("message", message),
		zap.String("priority", priority),
	)
	return nil
}

// Verify interface compliance
var _ port.NotificationDispatcher = (*LogDispatcher)(nil)
