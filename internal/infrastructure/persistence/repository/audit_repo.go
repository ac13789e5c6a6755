package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/sqlite"
)

// AuditRepository implements port.AuditRepository. The audit trail is
// append-only: there is no update or delete path, here or in the schema.
type AuditRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlite.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append appends one audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (action, actor_id, target_type, target_id, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entry.Action,
		entry.ActorID,
		entry.TargetType,
		entry.TargetID,
		entry.Metadata,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("action", entry.Action), zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByTarget retrieves the audit entries for a target, newest first
func (r *AuditRepository) ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, action, actor_id, target_type, target_id, metadata, timestamp
		FROM audit_entries
		WHERE target_type = ? AND target_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, targetType, targetID, limit)
	if err != nil {
		r.logger.Error("Failed to list audit entries",
			zap.String("target_type", targetType), zap.Int64("target_id", targetID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var entry entity.AuditEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActorID,
			&entry.TargetType,
			&entry.TargetID,
			&entry.Metadata,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
