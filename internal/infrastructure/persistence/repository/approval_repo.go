package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/sqlite"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sqlite.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the decision for (request, approver, level). The unique
// index on those three columns turns a repeat decision into an in-place
// overwrite instead of a duplicate row.
func (r *ApprovalRepository) Upsert(ctx context.Context, approval *entity.Approval) error {
	query := `
		INSERT INTO approvals (
			request_id, approver_id, level, decision, comments, decided_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id, approver_id, level) DO UPDATE SET
			decision = excluded.decision,
			comments = excluded.comments,
			decided_at = excluded.decided_at
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		approval.RequestID,
		approval.ApproverID,
		approval.Level,
		approval.Decision,
		approval.Comments,
		approval.DecidedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert approval",
			zap.Int64("request_id", approval.RequestID),
			zap.String("approver_id", approval.ApproverID),
			zap.Int("level", approval.Level),
			zap.Error(err))
		return fmt.Errorf("failed to upsert approval: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		approval.ID = id
	}

	return nil
}

// GetByRequestID retrieves all approvals for a request in decision order
func (r *ApprovalRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Approval, error) {
	query := `
		SELECT id, request_id, approver_id, level, decision, comments, decided_at
		FROM approvals
		WHERE request_id = ?
		ORDER BY level, decided_at
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get approvals", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		var approval entity.Approval
		err := rows.Scan(
			&approval.ID,
			&approval.RequestID,
			&approval.ApproverID,
			&approval.Level,
			&approval.Decision,
			&approval.Comments,
			&approval.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, &approval)
	}

	return approvals, rows.Err()
}

// Verify interface compliance
var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
