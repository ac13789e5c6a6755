package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/sqlite"
)

// BatchRepository implements port.BatchRepository
type BatchRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *sqlite.DB, logger *zap.Logger) port.BatchRepository {
	return &BatchRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists the batch together with its application snapshots. Must
// run inside a transaction so the batch never exists without its snapshots.
func (r *BatchRepository) Create(ctx context.Context, batch *entity.ForwardedBatch) error {
	query := `
		INSERT INTO forwarded_batches (
			batch_no, department, applications_count, forwarded_by,
			forwarded_to, status, forwarded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		batch.BatchNo,
		batch.Department,
		batch.ApplicationsCount,
		batch.ForwardedBy,
		batch.ForwardedTo,
		batch.Status,
		batch.ForwardedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create batch", zap.String("batch_no", batch.BatchNo), zap.Error(err))
		return fmt.Errorf("failed to create batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	batch.ID = id

	snapshotQuery := `
		INSERT INTO application_snapshots (
			batch_id, position, request_id, trainee_name, institution,
			course, duration_weeks, skills
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range batch.Applications {
		snapshot := &batch.Applications[i]
		snapshot.BatchID = id

		result, err := r.db.Executor(ctx).ExecContext(ctx, snapshotQuery,
			snapshot.BatchID,
			snapshot.Position,
			snapshot.RequestID,
			snapshot.TraineeName,
			snapshot.Institution,
			snapshot.Course,
			snapshot.DurationWeeks,
			snapshot.Skills,
		)
		if err != nil {
			r.logger.Error("Failed to create snapshot",
				zap.Int64("batch_id", id), zap.Int64("request_id", snapshot.RequestID), zap.Error(err))
			return fmt.Errorf("failed to create snapshot: %w", err)
		}
		if snapshotID, err := result.LastInsertId(); err == nil {
			snapshot.ID = snapshotID
		}
	}

	return nil
}

// GetByID returns the batch with its snapshots in forward order
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*entity.ForwardedBatch, error) {
	query := `
		SELECT id, batch_no, department, applications_count, forwarded_by,
			forwarded_to, status, forwarded_at, reviewed_by, reviewed_at
		FROM forwarded_batches
		WHERE id = ?
	`

	var batch entity.ForwardedBatch
	var reviewedBy sql.NullString
	var reviewedAt sql.NullTime

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&batch.ID,
		&batch.BatchNo,
		&batch.Department,
		&batch.ApplicationsCount,
		&batch.ForwardedBy,
		&batch.ForwardedTo,
		&batch.Status,
		&batch.ForwardedAt,
		&reviewedBy,
		&reviewedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get batch by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if reviewedBy.Valid {
		batch.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		batch.ReviewedAt = &reviewedAt.Time
	}

	snapshots, err := r.getSnapshots(ctx, id)
	if err != nil {
		return nil, err
	}
	batch.Applications = snapshots

	return &batch, nil
}

// UpdateStatus records the review outcome, guarded by the expected current
// status so a batch is reviewed at most once
func (r *BatchRepository) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus, reviewedBy string, reviewedAt time.Time) (bool, error) {
	query := `
		UPDATE forwarded_batches
		SET status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, toStatus, reviewedBy, reviewedAt, id, fromStatus)
	if err != nil {
		r.logger.Error("Failed to update batch status",
			zap.Int64("id", id), zap.String("to_status", toStatus), zap.Error(err))
		return false, fmt.Errorf("failed to update batch status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *BatchRepository) getSnapshots(ctx context.Context, batchID int64) ([]entity.ApplicationSnapshot, error) {
	query := `
		SELECT id, batch_id, position, request_id, trainee_name, institution,
			course, duration_weeks, skills
		FROM application_snapshots
		WHERE batch_id = ?
		ORDER BY position
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, batchID)
	if err != nil {
		r.logger.Error("Failed to get snapshots", zap.Int64("batch_id", batchID), zap.Error(err))
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []entity.ApplicationSnapshot
	for rows.Next() {
		var snapshot entity.ApplicationSnapshot
		err := rows.Scan(
			&snapshot.ID,
			&snapshot.BatchID,
			&snapshot.Position,
			&snapshot.RequestID,
			&snapshot.TraineeName,
			&snapshot.Institution,
			&snapshot.Course,
			&snapshot.DurationWeeks,
			&snapshot.Skills,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// Verify interface compliance
var _ port.BatchRepository = (*BatchRepository)(nil)
