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

// AssignmentRepository implements port.AssignmentRepository
type AssignmentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sqlite.DB, logger *zap.Logger) port.AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

const assignmentColumns = `
	id, request_id, mentor_id, assigned_by, notes, status,
	started_at, ended_at, created_at, updated_at
`

// CreateIfCapacity inserts the assignment only while the mentor's ACTIVE
// count stays below capacity. The count runs inside the INSERT statement,
// so check and insert are one atomic operation at the database; two
// concurrent attempts cannot both observe a free slot.
func (r *AssignmentRepository) CreateIfCapacity(ctx context.Context, assignment *entity.MentorAssignment, capacity int) (bool, error) {
	query := `
		INSERT INTO mentor_assignments (
			request_id, mentor_id, assigned_by, notes, status,
			started_at, created_at, updated_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE (
			SELECT COUNT(*) FROM mentor_assignments
			WHERE mentor_id = ? AND status = ?
		) < ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		assignment.RequestID,
		assignment.MentorID,
		assignment.AssignedBy,
		assignment.Notes,
		assignment.Status,
		assignment.StartedAt,
		assignment.CreatedAt,
		assignment.UpdatedAt,
		assignment.MentorID,
		entity.AssignmentActive,
		capacity,
	)
	if err != nil {
		r.logger.Error("Failed to create assignment",
			zap.Int64("request_id", assignment.RequestID),
			zap.String("mentor_id", assignment.MentorID),
			zap.Error(err))
		return false, fmt.Errorf("failed to create assignment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}

	assignment.ID = id
	return true, nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*entity.MentorAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM mentor_assignments WHERE id = ?`

	assignment, err := scanAssignment(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assignment by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return assignment, nil
}

// GetActiveByRequestID retrieves the ACTIVE assignment for a request, if any
func (r *AssignmentRepository) GetActiveByRequestID(ctx context.Context, requestID int64) (*entity.MentorAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM mentor_assignments
		WHERE request_id = ? AND status = ?
	`

	assignment, err := scanAssignment(r.db.Executor(ctx).QueryRowContext(ctx, query, requestID, entity.AssignmentActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get active assignment", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}

	return assignment, nil
}

// GetByRequestID retrieves all assignments for a request, newest first
func (r *AssignmentRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.MentorAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM mentor_assignments
		WHERE request_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list assignments", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entity.MentorAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

// CountActiveByMentor counts a mentor's ACTIVE assignments
func (r *AssignmentRepository) CountActiveByMentor(ctx context.Context, mentorID string) (int, error) {
	query := `SELECT COUNT(*) FROM mentor_assignments WHERE mentor_id = ? AND status = ?`

	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, mentorID, entity.AssignmentActive).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count active assignments", zap.String("mentor_id", mentorID), zap.Error(err))
		return 0, fmt.Errorf("failed to count active assignments: %w", err)
	}

	return count, nil
}

// UpdateStatus ends an assignment, guarded by the expected current status
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string, endedAt time.Time) (bool, error) {
	query := `
		UPDATE mentor_assignments
		SET status = ?, ended_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, toStatus, endedAt, id, fromStatus)
	if err != nil {
		r.logger.Error("Failed to update assignment status",
			zap.Int64("id", id), zap.String("to_status", toStatus), zap.Error(err))
		return false, fmt.Errorf("failed to update assignment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

func scanAssignment(row rowScanner) (*entity.MentorAssignment, error) {
	var assignment entity.MentorAssignment
	var endedAt sql.NullTime

	err := row.Scan(
		&assignment.ID,
		&assignment.RequestID,
		&assignment.MentorID,
		&assignment.AssignedBy,
		&assignment.Notes,
		&assignment.Status,
		&assignment.StartedAt,
		&endedAt,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		assignment.EndedAt = &endedAt.Time
	}

	return &assignment, nil
}

// Verify interface compliance
var _ port.AssignmentRepository = (*AssignmentRepository)(nil)
