package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/sqlite"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, request_no, trainee_name, institution, course, duration_weeks,
	skills, department, submitted_by, status, submitted_at,
	created_at, updated_at
`

// Create creates a new internship request
func (r *RequestRepository) Create(ctx context.Context, request *entity.InternshipRequest) error {
	query := `
		INSERT INTO internship_requests (
			request_no, trainee_name, institution, course, duration_weeks,
			skills, department, submitted_by, status, submitted_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		request.RequestNo,
		request.TraineeName,
		request.Institution,
		request.Course,
		request.DurationWeeks,
		request.Skills,
		request.Department,
		request.SubmittedBy,
		request.Status,
		request.SubmittedAt,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = id
	return nil
}

// GetByID retrieves an internship request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.InternshipRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM internship_requests WHERE id = ?`

	request, err := scanRequest(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return request, nil
}

// List retrieves internship requests with pagination, newest first
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.InternshipRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM internship_requests
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.InternshipRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// UpdateStatus moves the request between statuses. The WHERE clause guards
// on the expected current status so concurrent transitions cannot clobber
// each other; the caller learns through the bool whether it won.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error) {
	query := `
		UPDATE internship_requests
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, toStatus, id, fromStatus)
	if err != nil {
		r.logger.Error("Failed to update request status",
			zap.Int64("id", id), zap.String("to_status", toStatus), zap.Error(err))
		return false, fmt.Errorf("failed to update request status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.InternshipRequest, error) {
	var request entity.InternshipRequest
	err := row.Scan(
		&request.ID,
		&request.RequestNo,
		&request.TraineeName,
		&request.Institution,
		&request.Course,
		&request.DurationWeeks,
		&request.Skills,
		&request.Department,
		&request.SubmittedBy,
		&request.Status,
		&request.SubmittedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
