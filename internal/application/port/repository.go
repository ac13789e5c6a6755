package port

import (
	"context"
	"time"

	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// RequestRepository defines persistence operations for InternshipRequest
type RequestRepository interface {
	Create(ctx context.Context, request *entity.InternshipRequest) error
	GetByID(ctx context.Context, id int64) (*entity.InternshipRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.InternshipRequest, error)

	// UpdateStatus moves the request from one status to another. The update
	// only applies when the stored status still equals fromStatus; the
	// returned bool reports whether the row was changed. Concurrent
	// transitions against the same request lose this check instead of
	// clobbering each other.
	UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error)
}

// ApprovalRepository defines persistence operations for Approval
type ApprovalRepository interface {
	// Upsert writes the decision for (request, approver, level). A repeat
	// decision by the same approver at the same level overwrites the prior
	// row rather than creating a duplicate.
	Upsert(ctx context.Context, approval *entity.Approval) error

	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Approval, error)
}

// AssignmentRepository defines persistence operations for MentorAssignment
type AssignmentRepository interface {
	// CreateIfCapacity inserts the assignment only while the mentor's ACTIVE
	// count stays below capacity. Check and insert execute as one statement
	// so two concurrent assignments cannot both slip under the limit.
	CreateIfCapacity(ctx context.Context, assignment *entity.MentorAssignment, capacity int) (bool, error)

	GetByID(ctx context.Context, id int64) (*entity.MentorAssignment, error)
	GetActiveByRequestID(ctx context.Context, requestID int64) (*entity.MentorAssignment, error)
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.MentorAssignment, error)
	CountActiveByMentor(ctx context.Context, mentorID string) (int, error)

	// UpdateStatus ends an assignment, guarded by the current status the
	// same way RequestRepository.UpdateStatus is.
	UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string, endedAt time.Time) (bool, error)
}

// BatchRepository defines persistence operations for ForwardedBatch
type BatchRepository interface {
	// Create persists the batch together with its application snapshots.
	Create(ctx context.Context, batch *entity.ForwardedBatch) error

	// GetByID returns the batch with snapshots in forward order.
	GetByID(ctx context.Context, id int64) (*entity.ForwardedBatch, error)

	// UpdateStatus records the review outcome, guarded by fromStatus.
	UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus, reviewedBy string, reviewedAt time.Time) (bool, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// AuditRepository defines persistence operations for the append-only audit
// trail. There is no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]*entity.AuditEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
