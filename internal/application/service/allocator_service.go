package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// MentorAllocator creates and ends mentor assignments under the configured
// capacity. The capacity check and the insert run as one atomic unit; a
// mentor's ACTIVE count can never exceed capacity, even under concurrent
// assignment attempts.
type MentorAllocator interface {
	Assign(ctx context.Context, requestID int64, mentorID, assignedBy, notes string) (*entity.MentorAssignment, error)
	Complete(ctx context.Context, assignmentID int64, actorID string) error
	Cancel(ctx context.Context, assignmentID int64, actorID string) error
	Get(ctx context.Context, assignmentID int64) (*entity.MentorAssignment, error)
}

type allocatorServiceImpl struct {
	assignmentRepo port.AssignmentRepository
	auditor        AuditRecorder
	txManager      port.TransactionManager
	capacity       int
	logger         Logger

	mu          sync.Mutex
	mentorLocks map[string]*sync.Mutex
}

// NewMentorAllocator creates a new MentorAllocator with the given capacity.
func NewMentorAllocator(
	assignmentRepo port.AssignmentRepository,
	auditor AuditRecorder,
	txManager port.TransactionManager,
	capacity int,
	logger Logger,
) MentorAllocator {
	return &allocatorServiceImpl{
		assignmentRepo: assignmentRepo,
		auditor:        auditor,
		txManager:      txManager,
		capacity:       capacity,
		logger:         logger,
		mentorLocks:    make(map[string]*sync.Mutex),
	}
}

// lockMentor serializes assignment attempts per mentor. The conditional
// insert is atomic on its own; the lock additionally keeps concurrent
// attempts from burning transactions on a mentor already at capacity.
func (s *allocatorServiceImpl) lockMentor(mentorID string) func() {
	s.mu.Lock()
	lock, ok := s.mentorLocks[mentorID]
	if !ok {
		lock = &sync.Mutex{}
		s.mentorLocks[mentorID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Assign creates an ACTIVE assignment if the mentor has spare capacity.
// On capacity exceeded nothing is written.
func (s *allocatorServiceImpl) Assign(ctx context.Context, requestID int64, mentorID, assignedBy, notes string) (*entity.MentorAssignment, error) {
	unlock := s.lockMentor(mentorID)
	defer unlock()

	now := time.Now()
	assignment := &entity.MentorAssignment{
		RequestID:  requestID,
		MentorID:   mentorID,
		AssignedBy: assignedBy,
		Notes:      notes,
		Status:     entity.AssignmentActive,
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		created, err := s.assignmentRepo.CreateIfCapacity(txCtx, assignment, s.capacity)
		if err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		if !created {
			return fmt.Errorf("%w: mentor %s already holds %d active assignments", ErrCapacityExceeded, mentorID, s.capacity)
		}

		return s.auditor.Record(txCtx, "assignment.created", assignedBy, entity.TargetAssignment, assignment.ID, map[string]interface{}{
			"request_id": requestID,
			"mentor_id":  mentorID,
		})
	})
	if err != nil {
		s.logger.Error("Failed to assign mentor",
			"error", err, "request_id", requestID, "mentor_id", mentorID)
		return nil, err
	}

	s.logger.Info("Mentor assigned",
		"assignment_id", assignment.ID, "request_id", requestID, "mentor_id", mentorID)
	return assignment, nil
}

// Complete transitions the assignment ACTIVE to COMPLETED. Completing an
// already-completed assignment is a no-op, not an error.
func (s *allocatorServiceImpl) Complete(ctx context.Context, assignmentID int64, actorID string) error {
	return s.end(ctx, assignmentID, actorID, entity.AssignmentCompleted, "assignment.completed")
}

// Cancel transitions the assignment ACTIVE to CANCELLED. Cancelling an
// already-cancelled assignment is a no-op, not an error.
func (s *allocatorServiceImpl) Cancel(ctx context.Context, assignmentID int64, actorID string) error {
	return s.end(ctx, assignmentID, actorID, entity.AssignmentCancelled, "assignment.cancelled")
}

// Get retrieves an assignment by ID.
func (s *allocatorServiceImpl) Get(ctx context.Context, assignmentID int64) (*entity.MentorAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("%w: assignment %d", ErrNotFound, assignmentID)
	}
	return assignment, nil
}

func (s *allocatorServiceImpl) end(ctx context.Context, assignmentID int64, actorID, toStatus, action string) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return fmt.Errorf("%w: assignment %d", ErrNotFound, assignmentID)
	}

	// Idempotent: already in the target status means the work is done.
	if assignment.Status == toStatus {
		return nil
	}
	if assignment.Status != entity.AssignmentActive {
		return fmt.Errorf("%w: assignment %d is %s", ErrInvalidTransition, assignmentID, assignment.Status)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		changed, err := s.assignmentRepo.UpdateStatus(txCtx, assignmentID, entity.AssignmentActive, toStatus, time.Now())
		if err != nil {
			return fmt.Errorf("end assignment: %w", err)
		}
		if !changed {
			return fmt.Errorf("%w: assignment %d changed concurrently", ErrInvalidTransition, assignmentID)
		}

		return s.auditor.Record(txCtx, action, actorID, entity.TargetAssignment, assignmentID, map[string]interface{}{
			"request_id": assignment.RequestID,
			"mentor_id":  assignment.MentorID,
		})
	})
	if err != nil {
		// A concurrent identical call may have won the guarded update;
		// reaching the target status still counts as success.
		if current, getErr := s.assignmentRepo.GetByID(ctx, assignmentID); getErr == nil && current != nil && current.Status == toStatus {
			return nil
		}
		s.logger.Error("Failed to end assignment",
			"error", err, "assignment_id", assignmentID, "to_status", toStatus)
		return err
	}

	s.logger.Info("Assignment ended",
		"assignment_id", assignmentID, "status", toStatus)
	return nil
}
