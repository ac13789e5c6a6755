package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/traineedesk/internship-workflow/internal/application/dispatcher"
	"github.com/traineedesk/internship-workflow/internal/application/policy"
	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/domain/event"
	"github.com/traineedesk/internship-workflow/internal/domain/workflow"
)

// ForwardingWorkflow hands approved applications from the coordinator to
// the L&D head as one batch and records the head's review verdict.
type ForwardingWorkflow interface {
	Forward(ctx context.Context, requestIDs []int64, department, fromUserID, toUserID string) (*entity.ForwardedBatch, error)
	Review(ctx context.Context, batchID int64, reviewerID, decision, comments string) (*entity.ForwardedBatch, error)
	Get(ctx context.Context, batchID int64) (*entity.ForwardedBatch, error)
}

type forwardingServiceImpl struct {
	batchRepo   port.BatchRepository
	requestRepo port.RequestRepository
	auditor     AuditRecorder
	identity    port.IdentityProvider
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewForwardingWorkflow creates a new ForwardingWorkflow
func NewForwardingWorkflow(
	batchRepo port.BatchRepository,
	requestRepo port.RequestRepository,
	auditor AuditRecorder,
	identity port.IdentityProvider,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) ForwardingWorkflow {
	return &forwardingServiceImpl{
		batchRepo:   batchRepo,
		requestRepo: requestRepo,
		auditor:     auditor,
		identity:    identity,
		txManager:   txManager,
		events:      events,
		logger:      logger,
	}
}

// Forward snapshots the listed requests into a PENDING_LND_REVIEW batch.
// Every request must be APPROVED; the snapshots are copies, so later edits
// to a request never change what the reviewer sees.
func (s *forwardingServiceImpl) Forward(ctx context.Context, requestIDs []int64, department, fromUserID, toUserID string) (*entity.ForwardedBatch, error) {
	if len(requestIDs) == 0 {
		return nil, fmt.Errorf("%w: a batch needs at least one request", ErrValidation)
	}
	if strings.TrimSpace(department) == "" {
		return nil, fmt.Errorf("%w: department is required", ErrValidation)
	}

	forwarder, err := s.identity.Resolve(ctx, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown forwarder %s", ErrPermissionDenied, fromUserID)
	}
	if !policy.Allowed(forwarder.Role, policy.ActionForwardBatch, 0) {
		return nil, fmt.Errorf("%w: role %s cannot forward batches", ErrPermissionDenied, forwarder.Role)
	}

	receiver, err := s.identity.Resolve(ctx, toUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown receiver %s", ErrValidation, toUserID)
	}
	if !policy.CanReceiveBatch(receiver.Role) {
		return nil, fmt.Errorf("%w: user %s cannot receive forwarded batches", ErrValidation, toUserID)
	}

	snapshots := make([]entity.ApplicationSnapshot, 0, len(requestIDs))
	for i, requestID := range requestIDs {
		request, err := s.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if request == nil {
			return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
		}
		if request.Status != entity.StatusApproved {
			return nil, fmt.Errorf("%w: request %d is %s, only %s requests can be forwarded",
				ErrInvalidTransition, requestID, request.Status, entity.StatusApproved)
		}
		snapshots = append(snapshots, entity.SnapshotOf(request, i+1))
	}

	batch := &entity.ForwardedBatch{
		BatchNo:           uuid.NewString(),
		Department:        department,
		ApplicationsCount: len(snapshots),
		ForwardedBy:       fromUserID,
		ForwardedTo:       toUserID,
		Status:            entity.BatchPendingLNDReview,
		ForwardedAt:       time.Now(),
		Applications:      snapshots,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.batchRepo.Create(txCtx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		return s.auditor.Record(txCtx, "batch.forwarded", fromUserID, entity.TargetBatch, batch.ID, map[string]interface{}{
			"department":         department,
			"forwarded_to":       toUserID,
			"applications_count": batch.ApplicationsCount,
		})
	})
	if err != nil {
		s.logger.Error("Failed to forward batch",
			"error", err, "department", department, "from_user", fromUserID)
		return nil, err
	}

	s.logger.Info("Batch forwarded",
		"batch_id", batch.ID, "batch_no", batch.BatchNo,
		"applications_count", batch.ApplicationsCount, "forwarded_to", toUserID)

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeBatchForwarded, batch.ID, batch.BatchNo, map[string]interface{}{
		"forwarded_to":       toUserID,
		"forwarded_by":       fromUserID,
		"department":         department,
		"applications_count": batch.ApplicationsCount,
	}))

	return batch, nil
}

// Review records the L&D head's verdict on a batch. Only the user the
// batch was forwarded to may review it; the ownership check runs before
// the state check so a wrong reviewer always sees a permission error.
func (s *forwardingServiceImpl) Review(ctx context.Context, batchID int64, reviewerID, decision, comments string) (*entity.ForwardedBatch, error) {
	batch, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if batch.ForwardedTo != reviewerID {
		return nil, fmt.Errorf("%w: batch %d was not forwarded to %s", ErrPermissionDenied, batchID, reviewerID)
	}

	reviewer, err := s.identity.Resolve(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown reviewer %s", ErrPermissionDenied, reviewerID)
	}
	if !policy.Allowed(reviewer.Role, policy.ActionReviewBatch, 0) {
		return nil, fmt.Errorf("%w: role %s cannot review batches", ErrPermissionDenied, reviewer.Role)
	}

	decision = strings.ToUpper(decision)
	var trigger workflow.Trigger
	switch decision {
	case entity.DecisionApproved:
		trigger = workflow.TriggerLNDApprove
	case entity.DecisionRejected:
		trigger = workflow.TriggerLNDReject
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}

	machine := workflow.NewBatchMachine(workflow.State(batch.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, fmt.Errorf("%w: batch %d is %s", ErrInvalidTransition, batchID, batch.Status)
	}
	toStatus := machine.State().String()
	reviewedAt := time.Now()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		changed, err := s.batchRepo.UpdateStatus(txCtx, batchID, batch.Status, toStatus, reviewerID, reviewedAt)
		if err != nil {
			return fmt.Errorf("update batch status: %w", err)
		}
		if !changed {
			return fmt.Errorf("%w: batch %d was reviewed concurrently", ErrInvalidTransition, batchID)
		}

		return s.auditor.Record(txCtx, "batch.reviewed", reviewerID, entity.TargetBatch, batchID, map[string]interface{}{
			"from_status": batch.Status,
			"to_status":   toStatus,
			"comments":    comments,
		})
	})
	if err != nil {
		s.logger.Error("Failed to review batch",
			"error", err, "batch_id", batchID, "reviewer_id", reviewerID)
		return nil, err
	}

	batch.Status = toStatus
	batch.ReviewedBy = reviewerID
	batch.ReviewedAt = &reviewedAt

	s.logger.Info("Batch reviewed",
		"batch_id", batchID, "status", toStatus, "reviewer_id", reviewerID)

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeBatchReviewed, batchID, batch.BatchNo, map[string]interface{}{
		"forwarded_by": batch.ForwardedBy,
		"status":       toStatus,
		"decision":     decision,
	}))

	return batch, nil
}

// Get returns a batch with its application snapshots.
func (s *forwardingServiceImpl) Get(ctx context.Context, batchID int64) (*entity.ForwardedBatch, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	return batch, nil
}
