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

// SubmitRequestInput carries the trainee profile for a new request.
type SubmitRequestInput struct {
	TraineeName   string `json:"trainee_name"`
	Institution   string `json:"institution"`
	Course        string `json:"course"`
	DurationWeeks int    `json:"duration_weeks"`
	Skills        string `json:"skills"`
	Department    string `json:"department"`
	SubmittedBy   string `json:"submitted_by"`
}

// RequestDetail bundles a request with its approvals and assignments.
type RequestDetail struct {
	Request     *entity.InternshipRequest  `json:"request"`
	Approvals   []*entity.Approval         `json:"approvals"`
	Assignments []*entity.MentorAssignment `json:"assignments"`
}

// RequestLifecycle is the top-level state machine for internship requests.
// It orchestrates ledger and allocator outcomes into status transitions and
// raises the notification side effects.
type RequestLifecycle interface {
	Submit(ctx context.Context, input SubmitRequestInput) (*entity.InternshipRequest, error)
	Decide(ctx context.Context, requestID int64, approverID string, level int, decision, comments string) (string, error)
	AssignMentor(ctx context.Context, requestID int64, mentorID, assignedBy, notes string) (*entity.MentorAssignment, error)
	Complete(ctx context.Context, requestID int64, actorID string) error
	Get(ctx context.Context, requestID int64) (*RequestDetail, error)
	List(ctx context.Context, limit, offset int) ([]*entity.InternshipRequest, error)
}

type lifecycleServiceImpl struct {
	requestRepo    port.RequestRepository
	assignmentRepo port.AssignmentRepository
	ledger         ApprovalLedger
	allocator      MentorAllocator
	auditor        AuditRecorder
	identity       port.IdentityProvider
	txManager      port.TransactionManager
	events         dispatcher.Dispatcher
	logger         Logger
}

// NewRequestLifecycle creates a new RequestLifecycle
func NewRequestLifecycle(
	requestRepo port.RequestRepository,
	assignmentRepo port.AssignmentRepository,
	ledger ApprovalLedger,
	allocator MentorAllocator,
	auditor AuditRecorder,
	identity port.IdentityProvider,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) RequestLifecycle {
	return &lifecycleServiceImpl{
		requestRepo:    requestRepo,
		assignmentRepo: assignmentRepo,
		ledger:         ledger,
		allocator:      allocator,
		auditor:        auditor,
		identity:       identity,
		txManager:      txManager,
		events:         events,
		logger:         logger,
	}
}

// Submit creates a request in SUBMITTED after validating the trainee
// fields. No notification is raised for submission.
func (s *lifecycleServiceImpl) Submit(ctx context.Context, input SubmitRequestInput) (*entity.InternshipRequest, error) {
	now := time.Now()
	request := &entity.InternshipRequest{
		RequestNo:     uuid.NewString(),
		TraineeName:   input.TraineeName,
		Institution:   input.Institution,
		Course:        input.Course,
		DurationWeeks: input.DurationWeeks,
		Skills:        input.Skills,
		Department:    input.Department,
		SubmittedBy:   input.SubmittedBy,
		Status:        entity.StatusSubmitted,
		SubmittedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	submitter, err := s.identity.Resolve(ctx, input.SubmittedBy)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown submitter %s", ErrPermissionDenied, input.SubmittedBy)
	}
	if !policy.Allowed(submitter.Role, policy.ActionSubmit, 0) {
		return nil, fmt.Errorf("%w: role %s cannot submit requests", ErrPermissionDenied, submitter.Role)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, request); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		return s.auditor.Record(txCtx, "request.submitted", input.SubmittedBy, entity.TargetRequest, request.ID, map[string]interface{}{
			"trainee_name": request.TraineeName,
			"department":   request.Department,
		})
	})
	if err != nil {
		s.logger.Error("Failed to submit request", "error", err, "submitted_by", input.SubmittedBy)
		return nil, err
	}

	s.logger.Info("Request submitted",
		"request_id", request.ID, "request_no", request.RequestNo, "department", request.Department)

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeRequestSubmitted, request.ID, request.RequestNo, map[string]interface{}{
		"submitted_by": request.SubmittedBy,
	}))

	return request, nil
}

// Decide records an approval decision and advances or rejects the request.
// A single rejection is final; approvals advance the request once the
// required levels for its current stage are satisfied. Exactly one
// notification goes to the submitter describing the outcome.
func (s *lifecycleServiceImpl) Decide(ctx context.Context, requestID int64, approverID string, level int, decision, comments string) (string, error) {
	if !policy.KnownLevel(level) {
		return "", fmt.Errorf("%w: unknown approval level %d", ErrValidation, level)
	}

	approver, err := s.identity.Resolve(ctx, approverID)
	if err != nil {
		return "", fmt.Errorf("%w: unknown approver %s", ErrPermissionDenied, approverID)
	}
	if !policy.Allowed(approver.Role, policy.ActionDecide, level) {
		return "", fmt.Errorf("%w: role %s cannot decide level %d", ErrPermissionDenied, approver.Role, level)
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if request.IsTerminal() {
		return "", fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, requestID, request.Status)
	}

	decision = strings.ToUpper(decision)
	newStatus := request.Status

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		aggregate, err := s.ledger.Record(txCtx, requestID, approverID, level, decision, comments)
		if err != nil {
			return err
		}

		if decision == entity.DecisionRejected {
			status, err := s.transition(txCtx, requestID, newStatus, workflow.TriggerReject, approverID, "request.rejected")
			if err != nil {
				return err
			}
			newStatus = status
			return nil
		}

		// The first decision implicitly moves a fresh submission into
		// review; the audit trail records the hop so the status never skips
		// a named state silently.
		if newStatus == entity.StatusSubmitted {
			status, err := s.transition(txCtx, requestID, newStatus, workflow.TriggerStartReview, approverID, "request.review_started")
			if err != nil {
				return err
			}
			newStatus = status
		}

		if newStatus == entity.StatusUnderReview && aggregate.LevelApproved(entity.LevelLNDHead) {
			status, err := s.transition(txCtx, requestID, newStatus, workflow.TriggerAdvance, approverID, "request.advanced")
			if err != nil {
				return err
			}
			newStatus = status
		}

		if newStatus == entity.StatusMentorAssigned && aggregate.AllRequiredApproved {
			status, err := s.transition(txCtx, requestID, newStatus, workflow.TriggerFinalApprove, approverID, "request.approved")
			if err != nil {
				return err
			}
			newStatus = status
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to decide request",
			"error", err, "request_id", requestID, "approver_id", approverID, "level", level)
		return "", err
	}

	s.logger.Info("Decision recorded",
		"request_id", requestID, "approver_id", approverID, "level", level,
		"decision", decision, "status", newStatus)

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeRequestDecided, requestID, request.RequestNo, map[string]interface{}{
		"submitted_by": request.SubmittedBy,
		"decision":     decision,
		"status":       newStatus,
		"level":        level,
	}))

	return newStatus, nil
}

// AssignMentor delegates to the allocator. On capacity failure the request
// status is untouched and the error surfaces to the caller.
func (s *lifecycleServiceImpl) AssignMentor(ctx context.Context, requestID int64, mentorID, assignedBy, notes string) (*entity.MentorAssignment, error) {
	assigner, err := s.identity.Resolve(ctx, assignedBy)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown assigner %s", ErrPermissionDenied, assignedBy)
	}
	if !policy.Allowed(assigner.Role, policy.ActionAssignMentor, 0) {
		return nil, fmt.Errorf("%w: role %s cannot assign mentors", ErrPermissionDenied, assigner.Role)
	}

	mentor, err := s.identity.Resolve(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown mentor %s", ErrValidation, mentorID)
	}
	if !policy.CanMentor(mentor.Role) {
		return nil, fmt.Errorf("%w: user %s does not hold the mentor role", ErrValidation, mentorID)
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.StatusMentorAssigned {
		return nil, fmt.Errorf("%w: request %d is %s, mentor assignment requires %s",
			ErrInvalidTransition, requestID, request.Status, entity.StatusMentorAssigned)
	}

	if existing, err := s.assignmentRepo.GetActiveByRequestID(ctx, requestID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: request %d already has an active assignment", ErrInvalidTransition, requestID)
	}

	assignment, err := s.allocator.Assign(ctx, requestID, mentorID, assignedBy, notes)
	if err != nil {
		return nil, err
	}

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeMentorAssigned, requestID, request.RequestNo, map[string]interface{}{
		"submitted_by": request.SubmittedBy,
		"mentor_id":    mentorID,
		"trainee_name": request.TraineeName,
	}))

	return assignment, nil
}

// Complete ends the request's active mentor assignment and moves the
// request to COMPLETED. Only legal while an ACTIVE assignment exists.
func (s *lifecycleServiceImpl) Complete(ctx context.Context, requestID int64, actorID string) error {
	actor, err := s.identity.Resolve(ctx, actorID)
	if err != nil {
		return fmt.Errorf("%w: unknown user %s", ErrPermissionDenied, actorID)
	}
	if !policy.Allowed(actor.Role, policy.ActionCompleteRequest, 0) {
		return fmt.Errorf("%w: role %s cannot complete requests", ErrPermissionDenied, actor.Role)
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.IsTerminal() {
		return fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, requestID, request.Status)
	}

	assignment, err := s.assignmentRepo.GetActiveByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return fmt.Errorf("%w: request %d has no active mentor assignment", ErrInvalidTransition, requestID)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		changed, err := s.assignmentRepo.UpdateStatus(txCtx, assignment.ID, entity.AssignmentActive, entity.AssignmentCompleted, time.Now())
		if err != nil {
			return fmt.Errorf("end assignment: %w", err)
		}
		if !changed {
			return fmt.Errorf("%w: assignment %d changed concurrently", ErrInvalidTransition, assignment.ID)
		}

		if err := s.auditor.Record(txCtx, "assignment.completed", actorID, entity.TargetAssignment, assignment.ID, map[string]interface{}{
			"request_id": requestID,
			"mentor_id":  assignment.MentorID,
		}); err != nil {
			return err
		}

		_, err = s.transition(txCtx, requestID, request.Status, workflow.TriggerComplete, actorID, "request.completed")
		return err
	})
	if err != nil {
		s.logger.Error("Failed to complete request", "error", err, "request_id", requestID)
		return err
	}

	s.logger.Info("Request completed", "request_id", requestID)

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeRequestCompleted, requestID, request.RequestNo, map[string]interface{}{
		"submitted_by": request.SubmittedBy,
		"mentor_id":    assignment.MentorID,
		"trainee_name": request.TraineeName,
	}))

	return nil
}

// Get returns the request with its approvals and assignments.
func (s *lifecycleServiceImpl) Get(ctx context.Context, requestID int64) (*RequestDetail, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	approvals, err := s.ledger.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	return &RequestDetail{
		Request:     request,
		Approvals:   approvals,
		Assignments: assignments,
	}, nil
}

// List returns a paginated list of requests.
func (s *lifecycleServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.InternshipRequest, error) {
	return s.requestRepo.List(ctx, limit, offset)
}

func (s *lifecycleServiceImpl) loadRequest(ctx context.Context, requestID int64) (*entity.InternshipRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}
	return request, nil
}

// transition fires the trigger on the lifecycle machine and applies the
// resulting status with a guarded update, writing one audit entry. The
// guard loses against concurrent transitions instead of overwriting them.
func (s *lifecycleServiceImpl) transition(ctx context.Context, requestID int64, fromStatus string, trigger workflow.Trigger, actorID, action string) (string, error) {
	machine := workflow.NewRequestMachine(workflow.State(fromStatus))
	if err := machine.Fire(ctx, trigger); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	toStatus := machine.State().String()

	changed, err := s.requestRepo.UpdateStatus(ctx, requestID, fromStatus, toStatus)
	if err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}
	if !changed {
		return "", fmt.Errorf("%w: request %d moved away from %s concurrently", ErrInvalidTransition, requestID, fromStatus)
	}

	if err := s.auditor.Record(ctx, action, actorID, entity.TargetRequest, requestID, map[string]interface{}{
		"from_status": fromStatus,
		"to_status":   toStatus,
	}); err != nil {
		return "", err
	}

	return toStatus, nil
}
