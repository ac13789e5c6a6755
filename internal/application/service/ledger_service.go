package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// ApprovalLedger records one decision per (request, approver, level) and
// derives the aggregate approval outcome. It never mutates the request
// itself; the lifecycle interprets the aggregate.
type ApprovalLedger interface {
	Record(ctx context.Context, requestID int64, approverID string, level int, decision, comments string) (*entity.ApprovalAggregate, error)
	ListByRequest(ctx context.Context, requestID int64) ([]*entity.Approval, error)
}

type ledgerServiceImpl struct {
	approvalRepo   port.ApprovalRepository
	requiredLevels []int
	logger         Logger
}

// NewApprovalLedger creates a new ApprovalLedger. requiredLevels are the
// approval levels a request needs before it counts as fully approved.
func NewApprovalLedger(approvalRepo port.ApprovalRepository, requiredLevels []int, logger Logger) ApprovalLedger {
	return &ledgerServiceImpl{
		approvalRepo:   approvalRepo,
		requiredLevels: requiredLevels,
		logger:         logger,
	}
}

// Record upserts the decision and returns the fresh aggregate. Re-deciding
// the same (request, approver, level) overwrites the prior row, so retries
// are safe.
func (s *ledgerServiceImpl) Record(ctx context.Context, requestID int64, approverID string, level int, decision, comments string) (*entity.ApprovalAggregate, error) {
	decision = strings.ToUpper(decision)
	if decision != entity.DecisionApproved && decision != entity.DecisionRejected {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}

	approval := &entity.Approval{
		RequestID:  requestID,
		ApproverID: approverID,
		Level:      level,
		Decision:   decision,
		Comments:   comments,
		DecidedAt:  time.Now(),
	}

	if err := s.approvalRepo.Upsert(ctx, approval); err != nil {
		s.logger.Error("Failed to record approval",
			"error", err, "request_id", requestID, "approver_id", approverID, "level", level)
		return nil, fmt.Errorf("record approval: %w", err)
	}

	approvals, err := s.approvalRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load approvals: %w", err)
	}

	return s.aggregate(approvals), nil
}

// ListByRequest returns all recorded approvals for a request.
func (s *ledgerServiceImpl) ListByRequest(ctx context.Context, requestID int64) ([]*entity.Approval, error) {
	return s.approvalRepo.GetByRequestID(ctx, requestID)
}

// aggregate folds the approval rows into the derived outcome. A level
// counts as approved only when every decision recorded at that level is an
// approval.
func (s *ledgerServiceImpl) aggregate(approvals []*entity.Approval) *entity.ApprovalAggregate {
	agg := &entity.ApprovalAggregate{}

	decided := make(map[int]bool)
	rejectedAt := make(map[int]bool)
	for _, a := range approvals {
		decided[a.Level] = true
		if a.Decision == entity.DecisionRejected {
			agg.HasRejection = true
			rejectedAt[a.Level] = true
		}
	}

	for level := range decided {
		agg.DecidedLevels = append(agg.DecidedLevels, level)
		if !rejectedAt[level] {
			agg.ApprovedLevels = append(agg.ApprovedLevels, level)
		}
	}
	sort.Ints(agg.DecidedLevels)
	sort.Ints(agg.ApprovedLevels)

	agg.AllRequiredApproved = len(s.requiredLevels) > 0
	for _, level := range s.requiredLevels {
		if !agg.LevelApproved(level) {
			agg.AllRequiredApproved = false
			break
		}
	}

	return agg
}
