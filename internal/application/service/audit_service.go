package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// AuditRecorder appends to the audit trail. It accepts any payload and
// never applies business validation; callers invoke it inside the same
// transaction as the state change it records.
type AuditRecorder interface {
	Record(ctx context.Context, action, actorID, targetType string, targetID int64, metadata map[string]interface{}) error
	Trail(ctx context.Context, targetType string, targetID int64, limit int) ([]*entity.AuditEntry, error)
}

type auditRecorderImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditRecorder creates a new AuditRecorder
func NewAuditRecorder(auditRepo port.AuditRepository, logger Logger) AuditRecorder {
	return &auditRecorderImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one audit entry for a meaningful mutation.
func (s *auditRecorderImpl) Record(ctx context.Context, action, actorID, targetType string, targetID int64, metadata map[string]interface{}) error {
	entry := &entity.AuditEntry{
		Action:     action,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   marshalMetadata(metadata),
		Timestamp:  time.Now(),
	}

	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry",
			"error", err, "action", action, "target_type", targetType, "target_id", targetID)
		return err
	}

	return nil
}

// Trail returns the audit entries for a target, newest first.
func (s *auditRecorderImpl) Trail(ctx context.Context, targetType string, targetID int64, limit int) ([]*entity.AuditEntry, error) {
	entries, err := s.auditRepo.ListByTarget(ctx, targetType, targetID, limit)
	if err != nil {
		s.logger.Error("Failed to list audit trail",
			"error", err, "target_type", targetType, "target_id", targetID)
		return nil, err
	}
	return entries, nil
}

func marshalMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return "{}"
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(data)
}
