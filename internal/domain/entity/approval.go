package entity

import "time"

// Approval records one decision per (request, approver, level). A second
// decision by the same approver at the same level overwrites the first.
type Approval struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	ApproverID string    `json:"approver_id"`
	Level      int       `json:"level"`
	Decision   string    `json:"decision"`
	Comments   string    `json:"comments"`
	DecidedAt  time.Time `json:"decided_at"`
}

// ApprovalAggregate is the derived outcome over all approvals of a request.
// The ledger computes it; the lifecycle interprets it.
type ApprovalAggregate struct {
	DecidedLevels       []int `json:"decided_levels"`
	ApprovedLevels      []int `json:"approved_levels"`
	HasRejection        bool  `json:"has_rejection"`
	AllRequiredApproved bool  `json:"all_required_approved"`
}

// LevelApproved reports whether the given level carries an approval.
func (a *ApprovalAggregate) LevelApproved(level int) bool {
	for _, l := range a.ApprovedLevels {
		if l == level {
			return true
		}
	}
	return false
}
