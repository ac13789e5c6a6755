package entity

import "time"

// MentorAssignment links one internship request to one mentor. A mentor may
// hold several ACTIVE assignments at once, bounded by the configured
// capacity.
type MentorAssignment struct {
	ID         int64      `json:"id"`
	RequestID  int64      `json:"request_id"`
	MentorID   string     `json:"mentor_id"`
	AssignedBy string     `json:"assigned_by"`
	Notes      string     `json:"notes"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsEnded reports whether the assignment has reached a terminal status.
func (a *MentorAssignment) IsEnded() bool {
	return a.Status == AssignmentCompleted || a.Status == AssignmentCancelled
}
