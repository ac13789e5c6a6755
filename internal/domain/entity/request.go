package entity

import (
	"fmt"
	"time"
)

// InternshipRequest represents a trainee internship request moving through
// the approval lifecycle. Requests are never deleted, only superseded by a
// terminal status.
type InternshipRequest struct {
	ID            int64     `json:"id"`
	RequestNo     string    `json:"request_no"`
	TraineeName   string    `json:"trainee_name"`
	Institution   string    `json:"institution"`
	Course        string    `json:"course"`
	DurationWeeks int       `json:"duration_weeks"`
	Skills        string    `json:"skills"`
	Department    string    `json:"department"`
	SubmittedBy   string    `json:"submitted_by"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks that all required trainee fields are present.
func (r *InternshipRequest) Validate() error {
	required := map[string]string{
		"trainee_name": r.TraineeName,
		"institution":  r.Institution,
		"course":       r.Course,
		"department":   r.Department,
		"submitted_by": r.SubmittedBy,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	if r.DurationWeeks <= 0 {
		return fmt.Errorf("duration_weeks must be positive: %d", r.DurationWeeks)
	}
	return nil
}

// IsTerminal reports whether the request can accept no further transitions.
func (r *InternshipRequest) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusRejected
}
