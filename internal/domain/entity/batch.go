package entity

import "time"

// ForwardedBatch is a set of already-approved applications handed from the
// coordinator to the L&D head as one unit. Its status only moves forward.
type ForwardedBatch struct {
	ID                int64                 `json:"id"`
	BatchNo           string                `json:"batch_no"`
	Department        string                `json:"department"`
	ApplicationsCount int                   `json:"applications_count"`
	ForwardedBy       string                `json:"forwarded_by"`
	ForwardedTo       string                `json:"forwarded_to"`
	Status            string                `json:"status"`
	ForwardedAt       time.Time             `json:"forwarded_at"`
	ReviewedBy        string                `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time            `json:"reviewed_at,omitempty"`
	Applications      []ApplicationSnapshot `json:"applications"`
}

// ApplicationSnapshot is an immutable copy of an application taken at
// forward time. The batch stays interpretable even if the source request is
// edited afterwards, so snapshots never reference live rows.
type ApplicationSnapshot struct {
	ID            int64  `json:"id"`
	BatchID       int64  `json:"batch_id"`
	Position      int    `json:"position"`
	RequestID     int64  `json:"request_id"`
	TraineeName   string `json:"trainee_name"`
	Institution   string `json:"institution"`
	Course        string `json:"course"`
	DurationWeeks int    `json:"duration_weeks"`
	Skills        string `json:"skills"`
}

// SnapshotOf copies the forwardable fields of a request. The returned value
// holds no reference back to the source.
func SnapshotOf(r *InternshipRequest, position int) ApplicationSnapshot {
	return ApplicationSnapshot{
		Position:      position,
		RequestID:     r.ID,
		TraineeName:   r.TraineeName,
		Institution:   r.Institution,
		Course:        r.Course,
		DurationWeeks: r.DurationWeeks,
		Skills:        r.Skills,
	}
}
