package entity

import "time"

// AuditEntry is one row of the append-only audit trail. Every meaningful
// mutation across the workflow writes exactly one entry.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	TargetType string    `json:"target_type"`
	TargetID   int64     `json:"target_id"`
	Metadata   string    `json:"metadata"`
	Timestamp  time.Time `json:"timestamp"`
}
