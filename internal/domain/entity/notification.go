package entity

import "time"

// Notification is an in-app message created as a side effect of a workflow
// transition. Delivery over external channels is handled outside the core.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
