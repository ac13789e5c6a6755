package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestSubmitted Type = "request.submitted"
	TypeRequestDecided   Type = "request.decided"
	TypeMentorAssigned   Type = "request.mentor_assigned"
	TypeRequestCompleted Type = "request.completed"
	TypeAssignmentEnded  Type = "assignment.ended"
	TypeBatchForwarded   Type = "batch.forwarded"
	TypeBatchReviewed    Type = "batch.reviewed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestSubmitted,
		TypeRequestDecided,
		TypeMentorAssigned,
		TypeRequestCompleted,
		TypeAssignmentEnded,
		TypeBatchForwarded,
		TypeBatchReviewed:
		return true
	default:
		return false
	}
}
