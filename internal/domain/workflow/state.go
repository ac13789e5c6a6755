package workflow

// State represents a workflow state. The package carries two closed state
// sets: the internship request lifecycle and the forwarded batch hand-off.
type State string

// Request lifecycle states.
const (
	StateSubmitted      State = "SUBMITTED"
	StateUnderReview    State = "UNDER_REVIEW"
	StateMentorAssigned State = "MENTOR_ASSIGNED"
	StateApproved       State = "APPROVED"
	StateCompleted      State = "COMPLETED"
	StateRejected       State = "REJECTED"
)

// Batch hand-off states.
const (
	StatePendingLNDReview State = "PENDING_LND_REVIEW"
	StateApprovedByLND    State = "APPROVED_BY_LND"
	StateRejectedByLND    State = "REJECTED_BY_LND"
)

var validStates = map[State]bool{
	StateSubmitted:        true,
	StateUnderReview:      true,
	StateMentorAssigned:   true,
	StateApproved:         true,
	StateCompleted:        true,
	StateRejected:         true,
	StatePendingLNDReview: true,
	StateApprovedByLND:    true,
	StateRejectedByLND:    true,
}

var terminalStates = map[State]bool{
	StateCompleted:     true,
	StateRejected:      true,
	StateApprovedByLND: true,
	StateRejectedByLND: true,
}

// IsTerminal returns true if no further transitions are allowed from s.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if s belongs to one of the defined state sets.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
