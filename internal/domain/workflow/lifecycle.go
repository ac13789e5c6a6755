package workflow

// NewRequestMachine builds the internship request lifecycle machine at the
// given state. Status never regresses; REJECTED is reachable from every
// non-terminal state and is final.
func NewRequestMachine(current State) StateMachine {
	b := NewBuilder()

	b.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateUnderReview).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateUnderReview).
		Permit(TriggerAdvance, StateMentorAssigned).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateMentorAssigned).
		Permit(TriggerFinalApprove, StateApproved).
		Permit(TriggerComplete, StateCompleted).
		Permit(TriggerReject, StateRejected)

	// APPROVED stays non-terminal while a mentor assignment is pending
	// completion.
	b.Configure(StateApproved).
		Permit(TriggerComplete, StateCompleted).
		Permit(TriggerReject, StateRejected)

	return b.Build(current)
}

// NewBatchMachine builds the batch hand-off machine at the given state.
// The batch moves forward exactly once: PENDING_LND_REVIEW to one of the
// two terminal review outcomes.
func NewBatchMachine(current State) StateMachine {
	b := NewBuilder()

	b.Configure(StatePendingLNDReview).
		Permit(TriggerLNDApprove, StateApprovedByLND).
		Permit(TriggerLNDReject, StateRejectedByLND)

	return b.Build(current)
}
