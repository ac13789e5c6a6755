package workflow

// Trigger represents an event that can cause a state transition.
type Trigger string

const (
	TriggerStartReview  Trigger = "START_REVIEW"
	TriggerAdvance      Trigger = "ADVANCE"
	TriggerFinalApprove Trigger = "FINAL_APPROVE"
	TriggerReject       Trigger = "REJECT"
	TriggerComplete     Trigger = "COMPLETE"

	TriggerLNDApprove Trigger = "LND_APPROVE"
	TriggerLNDReject  Trigger = "LND_REJECT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
