package workflow

// Trigger names an operation that moves a report through its lifecycle.
type Trigger string

const (
	// TriggerOpen takes a requested report into review.
	TriggerOpen Trigger = "OPEN"

	// TriggerApprove closes the review with approval.
	TriggerApprove Trigger = "APPROVE"

	// TriggerObserve returns a report for correction. It is configured as
	// an override: flagging any line as observed forces the header into
	// the observed state regardless of its current state, including
	// approved. Whether that should be guarded is an open product
	// question; keeping it a single named trigger keeps the decision in
	// one place.
	TriggerObserve Trigger = "OBSERVE"

	// TriggerReopen puts an observed report back into review after the
	// employee corrects it.
	TriggerReopen Trigger = "REOPEN"
)

// String returns the trigger name.
func (t Trigger) String() string {
	return string(t)
}
