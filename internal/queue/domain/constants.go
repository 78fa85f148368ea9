package domain

// Status is the lifecycle state of a JobTask.
type Status string

// Task status constants. Transitions move forward only, except Failed,
// which may go back to Queued on a retry bounded by the attempt limit.
const (
	StatusQueued       Status = "QUEUED"
	StatusProcessing   Status = "PROCESSING"
	StatusSucceeded    Status = "SUCCEEDED"
	StatusFailed       Status = "FAILED"
	StatusDeadLettered Status = "DEAD_LETTERED"
)

// Analysis method tags identifying which tier produced a result.
const (
	MethodPrimary   = "primary"
	MethodSecondary = "secondary"
	MethodRuleBased = "rule_based"
)
