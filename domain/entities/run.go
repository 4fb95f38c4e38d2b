package entities

// Run results, as reported to metrics and notifications
const (
	RunResultCompleted = "completed"
	RunResultAborted   = "aborted"
)
