package constants

// TaskStatus is the canonical per-file state within a batch run.
// Transitions are one-directional; a task never returns to an earlier state.
type TaskStatus string

const (
	TaskQueued            TaskStatus = "QUEUED"
	TaskValidating        TaskStatus = "VALIDATING"
	TaskAcquiring         TaskStatus = "ACQUIRING"
	TaskExtracting        TaskStatus = "EXTRACTING"
	TaskQualityChecking   TaskStatus = "QUALITY_CHECKING"
	TaskRuleChecking      TaskStatus = "RULE_CHECKING"
	TaskDuplicateChecking TaskStatus = "DUPLICATE_CHECKING"
	TaskUploading         TaskStatus = "UPLOADING"

	// Terminal states.
	TaskCompleted         TaskStatus = "COMPLETED"
	TaskFailed            TaskStatus = "FAILED"
	TaskManualInput       TaskStatus = "REQUIRES_MANUAL_INPUT"
	TaskPendingResolution TaskStatus = "PENDING_DUPLICATE_RESOLUTION"
)

// Terminal reports whether s ends a task's lifecycle.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskManualInput, TaskPendingResolution:
		return true
	default:
		return false
	}
}

// InFlight reports whether s is one of the working states that count
// against the batch concurrency bound.
func (s TaskStatus) InFlight() bool {
	switch s {
	case TaskValidating, TaskAcquiring, TaskExtracting, TaskQualityChecking,
		TaskRuleChecking, TaskDuplicateChecking, TaskUploading:
		return true
	default:
		return false
	}
}
