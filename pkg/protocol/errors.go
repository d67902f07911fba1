package protocol

import "fmt"

// DuplicateRoleError reports a registration that would create a second
// active agent for a role the workspace treats as singular (coordinator).
type DuplicateRoleError struct {
	Role       Role
	ExistingID string
}

func (e *DuplicateRoleError) Error() string {
	return fmt.Sprintf("role %s is already held by active agent %s", e.Role, e.ExistingID)
}

// AlreadyClaimedError reports a claim attempt on a task that is not
// pending. Callers must not retry; log and move on to the next task.
type AlreadyClaimedError struct {
	TaskID    string
	Status    TaskStatus
	ClaimedBy string
}

func (e *AlreadyClaimedError) Error() string {
	if e.ClaimedBy != "" {
		return fmt.Sprintf("task %s already claimed by %s (status %s)", e.TaskID, e.ClaimedBy, e.Status)
	}
	return fmt.Sprintf("task %s cannot be claimed (status %s)", e.TaskID, e.Status)
}

// InvalidTransitionError reports a task state-machine violation, such as
// completing a task that was never claimed.
type InvalidTransitionError struct {
	TaskID string
	From   TaskStatus
	To     TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: invalid transition %s -> %s", e.TaskID, e.From, e.To)
}

// TaskNotFoundError reports a lookup of an unknown task id.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// StoreCorruptedError reports a backing file that could not be parsed.
// Fatal for the affected store: the process must refuse to keep mutating
// state it cannot read rather than guess and overwrite.
type StoreCorruptedError struct {
	Path string
	Err  error
}

func (e *StoreCorruptedError) Error() string {
	return fmt.Sprintf("store %s corrupted: %v", e.Path, e.Err)
}

func (e *StoreCorruptedError) Unwrap() error { return e.Err }

// UnresolvableContextError reports a context resolution that reached past
// the base-workspace floor. The shipped fallback chain always terminates
// at the base workspace, so seeing this error means an invariant was
// violated during setup.
type UnresolvableContextError struct {
	TaskID string
}

func (e *UnresolvableContextError) Error() string {
	return fmt.Sprintf("no working directory resolvable for task %s: base workspace is unset", e.TaskID)
}
