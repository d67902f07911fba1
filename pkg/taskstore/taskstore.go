// Package taskstore implements the shared work queue: task creation,
// deterministic pending ordering, and the strictly forward claim/complete
// state machine. All mutations run a full load-modify-save cycle through
// the atomic record store, inside its advisory-lock window.
package taskstore

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"quorum/pkg/protocol"
	"quorum/pkg/store"
)

// DefaultLeaseTTL is how long a claim's lease lasts before the sweep may
// return the task to pending (provided the owner is also gone).
const DefaultLeaseTTL = 10 * time.Minute

// Store is the shared task queue for one workspace.
type Store struct {
	tasks    *store.Store[protocol.Task]
	leaseTTL time.Duration

	// nowFunc and idFunc allow tests to control time and id generation.
	nowFunc func() time.Time
	idFunc  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLeaseTTL overrides the claim lease duration.
func WithLeaseTTL(d time.Duration) Option {
	return func(s *Store) { s.leaseTTL = d }
}

// WithNowFunc overrides the clock. Test hook.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) { s.nowFunc = fn }
}

// WithIDFunc overrides id generation. Test hook.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.idFunc = fn }
}

// New creates a Store backed by the tasks file at path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		tasks:    store.New[protocol.Task](path),
		leaseTTL: DefaultLeaseTTL,
		nowFunc:  time.Now,
		idFunc:   newID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newID returns a short task id: the first 8 hex characters of a UUID,
// the id format every surface of the system prints.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CreateSpec describes a task to create.
type CreateSpec struct {
	Type        string
	Description string
	AssignedTo  string // agent id or role name
	CreatedBy   string
	Priority    int
	Context     *protocol.TaskContext
}

// Create appends a new pending task and returns its id. Ids are unique
// across the store's lifetime; on the (unlikely) collision of a short id
// a fresh one is drawn inside the same update window.
func (s *Store) Create(spec CreateSpec) (string, error) {
	var taskID string
	err := s.tasks.Update(func(tasks []protocol.Task) ([]protocol.Task, error) {
		taskID = s.idFunc()
		for hasID(tasks, taskID) {
			taskID = s.idFunc()
		}

		now := s.nowFunc()
		tasks = append(tasks, protocol.Task{
			ID:          taskID,
			Type:        spec.Type,
			Description: spec.Description,
			AssignedTo:  spec.AssignedTo,
			CreatedBy:   spec.CreatedBy,
			Status:      protocol.TaskPending,
			Priority:    spec.Priority,
			Context:     spec.Context,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		return tasks, nil
	})
	if err != nil {
		return "", err
	}
	return taskID, nil
}

func hasID(tasks []protocol.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (protocol.Task, error) {
	tasks, err := s.tasks.Load()
	if err != nil {
		return protocol.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return protocol.Task{}, &protocol.TaskNotFoundError{TaskID: id}
}

// All returns every task in the store in storage order.
func (s *Store) All() ([]protocol.Task, error) {
	return s.tasks.Load()
}

// PendingFor returns the pending tasks routed to the given agent, by id
// or by role, ordered by (priority descending, created_at ascending, id
// ascending). The ordering is the tie-break contract and is deterministic.
func (s *Store) PendingFor(agentID string, role protocol.Role) ([]protocol.Task, error) {
	tasks, err := s.tasks.Load()
	if err != nil {
		return nil, err
	}

	pending := make([]protocol.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == protocol.TaskPending && t.AssignedToMatches(agentID, role) {
			pending = append(pending, t)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

// Claim transitions a task pending -> in_progress on behalf of agentID
// and stamps its lease. A task that is not pending fails with
// AlreadyClaimedError; the caller should log and move on, not retry.
func (s *Store) Claim(taskID, agentID string) error {
	return s.tasks.Update(func(tasks []protocol.Task) ([]protocol.Task, error) {
		i := indexOf(tasks, taskID)
		if i < 0 {
			return nil, &protocol.TaskNotFoundError{TaskID: taskID}
		}
		if tasks[i].Status != protocol.TaskPending {
			return nil, &protocol.AlreadyClaimedError{
				TaskID:    taskID,
				Status:    tasks[i].Status,
				ClaimedBy: tasks[i].ClaimedBy,
			}
		}

		now := s.nowFunc()
		lease := now.Add(s.leaseTTL)
		tasks[i].Status = protocol.TaskInProgress
		tasks[i].ClaimedBy = agentID
		tasks[i].UpdatedAt = now
		tasks[i].LeaseExpiresAt = &lease
		return tasks, nil
	})
}

// Renew extends the lease on an in_progress task owned by agentID.
// Owned by another agent or not in_progress is an InvalidTransitionError.
func (s *Store) Renew(taskID, agentID string) error {
	return s.tasks.Update(func(tasks []protocol.Task) ([]protocol.Task, error) {
		i := indexOf(tasks, taskID)
		if i < 0 {
			return nil, &protocol.TaskNotFoundError{TaskID: taskID}
		}
		if tasks[i].Status != protocol.TaskInProgress || tasks[i].ClaimedBy != agentID {
			return nil, &protocol.InvalidTransitionError{
				TaskID: taskID,
				From:   tasks[i].Status,
				To:     protocol.TaskInProgress,
			}
		}
		lease := s.nowFunc().Add(s.leaseTTL)
		tasks[i].LeaseExpiresAt = &lease
		return tasks, nil
	})
}

// Complete transitions in_progress -> completed and records the result.
func (s *Store) Complete(taskID string, result map[string]any) error {
	return s.terminate(taskID, protocol.TaskCompleted, result)
}

// Fail transitions in_progress -> failed and records the error payload.
// Failures are the normal trigger for the escalation loop, not an
// exceptional condition.
func (s *Store) Fail(taskID string, errPayload map[string]any) error {
	return s.terminate(taskID, protocol.TaskFailed, errPayload)
}

func (s *Store) terminate(taskID string, to protocol.TaskStatus, payload map[string]any) error {
	return s.tasks.Update(func(tasks []protocol.Task) ([]protocol.Task, error) {
		i := indexOf(tasks, taskID)
		if i < 0 {
			return nil, &protocol.TaskNotFoundError{TaskID: taskID}
		}
		if tasks[i].Status != protocol.TaskInProgress {
			return nil, &protocol.InvalidTransitionError{
				TaskID: taskID,
				From:   tasks[i].Status,
				To:     to,
			}
		}

		now := s.nowFunc()
		tasks[i].Status = to
		tasks[i].Result = payload
		tasks[i].UpdatedAt = now
		tasks[i].CompletedAt = &now
		tasks[i].LeaseExpiresAt = nil
		return tasks, nil
	})
}

// AppendAuditMeta attaches metadata to a terminal task without touching
// its status or result. Terminal records are otherwise immutable.
func (s *Store) AppendAuditMeta(taskID string, meta map[string]string) error {
	return s.tasks.Update(func(tasks []protocol.Task) ([]protocol.Task, error) {
		i := indexOf(tasks, taskID)
		if i < 0 {
			return nil, &protocol.TaskNotFoundError{TaskID: taskID}
		}
		if !tasks[i].Status.Terminal() {
			return nil, &protocol.InvalidTransitionError{
				TaskID: taskID,
				From:   tasks[i].Status,
				To:     tasks[i].Status,
			}
		}
		if tasks[i].Context == nil {
			tasks[i].Context = &protocol.TaskContext{}
		}
		if tasks[i].Context.Meta == nil {
			tasks[i].Context.Meta = make(map[string]string, len(meta))
		}
		for k, v := range meta {
			tasks[i].Context.Meta[k] = v
		}
		return tasks, nil
	})
}

func indexOf(tasks []protocol.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
