package delegate

import (
	"context"
	"fmt"

	"quorum/pkg/audit"
	"quorum/pkg/mailbox"
	"quorum/pkg/project"
	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

// DefaultPriority is the priority assigned to delegated tasks unless the
// caller asks for something else.
const DefaultPriority = 1

// Engine turns free-text requests into routed tasks.
type Engine struct {
	tasks *taskstore.Store
	mail  *mailbox.Mailbox
	focus *project.Focus
	rules []Rule

	// coordinatorID is the agent id stamped as created_by and as the
	// sender of delegation notices.
	coordinatorID string

	// auditLog is optional; nil disables audit recording.
	auditLog *audit.Log
}

// NewEngine creates a delegation engine for the given coordinator. rules
// may be nil to use the built-in table.
func NewEngine(coordinatorID string, tasks *taskstore.Store, mail *mailbox.Mailbox, focus *project.Focus, rules []Rule) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{
		tasks:         tasks,
		mail:          mail,
		focus:         focus,
		rules:         rules,
		coordinatorID: coordinatorID,
	}
}

// SetAuditLog wires an audit log into the engine.
func (e *Engine) SetAuditLog(l *audit.Log) { e.auditLog = l }

// Request describes a delegation. ExplicitTarget, when set, bypasses
// classification's role mapping and routes the task to that agent id or
// role directly. Priority 0 means DefaultPriority.
type Request struct {
	Description    string
	ExplicitTarget string
	Priority       int
}

// Delegate classifies the request, snapshots the coordinator's current
// project focus into the task context, creates the task, and sends a
// delegation notice to the assignee. Returns the new task id.
//
// Classification never blocks delegation: an unmatched description falls
// back to the general category rather than erroring.
func (e *Engine) Delegate(ctx context.Context, req Request) (string, error) {
	if req.Description == "" {
		return "", fmt.Errorf("delegate: empty description")
	}

	category := Classify(e.rules, req.Description)
	assignee := req.ExplicitTarget
	if assignee == "" {
		assignee = string(RoleFor(category))
	}

	priority := req.Priority
	if priority == 0 {
		priority = DefaultPriority
	}

	taskID, err := e.tasks.Create(taskstore.CreateSpec{
		Type:        string(category),
		Description: req.Description,
		AssignedTo:  assignee,
		CreatedBy:   e.coordinatorID,
		Priority:    priority,
		Context:     e.focus.Snapshot(),
	})
	if err != nil {
		return "", fmt.Errorf("delegate: create task: %w", err)
	}

	body := fmt.Sprintf("New %s task: %s", category, req.Description)
	if _, err := e.mail.Send(e.coordinatorID, assignee, protocol.MsgDelegation, body, taskID); err != nil {
		return "", fmt.Errorf("delegate: notify %s: %w", assignee, err)
	}

	_ = e.auditLog.Record(ctx, audit.Event{
		Type:    audit.EventTaskCreated,
		Source:  e.coordinatorID,
		TaskID:  taskID,
		AgentID: assignee,
		Payload: fmt.Sprintf(`{"category":%q}`, category),
	})

	return taskID, nil
}
