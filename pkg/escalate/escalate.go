// Package escalate implements the reviewer/rewriter escalation loop:
// review findings become one rewrite task, unresolved rewrite failures
// become one high-priority follow-up review, and an explicit cycle
// counter caps the loop so two disagreeing agents cannot ping-pong work
// forever. At the cap the outstanding issues are surfaced to the
// coordinator instead of producing another task.
package escalate

import (
	"context"
	"fmt"

	"quorum/pkg/audit"
	"quorum/pkg/mailbox"
	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

const (
	// DefaultMaxCycles bounds reviewer->rewriter->reviewer round trips.
	DefaultMaxCycles = 3

	// FollowUpPriority is the priority of follow-up review tasks. High,
	// so unresolved issues are re-checked before new work is picked up.
	FollowUpPriority = 5
)

// Task types produced by the loop.
const (
	TypeRewriteFromReview = "code_rewrite_from_review"
	TypeReviewFollowUp    = "code_review_followup"
)

// Loop wires the escalation flow between the task store and the mailbox.
type Loop struct {
	tasks     *taskstore.Store
	mail      *mailbox.Mailbox
	maxCycles int

	// auditLog is optional; nil disables audit recording.
	auditLog *audit.Log
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxCycles overrides the escalation cycle cap.
func WithMaxCycles(n int) Option {
	return func(l *Loop) { l.maxCycles = n }
}

// WithAuditLog wires an audit log into the loop.
func WithAuditLog(log *audit.Log) Option {
	return func(l *Loop) { l.auditLog = log }
}

// NewLoop creates an escalation loop over the given stores.
func NewLoop(tasks *taskstore.Store, mail *mailbox.Mailbox, opts ...Option) *Loop {
	l := &Loop{
		tasks:     tasks,
		mail:      mail,
		maxCycles: DefaultMaxCycles,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HandleReview turns a completed review into at most one rewrite task.
// A clean report creates nothing. The rewrite task inherits the review's
// escalation cycle (a fresh review starts at cycle 1) and carries the
// full issue list plus per-severity counts in its context.
//
// Returns the created task id, or "" when no task was needed.
func (l *Loop) HandleReview(ctx context.Context, reviewTask protocol.Task, report protocol.ReviewReport) (string, error) {
	if len(report.Issues) == 0 {
		return "", nil
	}

	cycle := cycleOf(reviewTask)
	critical, major, minor := report.CountBySeverity()

	taskID, err := l.tasks.Create(taskstore.CreateSpec{
		Type:        TypeRewriteFromReview,
		Description: fmt.Sprintf("Fix %d issues found in review of task %s", len(report.Issues), reviewTask.ID),
		AssignedTo:  string(protocol.RoleCodeRewriter),
		CreatedBy:   reviewTask.ClaimedBy,
		Priority:    priorityOf(reviewTask),
		Context: escalationContext(reviewTask, &protocol.EscalationContext{
			Cycle:         cycle,
			Issues:        report.Issues,
			CriticalCount: critical,
			MajorCount:    major,
			MinorCount:    minor,
			SourceAgent:   reviewTask.ClaimedBy,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("escalate review %s: %w", reviewTask.ID, err)
	}

	body := fmt.Sprintf("Review found %d issues (%d critical, %d major, %d minor), cycle %d",
		len(report.Issues), critical, major, minor, cycle)
	if _, err := l.mail.Send(reviewTask.ClaimedBy, string(protocol.RoleCodeRewriter), protocol.MsgDelegation, body, taskID); err != nil {
		return "", fmt.Errorf("escalate review %s: notify rewriter: %w", reviewTask.ID, err)
	}

	_ = l.auditLog.Record(ctx, audit.Event{
		Type:    audit.EventEscalationCreated,
		Source:  reviewTask.ClaimedBy,
		TaskID:  taskID,
		Payload: fmt.Sprintf(`{"cycle":%d,"issues":%d}`, cycle, len(report.Issues)),
	})
	return taskID, nil
}

// HandleRewrite turns a completed rewrite into at most one follow-up
// review carrying only the issues the rewriter could not fix. An empty
// failure set ends the loop. The follow-up runs at the next cycle; once
// that would exceed the cap, no task is created and the unresolved
// issues are reported to the coordinator as permanently failed.
//
// Returns the created task id, or "" when the loop ended or was capped.
func (l *Loop) HandleRewrite(ctx context.Context, rewriteTask protocol.Task, report protocol.RewriteReport) (string, error) {
	if len(report.Failed) == 0 {
		return "", nil
	}

	nextCycle := cycleOf(rewriteTask) + 1
	if nextCycle > l.maxCycles {
		return "", l.surfaceCapped(ctx, rewriteTask, report.Failed)
	}

	critical, major, minor := protocol.ReviewReport{Issues: report.Failed}.CountBySeverity()

	taskID, err := l.tasks.Create(taskstore.CreateSpec{
		Type:        TypeReviewFollowUp,
		Description: fmt.Sprintf("Re-review %d unresolved issues from rewrite task %s", len(report.Failed), rewriteTask.ID),
		AssignedTo:  string(protocol.RoleCodeReviewer),
		CreatedBy:   rewriteTask.ClaimedBy,
		Priority:    FollowUpPriority,
		Context: escalationContext(rewriteTask, &protocol.EscalationContext{
			Cycle:         nextCycle,
			Issues:        report.Failed,
			CriticalCount: critical,
			MajorCount:    major,
			MinorCount:    minor,
			SourceAgent:   rewriteTask.ClaimedBy,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("escalate rewrite %s: %w", rewriteTask.ID, err)
	}

	body := fmt.Sprintf("%d issues remain unfixed, follow-up review at cycle %d", len(report.Failed), nextCycle)
	if _, err := l.mail.Send(rewriteTask.ClaimedBy, string(protocol.RoleCodeReviewer), protocol.MsgFollowUp, body, taskID); err != nil {
		return "", fmt.Errorf("escalate rewrite %s: notify reviewer: %w", rewriteTask.ID, err)
	}

	_ = l.auditLog.Record(ctx, audit.Event{
		Type:    audit.EventEscalationCreated,
		Source:  rewriteTask.ClaimedBy,
		TaskID:  taskID,
		Payload: fmt.Sprintf(`{"cycle":%d,"issues":%d}`, nextCycle, len(report.Failed)),
	})
	return taskID, nil
}

// surfaceCapped reports issues that survived every allowed cycle to the
// coordinator. Deliberately not a task: at the cap a human decision is
// needed, not another round of the same loop.
func (l *Loop) surfaceCapped(ctx context.Context, rewriteTask protocol.Task, failed []protocol.Issue) error {
	body := fmt.Sprintf("Escalation cap reached after %d cycles: %d issues remain unresolved from task %s",
		l.maxCycles, len(failed), rewriteTask.ID)
	if _, err := l.mail.Send(rewriteTask.ClaimedBy, string(protocol.RoleCoordinator), protocol.MsgEscalationCapped, body, rewriteTask.ID); err != nil {
		return fmt.Errorf("surface capped escalation for %s: %w", rewriteTask.ID, err)
	}

	_ = l.auditLog.Record(ctx, audit.Event{
		Type:    audit.EventEscalationCapped,
		Source:  rewriteTask.ClaimedBy,
		TaskID:  rewriteTask.ID,
		Payload: fmt.Sprintf(`{"max_cycles":%d,"unresolved":%d}`, l.maxCycles, len(failed)),
	})
	return nil
}

// cycleOf reads a task's escalation cycle; tasks outside the loop count
// as cycle 1.
func cycleOf(task protocol.Task) int {
	if task.Context != nil && task.Context.Escalation != nil && task.Context.Escalation.Cycle > 0 {
		return task.Context.Escalation.Cycle
	}
	return 1
}

func priorityOf(task protocol.Task) int {
	if task.Priority > 0 {
		return task.Priority
	}
	return 1
}

// escalationContext carries the source task's project scope forward so
// every task in a loop resolves against the same workspace.
func escalationContext(source protocol.Task, esc *protocol.EscalationContext) *protocol.TaskContext {
	c := &protocol.TaskContext{Escalation: esc}
	if source.Context != nil {
		c.ProjectName = source.Context.ProjectName
		c.ProjectWorkspace = source.Context.ProjectWorkspace
	}
	return c
}
