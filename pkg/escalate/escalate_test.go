package escalate

import (
	"context"
	"path/filepath"
	"testing"

	"quorum/pkg/mailbox"
	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

func newTestLoop(t *testing.T, opts ...Option) (*Loop, *taskstore.Store, *mailbox.Mailbox) {
	t.Helper()
	dir := t.TempDir()
	tasks := taskstore.New(filepath.Join(dir, "tasks.json"))
	mail := mailbox.New(filepath.Join(dir, "messages.json"))
	return NewLoop(tasks, mail, opts...), tasks, mail
}

func reviewTask(cycle int) protocol.Task {
	task := protocol.Task{
		ID:        "rev00001",
		Type:      "code_review",
		ClaimedBy: "code_reviewer-1",
		Priority:  2,
		Context:   &protocol.TaskContext{ProjectName: "alpha", ProjectWorkspace: "/srv/alpha"},
	}
	if cycle > 0 {
		task.Context.Escalation = &protocol.EscalationContext{Cycle: cycle}
	}
	return task
}

func rewriteTask(cycle int) protocol.Task {
	return protocol.Task{
		ID:        "rew00001",
		Type:      TypeRewriteFromReview,
		ClaimedBy: "code_rewriter-1",
		Context: &protocol.TaskContext{
			ProjectWorkspace: "/srv/alpha",
			Escalation:       &protocol.EscalationContext{Cycle: cycle},
		},
	}
}

func TestHandleReviewCreatesOneRewriteTask(t *testing.T) {
	loop, tasks, mail := newTestLoop(t)

	report := protocol.ReviewReport{Issues: []protocol.Issue{
		{Severity: protocol.SeverityCritical, Description: "race on shared map"},
		{Severity: protocol.SeverityCritical, Description: "unchecked error"},
		{Severity: protocol.SeverityMinor, Description: "naming"},
	}}
	taskID, err := loop.HandleReview(context.Background(), reviewTask(0), report)
	if err != nil {
		t.Fatalf("HandleReview: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a rewrite task")
	}

	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d tasks, want exactly 1", len(all))
	}

	task := all[0]
	if task.Type != TypeRewriteFromReview {
		t.Errorf("type = %q, want %q", task.Type, TypeRewriteFromReview)
	}
	if task.AssignedTo != string(protocol.RoleCodeRewriter) {
		t.Errorf("assigned to %q, want %q", task.AssignedTo, protocol.RoleCodeRewriter)
	}
	if task.Context == nil || task.Context.Escalation == nil {
		t.Fatal("missing escalation context")
	}
	esc := task.Context.Escalation
	if esc.Cycle != 1 {
		t.Errorf("cycle = %d, want 1", esc.Cycle)
	}
	if esc.CriticalCount != 2 || esc.MajorCount != 0 || esc.MinorCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/0/1", esc.CriticalCount, esc.MajorCount, esc.MinorCount)
	}
	if len(esc.Issues) != 3 {
		t.Errorf("carried %d issues, want 3", len(esc.Issues))
	}
	if task.Context.ProjectWorkspace != "/srv/alpha" {
		t.Errorf("workspace = %q, want /srv/alpha", task.Context.ProjectWorkspace)
	}

	inbox, err := mail.Inbox(string(protocol.RoleCodeRewriter))
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].Type != protocol.MsgDelegation {
		t.Errorf("rewriter inbox = %+v, want one delegation notice", inbox)
	}
}

func TestHandleReviewCleanReportCreatesNothing(t *testing.T) {
	loop, tasks, _ := newTestLoop(t)

	taskID, err := loop.HandleReview(context.Background(), reviewTask(0), protocol.ReviewReport{})
	if err != nil {
		t.Fatalf("HandleReview: %v", err)
	}
	if taskID != "" {
		t.Errorf("taskID = %q, want empty", taskID)
	}
	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d tasks, want 0", len(all))
	}
}

func TestHandleReviewInheritsCycle(t *testing.T) {
	loop, tasks, _ := newTestLoop(t)

	report := protocol.ReviewReport{Issues: []protocol.Issue{
		{Severity: protocol.SeverityMajor, Description: "still leaking"},
	}}
	taskID, err := loop.HandleReview(context.Background(), reviewTask(2), report)
	if err != nil {
		t.Fatalf("HandleReview: %v", err)
	}
	task, err := tasks.Get(taskID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if task.Context.Escalation.Cycle != 2 {
		t.Errorf("cycle = %d, want 2 (inherited)", task.Context.Escalation.Cycle)
	}
}

func TestHandleRewriteCreatesOneFollowUpReview(t *testing.T) {
	loop, tasks, mail := newTestLoop(t)

	report := protocol.RewriteReport{
		Fixed:  []protocol.Issue{{Severity: protocol.SeverityMinor, Description: "naming"}},
		Failed: []protocol.Issue{{Severity: protocol.SeverityCritical, Description: "race on shared map"}},
	}
	taskID, err := loop.HandleRewrite(context.Background(), rewriteTask(1), report)
	if err != nil {
		t.Fatalf("HandleRewrite: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a follow-up review task")
	}

	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d tasks, want exactly 1", len(all))
	}

	task := all[0]
	if task.Type != TypeReviewFollowUp {
		t.Errorf("type = %q, want %q", task.Type, TypeReviewFollowUp)
	}
	if task.AssignedTo != string(protocol.RoleCodeReviewer) {
		t.Errorf("assigned to %q, want %q", task.AssignedTo, protocol.RoleCodeReviewer)
	}
	if task.Priority != FollowUpPriority {
		t.Errorf("priority = %d, want %d", task.Priority, FollowUpPriority)
	}
	esc := task.Context.Escalation
	if esc.Cycle != 2 {
		t.Errorf("cycle = %d, want 2", esc.Cycle)
	}
	// Only the failed subset travels; fixed issues are done.
	if len(esc.Issues) != 1 || esc.Issues[0].Description != "race on shared map" {
		t.Errorf("carried issues = %+v, want only the failed one", esc.Issues)
	}

	inbox, err := mail.Inbox(string(protocol.RoleCodeReviewer))
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].Type != protocol.MsgFollowUp {
		t.Errorf("reviewer inbox = %+v, want one follow-up notice", inbox)
	}
}

func TestHandleRewriteAllFixedEndsLoop(t *testing.T) {
	loop, tasks, _ := newTestLoop(t)

	report := protocol.RewriteReport{
		Fixed: []protocol.Issue{{Severity: protocol.SeverityMajor, Description: "leak"}},
	}
	taskID, err := loop.HandleRewrite(context.Background(), rewriteTask(1), report)
	if err != nil {
		t.Fatalf("HandleRewrite: %v", err)
	}
	if taskID != "" {
		t.Errorf("taskID = %q, want empty", taskID)
	}
	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d tasks, want 0", len(all))
	}
}

func TestHandleRewriteCapSurfacesToCoordinator(t *testing.T) {
	loop, tasks, mail := newTestLoop(t)

	report := protocol.RewriteReport{
		Failed: []protocol.Issue{{Severity: protocol.SeverityCritical, Description: "unfixable"}},
	}
	// Cycle equals the cap, so the next cycle would exceed it.
	taskID, err := loop.HandleRewrite(context.Background(), rewriteTask(DefaultMaxCycles), report)
	if err != nil {
		t.Fatalf("HandleRewrite: %v", err)
	}
	if taskID != "" {
		t.Errorf("taskID = %q, want empty at the cap", taskID)
	}

	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d tasks, want 0 at the cap", len(all))
	}

	inbox, err := mail.Inbox(string(protocol.RoleCoordinator))
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("coordinator inbox has %d messages, want 1", len(inbox))
	}
	if inbox[0].Type != protocol.MsgEscalationCapped {
		t.Errorf("message type = %s, want %s", inbox[0].Type, protocol.MsgEscalationCapped)
	}
	if inbox[0].TaskID != "rew00001" {
		t.Errorf("message task id = %q, want rew00001", inbox[0].TaskID)
	}
}

func TestHandleRewriteCustomCap(t *testing.T) {
	loop, tasks, mail := newTestLoop(t, WithMaxCycles(1))

	report := protocol.RewriteReport{
		Failed: []protocol.Issue{{Severity: protocol.SeverityMajor, Description: "leak"}},
	}
	taskID, err := loop.HandleRewrite(context.Background(), rewriteTask(1), report)
	if err != nil {
		t.Fatalf("HandleRewrite: %v", err)
	}
	if taskID != "" {
		t.Errorf("taskID = %q, want empty with cap 1", taskID)
	}
	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d tasks, want 0", len(all))
	}
	inbox, err := mail.Inbox(string(protocol.RoleCoordinator))
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Errorf("coordinator inbox has %d messages, want 1", len(inbox))
	}
}
