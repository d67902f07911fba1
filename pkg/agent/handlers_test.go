package agent

import (
	"context"
	"path/filepath"
	"testing"

	"quorum/pkg/collab"
	"quorum/pkg/escalate"
	"quorum/pkg/mailbox"
	"quorum/pkg/project"
	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

// fakeCollab returns canned replies and records the requests it saw.
type fakeCollab struct {
	generated    string
	reviewReport protocol.ReviewReport
	fixReport    protocol.RewriteReport

	lastGenerate collab.GenerationRequest
	lastReview   collab.ReviewRequest
	lastFix      collab.FixRequest
}

func (f *fakeCollab) Generate(_ context.Context, req collab.GenerationRequest) (string, error) {
	f.lastGenerate = req
	return f.generated, nil
}

func (f *fakeCollab) Review(_ context.Context, req collab.ReviewRequest) (protocol.ReviewReport, error) {
	f.lastReview = req
	return f.reviewReport, nil
}

func (f *fakeCollab) Fix(_ context.Context, req collab.FixRequest) (protocol.RewriteReport, error) {
	f.lastFix = req
	return f.fixReport, nil
}

func newTestLoop(t *testing.T) (*escalate.Loop, *taskstore.Store, *mailbox.Mailbox) {
	t.Helper()
	dir := t.TempDir()
	tasks := taskstore.New(filepath.Join(dir, "tasks.json"))
	mail := mailbox.New(filepath.Join(dir, "messages.json"))
	return escalate.NewLoop(tasks, mail), tasks, mail
}

func TestCoderHandlerGeneratesInScope(t *testing.T) {
	fc := &fakeCollab{generated: "package main"}
	h := NewCoderHandler(fc)

	task := protocol.Task{ID: "t1", Description: "write a parser"}
	result, err := h.Execute(context.Background(), task, project.Context{Workspace: "/srv/alpha"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["output"] != "package main" {
		t.Errorf("result = %v", result)
	}
	if fc.lastGenerate.Workdir != "/srv/alpha" {
		t.Errorf("workdir = %q, want /srv/alpha", fc.lastGenerate.Workdir)
	}
}

func TestReviewerHandlerEscalatesFindings(t *testing.T) {
	loop, tasks, _ := newTestLoop(t)
	fc := &fakeCollab{reviewReport: protocol.ReviewReport{Issues: []protocol.Issue{
		{Severity: protocol.SeverityCritical, Description: "race"},
		{Severity: protocol.SeverityMinor, Description: "naming"},
	}}}
	h := NewReviewerHandler(fc, loop)

	task := protocol.Task{ID: "rev1", Description: "review the store", ClaimedBy: "code_reviewer-1"}
	result, err := h.Execute(context.Background(), task, project.Context{Workspace: "/srv/alpha"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["issues_found"] != 2 {
		t.Errorf("issues_found = %v, want 2", result["issues_found"])
	}
	if result["critical_issues"] != 1 {
		t.Errorf("critical_issues = %v, want 1", result["critical_issues"])
	}

	rewriteID, ok := result["rewrite_task_id"].(string)
	if !ok || rewriteID == "" {
		t.Fatalf("rewrite_task_id = %v", result["rewrite_task_id"])
	}
	rewrite, err := tasks.Get(rewriteID)
	if err != nil {
		t.Fatalf("Get rewrite task: %v", err)
	}
	if rewrite.Type != escalate.TypeRewriteFromReview {
		t.Errorf("rewrite type = %q", rewrite.Type)
	}
}

func TestReviewerHandlerCleanReviewCreatesNothing(t *testing.T) {
	loop, tasks, _ := newTestLoop(t)
	h := NewReviewerHandler(&fakeCollab{}, loop)

	task := protocol.Task{ID: "rev1", Description: "review the store", ClaimedBy: "code_reviewer-1"}
	result, err := h.Execute(context.Background(), task, project.Context{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, present := result["rewrite_task_id"]; present {
		t.Error("rewrite_task_id present for a clean review")
	}
	all, err := tasks.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d tasks, want 0", len(all))
	}
}

func TestRewriterHandlerFixesCarriedIssues(t *testing.T) {
	loop, tasks, _ := newTestLoop(t)
	issues := []protocol.Issue{
		{Severity: protocol.SeverityCritical, Description: "race"},
		{Severity: protocol.SeverityMinor, Description: "naming"},
	}
	fc := &fakeCollab{fixReport: protocol.RewriteReport{
		Fixed:  issues[:1],
		Failed: issues[1:],
	}}
	h := NewRewriterHandler(fc, loop)

	task := protocol.Task{
		ID:        "rew1",
		ClaimedBy: "code_rewriter-1",
		Context: &protocol.TaskContext{
			Escalation: &protocol.EscalationContext{Cycle: 1, Issues: issues},
		},
	}
	result, err := h.Execute(context.Background(), task, project.Context{Workspace: "/srv/alpha"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(fc.lastFix.Issues) != 2 {
		t.Errorf("collaborator saw %d issues, want 2", len(fc.lastFix.Issues))
	}
	if result["issues_fixed"] != 1 || result["issues_failed"] != 1 {
		t.Errorf("result = %v", result)
	}

	followUpID, ok := result["follow_up_task_id"].(string)
	if !ok || followUpID == "" {
		t.Fatalf("follow_up_task_id = %v", result["follow_up_task_id"])
	}
	followUp, err := tasks.Get(followUpID)
	if err != nil {
		t.Fatalf("Get follow-up: %v", err)
	}
	if followUp.Type != escalate.TypeReviewFollowUp {
		t.Errorf("follow-up type = %q", followUp.Type)
	}
	if followUp.Priority != escalate.FollowUpPriority {
		t.Errorf("follow-up priority = %d, want %d", followUp.Priority, escalate.FollowUpPriority)
	}
}

func TestRewriterHandlerRejectsTaskWithoutIssues(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	h := NewRewriterHandler(&fakeCollab{}, loop)

	task := protocol.Task{ID: "rew1", ClaimedBy: "code_rewriter-1"}
	if _, err := h.Execute(context.Background(), task, project.Context{}); err == nil {
		t.Fatal("expected error for task without escalation context")
	}
}
