package agent

import (
	"context"
	"fmt"

	"quorum/pkg/collab"
	"quorum/pkg/escalate"
	"quorum/pkg/project"
	"quorum/pkg/protocol"
)

// NewCoderHandler returns a handler that asks the collaborator to
// generate code for the task in its resolved workspace.
func NewCoderHandler(c collab.Collaborator) Handler {
	return HandlerFunc(func(ctx context.Context, task protocol.Task, scope project.Context) (map[string]any, error) {
		out, err := c.Generate(ctx, collab.GenerationRequest{
			Description: task.Description,
			Workdir:     scope.Workspace,
		})
		if err != nil {
			return nil, fmt.Errorf("generate for task %s: %w", task.ID, err)
		}
		return map[string]any{"output": out}, nil
	})
}

// NewReviewerHandler returns a handler that runs a review and feeds the
// report into the escalation loop. Finding issues completes the review
// task; the issues travel onward in the rewrite task it spawns.
func NewReviewerHandler(c collab.Collaborator, loop *escalate.Loop) Handler {
	return HandlerFunc(func(ctx context.Context, task protocol.Task, scope project.Context) (map[string]any, error) {
		report, err := c.Review(ctx, collab.ReviewRequest{
			Description: task.Description,
			Workdir:     scope.Workspace,
		})
		if err != nil {
			return nil, fmt.Errorf("review task %s: %w", task.ID, err)
		}

		rewriteID, err := loop.HandleReview(ctx, task, report)
		if err != nil {
			return nil, err
		}

		critical, major, minor := report.CountBySeverity()
		result := map[string]any{
			"issues_found":    len(report.Issues),
			"critical_issues": critical,
			"major_issues":    major,
			"minor_issues":    minor,
			"summary":         report.Summary,
		}
		if rewriteID != "" {
			result["rewrite_task_id"] = rewriteID
		}
		return result, nil
	})
}

// NewRewriterHandler returns a handler that repairs the issues carried
// in the task's escalation context and feeds the outcome back into the
// loop for a follow-up review or the cap report.
func NewRewriterHandler(c collab.Collaborator, loop *escalate.Loop) Handler {
	return HandlerFunc(func(ctx context.Context, task protocol.Task, scope project.Context) (map[string]any, error) {
		if task.Context == nil || task.Context.Escalation == nil {
			return nil, fmt.Errorf("rewrite task %s carries no issues", task.ID)
		}

		report, err := c.Fix(ctx, collab.FixRequest{
			Description: task.Description,
			Issues:      task.Context.Escalation.Issues,
			Workdir:     scope.Workspace,
		})
		if err != nil {
			return nil, fmt.Errorf("fix task %s: %w", task.ID, err)
		}

		followUpID, err := loop.HandleRewrite(ctx, task, report)
		if err != nil {
			return nil, err
		}

		result := map[string]any{
			"issues_fixed":  len(report.Fixed),
			"issues_failed": len(report.Failed),
			"summary":       report.Summary,
		}
		if followUpID != "" {
			result["follow_up_task_id"] = followUpID
		}
		return result, nil
	})
}
