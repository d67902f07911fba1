package collab

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"quorum/pkg/protocol"
)

// ExecCollaborator drives an external assistant CLI as a subprocess: one
// invocation per operation, the prompt appended as the final argument,
// stdout+stderr captured as the reply.
type ExecCollaborator struct {
	// Command is the assistant binary, e.g. "claude".
	Command string
	// Args precede the prompt, e.g. ["-p"].
	Args []string
}

// NewExecCollaborator returns an ExecCollaborator for the given command
// line. The prompt is appended after args on every run.
func NewExecCollaborator(command string, args ...string) *ExecCollaborator {
	return &ExecCollaborator{Command: command, Args: args}
}

func (c *ExecCollaborator) run(ctx context.Context, workdir, prompt string) (string, error) {
	args := append(append([]string{}, c.Args...), prompt)
	cmd := exec.CommandContext(ctx, c.Command, args...) //nolint:gosec // command comes from operator config, not task input
	cmd.Dir = workdir

	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("run %s: %w", c.Command, err)
	}
	return out.String(), nil
}

// Generate produces code for the request and returns the raw reply.
func (c *ExecCollaborator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	out, err := c.run(ctx, req.Workdir, buildGenerationPrompt(req))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

// Review runs a review and parses the reply into a structured report.
func (c *ExecCollaborator) Review(ctx context.Context, req ReviewRequest) (protocol.ReviewReport, error) {
	out, err := c.run(ctx, req.Workdir, buildReviewPrompt(req))
	if err != nil {
		return protocol.ReviewReport{}, fmt.Errorf("review: %w", err)
	}
	return ParseReviewReport(out), nil
}

// Fix attempts each issue in its own subprocess. A failed invocation
// moves the issue to Failed and the batch continues; only a context
// cancellation aborts early.
func (c *ExecCollaborator) Fix(ctx context.Context, req FixRequest) (protocol.RewriteReport, error) {
	var report protocol.RewriteReport
	for _, issue := range req.Issues {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("fix: %w", err)
		}
		if _, err := c.run(ctx, req.Workdir, buildFixPrompt(issue)); err != nil {
			report.Failed = append(report.Failed, issue)
			continue
		}
		report.Fixed = append(report.Fixed, issue)
	}
	report.Summary = fmt.Sprintf("Fixed %d of %d issues", len(report.Fixed), len(req.Issues))
	return report, nil
}

var _ Collaborator = (*ExecCollaborator)(nil)
