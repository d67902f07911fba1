// Package collab defines the boundary between the coordination substrate
// and the external assistant that actually produces, reviews and repairs
// code. Everything behind the Collaborator interface is replaceable; the
// substrate only depends on the request/report shapes.
package collab

import (
	"context"

	"quorum/pkg/protocol"
)

// GenerationRequest asks the collaborator to produce new code.
type GenerationRequest struct {
	Description string
	Workdir     string
}

// ReviewRequest asks the collaborator to review code and report issues.
type ReviewRequest struct {
	Description string
	Workdir     string
}

// FixRequest asks the collaborator to repair a set of reviewed issues.
// Issues are attempted one at a time; a failure on one never aborts the
// rest of the batch.
type FixRequest struct {
	Description string
	Issues      []protocol.Issue
	Workdir     string
}

// Collaborator produces, reviews and repairs code on request.
type Collaborator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Review(ctx context.Context, req ReviewRequest) (protocol.ReviewReport, error)
	Fix(ctx context.Context, req FixRequest) (protocol.RewriteReport, error)
}
