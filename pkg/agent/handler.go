// Package agent implements the worker runtime: self-registration with
// liveness heartbeats, discovery of pending work via file watch with a
// polling fallback, the claim/execute/report loop, and the role handlers
// that connect task execution to the external collaborator.
package agent

import (
	"context"

	"quorum/pkg/project"
	"quorum/pkg/protocol"
)

// Handler executes one claimed task inside its resolved project scope
// and returns the result payload stored on completion. A returned error
// fails the task; failure is a normal outcome, not a crash.
type Handler interface {
	Execute(ctx context.Context, task protocol.Task, scope project.Context) (map[string]any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, task protocol.Task, scope project.Context) (map[string]any, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, task protocol.Task, scope project.Context) (map[string]any, error) {
	return f(ctx, task, scope)
}
