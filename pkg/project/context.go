// Package project holds the per-process project focus and the context
// resolver that decides which working directory a task executes against.
//
// Focus is strictly local state — it is never persisted to the shared
// stores and needs no cross-process synchronization.
package project

import (
	"sync"

	"quorum/pkg/protocol"
)

// Context names a project and its absolute workspace path.
type Context struct {
	Name      string
	Workspace string
}

// Focus is an agent process's current project focus plus the base
// workspace it falls back to. Cleared to the base workspace on process
// start; mutated only by an explicit Set.
type Focus struct {
	mu      sync.Mutex
	base    string
	current *Context
}

// NewFocus creates a Focus rooted at the base workspace.
func NewFocus(baseWorkspace string) *Focus {
	return &Focus{base: baseWorkspace}
}

// Set switches the focus to the given project.
func (f *Focus) Set(name, workspace string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = &Context{Name: name, Workspace: workspace}
}

// Clear drops the focus back to the base workspace.
func (f *Focus) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
}

// Current returns the focused project, or nil if none is set.
func (f *Focus) Current() *Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	c := *f.current
	return &c
}

// Base returns the base workspace path.
func (f *Focus) Base() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base
}

// Snapshot copies the current focus into a TaskContext for embedding in a
// task at delegation time, so downstream resolution sees the focus as it
// was even if this process later changes it. Returns nil when no focus is
// set: the task then resolves through the executing agent's own chain.
func (f *Focus) Snapshot() *protocol.TaskContext {
	c := f.Current()
	if c == nil {
		return nil
	}
	return &protocol.TaskContext{
		ProjectName:      c.Name,
		ProjectWorkspace: c.Workspace,
	}
}

// Resolve determines the working directory and project name for a task
// about to execute. The fallback chain, first match wins:
//
//  1. The task's embedded project workspace (delegation-time context).
//  2. The executing agent's own current focus.
//  3. The base workspace root.
//
// Resolve is pure: it never mutates the focus. The base workspace is the
// defined floor of the chain, so UnresolvableContextError only occurs if
// the focus was constructed with an empty base — an invariant violation.
func Resolve(task protocol.Task, focus *Focus) (Context, error) {
	if task.Context != nil && task.Context.ProjectWorkspace != "" {
		return Context{
			Name:      task.Context.ProjectName,
			Workspace: task.Context.ProjectWorkspace,
		}, nil
	}

	if c := focus.Current(); c != nil && c.Workspace != "" {
		return *c, nil
	}

	base := focus.Base()
	if base == "" {
		return Context{}, &protocol.UnresolvableContextError{TaskID: task.ID}
	}
	return Context{Workspace: base}, nil
}

// RunScoped runs fn with the focus temporarily set to the resolved
// context, restoring the prior focus on every exit path, including a
// panic inside fn.
func (f *Focus) RunScoped(c Context, fn func() error) error {
	prev := f.Current()
	f.Set(c.Name, c.Workspace)
	defer func() {
		if prev == nil {
			f.Clear()
		} else {
			f.Set(prev.Name, prev.Workspace)
		}
	}()
	return fn()
}
