package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"quorum/pkg/audit"
	"quorum/pkg/project"
	"quorum/pkg/protocol"
	"quorum/pkg/registry"
	"quorum/pkg/taskstore"
)

// Default runtime intervals. The poll ticker is a fallback: the file
// watcher delivers near-immediate wakeups when it works, and polling
// guarantees progress when it does not.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultPollInterval      = 5 * time.Second
	DefaultRenewInterval     = 5 * time.Minute
)

// Runtime runs one worker agent: it registers itself, heartbeats, and
// drains pending tasks routed to its id or role through the handler.
type Runtime struct {
	id      string
	role    protocol.Role
	reg     *registry.Registry
	tasks   *taskstore.Store
	focus   *project.Focus
	handler Handler

	heartbeatInterval time.Duration
	pollInterval      time.Duration
	renewInterval     time.Duration

	// watchDir, when set, is watched with fsnotify so store writes wake
	// the drain loop without waiting for the next poll tick.
	watchDir string

	// auditLog is optional; nil disables audit recording.
	auditLog *audit.Log

	// pidFunc and logf are test hooks.
	pidFunc func() int
	logf    func(format string, args ...any)
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithHeartbeatInterval overrides the heartbeat cadence.
func WithHeartbeatInterval(d time.Duration) RuntimeOption {
	return func(r *Runtime) { r.heartbeatInterval = d }
}

// WithPollInterval overrides the fallback poll cadence.
func WithPollInterval(d time.Duration) RuntimeOption {
	return func(r *Runtime) { r.pollInterval = d }
}

// WithRenewInterval overrides the lease renewal cadence.
func WithRenewInterval(d time.Duration) RuntimeOption {
	return func(r *Runtime) { r.renewInterval = d }
}

// WithWatchDir enables a file watcher on the shared store directory.
func WithWatchDir(dir string) RuntimeOption {
	return func(r *Runtime) { r.watchDir = dir }
}

// WithAuditLog wires an audit log into the runtime.
func WithAuditLog(l *audit.Log) RuntimeOption {
	return func(r *Runtime) { r.auditLog = l }
}

// WithPIDFunc overrides the registered PID. Test hook.
func WithPIDFunc(fn func() int) RuntimeOption {
	return func(r *Runtime) { r.pidFunc = fn }
}

// WithLogf overrides the runtime's log sink. Test hook.
func WithLogf(fn func(format string, args ...any)) RuntimeOption {
	return func(r *Runtime) { r.logf = fn }
}

// NewRuntime creates a worker runtime for the given agent identity.
func NewRuntime(id string, role protocol.Role, reg *registry.Registry, tasks *taskstore.Store, focus *project.Focus, handler Handler, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		id:                id,
		role:              role,
		reg:               reg,
		tasks:             tasks,
		focus:             focus,
		handler:           handler,
		heartbeatInterval: DefaultHeartbeatInterval,
		pollInterval:      DefaultPollInterval,
		renewInterval:     DefaultRenewInterval,
		pidFunc:           os.Getpid,
		logf:              log.Printf,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run registers the agent and drains tasks until ctx is cancelled, then
// marks the agent inactive on the way out. Registration failure (for
// example a second coordinator) is returned immediately.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.reg.Register(r.id, r.role, r.pidFunc()); err != nil {
		return fmt.Errorf("worker %s: register: %w", r.id, err)
	}
	_ = r.auditLog.Record(ctx, audit.Event{
		Type: audit.EventAgentRegistered, Source: r.id, AgentID: r.id,
	})
	defer func() {
		if err := r.reg.MarkInactive(r.id); err != nil {
			r.logf("worker %s: mark inactive: %v", r.id, err)
		}
		_ = r.auditLog.Record(context.Background(), audit.Event{
			Type: audit.EventAgentInactive, Source: r.id, AgentID: r.id,
		})
	}()

	wake := make(chan struct{}, 1)
	if r.watchDir != "" {
		if watcher := initWatcher(r.watchDir, r.logf); watcher != nil {
			defer watcher.Close()
			go forwardEvents(ctx, watcher, wake, r.logf)
		}
	}

	hb := time.NewTicker(r.heartbeatInterval)
	defer hb.Stop()
	poll := time.NewTicker(r.pollInterval)
	defer poll.Stop()

	r.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hb.C:
			if err := r.reg.Heartbeat(r.id); err != nil {
				r.logf("worker %s: heartbeat: %v", r.id, err)
			}
		case <-poll.C:
			r.drain(ctx)
		case <-wake:
			r.drain(ctx)
		}
	}
}

// drain claims and executes every pending task currently routed to this
// agent, in the store's deterministic order. A task claimed by a rival
// between listing and claiming is logged and skipped, never retried.
func (r *Runtime) drain(ctx context.Context) {
	pending, err := r.tasks.PendingFor(r.id, r.role)
	if err != nil {
		r.logf("worker %s: list pending: %v", r.id, err)
		return
	}

	for _, task := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := r.tasks.Claim(task.ID, r.id); err != nil {
			var claimed *protocol.AlreadyClaimedError
			if errors.As(err, &claimed) {
				r.logf("worker %s: task %s already claimed by %s, skipping", r.id, task.ID, claimed.ClaimedBy)
				continue
			}
			r.logf("worker %s: claim %s: %v", r.id, task.ID, err)
			continue
		}
		_ = r.auditLog.Record(ctx, audit.Event{
			Type: audit.EventTaskClaimed, Source: r.id, TaskID: task.ID, AgentID: r.id,
		})
		r.execute(ctx, task.ID)
	}
}

// execute resolves the task's project scope, runs the handler inside it,
// and reports the terminal outcome. Handler panics are contained and
// recorded as failures so one bad task cannot take the worker down.
func (r *Runtime) execute(ctx context.Context, taskID string) {
	task, err := r.tasks.Get(taskID)
	if err != nil {
		r.logf("worker %s: reload %s: %v", r.id, taskID, err)
		return
	}

	scope, err := project.Resolve(task, r.focus)
	if err != nil {
		r.fail(ctx, taskID, map[string]any{"error": err.Error()})
		return
	}

	renewCtx, stopRenew := context.WithCancel(ctx)
	go r.renewLoop(renewCtx, taskID)

	var result map[string]any
	err = r.focus.RunScoped(scope, func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("handler panic: %v", p)
			}
		}()
		result, err = r.handler.Execute(ctx, task, scope)
		return err
	})
	stopRenew()

	if err != nil {
		r.fail(ctx, taskID, map[string]any{"error": err.Error()})
		return
	}
	if err := r.tasks.Complete(taskID, result); err != nil {
		r.logf("worker %s: complete %s: %v", r.id, taskID, err)
		return
	}
	_ = r.auditLog.Record(ctx, audit.Event{
		Type: audit.EventTaskCompleted, Source: r.id, TaskID: taskID, AgentID: r.id,
	})
}

func (r *Runtime) fail(ctx context.Context, taskID string, payload map[string]any) {
	if err := r.tasks.Fail(taskID, payload); err != nil {
		r.logf("worker %s: fail %s: %v", r.id, taskID, err)
		return
	}
	_ = r.auditLog.Record(ctx, audit.Event{
		Type: audit.EventTaskFailed, Source: r.id, TaskID: taskID, AgentID: r.id,
	})
}

// renewLoop keeps the claim lease fresh while the handler runs so the
// sweep never reclaims a task from a live worker.
func (r *Runtime) renewLoop(ctx context.Context, taskID string) {
	ticker := time.NewTicker(r.renewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.tasks.Renew(taskID, r.id); err != nil {
				r.logf("worker %s: renew %s: %v", r.id, taskID, err)
				return
			}
		}
	}
}

// initWatcher creates a watcher on the shared store directory. Returns
// nil when watching is unavailable; the poll ticker covers that case.
func initWatcher(dir string, logf func(string, ...any)) *fsnotify.Watcher {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logf("fsnotify: failed to create watcher: %v (falling back to polling)", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		logf("fsnotify: failed to watch %s: %v (falling back to polling)", dir, err)
		return nil
	}
	return watcher
}

// forwardEvents turns watcher events into non-blocking wakeups.
func forwardEvents(ctx context.Context, watcher *fsnotify.Watcher, wake chan<- struct{}, logf func(string, ...any)) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logf("fsnotify: watcher error: %v", err)
		}
	}
}
