// Package registry tracks which agent processes exist in a workspace:
// their role, liveness heartbeat and status. It is backed by the shared
// agents.json record store, so every process in the workspace sees the
// same view on its next poll.
package registry

import (
	"fmt"
	"time"

	"quorum/pkg/protocol"
	"quorum/pkg/store"
)

// Registry is the shared agent registry for one workspace.
type Registry struct {
	agents *store.Store[protocol.Agent]

	// nowFunc allows tests to control time.
	nowFunc func() time.Time
	// aliveFn allows tests to control process liveness probing.
	aliveFn func(pid int) bool
}

// New creates a Registry backed by the agents file at path.
func New(path string) *Registry {
	return &Registry{
		agents:  store.New[protocol.Agent](path),
		nowFunc: time.Now,
		aliveFn: IsProcessAlive,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (r *Registry) SetNowFunc(fn func() time.Time) { r.nowFunc = fn }

// SetAliveFunc overrides the process liveness probe. Test hook.
func (r *Registry) SetAliveFunc(fn func(pid int) bool) { r.aliveFn = fn }

// Register inserts or replaces the entry for id, marking it active.
// The coordinator role is singular per workspace: registering a second
// active coordinator under a different id fails with DuplicateRoleError.
// Re-registering the same id is always allowed and replaces the entry,
// so a restarted agent can reclaim its identity.
func (r *Registry) Register(id string, role protocol.Role, pid int) error {
	if !protocol.ValidRole(role) {
		return fmt.Errorf("register %s: unknown role %q", id, role)
	}

	return r.agents.Update(func(agents []protocol.Agent) ([]protocol.Agent, error) {
		if role == protocol.RoleCoordinator {
			for _, a := range agents {
				if a.Role == protocol.RoleCoordinator && a.Status == protocol.AgentActive && a.ID != id {
					return nil, &protocol.DuplicateRoleError{Role: role, ExistingID: a.ID}
				}
			}
		}

		now := r.nowFunc()
		entry := protocol.Agent{
			ID:           id,
			Role:         role,
			Status:       protocol.AgentActive,
			PID:          pid,
			LastSeen:     now,
			RegisteredAt: now,
		}

		// Replace any existing entry for this id.
		out := agents[:0]
		for _, a := range agents {
			if a.ID != id {
				out = append(out, a)
			}
		}
		return append(out, entry), nil
	})
}

// Heartbeat updates last_seen for id. Unknown ids are silently ignored:
// an agent that heartbeats before registering must re-register.
// last_seen never moves backwards, even under a skewed clock.
func (r *Registry) Heartbeat(id string) error {
	return r.agents.Update(func(agents []protocol.Agent) ([]protocol.Agent, error) {
		now := r.nowFunc()
		for i := range agents {
			if agents[i].ID == id && now.After(agents[i].LastSeen) {
				agents[i].LastSeen = now
			}
		}
		return agents, nil
	})
}

// Get returns the entry for id, or nil if not registered.
func (r *Registry) Get(id string) (*protocol.Agent, error) {
	agents, err := r.agents.Load()
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

// ListActive returns all agents with status active.
func (r *Registry) ListActive() ([]protocol.Agent, error) {
	agents, err := r.agents.Load()
	if err != nil {
		return nil, err
	}
	active := make([]protocol.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Status == protocol.AgentActive {
			active = append(active, a)
		}
	}
	return active, nil
}

// ListAll returns every registered agent, active or not.
func (r *Registry) ListAll() ([]protocol.Agent, error) {
	return r.agents.Load()
}

// MarkInactive deactivates id. Reversible by re-registration.
func (r *Registry) MarkInactive(id string) error {
	return r.agents.Update(func(agents []protocol.Agent) ([]protocol.Agent, error) {
		for i := range agents {
			if agents[i].ID == id {
				now := r.nowFunc()
				agents[i].Status = protocol.AgentInactive
				agents[i].DeactivatedAt = &now
			}
		}
		return agents, nil
	})
}

// Remove permanently deletes the entry for id.
func (r *Registry) Remove(id string) error {
	return r.agents.Update(func(agents []protocol.Agent) ([]protocol.Agent, error) {
		out := agents[:0]
		for _, a := range agents {
			if a.ID != id {
				out = append(out, a)
			}
		}
		return out, nil
	})
}
