package taskstore

import (
	"quorum/pkg/protocol"
)

// Sweep returns abandoned in_progress tasks to pending. A task is
// abandoned when its lease has expired AND its claiming agent is not in
// the given set of currently active agents. Both conditions must hold:
// an agent that is merely slow keeps its lease-renewed claim, and a task
// whose lease lapsed while its agent is still registered stays put so a
// live claimant is never raced.
//
// Sweep is the deliberate, operator-visible exception to the forward-only
// status contract; it is never run implicitly by claim or complete.
// Returns the ids of the tasks it reset.
func (s *Store) Sweep(activeAgents []protocol.Agent) ([]string, error) {
	active := make(map[string]bool, len(activeAgents))
	for _, a := range activeAgents {
		active[a.ID] = true
	}

	var swept []string
	err := s.tasks.Update(func(tasks []protocol.Task) ([]protocol.Task, error) {
		now := s.nowFunc()
		for i := range tasks {
			t := &tasks[i]
			if t.Status != protocol.TaskInProgress {
				continue
			}
			if t.LeaseExpiresAt == nil || now.Before(*t.LeaseExpiresAt) {
				continue
			}
			if active[t.ClaimedBy] {
				continue
			}

			t.Status = protocol.TaskPending
			t.ClaimedBy = ""
			t.LeaseExpiresAt = nil
			t.UpdatedAt = now
			swept = append(swept, t.ID)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}
