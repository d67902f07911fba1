package registry

import (
	"os"
	"syscall"
	"time"

	"quorum/pkg/protocol"
)

// IsProcessAlive checks whether a process with the given PID exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0: no signal sent, just checks if process exists.
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// Dangling describes an active registration whose OS process no longer
// exists. The registry reports these for cleanup but never auto-removes
// them: a just-restarted agent may be about to re-register the same id.
type Dangling struct {
	Agent protocol.Agent
	// StaleFor is how long ago the agent was last seen.
	StaleFor time.Duration
}

// LivenessReport probes every active registration's PID and returns the
// dangling ones. An agent whose process is still alive is never reported,
// regardless of how stale its heartbeat is — liveness takes precedence
// over heartbeat staleness for removal decisions.
func (r *Registry) LivenessReport() ([]Dangling, error) {
	active, err := r.ListActive()
	if err != nil {
		return nil, err
	}

	now := r.nowFunc()
	var dangling []Dangling
	for _, a := range active {
		if r.aliveFn(a.PID) {
			continue
		}
		dangling = append(dangling, Dangling{
			Agent:    a,
			StaleFor: now.Sub(a.LastSeen),
		})
	}
	return dangling, nil
}
