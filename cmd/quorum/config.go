package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the workspace configuration read from quorum.toml. Every
// field has a working default so a bare workspace needs no manifest.
type Manifest struct {
	Project struct {
		// Name and Workspace seed the coordinator's project focus.
		Name      string `toml:"name"`
		Workspace string `toml:"workspace"`
	} `toml:"project"`

	Worker struct {
		HeartbeatSeconds int `toml:"heartbeat_seconds"`
		PollSeconds      int `toml:"poll_seconds"`
		LeaseMinutes     int `toml:"lease_minutes"`
	} `toml:"worker"`

	Escalation struct {
		MaxCycles int `toml:"max_cycles"`
	} `toml:"escalation"`

	Collaborator struct {
		// Command plus Args invoke the external assistant; the prompt is
		// appended as the final argument.
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
	} `toml:"collaborator"`
}

// DefaultManifest returns the configuration used when no quorum.toml
// exists.
func DefaultManifest() Manifest {
	var m Manifest
	m.Worker.HeartbeatSeconds = 30
	m.Worker.PollSeconds = 5
	m.Worker.LeaseMinutes = 10
	m.Escalation.MaxCycles = 3
	m.Collaborator.Command = "claude"
	m.Collaborator.Args = []string{"-p"}
	return m
}

// LoadManifest reads quorum.toml from path. A missing file yields the
// defaults; zero-valued fields in an existing file are filled in from
// the defaults so a partial manifest stays valid.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return m, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	defaults := DefaultManifest()
	if m.Worker.HeartbeatSeconds <= 0 {
		m.Worker.HeartbeatSeconds = defaults.Worker.HeartbeatSeconds
	}
	if m.Worker.PollSeconds <= 0 {
		m.Worker.PollSeconds = defaults.Worker.PollSeconds
	}
	if m.Worker.LeaseMinutes <= 0 {
		m.Worker.LeaseMinutes = defaults.Worker.LeaseMinutes
	}
	if m.Escalation.MaxCycles <= 0 {
		m.Escalation.MaxCycles = defaults.Escalation.MaxCycles
	}
	if m.Collaborator.Command == "" {
		m.Collaborator.Command = defaults.Collaborator.Command
		m.Collaborator.Args = defaults.Collaborator.Args
	}
	return m, nil
}

// HeartbeatInterval returns the worker heartbeat cadence.
func (m Manifest) HeartbeatInterval() time.Duration {
	return time.Duration(m.Worker.HeartbeatSeconds) * time.Second
}

// PollInterval returns the worker fallback poll cadence.
func (m Manifest) PollInterval() time.Duration {
	return time.Duration(m.Worker.PollSeconds) * time.Second
}

// LeaseTTL returns the claim lease duration.
func (m Manifest) LeaseTTL() time.Duration {
	return time.Duration(m.Worker.LeaseMinutes) * time.Minute
}
