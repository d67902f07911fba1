package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadManifestMissingFileUsesDefaults(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "quorum.toml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.HeartbeatInterval() != 30*time.Second {
		t.Errorf("heartbeat = %v", m.HeartbeatInterval())
	}
	if m.PollInterval() != 5*time.Second {
		t.Errorf("poll = %v", m.PollInterval())
	}
	if m.LeaseTTL() != 10*time.Minute {
		t.Errorf("lease = %v", m.LeaseTTL())
	}
	if m.Escalation.MaxCycles != 3 {
		t.Errorf("max cycles = %d", m.Escalation.MaxCycles)
	}
	if m.Collaborator.Command != "claude" {
		t.Errorf("collaborator = %q", m.Collaborator.Command)
	}
}

func TestLoadManifestPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.toml")
	content := `
[project]
name = "alpha"
workspace = "/srv/alpha"

[escalation]
max_cycles = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Project.Name != "alpha" || m.Project.Workspace != "/srv/alpha" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.Escalation.MaxCycles != 5 {
		t.Errorf("max cycles = %d, want 5", m.Escalation.MaxCycles)
	}
	// Unset sections keep their defaults.
	if m.Worker.PollSeconds != 5 {
		t.Errorf("poll seconds = %d, want default 5", m.Worker.PollSeconds)
	}
	if m.Collaborator.Command != "claude" {
		t.Errorf("collaborator = %q, want default claude", m.Collaborator.Command)
	}
}

func TestLoadManifestCollaboratorOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.toml")
	content := `
[collaborator]
command = "assistant"
args = ["--prompt"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Collaborator.Command != "assistant" {
		t.Errorf("command = %q", m.Collaborator.Command)
	}
	if len(m.Collaborator.Args) != 1 || m.Collaborator.Args[0] != "--prompt" {
		t.Errorf("args = %v", m.Collaborator.Args)
	}
}

func TestLoadManifestRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.toml")
	if err := os.WriteFile(path, []byte("[worker\npoll_seconds = x"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for malformed manifest")
	}
}
