package main

import (
	"fmt"
	"os"
	"path/filepath"

	"quorum/pkg/protocol"
)

// Paths holds all resolved quorum state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Workspace    string // cwd or QUORUM_WORKSPACE
	CommDir      string // <workspace>/.quorum or QUORUM_COMM_DIR
	TasksPath    string // <commdir>/tasks.json
	MessagesPath string // <commdir>/messages.json
	AgentsPath   string // <commdir>/agents.json
	AuditDBPath  string // <commdir>/audit.db or QUORUM_AUDIT_DB
	ManifestPath string // <commdir>/quorum.toml
	RulesPath    string // <commdir>/rules.yaml
}

// ResolvePaths returns all quorum paths, respecting env var overrides.
// Environment variables:
//   - QUORUM_WORKSPACE: workspace root (default: current directory)
//   - QUORUM_COMM_DIR: shared state directory (default: $QUORUM_WORKSPACE/.quorum)
//   - QUORUM_AUDIT_DB: audit log database (default: $QUORUM_COMM_DIR/audit.db)
func ResolvePaths() (*Paths, error) {
	workspace := os.Getenv("QUORUM_WORKSPACE")
	if workspace == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workspace = cwd
	}

	commDir := os.Getenv("QUORUM_COMM_DIR")
	if commDir == "" {
		commDir = filepath.Join(workspace, protocol.CommDir)
	}

	auditDB := os.Getenv("QUORUM_AUDIT_DB")
	if auditDB == "" {
		auditDB = filepath.Join(commDir, protocol.AuditDBFile)
	}

	return &Paths{
		Workspace:    workspace,
		CommDir:      commDir,
		TasksPath:    filepath.Join(commDir, protocol.TasksFile),
		MessagesPath: filepath.Join(commDir, protocol.MessagesFile),
		AgentsPath:   filepath.Join(commDir, protocol.AgentsFile),
		AuditDBPath:  auditDB,
		ManifestPath: filepath.Join(commDir, protocol.ManifestFile),
		RulesPath:    filepath.Join(commDir, protocol.RulesFile),
	}, nil
}
