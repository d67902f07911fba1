package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

// setTestWorkspace points the CLI at a throwaway workspace.
func setTestWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	t.Setenv("QUORUM_WORKSPACE", ws)
	t.Setenv("QUORUM_COMM_DIR", "")
	t.Setenv("QUORUM_AUDIT_DB", "")
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestDelegateCommandCreatesRoutedTask(t *testing.T) {
	ws := setTestWorkspace(t)

	out, err := execute(t, "delegate", "fix the login bug")
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if !strings.Contains(out, "delegated task ") {
		t.Fatalf("output = %q", out)
	}

	tasks, err := taskstore.New(filepath.Join(ws, ".quorum", "tasks.json")).All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Type != "code_rewrite" {
		t.Errorf("type = %q, want code_rewrite", tasks[0].Type)
	}
	if tasks[0].AssignedTo != string(protocol.RoleCodeRewriter) {
		t.Errorf("assigned to %q, want %s", tasks[0].AssignedTo, protocol.RoleCodeRewriter)
	}
	if tasks[0].CreatedBy != "coordinator" {
		t.Errorf("created by %q, want coordinator", tasks[0].CreatedBy)
	}
}

func TestDelegateCommandExplicitTarget(t *testing.T) {
	ws := setTestWorkspace(t)

	if _, err := execute(t, "delegate", "--to", "helper-7", "--priority", "4", "fix the login bug"); err != nil {
		t.Fatalf("delegate: %v", err)
	}

	tasks, err := taskstore.New(filepath.Join(ws, ".quorum", "tasks.json")).All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].AssignedTo != "helper-7" {
		t.Errorf("assigned to %q, want helper-7", tasks[0].AssignedTo)
	}
	if tasks[0].Priority != 4 {
		t.Errorf("priority = %d, want 4", tasks[0].Priority)
	}
}

func TestDelegateCommandRequiresDescription(t *testing.T) {
	setTestWorkspace(t)

	if _, err := execute(t, "delegate"); err == nil {
		t.Fatal("expected arg error")
	}
}
