package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

func TestSweepCommandResetsAbandonedTask(t *testing.T) {
	ws := setTestWorkspace(t)
	tasksPath := filepath.Join(ws, ".quorum", "tasks.json")

	// A claim whose lease is already expired, held by an agent that was
	// never registered.
	seed := taskstore.New(tasksPath, taskstore.WithLeaseTTL(-time.Minute))
	taskID, err := seed.Create(taskstore.CreateSpec{
		Type:        "code_generation",
		Description: "write a parser",
		AssignedTo:  "coder-ghost",
		CreatedBy:   "coordinator",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := seed.Claim(taskID, "coder-ghost"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	out, err := execute(t, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "reset task "+taskID) {
		t.Errorf("output = %q", out)
	}

	task, err := seed.Get(taskID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if task.Status != protocol.TaskPending {
		t.Errorf("status = %s, want %s", task.Status, protocol.TaskPending)
	}
	if task.ClaimedBy != "" {
		t.Errorf("claimed by %q, want cleared", task.ClaimedBy)
	}
}

func TestSweepCommandNothingToSweep(t *testing.T) {
	setTestWorkspace(t)

	out, err := execute(t, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "nothing to sweep") {
		t.Errorf("output = %q", out)
	}
}
