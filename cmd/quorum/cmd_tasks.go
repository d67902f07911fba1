package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quorum/pkg/protocol"
	"quorum/pkg/taskstore"
)

// newTasksCmd creates the "quorum tasks" subcommand.
func newTasksCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks in the shared queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			tasks, err := taskstore.New(paths.TasksPath).All()
			if err != nil {
				return fmt.Errorf("load tasks: %w", err)
			}

			w := cmd.OutOrStdout()
			shown := 0
			for _, t := range tasks {
				if status != "" && string(t.Status) != status {
					continue
				}
				shown++
				owner := t.AssignedTo
				if t.ClaimedBy != "" {
					owner = t.ClaimedBy
				}
				fmt.Fprintf(w, "%s  %-11s  p%d  %-24s  %s\n", t.ID, t.Status, t.Priority, owner, t.Description)
			}
			if shown == 0 {
				fmt.Fprintln(w, "no tasks")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", fmt.Sprintf("filter by status (%s|%s|%s|%s)",
		protocol.TaskPending, protocol.TaskInProgress, protocol.TaskCompleted, protocol.TaskFailed))
	return cmd
}
