package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quorum/pkg/audit"
	"quorum/pkg/registry"
	"quorum/pkg/taskstore"
)

// newSweepCmd creates the "quorum sweep" subcommand.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Return abandoned in_progress tasks to pending",
		Long: `Resets in_progress tasks whose claim lease has expired and whose
claiming agent is no longer active. Tasks held by active agents are
never touched, even with an expired lease. Sweeping is the only
sanctioned backwards status transition and it only happens here,
explicitly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			active, err := registry.New(paths.AgentsPath).ListActive()
			if err != nil {
				return fmt.Errorf("load agents: %w", err)
			}

			swept, err := taskstore.New(paths.TasksPath).Sweep(active)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(swept) == 0 {
				fmt.Fprintln(w, "nothing to sweep")
				return nil
			}

			var auditLog *audit.Log
			if l, err := audit.Open(paths.AuditDBPath); err == nil {
				defer l.Close()
				auditLog = l
			}
			for _, id := range swept {
				fmt.Fprintf(w, "reset task %s to pending\n", id)
				_ = auditLog.Record(cmd.Context(), audit.Event{
					Type: audit.EventTaskSwept, Source: "sweep", TaskID: id,
				})
			}
			return nil
		},
	}
}
