package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quorum/pkg/audit"
	"quorum/pkg/delegate"
	"quorum/pkg/mailbox"
	"quorum/pkg/project"
	"quorum/pkg/taskstore"
)

// newDelegateCmd creates the "quorum delegate" subcommand.
func newDelegateCmd() *cobra.Command {
	var (
		from     string
		to       string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "delegate <description>",
		Short: "Classify a request and enqueue it as a task",
		Long: `Classifies the free-text description against the workspace's keyword
rules, routes it to the matching role (or the explicit --to target),
and creates a pending task plus a delegation notice.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			manifest, err := LoadManifest(paths.ManifestPath)
			if err != nil {
				return err
			}
			rules, err := delegate.LoadRules(paths.RulesPath)
			if err != nil {
				return err
			}

			focus := project.NewFocus(paths.Workspace)
			if manifest.Project.Workspace != "" {
				focus.Set(manifest.Project.Name, manifest.Project.Workspace)
			}

			tasks := taskstore.New(paths.TasksPath, taskstore.WithLeaseTTL(manifest.LeaseTTL()))
			mail := mailbox.New(paths.MessagesPath)

			eng := delegate.NewEngine(from, tasks, mail, focus, rules)
			if log, err := audit.Open(paths.AuditDBPath); err == nil {
				defer log.Close()
				eng.SetAuditLog(log)
			}

			taskID, err := eng.Delegate(cmd.Context(), delegate.Request{
				Description:    args[0],
				ExplicitTarget: to,
				Priority:       priority,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "delegated task %s\n", taskID)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "coordinator", "agent id recorded as the task creator")
	cmd.Flags().StringVar(&to, "to", "", "explicit target agent id or role (bypasses role mapping)")
	cmd.Flags().IntVar(&priority, "priority", 0, "task priority (default 1)")
	return cmd
}
