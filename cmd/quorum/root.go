package main

import (
	"fmt"

	"quorum/internal/appversion"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root quorum command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quorum",
		Short:         "Multi-agent coordination over a shared workspace",
		Long:          "quorum coordinates a set of role-based agent processes through\nshared task, message and agent stores under the workspace's .quorum/ directory.",
		Version:       fmt.Sprintf("quorum %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newDelegateCmd(),
		newStatusCmd(),
		newTasksCmd(),
		newAgentsCmd(),
		newMessagesCmd(),
		newWorkerCmd(),
		newSweepCmd(),
		newCleanupCmd(),
		newDashCmd(),
	)

	return cmd
}
