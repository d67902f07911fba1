package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quorum/pkg/registry"
)

// newAgentsCmd creates the "quorum agents" subcommand.
func newAgentsCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			reg := registry.New(paths.AgentsPath)
			agents, err := reg.ListAll()
			if err != nil {
				return fmt.Errorf("load agents: %w", err)
			}
			if activeOnly {
				agents, err = reg.ListActive()
				if err != nil {
					return fmt.Errorf("load agents: %w", err)
				}
			}

			w := cmd.OutOrStdout()
			if len(agents) == 0 {
				fmt.Fprintln(w, "no agents registered")
				return nil
			}
			for _, a := range agents {
				fmt.Fprintf(w, "%-24s  %-13s  %-8s  pid %-7d  last seen %s\n",
					a.ID, a.Role, a.Status, a.PID, a.LastSeen.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "show only active agents")
	return cmd
}
