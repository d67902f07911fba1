package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quorum/pkg/mailbox"
)

// newMessagesCmd creates the "quorum messages" subcommand.
func newMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <agent-id-or-role>",
		Short: "Show an agent's inbox",
		Long:  "Prints every message addressed to the given agent id or role in\narrival order. Reading never consumes messages.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			inbox, err := mailbox.New(paths.MessagesPath).Inbox(args[0])
			if err != nil {
				return fmt.Errorf("load inbox: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(inbox) == 0 {
				fmt.Fprintln(w, "inbox empty")
				return nil
			}
			for _, m := range inbox {
				ref := ""
				if m.TaskID != "" {
					ref = "  task " + m.TaskID
				}
				fmt.Fprintf(w, "%s  %-17s  from %-24s%s\n    %s\n",
					m.Timestamp.Format(time.RFC3339), m.Type, m.From, ref, m.Body)
			}
			return nil
		},
	}
}
