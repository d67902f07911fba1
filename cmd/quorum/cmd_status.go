package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"quorum/pkg/protocol"
	"quorum/pkg/registry"
	"quorum/pkg/taskstore"
)

// newStatusCmd creates the "quorum status" subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace coordination state",
		Long:  "Displays registered agents by status and the task queue broken\ndown by lifecycle state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			return runStatus(cmd.OutOrStdout(), paths, isStdoutTTY())
		},
	}
}

func isStdoutTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func runStatus(w io.Writer, paths *Paths, color bool) error {
	title := lipgloss.NewStyle().Bold(true)
	dim := lipgloss.NewStyle().Faint(true)
	if !color {
		title = lipgloss.NewStyle()
		dim = lipgloss.NewStyle()
	}

	agents, err := registry.New(paths.AgentsPath).ListAll()
	if err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	active, inactive := 0, 0
	for _, a := range agents {
		if a.Status == protocol.AgentActive {
			active++
		} else {
			inactive++
		}
	}

	tasks, err := taskstore.New(paths.TasksPath).All()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	byStatus := map[protocol.TaskStatus]int{}
	for _, t := range tasks {
		byStatus[t.Status]++
	}

	fmt.Fprintln(w, title.Render("agents"))
	fmt.Fprintf(w, "  active: %d  inactive: %d\n", active, inactive)
	fmt.Fprintln(w, title.Render("tasks"))
	fmt.Fprintf(w, "  pending: %d  in_progress: %d  completed: %d  failed: %d\n",
		byStatus[protocol.TaskPending], byStatus[protocol.TaskInProgress],
		byStatus[protocol.TaskCompleted], byStatus[protocol.TaskFailed])
	fmt.Fprintln(w, dim.Render(fmt.Sprintf("  store: %s", paths.CommDir)))
	return nil
}
