package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"quorum/pkg/protocol"
	"quorum/pkg/registry"
)

// cleanupConfig holds injectable dependencies for the cleanup command.
type cleanupConfig struct {
	reg     *registry.Registry
	w       io.Writer
	confirm func() bool // asks the operator; injectable for testing
	isTTY   func() bool // returns true if stdin is a TTY; injectable for testing
}

// newCleanupCmd creates the "quorum cleanup" subcommand.
func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale agent registrations",
		Long: `Lists inactive registrations and dangling ones (active entries whose
process no longer exists), then removes the inactive entries after
confirmation. Dangling entries are reported but never removed: the
process may be about to re-register under the same id. An agent whose
process is alive is never reported, no matter how stale its heartbeat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			cfg := &cleanupConfig{
				reg:     registry.New(paths.AgentsPath),
				w:       cmd.OutOrStdout(),
				confirm: confirmOnStdin,
				isTTY:   isStdinTTY,
			}
			return runCleanup(cfg)
		},
	}
}

func isStdinTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func confirmOnStdin() bool {
	fmt.Fprint(os.Stdout, "remove inactive registrations? [y/N] ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// runCleanup reports stale registrations and removes the inactive ones
// on confirmation.
func runCleanup(cfg *cleanupConfig) error {
	if cfg.isTTY != nil && !cfg.isTTY() {
		return fmt.Errorf("quorum cleanup requires an interactive terminal (stdin is not a TTY)")
	}

	agents, err := cfg.reg.ListAll()
	if err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	var inactive []protocol.Agent
	for _, a := range agents {
		if a.Status == protocol.AgentInactive {
			inactive = append(inactive, a)
		}
	}

	dangling, err := cfg.reg.LivenessReport()
	if err != nil {
		return fmt.Errorf("liveness report: %w", err)
	}

	if len(inactive) == 0 && len(dangling) == 0 {
		fmt.Fprintln(cfg.w, "nothing to clean")
		return nil
	}

	for _, d := range dangling {
		fmt.Fprintf(cfg.w, "dangling: %s (%s) pid %d gone, last seen %s ago — not removed\n",
			d.Agent.ID, d.Agent.Role, d.Agent.PID, d.StaleFor.Round(time.Second))
	}
	for _, a := range inactive {
		fmt.Fprintf(cfg.w, "inactive: %s (%s)\n", a.ID, a.Role)
	}

	if len(inactive) == 0 {
		return nil
	}
	if !cfg.confirm() {
		fmt.Fprintln(cfg.w, "aborted")
		return nil
	}

	for _, a := range inactive {
		if err := cfg.reg.Remove(a.ID); err != nil {
			fmt.Fprintf(cfg.w, "warning: remove %s: %v\n", a.ID, err)
			continue
		}
		fmt.Fprintf(cfg.w, "removed %s\n", a.ID)
	}
	return nil
}
