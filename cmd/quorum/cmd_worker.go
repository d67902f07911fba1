package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quorum/pkg/agent"
	"quorum/pkg/audit"
	"quorum/pkg/collab"
	"quorum/pkg/escalate"
	"quorum/pkg/mailbox"
	"quorum/pkg/project"
	"quorum/pkg/protocol"
	"quorum/pkg/registry"
	"quorum/pkg/taskstore"
)

// newWorkerCmd creates the "quorum worker" subcommand.
func newWorkerCmd() *cobra.Command {
	var (
		id   string
		role string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a worker agent in the foreground",
		Long: `Registers an agent under the given id and role, then claims and
executes tasks routed to it until interrupted. SIGINT/SIGTERM shut the
worker down cleanly and mark it inactive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := protocol.Role(role)
			if !protocol.ValidRole(r) {
				return fmt.Errorf("unknown role %q", role)
			}
			if id == "" {
				id = fmt.Sprintf("%s-%d", role, os.Getpid())
			}

			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			manifest, err := LoadManifest(paths.ManifestPath)
			if err != nil {
				return err
			}

			reg := registry.New(paths.AgentsPath)
			tasks := taskstore.New(paths.TasksPath, taskstore.WithLeaseTTL(manifest.LeaseTTL()))
			mail := mailbox.New(paths.MessagesPath)
			focus := project.NewFocus(paths.Workspace)
			if manifest.Project.Workspace != "" {
				focus.Set(manifest.Project.Name, manifest.Project.Workspace)
			}

			var auditLog *audit.Log
			if l, err := audit.Open(paths.AuditDBPath); err == nil {
				defer l.Close()
				auditLog = l
			}

			assistant := collab.NewExecCollaborator(manifest.Collaborator.Command, manifest.Collaborator.Args...)
			loop := escalate.NewLoop(tasks, mail,
				escalate.WithMaxCycles(manifest.Escalation.MaxCycles),
				escalate.WithAuditLog(auditLog),
			)

			runtime := agent.NewRuntime(id, r, reg, tasks, focus, handlerForRole(r, assistant, loop),
				agent.WithHeartbeatInterval(manifest.HeartbeatInterval()),
				agent.WithPollInterval(manifest.PollInterval()),
				agent.WithWatchDir(paths.CommDir),
				agent.WithAuditLog(auditLog),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "worker %s (%s) running, store %s\n", id, role, paths.CommDir)
			return runtime.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "agent id (default <role>-<pid>)")
	cmd.Flags().StringVar(&role, "role", string(protocol.RoleCoder), "agent role")
	return cmd
}

// handlerForRole picks the task handler for a role. The reviewer and
// rewriter run the escalation loop; every other role generates.
func handlerForRole(role protocol.Role, assistant collab.Collaborator, loop *escalate.Loop) agent.Handler {
	switch role {
	case protocol.RoleCodeReviewer:
		return agent.NewReviewerHandler(assistant, loop)
	case protocol.RoleCodeRewriter:
		return agent.NewRewriterHandler(assistant, loop)
	default:
		return agent.NewCoderHandler(assistant)
	}
}
