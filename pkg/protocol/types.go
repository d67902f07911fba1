// Package protocol defines the shared record types exchanged through the
// Quorum coordination stores: agents, tasks, messages, and the structured
// review payloads carried by escalation tasks. Every agent process links
// this package; it has no dependencies beyond the standard library so the
// wire shapes stay stable.
package protocol

import "time"

// --- Roles ---

// Role identifies what kind of work an agent performs.
type Role string

// Known agent roles. A workspace may run several agents per role; only the
// coordinator is expected to be singular (see registry).
const (
	RoleCoordinator  Role = "coordinator"
	RoleFileManager  Role = "file_manager"
	RoleCoder        Role = "coder"
	RoleCodeReviewer Role = "code_reviewer"
	RoleCodeRewriter Role = "code_rewriter"
	RoleGitManager   Role = "git_manager"
	RoleResearcher   Role = "researcher"
	RoleTester       Role = "tester"
	RoleHelper       Role = "helper"
)

// Roles lists every known role in declaration order.
func Roles() []Role {
	return []Role{
		RoleCoordinator, RoleFileManager, RoleCoder, RoleCodeReviewer,
		RoleCodeRewriter, RoleGitManager, RoleResearcher, RoleTester,
		RoleHelper,
	}
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// --- Agents ---

// AgentStatus is the registry status of an agent.
type AgentStatus string

// Agent status constants.
const (
	AgentActive   AgentStatus = "active"
	AgentInactive AgentStatus = "inactive"
)

// Agent is a registered worker process. The PID is used only for liveness
// probing, never for control.
type Agent struct {
	ID            string      `json:"id"`
	Role          Role        `json:"role"`
	Status        AgentStatus `json:"status"`
	PID           int         `json:"pid"`
	LastSeen      time.Time   `json:"last_seen"`
	RegisteredAt  time.Time   `json:"registered_at"`
	DeactivatedAt *time.Time  `json:"deactivated_at,omitempty"`
}

// --- Tasks ---

// TaskStatus is the lifecycle status of a task. Transitions are strictly
// forward: pending -> in_progress -> completed|failed. The only sanctioned
// reversal is the lease sweep, which returns an abandoned in_progress task
// to pending after its owning agent has disappeared.
type TaskStatus string

// Task status constants.
const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether s is a terminal status.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskContext carries the delegation-time project focus and any structured
// payload a task needs, such as the issue list of an escalation task.
type TaskContext struct {
	ProjectName      string             `json:"project_name,omitempty"`
	ProjectWorkspace string             `json:"project_workspace,omitempty"`
	Escalation       *EscalationContext `json:"escalation,omitempty"`
	Meta             map[string]string  `json:"meta,omitempty"`
}

// EscalationContext is attached to tasks created by the reviewer/rewriter
// escalation loop. Cycle counts completed reviewer->rewriter->reviewer
// round trips so the loop can refuse to run forever.
type EscalationContext struct {
	Cycle         int     `json:"cycle"`
	Issues        []Issue `json:"issues"`
	CriticalCount int     `json:"critical_count"`
	MajorCount    int     `json:"major_count"`
	MinorCount    int     `json:"minor_count"`
	SourceAgent   string  `json:"source_agent,omitempty"`
}

// Task is one unit of delegated work.
type Task struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	AssignedTo  string         `json:"assigned_to"` // agent id or role name
	CreatedBy   string         `json:"created_by"`
	Status      TaskStatus     `json:"status"`
	Priority    int            `json:"priority"`
	Context     *TaskContext   `json:"context,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	ClaimedBy   string         `json:"claimed_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	// LeaseExpiresAt is stamped on claim and renewed by the owning agent.
	// The sweep uses it to reclaim abandoned work.
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
}

// AssignedToMatches reports whether the task is routed to the given agent,
// either by id or by the agent's role name.
func (t Task) AssignedToMatches(agentID string, role Role) bool {
	return t.AssignedTo == agentID || (role != "" && t.AssignedTo == string(role))
}

// --- Messages ---

// MessageType classifies an inter-agent notice.
type MessageType string

// Known message types. Messages are advisory; the task store is the
// authoritative state.
const (
	MsgDelegation       MessageType = "delegation"
	MsgFollowUp         MessageType = "follow_up"
	MsgEscalationCapped MessageType = "escalation_capped"
	MsgInfo             MessageType = "info"
)

// Message is a one-way notice from one agent to another. Messages are
// append-only and never mutated.
type Message struct {
	ID        string      `json:"id"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Type      MessageType `json:"type"`
	Body      string      `json:"body"`
	TaskID    string      `json:"task_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
