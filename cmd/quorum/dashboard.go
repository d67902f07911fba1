package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quorum/pkg/protocol"
	"quorum/pkg/registry"
	"quorum/pkg/taskstore"
)

// tickMsg is sent by Bubble Tea on every refresh interval.
type tickMsg time.Time

// stateMsg carries a freshly loaded store snapshot.
type stateMsg struct {
	tasks  []protocol.Task
	agents []protocol.Agent
}

// dashRefreshInterval is how often the dashboard reloads the stores.
const dashRefreshInterval = 2 * time.Second

var (
	dashTitleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	dashFooterStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	dashTableStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).Padding(0, 1)
)

// dashModel is the Bubble Tea model for the quorum dashboard. Strictly
// read-only: it never mutates the stores it renders.
type dashModel struct {
	paths *Paths
	tbl   table.Model

	activeAgents int
	totalAgents  int
	pending      int
	inProgress   int
	err          error
}

func newDashModel(paths *Paths) dashModel {
	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Status", Width: 11},
			{Title: "Pri", Width: 3},
			{Title: "Owner", Width: 22},
			{Title: "Description", Width: 48},
		}),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	return dashModel{paths: paths, tbl: tbl}
}

func tickCmd() tea.Cmd {
	return tea.Tick(dashRefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadStateCmd reloads tasks and agents off the Bubble Tea event loop.
func loadStateCmd(paths *Paths) tea.Cmd {
	return func() tea.Msg {
		tasks, err := taskstore.New(paths.TasksPath).All()
		if err != nil {
			return err
		}
		agents, err := registry.New(paths.AgentsPath).ListAll()
		if err != nil {
			return err
		}
		return stateMsg{tasks: tasks, agents: agents}
	}
}

// Init implements tea.Model.
func (m dashModel) Init() tea.Cmd {
	return tea.Batch(loadStateCmd(m.paths), tickCmd())
}

// Update implements tea.Model.
func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tickMsg:
		return m, tea.Batch(loadStateCmd(m.paths), tickCmd())

	case stateMsg:
		m.err = nil
		m.apply(msg)
		return m, nil

	case error:
		m.err = msg
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// apply folds a store snapshot into the model.
func (m *dashModel) apply(state stateMsg) {
	m.totalAgents = len(state.agents)
	m.activeAgents = 0
	for _, a := range state.agents {
		if a.Status == protocol.AgentActive {
			m.activeAgents++
		}
	}

	m.pending, m.inProgress = 0, 0
	rows := make([]table.Row, 0, len(state.tasks))
	for _, t := range state.tasks {
		switch t.Status {
		case protocol.TaskPending:
			m.pending++
		case protocol.TaskInProgress:
			m.inProgress++
		}
		owner := t.AssignedTo
		if t.ClaimedBy != "" {
			owner = t.ClaimedBy
		}
		rows = append(rows, table.Row{
			t.ID, string(t.Status), fmt.Sprintf("%d", t.Priority), owner, t.Description,
		})
	}
	m.tbl.SetRows(rows)
}

// View implements tea.Model.
func (m dashModel) View() string {
	title := dashTitleStyle.Render(fmt.Sprintf(
		"quorum — agents %d/%d active — tasks %d pending, %d in progress",
		m.activeAgents, m.totalAgents, m.pending, m.inProgress,
	))
	if m.err != nil {
		title += "\n" + dashFooterStyle.Render(fmt.Sprintf("load error: %v", m.err))
	}
	footer := dashFooterStyle.Render("q quit · arrows scroll · refreshes every 2s")
	return title + "\n" + dashTableStyle.Render(m.tbl.View()) + "\n" + footer
}
