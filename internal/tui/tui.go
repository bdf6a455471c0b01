// Package tui provides the Bubble Tea dashboard for browsing sessions and
// evidence. It is presentation only: every mutation goes through the store,
// and an fsnotify watcher refreshes the listing when captures land while the
// dashboard is open.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/snaptrace/internal/session"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// ── Messages ───────────

// storeChangedMsg arrives when the sessions root changed on disk.
type storeChangedMsg struct{}

// ── Model ────────────────────

type pane int

const (
	paneSessions pane = iota
	paneEvidence
)

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	store   *session.Store
	changed <-chan struct{}

	sessions []*session.Session
	pane     pane
	cursor   int // session row
	evCursor int // evidence row
	current  *session.Session

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	confirming bool // pending delete confirmation
	lastErr    string
}

// New creates a dashboard model over the store. changed delivers refresh
// signals from the sessions watcher.
func New(store *session.Store, changed <-chan struct{}) Model {
	m := Model{store: store, changed: changed}
	m.reload()
	return m
}

// reload re-reads the session listing and clamps the cursors.
func (m *Model) reload() {
	sessions, err := m.store.List()
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	m.sessions = sessions
	if m.cursor >= len(m.sessions) {
		m.cursor = len(m.sessions) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.pane == paneEvidence {
		// Re-resolve the open session; it may have changed or disappeared
		// underneath us.
		id := ""
		if m.current != nil {
			id = m.current.ID
		}
		m.current = nil
		for _, s := range m.sessions {
			if s.ID == id {
				m.current = s
				break
			}
		}
		if m.current == nil {
			m.pane = paneSessions
			m.evCursor = 0
		} else if m.evCursor >= len(m.current.Evidence) {
			m.evCursor = len(m.current.Evidence) - 1
			if m.evCursor < 0 {
				m.evCursor = 0
			}
		}
	}
	if m.ready {
		m.rebuildViewport()
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return waitForChange(m.changed) }

// waitForChange re-arms the watcher subscription.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return storeChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		m.reload()
		return m, waitForChange(m.changed)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-3)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 3
		}
		m.rebuildViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		if msg.String() == "y" {
			m.performDelete()
		}
		m.confirming = false
		m.rebuildViewport()
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.pane == paneSessions && m.cursor > 0 {
			m.cursor--
		} else if m.pane == paneEvidence && m.evCursor > 0 {
			m.evCursor--
		}
		m.rebuildViewport()

	case "down", "j":
		if m.pane == paneSessions && m.cursor < len(m.sessions)-1 {
			m.cursor++
		} else if m.pane == paneEvidence && m.current != nil && m.evCursor < len(m.current.Evidence)-1 {
			m.evCursor++
		}
		m.rebuildViewport()

	case "enter":
		if m.pane == paneSessions && m.cursor < len(m.sessions) {
			m.pane = paneEvidence
			m.current = m.sessions[m.cursor]
			m.evCursor = 0
			m.rebuildViewport()
		}

	case "esc", "backspace", "h", "left":
		if m.pane == paneEvidence {
			m.pane = paneSessions
			m.current = nil
			m.rebuildViewport()
		}

	case "d":
		if (m.pane == paneSessions && len(m.sessions) > 0) ||
			(m.pane == paneEvidence && m.current != nil && len(m.current.Evidence) > 0) {
			m.confirming = true
			m.rebuildViewport()
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// performDelete deletes whatever the cursor sits on and reloads.
func (m *Model) performDelete() {
	m.lastErr = ""
	switch m.pane {
	case paneSessions:
		if m.cursor >= len(m.sessions) {
			return
		}
		if _, err := m.store.Delete(m.sessions[m.cursor].ID); err != nil {
			m.lastErr = err.Error()
		}
	case paneEvidence:
		if m.current == nil || m.evCursor >= len(m.current.Evidence) {
			return
		}
		if _, err := m.store.DeleteEvidence(m.current.ID, m.current.Evidence[m.evCursor].ID); err != nil {
			m.lastErr = err.Error()
		}
	}
	m.reload()
}

func (m *Model) rebuildViewport() {
	if !m.ready {
		return
	}
	if m.pane == paneSessions {
		m.viewport.SetContent(m.renderSessions())
	} else {
		m.viewport.SetContent(m.renderEvidence())
	}
}

func (m *Model) renderSessions() string {
	if len(m.sessions) == 0 {
		return dimStyle.Render("  No sessions yet. Run `snaptrace new <name>` to start one.")
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("  Sessions") + "\n\n")
	for i, s := range m.sessions {
		line := fmt.Sprintf("  %-30s %s  %s",
			truncate(s.Name, 30),
			timeStyle.Render(s.CreatedAt.Time().Format("2006-01-02 15:04")),
			dimStyle.Render(fmt.Sprintf("%d evidence", len(s.Evidence))),
		)
		if i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (m *Model) renderEvidence() string {
	if m.current == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("  "+m.current.Name) + dimStyle.Render("  ("+m.current.ID+")") + "\n\n")
	if len(m.current.Evidence) == 0 {
		sb.WriteString(dimStyle.Render("  No evidence in this session."))
		return sb.String()
	}
	for i, ev := range m.current.Evidence {
		note := ev.Note
		if note == "" {
			note = dimStyle.Render("(no note)")
		} else {
			note = noteStyle.Render(note)
		}
		line := fmt.Sprintf("  #%-3d %s  %s  %s",
			i+1,
			timeStyle.Render(ev.Timestamp.Time().Format("2006-01-02 15:04:05")),
			dimStyle.Render(ev.Filename),
			note,
		)
		if i == m.evCursor {
			line = selectedRowStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  snaptrace dashboard")

	hint := "  ↑/↓ move  enter open  esc back  d delete  q quit"
	if m.confirming {
		target := "session"
		if m.pane == paneEvidence {
			target = "evidence"
		}
		hint = confirmStyle.Render(fmt.Sprintf("  delete this %s? press y to confirm", target))
	}
	if m.lastErr != "" {
		hint += "  " + errStyle.Render(m.lastErr)
	}
	status := statusBarStyle.Width(m.width).Render(hint)

	return title + "\n" + m.viewport.View() + "\n" + status
}

// Run starts the sessions watcher and blocks inside the dashboard until the
// user quits.
func Run(store *session.Store) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	go func() {
		// Watcher failures degrade to a static dashboard; manual navigation
		// still works.
		_ = session.Watch(ctx, store.Root(), changed)
	}()

	p := tea.NewProgram(New(store, changed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
