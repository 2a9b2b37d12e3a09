package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/glasspane/glasspane/internal/surface"
)

// Messages sent into the model from server callbacks.
type (
	// ClientConnectedMsg reports a new transport client.
	ClientConnectedMsg struct{ Addr string }

	// ClientDisconnectedMsg reports a departed transport client.
	ClientDisconnectedMsg struct{ Addr string }

	// RequestHandledMsg reports one handled request. Err is empty on
	// success.
	RequestHandledMsg struct {
		Type string
		Err  string
	}

	// FramePresentedMsg reports what the compositor just presented.
	FramePresentedMsg struct {
		WindowID    uint32
		Title       string
		Width       int
		Height      int
		Placeholder string
	}

	// WindowsUpdatedMsg carries the current window list.
	WindowsUpdatedMsg struct{ Windows []surface.WindowInfo }
)

// InlineServerModel is the inline status view shown by `serve --tui`.
type InlineServerModel struct {
	addr      string
	startedAt time.Time
	spinner   spinner.Model

	clients   map[string]struct{}
	windows   []surface.WindowInfo
	lastFrame string
	requests  int
	errors    int

	logLines    []string
	maxLogLines int
}

// NewInlineServerModel creates the status model for a server bound to
// addr.
func NewInlineServerModel(addr string) *InlineServerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return &InlineServerModel{
		addr:        addr,
		startedAt:   time.Now(),
		spinner:     s,
		clients:     make(map[string]struct{}),
		lastFrame:   "nothing presented yet",
		maxLogLines: 8,
	}
}

// Init implements tea.Model.
func (m *InlineServerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *InlineServerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case ClientConnectedMsg:
		m.clients[msg.Addr] = struct{}{}
		m.addLog(fmt.Sprintf("client connected: %s", msg.Addr))

	case ClientDisconnectedMsg:
		delete(m.clients, msg.Addr)
		m.addLog(fmt.Sprintf("client disconnected: %s", msg.Addr))

	case RequestHandledMsg:
		m.requests++
		if msg.Err != "" {
			m.errors++
			m.addLog(ErrStyle.Render(fmt.Sprintf("%s: %s", orUnknown(msg.Type), msg.Err)))
		} else {
			m.addLog(fmt.Sprintf("%s ok", msg.Type))
		}

	case FramePresentedMsg:
		if msg.Placeholder != "" {
			m.lastFrame = msg.Placeholder
		} else {
			m.lastFrame = fmt.Sprintf("window %d %q (%dx%d)", msg.WindowID, msg.Title, msg.Width, msg.Height)
		}

	case WindowsUpdatedMsg:
		m.windows = msg.Windows

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *InlineServerModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("glasspane server"))
	b.WriteString(" " + m.spinner.View() + "\n")

	b.WriteString(LabelStyle.Render("listen:   ") + ValueStyle.Render(m.addr) + "\n")
	b.WriteString(LabelStyle.Render("clients:  ") + ValueStyle.Render(fmt.Sprintf("%d", len(m.clients))) + "\n")
	b.WriteString(LabelStyle.Render("requests: ") + ValueStyle.Render(fmt.Sprintf("%d (%d errors)", m.requests, m.errors)) + "\n")
	b.WriteString(LabelStyle.Render("showing:  ") + ValueStyle.Render(m.lastFrame) + "\n")

	if len(m.windows) > 0 {
		b.WriteString(LabelStyle.Render("windows:") + "\n")
		for _, w := range m.windows {
			b.WriteString(fmt.Sprintf("  %s\n",
				ValueStyle.Render(fmt.Sprintf("#%d %q %dx%d", w.ID, w.Title, w.Width, w.Height))))
		}
	}

	if len(m.logLines) > 0 {
		b.WriteString(LabelStyle.Render("recent:") + "\n")
		for _, line := range m.logLines {
			b.WriteString("  " + LogStyle.Render(line) + "\n")
		}
	}

	b.WriteString(LabelStyle.Render("press q to quit") + "\n")
	return b.String()
}

func (m *InlineServerModel) addLog(line string) {
	stamp := time.Now().Format("15:04:05")
	m.logLines = append(m.logLines, fmt.Sprintf("%s %s", stamp, line))
	if len(m.logLines) > m.maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-m.maxLogLines:]
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "request"
	}
	return s
}
