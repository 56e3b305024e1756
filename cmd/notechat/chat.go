// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/chat"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/config"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/history"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("251"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	pillStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	pillActive     = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("63")).Bold(true)
	suggestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
)

type turnDoneMsg struct {
	result *chat.TurnResult
}

type turnFailedMsg struct {
	err error
}

// configReloadedMsg carries a re-validated config from the file watcher
// into the tea event loop, so state changes stay on one goroutine.
type configReloadedMsg struct {
	cfg config.Config
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	cfg     config.Config
	session *chat.Session
	router  *chat.Router
	store   *history.Store
	logger  *zap.Logger

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	isLoading      bool
	ready          bool
	width, height  int
	notice         string
	selectedOption int
	persisted      int
	startedAt      time.Time
}

func newChatModel(cfg config.Config, session *chat.Session, router *chat.Router, store *history.Store, logger *zap.Logger) *chatModel {
	ti := textinput.New()
	ti.Placeholder = `Try "open workspace Research" (Enter to send, Ctrl+C to exit)`
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return &chatModel{
		cfg:       cfg,
		session:   session,
		router:    router,
		store:     store,
		logger:    logger.Named("chat"),
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		renderer:  renderer,
		persisted: len(session.History()),
		startedAt: time.Now(),
	}
}

func (m *chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		m.textinput.Width = msg.Width - 4
		m.ready = true
		// The turn goroutine owns session state while a turn is in
		// flight; the viewport re-renders on turnDoneMsg instead.
		if !m.isLoading {
			m.refreshViewport()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnDoneMsg:
		m.isLoading = false
		m.notice = ""
		m.selectedOption = 0
		m.persistTurn()
		m.refreshViewport()
		return m, nil

	case turnFailedMsg:
		m.isLoading = false
		m.notice = "error: " + msg.err.Error()
		m.refreshViewport()
		return m, nil

	case configReloadedMsg:
		windows := chat.DecayWindows{
			Options: msg.cfg.Decay.OptionsWindow,
			Preview: msg.cfg.Decay.PreviewWindow,
			Panel:   msg.cfg.Decay.PanelWindow,
		}
		if err := m.session.SetWindows(windows); err != nil {
			m.notice = "config reload ignored: " + err.Error()
			return m, nil
		}
		m.cfg = msg.cfg
		m.notice = "Configuration reloaded."
		return m, nil
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m *chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	// Option navigation reads the session's pending cache, which the turn
	// goroutine owns while a turn is in flight: ignore these keys until
	// the turn lands.
	case "up":
		if m.isLoading {
			return m, nil
		}
		if opts := m.currentOptions(); len(opts) > 0 && m.selectedOption > 0 {
			m.selectedOption--
			m.refreshViewport()
			return m, nil
		}

	case "down":
		if m.isLoading {
			return m, nil
		}
		if opts := m.currentOptions(); len(opts) > 0 && m.selectedOption < len(opts)-1 {
			m.selectedOption++
			m.refreshViewport()
			return m, nil
		}

	case "tab":
		if m.isLoading {
			return m, nil
		}
		if opts := m.currentOptions(); len(opts) > 0 {
			m.selectedOption = (m.selectedOption + 1) % len(opts)
			m.refreshViewport()
			return m, nil
		}

	case "enter":
		if m.isLoading {
			return m, nil
		}
		text := strings.TrimSpace(m.textinput.Value())
		if text == "" {
			if opts := m.currentOptions(); len(opts) > 0 {
				return m.clickOption(m.selectedOption + 1)
			}
			return m, nil
		}
		m.textinput.Reset()
		return m.submit(text)
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m *chatModel) submit(text string) (tea.Model, tea.Cmd) {
	switch text {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.clearChat()
		m.refreshViewport()
		return m, nil
	}

	m.isLoading = true
	m.notice = ""
	router := m.router
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := router.HandleTurn(context.Background(), text)
		if err != nil {
			return turnFailedMsg{err: err}
		}
		return turnDoneMsg{result: result}
	})
}

func (m *chatModel) clickOption(index int) (tea.Model, tea.Cmd) {
	m.isLoading = true
	router := m.router
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := router.OnExternalSelection(context.Background(), index)
		if err != nil {
			return turnFailedMsg{err: err}
		}
		return turnDoneMsg{result: result}
	})
}

// currentOptions mirrors the engine's view of the selectable option set.
func (m *chatModel) currentOptions() []chat.PendingOption {
	opts, _ := m.session.Pending().Current(m.session.History(), time.Now())
	return opts
}

func (m *chatModel) refreshViewport() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *chatModel) renderHistory() string {
	var b strings.Builder
	active := m.currentOptions()

	for _, msg := range m.session.History() {
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(userStyle.Render("You: ") + msg.Content + "\n")

		case chat.RoleAssistant:
			content := msg.Content
			if m.renderer != nil {
				if rendered, err := m.renderer.Render(content); err == nil {
					content = strings.TrimRight(rendered, "\n")
				}
			}
			if msg.IsError {
				b.WriteString(errorStyle.Render(content) + "\n")
			} else {
				b.WriteString(assistantStyle.Render(content) + "\n")
			}

			if len(msg.Options) > 0 && sameOptions(msg.Options, active) {
				for i, opt := range msg.Options {
					label := fmt.Sprintf(" %d. %s", opt.Index, opt.Label)
					if opt.Sublabel != "" {
						label += " - " + opt.Sublabel
					}
					if i == m.selectedOption {
						b.WriteString(pillActive.Render(label) + "\n")
					} else {
						b.WriteString(pillStyle.Render(label) + "\n")
					}
				}
			}

			if msg.Preview != nil {
				for _, item := range msg.Preview.Items {
					b.WriteString(pillStyle.Render(" • "+item) + "\n")
				}
				if hidden := msg.Preview.TotalCount - len(msg.Preview.Items); hidden > 0 {
					b.WriteString(noticeStyle.Render(fmt.Sprintf(" …and %d more", hidden)) + "\n")
				}
			}

			if msg.Suggestion != nil {
				for _, cand := range msg.Suggestion.Candidates {
					b.WriteString(suggestStyle.Render(fmt.Sprintf(" ? %s", cand.Label)) + "\n")
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// sameOptions reports whether a message's option set is the one currently
// selectable, so only the live pills get highlight treatment.
func sameOptions(a, b []chat.PendingOption) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}

func (m *chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := titleStyle.Render(" notechat ") + noticeStyle.Render(" - workspace navigation")
	status := ""
	if m.isLoading {
		status = m.spinner.View() + " thinking..."
	} else if m.notice != "" {
		status = noticeStyle.Render(m.notice)
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.viewport.View(), status, m.textinput.View())
}
