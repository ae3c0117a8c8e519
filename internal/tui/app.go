package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/medilex/internal/config"
	"github.com/raphaelgruber/medilex/internal/models"
	"github.com/raphaelgruber/medilex/internal/session"
	"github.com/raphaelgruber/medilex/internal/store"
)

// Deps wires the interface to the rest of the application.
type Deps struct {
	// Controller is nil when no credential is stored yet; the key-entry
	// form runs first and Build constructs the controller afterwards.
	Controller *session.Controller
	KV         *store.KV
	Config     config.Config
	Logger     *slog.Logger
	Build      func(ctx context.Context) (*session.Controller, error)
}

// focusArea identifies which pane receives key input.
type focusArea int

const (
	focusSearch focusArea = iota
	focusChat
	focusHistory
)

// Messages produced by background controller operations.
type (
	stateMsg     session.State
	ctrlReadyMsg struct {
		ctrl *session.Controller
		err  error
	}
)

type appModel struct {
	deps  Deps
	theme Theme

	ctrl  *session.Controller // nil while the key form is active
	state session.State

	keyInput    textinput.Model
	searchInput textinput.Model
	chatInput   textinput.Model
	spin        spinner.Model

	focus      focusArea
	histCursor int
	busy       bool
	keyErr     string
	fatal      error
	quitting   bool
}

func newAppModel(deps Deps) appModel {
	keyInput := textinput.New()
	keyInput.Placeholder = "Provider API key"
	keyInput.EchoMode = textinput.EchoPassword

	searchInput := textinput.New()
	searchInput.Placeholder = "Enter a medical term…"

	chatInput := textinput.New()
	chatInput.Placeholder = "Ask a follow-up question…"

	m := appModel{
		deps:        deps,
		theme:       defaultTheme,
		ctrl:        deps.Controller,
		keyInput:    keyInput,
		searchInput: searchInput,
		chatInput:   chatInput,
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if m.ctrl != nil {
		m.state = m.ctrl.Snapshot()
	}
	return m
}

// Init focuses the key form or the search bar.
func (m appModel) Init() tea.Cmd {
	if m.ctrl == nil {
		return m.keyInput.Focus()
	}
	return m.searchInput.Focus()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case ctrlReadyMsg:
		if msg.err != nil {
			m.keyErr = fmt.Sprintf("provider setup failed: %v", msg.err)
			return m, nil
		}
		m.ctrl = msg.ctrl
		m.state = m.ctrl.Snapshot()
		m.keyErr = ""
		m.keyInput.SetValue("")
		m.focus = focusSearch
		return m, m.searchInput.Focus()

	case stateMsg:
		m.state = session.State(msg)
		m.busy = false
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m appModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.ctrl == nil {
		return m.handleKeyFormKey(msg)
	}

	switch msg.String() {
	case "tab":
		return m.cycleFocus()
	case "ctrl+g":
		lang := models.LanguageEnglish
		if m.state.Language == models.LanguageEnglish {
			lang = models.LanguageArabic
		}
		m.ctrl.SetLanguage(lang)
		m.state = m.ctrl.Snapshot()
		return m, nil
	case "ctrl+k":
		if err := m.ctrl.ClearCredential(); err != nil {
			m.fatal = err
			return m, tea.Quit
		}
		m.ctrl = nil
		m.focus = focusSearch
		return m, m.keyInput.Focus()
	case "up":
		if m.focus == focusHistory && m.histCursor > 0 {
			m.histCursor--
			return m, nil
		}
	case "down":
		if m.focus == focusHistory && m.histCursor < len(m.state.History)-1 {
			m.histCursor++
			return m, nil
		}
	case "enter":
		return m.submit()
	}

	return m.updateInputs(msg)
}

func (m appModel) handleKeyFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		key := strings.TrimSpace(m.keyInput.Value())
		if err := m.deps.KV.SetAPIKey(key); err != nil {
			m.keyErr = err.Error()
			return m, nil
		}
		build := m.deps.Build
		return m, func() tea.Msg {
			ctrl, err := build(context.Background())
			return ctrlReadyMsg{ctrl: ctrl, err: err}
		}
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

// cycleFocus moves search -> chat (when a result exists) -> history -> search.
func (m appModel) cycleFocus() (tea.Model, tea.Cmd) {
	m.searchInput.Blur()
	m.chatInput.Blur()

	switch m.focus {
	case focusSearch:
		if m.state.Result != nil {
			m.focus = focusChat
			return m, m.chatInput.Focus()
		}
		m.focus = focusHistory
	case focusChat:
		m.focus = focusHistory
	case focusHistory:
		m.focus = focusSearch
		return m, m.searchInput.Focus()
	}
	return m, nil
}

// submit dispatches enter according to focus. Controller calls run as
// commands so Update never blocks on the network.
func (m appModel) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		term := strings.TrimSpace(m.searchInput.Value())
		if term == "" {
			return m, nil
		}
		m.busy = true
		m.searchInput.SetValue("")
		m.state.Loading = models.StateSearching
		m.state.Result = nil
		m.state.Messages = nil
		m.state.Error = ""
		ctrl := m.ctrl
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			ctrl.SubmitSearch(context.Background(), term)
			return stateMsg(ctrl.Snapshot())
		})

	case focusChat:
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.state.Result == nil {
			return m, nil
		}
		m.busy = true
		m.chatInput.SetValue("")
		m.state.Loading = models.StateThinking
		ctrl := m.ctrl
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			ctrl.SubmitChatMessage(context.Background(), text)
			return stateMsg(ctrl.Snapshot())
		})

	case focusHistory:
		if m.histCursor >= len(m.state.History) {
			return m, nil
		}
		id := m.state.History[m.histCursor].ID
		m.busy = true
		m.state.Loading = models.StateSearching
		m.state.Result = nil
		m.state.Messages = nil
		m.state.Error = ""
		ctrl := m.ctrl
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			ctrl.SelectHistoryTerm(context.Background(), id)
			return stateMsg(ctrl.Snapshot())
		})
	}
	return m, nil
}

func (m appModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.ctrl == nil {
		m.keyInput, cmd = m.keyInput.Update(msg)
		return m, cmd
	}
	switch m.focus {
	case focusSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case focusChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

// Run starts the interactive UI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(newAppModel(deps))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	if m, ok := finalModel.(appModel); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}
