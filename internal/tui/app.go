// Package tui is the Bubble Tea front end for `taskie todo`: a local
// in-memory task list with an add/edit form and an optional chat view
// against a running backend.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/client"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/keys"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/local"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/theme"
)

// viewState represents the current active view.
type viewState int

const (
	viewList viewState = iota
	viewForm
	viewChat
	viewHelp
)

// Model is the root Bubble Tea model that routes between views.
type Model struct {
	currentView viewState
	service     *local.Service
	keys        *keys.KeyMap
	taskList    taskListModel
	form        formModel
	chat        chatModel
	help        help.Model
	status      string
	statusIsErr bool
	width       int
	height      int
	ready       bool
}

// New creates the root model. backend may be nil when the user is not
// logged in; the chat view then shows a setup hint.
func New(svc *local.Service, backend *client.Client) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: viewList,
		service:     svc,
		keys:        k,
		taskList:    newTaskList(svc, k, 80, 24),
		form:        newForm(svc, 80, 24),
		chat:        newChat(backend, 80, 24),
		help:        help.New(),
	}
}

// Run starts the program on the alternate screen and blocks until it
// exits.
func Run(svc *local.Service, backend *client.Client) error {
	p := tea.NewProgram(New(svc, backend), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running todo ui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.taskList.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.taskList.setSize(msg.Width, msg.Height-2)
		m.chat.setSize(msg.Width, msg.Height-2)
		m.form.width = msg.Width
		m.form.height = msg.Height - 2
		m.help.Width = msg.Width
		return m.updateActiveView(msg)

	case statusMsg:
		m.status = msg.text
		m.statusIsErr = msg.isErr
		// Mutations changed the session; refresh the list either way.
		return m, m.taskList.reload()

	case addTaskMsg:
		m.currentView = viewForm
		return m, m.form.startCreate()

	case editTaskMsg:
		m.currentView = viewForm
		return m, m.form.startEdit(msg.task)

	case taskSavedMsg:
		m.currentView = viewList
		m.status = msg.text
		m.statusIsErr = false
		return m, m.taskList.reload()

	case formCancelMsg:
		m.currentView = viewList
		return m, nil

	case chatCloseMsg:
		m.currentView = viewList
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that switch views or quit, returning
// handled=false when the active view should see the key instead.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	// Forms and chat own the keyboard while active, except ctrl+c.
	if m.currentView == viewForm || m.currentView == viewChat {
		if msg.String() == "ctrl+c" {
			return tea.Quit, true
		}
		return nil, false
	}

	if m.currentView == viewHelp {
		m.currentView = viewList
		return nil, true
	}

	// While the list's fuzzy filter is active, only ctrl+c is global.
	if m.taskList.filtering() {
		if msg.String() == "ctrl+c" {
			return tea.Quit, true
		}
		return nil, false
	}

	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.currentView = viewHelp
		return nil, true

	case key.Matches(msg, m.keys.Chat):
		m.currentView = viewChat
		return m.chat.Init(), true
	}

	return nil, false
}

func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case viewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case viewForm:
		m.form, cmd = m.form.Update(msg)
	case viewChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var content string
	switch m.currentView {
	case viewList:
		content = m.taskList.View()
	case viewForm:
		content = m.form.View()
	case viewChat:
		content = m.chat.View()
	case viewHelp:
		content = m.viewHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, m.statusBar())
}

func (m Model) viewHelp() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	m.help.ShowAll = true
	return theme.ChatPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.help.View(m.keys)))
}

func (m Model) statusBar() string {
	text := m.status
	if text == "" {
		text = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	style := theme.StatusBarStyle.Width(m.width)
	if m.statusIsErr {
		style = style.Foreground(theme.ColorRed)
	}
	return style.Render(text)
}
