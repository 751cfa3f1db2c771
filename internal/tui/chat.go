package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/client"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/theme"
)

// chatCloseMsg signals the parent to close the chat view.
type chatCloseMsg struct{}

// chatReplyMsg carries the agent's reply, or the error that replaced it.
type chatReplyMsg struct {
	reply *client.ChatReply
	err   error
}

// chatLine is one rendered message in the conversation viewport.
type chatLine struct {
	role    string
	content string
}

// chatModel is the chat view that talks to a running backend. When no
// client is configured (not logged in), it shows a setup hint instead.
type chatModel struct {
	backend        *client.Client
	input          textinput.Model
	viewport       viewport.Model
	lines          []chatLine
	conversationID string
	waiting        bool
	offline        bool
	width          int
	height         int
}

func newChat(backend *client.Client, width, height int) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask Taskie about your tasks..."
	ti.Prompt = "> "
	ti.CharLimit = 5000
	ti.Width = width - 6
	ti.Focus()

	vpHeight := height - 6
	if vpHeight < 4 {
		vpHeight = 4
	}
	vp := viewport.New(width-4, vpHeight)

	return chatModel{
		backend:  backend,
		input:    ti,
		viewport: vp,
		offline:  backend == nil,
		width:    width,
		height:   height,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case chatReplyMsg:
		return m.handleReply(msg)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmds []tea.Cmd

	var tiCmd tea.Cmd
	m.input, tiCmd = m.input.Update(msg)
	if tiCmd != nil {
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m chatModel) handleKeys(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.waiting {
			return m, nil
		}
		return m, func() tea.Msg { return chatCloseMsg{} }

	case "enter":
		if m.offline || m.waiting {
			return m, nil
		}

		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.input.Reset()
		m.lines = append(m.lines, chatLine{role: "You", content: text})
		m.waiting = true
		m.refreshViewport()
		return m, m.send(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) send(text string) tea.Cmd {
	backend := m.backend
	conversationID := m.conversationID
	return func() tea.Msg {
		reply, err := backend.Chat(context.Background(), conversationID, text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (m chatModel) handleReply(msg chatReplyMsg) (chatModel, tea.Cmd) {
	m.waiting = false

	if msg.err != nil {
		m.lines = append(m.lines, chatLine{
			role:    "Error",
			content: msg.err.Error(),
		})
		m.refreshViewport()
		return m, nil
	}

	m.conversationID = msg.reply.ConversationID

	// The reply carries the whole conversation; re-render from it so
	// restarts and multi-device sessions stay consistent.
	m.lines = m.lines[:0]
	for _, message := range msg.reply.Messages {
		role := "Taskie"
		if message.Role == "user" {
			role = "You"
		}
		line := chatLine{role: role, content: message.Content}
		for _, tc := range message.ToolCalls {
			line.content += fmt.Sprintf("\n  ⚙ %s", tc.ToolName)
		}
		m.lines = append(m.lines, line)
	}

	m.refreshViewport()
	return m, nil
}

// refreshViewport re-renders the conversation and scrolls to bottom.
func (m *chatModel) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m chatModel) renderConversation() string {
	if len(m.lines) == 0 {
		return theme.HelpStyle.Render(
			"Ask me to add, list, complete, update, or delete tasks.")
	}

	var sections []string
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed).Bold(true)

	for _, line := range m.lines {
		var label string
		switch line.role {
		case "You":
			label = theme.UserStyle.Render("You:")
		case "Taskie":
			label = theme.AssistantStyle.Render("Taskie:")
		default:
			label = errStyle.Render(line.role + ":")
		}
		sections = append(sections, label, contentStyle.Render(line.content), "")
	}

	if m.waiting {
		sections = append(sections, theme.HelpStyle.Render("..."))
	}

	return strings.Join(sections, "\n")
}

func (m *chatModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
	vpHeight := height - 6
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}

func (m chatModel) View() string {
	if m.offline {
		return theme.ChatPanelStyle.Render(
			"Chat needs a backend session.\n\n" +
				"Run `taskie login --server <url>` first, then start\n" +
				"the TUI with `taskie todo --server <url>`.")
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", min(m.width-6, 80)))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		theme.HeaderStyle.Render("Taskie Chat"),
		m.viewport.View(),
		separator,
		m.input.View(),
	)

	return theme.ChatPanelStyle.Render(content)
}
