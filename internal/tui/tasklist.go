package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/keys"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/local"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/theme"
)

// tasksReloadedMsg is sent after any mutation so the list re-renders.
type tasksReloadedMsg struct {
	tasks []local.Task
}

// statusMsg carries a confirmation or error line for the status bar.
type statusMsg struct {
	text  string
	isErr bool
}

// editTaskMsg asks the root model to open the edit form for a task.
type editTaskMsg struct {
	task local.Task
}

// addTaskMsg asks the root model to open the create form.
type addTaskMsg struct{}

// taskItem wraps a local.Task so it can be used in a bubbles/list.
type taskItem struct {
	task local.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i taskItem) FilterValue() string { return i.task.Title }

// taskDelegate renders one task per line: checkbox glyph, priority
// badge, title.
type taskDelegate struct{}

func (d taskDelegate) Height() int  { return 1 }
func (d taskDelegate) Spacing() int { return 0 }

func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(taskItem)
	if !ok {
		return
	}
	t := ti.task

	glyph := theme.StatusGlyph(t.Completed)
	priBadge := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	title := t.Title
	if t.Completed {
		title = theme.DoneStyle.Render(title)
	}

	line := fmt.Sprintf("%s %s #%d %s", glyph, priBadge, t.ID, title)
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// priorityLabel returns a short badge for a priority name.
func priorityLabel(priority string) string {
	switch priority {
	case "high":
		return "!!"
	case "low":
		return " ."
	default:
		return " -"
	}
}

// taskListModel is the main task list view over the local session.
type taskListModel struct {
	list    list.Model
	service *local.Service
	keys    *keys.KeyMap
	width   int
	height  int
}

func newTaskList(svc *local.Service, k *keys.KeyMap, width, height int) taskListModel {
	l := list.New([]list.Item{}, taskDelegate{}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return taskListModel{
		list:    l,
		service: svc,
		keys:    k,
		width:   width,
		height:  height,
	}
}

func (m taskListModel) Init() tea.Cmd {
	return m.reload()
}

// reload re-reads the local session and refreshes the list items.
func (m taskListModel) reload() tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		return tasksReloadedMsg{tasks: svc.List()}
	}
}

func (m taskListModel) Update(msg tea.Msg) (taskListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksReloadedMsg:
		items := make([]list.Item, len(msg.tasks))
		for i, t := range msg.tasks {
			items[i] = taskItem{task: t}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		// While the list's fuzzy filter is active, all keys belong
		// to it.
		if m.list.FilterState() == list.Filtering {
			break
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m taskListModel) handleKeys(msg tea.KeyMsg) (taskListModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Add):
		return m, func() tea.Msg { return addTaskMsg{} }

	case key.Matches(msg, m.keys.Edit):
		item, ok := m.list.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return editTaskMsg{task: item.task} }

	case key.Matches(msg, m.keys.Toggle):
		item, ok := m.list.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		return m, m.toggle(item.task)

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		return m, m.delete(item.task.ID)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m taskListModel) toggle(t local.Task) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		var text string
		var err error
		if t.Completed {
			_, text, err = svc.Incomplete(t.ID)
		} else {
			_, text, err = svc.Complete(t.ID)
		}
		if err != nil {
			return statusMsg{text: err.Error(), isErr: true}
		}
		return statusMsg{text: text}
	}
}

func (m taskListModel) delete(id int) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		text, err := svc.Delete(id)
		if err != nil {
			return statusMsg{text: err.Error(), isErr: true}
		}
		return statusMsg{text: text}
	}
}

// filtering reports whether the list's fuzzy filter owns the keyboard.
func (m taskListModel) filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *taskListModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

func (m taskListModel) View() string {
	return m.list.View()
}
