package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/local"
)

// taskSavedMsg is dispatched when the form submits successfully.
type taskSavedMsg struct {
	text string
}

// formCancelMsg is dispatched when the user aborts the form.
type formCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    string
}

// formModel is the create/edit task form.
type formModel struct {
	form     *huh.Form
	fb       *formBindings
	service  *local.Service
	editMode bool
	editID   int
	width    int
	height   int
}

func newForm(svc *local.Service, width, height int) formModel {
	return formModel{
		fb:      &formBindings{priority: "medium"},
		service: svc,
		width:   width,
		height:  height,
	}
}

// startCreate initializes the form for a new task.
func (m *formModel) startCreate() tea.Cmd {
	m.editMode = false
	m.editID = 0
	m.fb.title = ""
	m.fb.description = ""
	m.fb.priority = "medium"
	m.form = m.buildForm("New Task")
	return m.form.Init()
}

// startEdit initializes the form with an existing task's values.
func (m *formModel) startEdit(t local.Task) tea.Cmd {
	m.editMode = true
	m.editID = t.ID
	m.fb.title = t.Title
	m.fb.description = t.Description
	m.fb.priority = t.Priority
	if m.fb.priority == "" {
		m.fb.priority = "medium"
	}
	m.form = m.buildForm("Edit Task")
	return m.form.Init()
}

func (m *formModel) buildForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("What needs doing?").
				CharLimit(255).
				Value(&m.fb.title),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details").
				CharLimit(5000).
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("Low", "low"),
					huh.NewOption("Medium", "medium"),
					huh.NewOption("High", "high"),
				).
				Value(&m.fb.priority),
		),
	).WithWidth(min(m.width-4, 70))
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return formCancelMsg{} }
	}

	return m, cmd
}

func (m formModel) submit() tea.Cmd {
	fb := *m.fb
	svc := m.service
	editMode := m.editMode
	editID := m.editID
	return func() tea.Msg {
		if editMode {
			_, text, err := svc.Update(editID, fb.title)
			if err != nil {
				return statusMsg{text: err.Error(), isErr: true}
			}
			if _, err := svc.SetDetails(editID, fb.description, fb.priority); err != nil {
				return statusMsg{text: err.Error(), isErr: true}
			}
			return taskSavedMsg{text: text}
		}

		task, text, err := svc.Add(fb.title)
		if err != nil {
			return statusMsg{text: err.Error(), isErr: true}
		}
		if _, err := svc.SetDetails(task.ID, fb.description, fb.priority); err != nil {
			return statusMsg{text: err.Error(), isErr: true}
		}
		return taskSavedMsg{text: text}
	}
}

func (m formModel) View() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}
