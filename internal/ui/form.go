package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/dialog"
	"github.com/adanyl0v/taskboard/internal/models"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldStatus
	fieldAssignee
	fieldCount
)

// taskForm edits the draft of a creating or editing dialog.
type taskForm struct {
	title       textinput.Model
	description textarea.Model
	status      models.TaskStatus
	assignee    string
	focus       formField
}

func newTaskForm() taskForm {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 255

	description := textarea.New()
	description.Placeholder = "Description"
	description.ShowLineNumbers = false
	description.SetHeight(4)

	return taskForm{
		title:       title,
		description: description,
		status:      models.StatusPending,
		assignee:    dialog.Unassigned,
	}
}

// load seeds the form from the draft of the top dialog.
func (f *taskForm) load(c *dialog.Controller, users []client.User) {
	frame, ok := c.Current()
	if !ok {
		return
	}
	d := frame.Draft
	f.title.SetValue(d.Title)
	f.title.CursorEnd()
	f.description.SetValue(d.Description)
	f.status = d.Status
	if !f.status.Valid() {
		f.status = models.StatusPending
	}
	f.assignee = d.AssignedTo
	if f.assignee != dialog.Unassigned && indexOfUser(users, f.assignee) < 0 {
		f.assignee = dialog.Unassigned
	}
	f.setFocus(fieldTitle)
}

func (f taskForm) draft() dialog.Draft {
	return dialog.Draft{
		Title:       f.title.Value(),
		Description: f.description.Value(),
		Status:      f.status,
		AssignedTo:  f.assignee,
	}
}

func (f *taskForm) resize(width int) {
	w := width/2 - 6
	if w < 20 {
		w = 20
	}
	f.title.Width = w
	f.description.SetWidth(w)
}

func (f *taskForm) setFocus(field formField) {
	f.title.Blur()
	f.description.Blur()
	f.focus = field
	switch field {
	case fieldTitle:
		f.title.Focus()
	case fieldDescription:
		f.description.Focus()
	}
}

func (f *taskForm) update(msg tea.KeyMsg, keys KeyMap, users []client.User) {
	switch {
	case key.Matches(msg, keys.NextField):
		f.setFocus((f.focus + 1) % fieldCount)
		return
	case key.Matches(msg, keys.PrevField):
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return
	}

	switch f.focus {
	case fieldTitle:
		f.title, _ = f.title.Update(msg)
	case fieldDescription:
		f.description, _ = f.description.Update(msg)
	case fieldStatus:
		if key.Matches(msg, keys.Left) || key.Matches(msg, keys.Right) || key.Matches(msg, keys.Move) {
			f.toggleStatus()
		}
	case fieldAssignee:
		switch {
		case key.Matches(msg, keys.Left):
			f.cycleAssignee(users, -1)
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Move):
			f.cycleAssignee(users, 1)
		}
	}
}

func (f *taskForm) toggleStatus() {
	if f.status == models.StatusPending {
		f.status = models.StatusCompleted
	} else {
		f.status = models.StatusPending
	}
}

// cycleAssignee steps through "unassigned" followed by every user.
func (f *taskForm) cycleAssignee(users []client.User, delta int) {
	n := len(users) + 1
	i := indexOfUser(users, f.assignee) + 1
	i = (i + delta + n) % n
	if i == 0 {
		f.assignee = dialog.Unassigned
		return
	}
	f.assignee = users[i-1].ID
}

func indexOfUser(users []client.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func assigneeLabel(users []client.User, id string) string {
	if i := indexOfUser(users, id); i >= 0 {
		return users[i].DisplayName()
	}
	return dialog.Unassigned
}
