package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/dialog"
	"github.com/adanyl0v/taskboard/internal/models"
)

const minColumnWidth = 24

func (m Model) View() string {
	var body string
	switch {
	case m.screen == screenLogin:
		body = m.viewLogin()
	case m.dialog.State() != dialog.Closed:
		body = m.viewDialog()
	default:
		body = m.viewBoard()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), body, m.viewStatusBar())
}

func (m Model) viewHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.Accent).
		Render("taskboard")

	if user := m.api.CurrentUser(); user != nil && m.screen == screenBoard {
		who := lipgloss.NewStyle().
			Foreground(m.theme.Muted).
			Render("  " + user.DisplayName())
		return title + who
	}
	return title
}

func (m Model) viewLogin() string {
	heading := "Log in"
	if m.login.register {
		heading = "Register"
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(heading),
		"",
	}
	for i := 0; i < m.login.visible(); i++ {
		lines = append(lines, m.login.inputs[i].View())
	}

	help := lipgloss.NewStyle().Foreground(m.theme.Muted)
	lines = append(lines, "", help.Render("Enter submit · Tab next field · C-r toggle register · Esc quit"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (m Model) columnWidth() int {
	w := m.width/len(board.Columns) - 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	return w
}

func (m Model) viewBoard() string {
	dragged, dragging := m.board.Dragging()
	counts := m.board.Counts()
	width := m.columnWidth()

	columns := make([]string, 0, len(board.Columns))
	for i, column := range board.Columns {
		focused := i == m.column

		heading := fmt.Sprintf("%s (%d)", column.Title, counts[column.ID])
		headingStyle := lipgloss.NewStyle().Bold(true)
		if focused {
			headingStyle = headingStyle.Foreground(m.theme.Accent)
		}
		lines := []string{headingStyle.Render(heading), ""}

		for j, task := range m.board.Column(column.ID) {
			selected := focused && j == m.row && !dragging
			lines = append(lines, m.viewCard(task, width-4, selected, dragging && task.ID == dragged.ID))
		}
		if dragging && focused && dragged.Status != column.ID {
			drop := lipgloss.NewStyle().
				Foreground(m.theme.Accent).
				Render("▸ drop " + dragged.Title + " here")
			lines = append(lines, drop)
		}

		border := m.theme.Border
		if focused {
			border = m.theme.Accent
		}
		columns = append(columns, lipgloss.NewStyle().
			Width(width).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Render(strings.Join(lines, "\n")))
	}

	help := "h/l column · j/k task · Enter open · n new · Space move · r refresh · L logout · q quit"
	if dragging {
		help = "h/l choose column · Space drop · Esc cancel"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(help),
	)
}

func (m Model) viewCard(task client.Task, width int, selected, dragged bool) string {
	style := lipgloss.NewStyle().Width(width)
	if selected {
		style = style.Background(m.theme.Selected).Bold(true)
	}

	title := task.Title
	if dragged {
		title = "⇄ " + title
	}
	lines := []string{ansi.Truncate(title, width, "…")}

	var meta []string
	if task.AssignedTo != nil {
		meta = append(meta, "@"+task.AssignedTo.DisplayName())
	}
	if task.DueDate != nil {
		meta = append(meta, "due "+*task.DueDate)
	}
	if len(meta) > 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(m.theme.Muted).
			Render(ansi.Truncate(strings.Join(meta, " · "), width, "…")))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) viewDialog() string {
	frame, _ := m.dialog.Current()

	var content string
	switch frame.State {
	case dialog.Viewing:
		content = m.viewTask(frame)
	case dialog.Editing, dialog.Creating:
		content = m.viewForm(frame)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Accent).
		Padding(1, 2).
		Render(content)

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) breadcrumb(frame dialog.Frame) string {
	if frame.Depth <= 1 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(m.theme.Muted).
		Render(fmt.Sprintf("nested %d/%d", frame.Depth, dialog.MaxDepth))
}

func (m Model) viewTask(frame dialog.Frame) string {
	task := frame.Task
	label := lipgloss.NewStyle().Foreground(m.theme.Muted)

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(task.Title),
	}
	if crumb := m.breadcrumb(frame); crumb != "" {
		lines = append(lines, crumb)
	}
	lines = append(lines, "")
	if task.Description != "" {
		lines = append(lines, task.Description, "")
	}

	lines = append(lines,
		label.Render("Status:   ")+string(task.Status),
		label.Render("Type:     ")+string(task.Type),
		label.Render("Created:  ")+task.CreatedBy.DisplayName()+" on "+task.CreatedAt.Format("2006-01-02"),
	)
	if task.AssignedTo != nil {
		lines = append(lines, label.Render("Assignee: ")+task.AssignedTo.DisplayName())
	}
	if task.StartDate != nil {
		lines = append(lines, label.Render("Starts:   ")+*task.StartDate)
	}
	if task.DueDate != nil {
		lines = append(lines, label.Render("Due:      ")+*task.DueDate)
	}

	lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Subtasks (%d)", len(frame.Subtasks))))
	for i, sub := range frame.Subtasks {
		mark := "[ ]"
		if sub.Status == models.StatusCompleted {
			mark = "[x]"
		}
		line := mark + " " + sub.Title
		if i == m.subtaskRow {
			line = lipgloss.NewStyle().Background(m.theme.Selected).Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", label.Render("e edit · a add subtask · d delete · Enter open subtask · Esc close"))
	return strings.Join(lines, "\n")
}

func (m Model) viewForm(frame dialog.Frame) string {
	heading := "Edit task"
	if frame.State == dialog.Creating {
		heading = "New task"
		if frame.Parent != nil {
			heading = "New subtask of " + frame.Parent.Title
		}
	}

	label := func(field formField, text string) string {
		style := lipgloss.NewStyle().Foreground(m.theme.Muted)
		if m.form.focus == field {
			style = style.Foreground(m.theme.Accent).Bold(true)
		}
		return style.Render(text)
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Render(heading)}
	if crumb := m.breadcrumb(frame); crumb != "" {
		lines = append(lines, crumb)
	}
	lines = append(lines,
		"",
		label(fieldTitle, "Title"),
		m.form.title.View(),
		label(fieldDescription, "Description"),
		m.form.description.View(),
		label(fieldStatus, "Status")+"    ‹ "+string(m.form.status)+" ›",
		label(fieldAssignee, "Assignee")+"  ‹ "+assigneeLabel(m.users, m.form.assignee)+" ›",
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Tab next field · ←/→ change · C-s save · Esc cancel"),
	)
	return strings.Join(lines, "\n")
}

func (m Model) viewStatusBar() string {
	if m.busy {
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Render("working…")
	}
	if m.notice == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(m.theme.noticeColor(m.notice.Kind)).
		Render(m.notice.Message)
}
