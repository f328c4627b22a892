package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/adanyl0v/taskboard/internal/notify"
)

// Theme is the color palette of the TUI.
type Theme struct {
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Border   lipgloss.Color
	Selected lipgloss.Color
	Success  lipgloss.Color
	Info     lipgloss.Color
	Error    lipgloss.Color
}

var DefaultTheme = Theme{
	Accent:   lipgloss.Color("63"),
	Text:     lipgloss.Color("252"),
	Muted:    lipgloss.Color("243"),
	Border:   lipgloss.Color("238"),
	Selected: lipgloss.Color("236"),
	Success:  lipgloss.Color("42"),
	Info:     lipgloss.Color("39"),
	Error:    lipgloss.Color("196"),
}

func (t Theme) noticeColor(kind notify.Kind) lipgloss.Color {
	switch kind {
	case notify.KindSuccess:
		return t.Success
	case notify.KindError:
		return t.Error
	default:
		return t.Info
	}
}
