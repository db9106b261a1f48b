package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/saxil/mareen/internal/core"
)

var (
	// TitleStyle ANSI 6 (cyan) reads well on light and dark terminals
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	// UsageStyle ANSI 2 (green) for arguments and usage lines
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle ANSI 8 (gray) keeps secondary text quiet
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// FlagStyle ANSI 3 (yellow) for flags
	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	LabelStyle = lipgloss.NewStyle().Bold(true)
	UserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	AgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	WarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	OKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

func SpeakerStyle(speaker core.Speaker) lipgloss.Style {
	if speaker == core.SpeakerUser {
		return UserStyle
	}
	return AgentStyle
}
