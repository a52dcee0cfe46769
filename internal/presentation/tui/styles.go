package tui

import (
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/charmbracelet/lipgloss"
)

var (
	coachStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Label renders the speaker prefix printed before each message.
func Label(role domain.Role) string {
	if role == domain.RoleUser {
		return userStyle.Render("You:")
	}
	return coachStyle.Render("Coach:")
}
