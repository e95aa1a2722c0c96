package repl

import "github.com/charmbracelet/lipgloss"

const (
	mainPrompt = "notjs> "
	morePrompt = "...    "
)

type styles struct {
	prompt lipgloss.Style
	more   lipgloss.Style
	result lipgloss.Style
	err    lipgloss.Style
	hint   lipgloss.Style
	match  lipgloss.Style
	banner lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		more:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		result: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		hint:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		match:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		banner: lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
	}
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{plain, plain, plain, plain, plain, plain, plain}
}

// prompt returns the prompt for the current input state.
func (s *session) prompt() string {
	if s.inChunk() {
		return s.styles.more.Render(morePrompt)
	}
	return s.styles.prompt.Render(mainPrompt)
}
