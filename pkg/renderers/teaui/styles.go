package teaui

import (
	"github.com/charmbracelet/lipgloss"
	theme "github.com/goliatone/go-theme"
)

type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	errLine  lipgloss.Style
	prompt   lipgloss.Style
	value    lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
}

// newStyles builds the default palette and lets a resolved go-theme override
// individual colors through its tokens.
func newStyles(cfg *theme.RendererConfig) styles {
	s := styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		errLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
	if cfg == nil {
		return s
	}
	if color, ok := cfg.Tokens["accent"]; ok {
		s.title = s.title.Foreground(lipgloss.Color(color))
		s.selected = s.selected.Foreground(lipgloss.Color(color))
	}
	if color, ok := cfg.Tokens["error"]; ok {
		s.errLine = s.errLine.Foreground(lipgloss.Color(color))
	}
	if color, ok := cfg.Tokens["muted"]; ok {
		s.subtitle = s.subtitle.Foreground(lipgloss.Color(color))
		s.muted = s.muted.Foreground(lipgloss.Color(color))
	}
	return s
}
