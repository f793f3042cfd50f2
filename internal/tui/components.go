package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 2).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderChip draws one filter/sort pill, highlighted when it narrows results.
func renderChip(label string, active bool) string {
	if active {
		return FilterActiveStyle.Render(label)
	}
	return FilterIdleStyle.Render(label)
}

func newHelp() help.Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(AccentColor)
	h.Styles.ShortDesc = HelpStyle
	h.Styles.ShortSeparator = HelpStyle
	h.Styles.Ellipsis = HelpStyle
	return h
}

// helpBindings turns "key: description" hints into bindings for the help
// footer. Entries without a separator are shown as a bare key.
func helpBindings(hints []string) []key.Binding {
	out := make([]key.Binding, 0, len(hints))
	for _, h := range hints {
		k, desc, _ := strings.Cut(h, ": ")
		out = append(out, key.NewBinding(key.WithKeys(k), key.WithHelp(k, desc)))
	}
	return out
}
