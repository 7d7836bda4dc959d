package bubbletea

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/csvstory"
)

// TabBar renders the navigation as a row of bordered tabs numbered from 1,
// highlighting active. If renderer is nil, a default renderer is used.
//
// Example output (with rounded borders):
//
//	╭────────────╮╭────────────╮
//	│ 1 Analysis ││ 2 Sequence │ ...
//	╰────────────╯╰────────────╯
func TabBar(active csvstory.Section, p csvstory.Palette, renderer *lipgloss.Renderer) string {
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}

	base := renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	current := base.
		BorderForeground(lipgloss.Color(p.UIAccent)).
		Foreground(lipgloss.Color(p.UIAccent)).
		Bold(true)
	other := base.
		BorderForeground(lipgloss.Color(p.Muted)).
		Foreground(lipgloss.Color(p.Muted))

	parts := make([]string, 0, len(csvstory.Navigation))
	for i, s := range csvstory.Navigation {
		label := fmt.Sprintf("%d %s", i+1, s.Title())
		if s == active {
			parts = append(parts, current.Render(label))
			continue
		}
		parts = append(parts, other.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
}
