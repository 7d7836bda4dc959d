package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tabWidth = 8

// ExpandTabs converts tab characters to spaces using 8-column tab stops, so
// cell values and backend logs containing tabs line up in the viewport. The
// startCol parameter is the column where s begins; each newline restarts at
// column zero.
func ExpandTabs(s string, startCol int) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var sb strings.Builder
	col := startCol
	for _, r := range s {
		switch r {
		case '\t':
			nextStop := ((col / tabWidth) + 1) * tabWidth
			sb.WriteString(strings.Repeat(" ", nextStop-col))
			col = nextStop
		case '\n':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col += lipgloss.Width(string(r))
		}
	}
	return sb.String()
}
