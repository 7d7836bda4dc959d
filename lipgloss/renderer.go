package lipgloss

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/csvstory"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Compile-time interface verification.
var _ csvstory.Renderer = (*Renderer)(nil)

// TableMode selects how tables are drawn.
type TableMode int

// Table modes.
const (
	TableBox      TableMode = iota // Box-drawing terminal tables
	TableMarkdown                  // GitHub-flavoured Markdown tables
)

// Renderer produces styled terminal text.
type Renderer struct {
	theme    *Theme
	renderer *lipgloss.Renderer
	width    int
	mode     TableMode
	markdown string // glamour style; empty uses the theme's
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTheme sets the color theme.
func WithTheme(t *Theme) RendererOption {
	return func(r *Renderer) {
		r.theme = t
	}
}

// WithLipglossRenderer sets the lipgloss renderer used to create styles.
func WithLipglossRenderer(lr *lipgloss.Renderer) RendererOption {
	return func(r *Renderer) {
		r.renderer = lr
	}
}

// WithWidth sets the wrap width for narrative text.
func WithWidth(width int) RendererOption {
	return func(r *Renderer) {
		r.width = width
	}
}

// WithTableMode sets how tables are drawn.
func WithTableMode(m TableMode) RendererOption {
	return func(r *Renderer) {
		r.mode = m
	}
}

// WithMarkdownStyle overrides the glamour style used for narrative text,
// e.g. "ascii" or "notty" for plain output.
func WithMarkdownStyle(style string) RendererOption {
	return func(r *Renderer) {
		r.markdown = style
	}
}

// NewRenderer returns a terminal renderer.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		theme:    DefaultTheme(),
		renderer: lipgloss.DefaultRenderer(),
		width:    80,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) style(c csvstory.Color) lipgloss.Style {
	s := r.renderer.NewStyle()
	if c != "" {
		s = s.Foreground(lipgloss.Color(c))
	}
	return s
}

// Table renders rows with go-pretty. Headers come from the key order of the
// first displayed row; missing and null cells show a null marker.
func (r *Renderer) Table(rows []csvstory.Row, maxRows int) string {
	p := r.theme.Palette()
	muted := r.style(p.Muted).Italic(true)
	if len(rows) == 0 {
		return muted.Render(csvstory.NoDataText)
	}

	var b strings.Builder
	display := rows
	if maxRows > 0 && len(rows) > maxRows {
		display = rows[:maxRows]
		b.WriteString(muted.Render(csvstory.TruncationNotice(maxRows, len(rows))))
		b.WriteString("\n")
	}

	null := r.style(p.Null).Italic(true).Render("null")
	headerStyle := r.style(p.Heading).Bold(true)

	tw := table.NewWriter()
	headers := display[0].Keys
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = headerStyle.Render(h)
	}
	tw.AppendHeader(header)
	for _, row := range display {
		out := make(table.Row, len(headers))
		for i, h := range headers {
			v, ok := row.Get(h)
			if !ok || v == nil {
				out[i] = null
				continue
			}
			out[i] = csvstory.FormatValue(v)
		}
		tw.AppendRow(out)
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	switch r.mode {
	case TableMarkdown:
		b.WriteString(tw.RenderMarkdown())
	default:
		b.WriteString(tw.Render())
	}
	return b.String()
}

// Gallery renders a numbered list of captions with their sources.
func (r *Renderer) Gallery(a *csvstory.Artifact) string {
	p := r.theme.Palette()
	if a.Len() == 0 {
		return r.style(p.Muted).Italic(true).Render(csvstory.NoImagesText)
	}

	index := r.style(p.Accent).Bold(true)
	src := r.style(p.Muted)
	lines := make([]string, 0, a.Len())
	for i, s := range a.Images {
		lines = append(lines, fmt.Sprintf("%s %s\n    %s", index.Render(fmt.Sprintf("[%d]", i+1)), a.Caption(i), src.Render(s)))
	}
	return strings.Join(lines, "\n")
}

// Log renders a status block in the success or error color.
func (r *Renderer) Log(msg string, isError bool) string {
	p := r.theme.Palette()
	if isError {
		return r.style(p.Error).Render(msg)
	}
	return r.style(p.Success).Render(msg)
}

// Story renders narrative markdown with glamour. Output falls back to the
// raw text if the markdown renderer cannot be built.
func (r *Renderer) Story(markdown string) string {
	style := r.markdown
	if style == "" {
		style = r.theme.GlamourStyle()
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return markdown
	}
	out, err := tr.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}

// Message renders transient or placeholder text.
func (r *Renderer) Message(msg string) string {
	return r.style(r.theme.Palette().Muted).Italic(true).Render(msg)
}

// PaintTokens renders highlighted tokens with the given lipgloss renderer.
func PaintTokens(lr *lipgloss.Renderer, tokens []csvstory.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		s := lr.NewStyle()
		if tok.Style.Foreground != "" {
			s = s.Foreground(lipgloss.Color(tok.Style.Foreground))
		}
		if tok.Style.Bold {
			s = s.Bold(true)
		}
		// Render line by line; lipgloss pads multi-line blocks to equal width.
		for i, line := range strings.Split(tok.Text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(s.Render(line))
			}
		}
	}
	return b.String()
}
