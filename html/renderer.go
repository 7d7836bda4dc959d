// Package html renders csvstory payloads as HTML fragments and report pages.
package html

import (
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.Renderer = (*Renderer)(nil)

// Renderer produces HTML fragments. Every piece of payload text is escaped
// before it is placed in markup.
type Renderer struct {
	now     func() time.Time
	resolve func(src string) string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the time source for gallery cache-busting parameters.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithSourceResolver rewrites image sources before they are placed in
// markup, e.g. to make backend-relative paths absolute in a saved report.
func WithSourceResolver(fn func(src string) string) Option {
	return func(r *Renderer) {
		r.resolve = fn
	}
}

// NewRenderer returns an HTML fragment renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		now:     time.Now,
		resolve: func(src string) string { return src },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Escape replaces the characters & < > " ' with entities.
func Escape(s string) string {
	return stdhtml.EscapeString(s)
}

// Table renders rows as a table. Headers come from the key order of the
// first displayed row; a cell missing from a row or holding JSON null shows
// as an italic null marker.
func (r *Renderer) Table(rows []csvstory.Row, maxRows int) string {
	if len(rows) == 0 {
		return "<p>" + csvstory.NoDataText + "</p>"
	}

	var b strings.Builder
	display := rows
	if maxRows > 0 && len(rows) > maxRows {
		display = rows[:maxRows]
		b.WriteString(`<p class="table-note">` + csvstory.TruncationNotice(maxRows, len(rows)) + "</p>")
	}

	headers := display[0].Keys
	b.WriteString(`<table class="table"><thead><tr>`)
	for _, h := range headers {
		b.WriteString("<th>" + Escape(h) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range display {
		b.WriteString("<tr>")
		for _, h := range headers {
			v, ok := row.Get(h)
			if !ok || v == nil {
				b.WriteString("<td><i>null</i></td>")
				continue
			}
			b.WriteString("<td>" + Escape(csvstory.FormatValue(v)) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// Gallery renders one clickable item per image. Each source gets a
// timestamp parameter so a regenerated image with the same path is
// refetched.
func (r *Renderer) Gallery(a *csvstory.Artifact) string {
	if a.Len() == 0 {
		return "<p>" + csvstory.NoImagesText + "</p>"
	}

	stamp := r.now().UnixMilli()
	var b strings.Builder
	b.WriteString(`<div class="gallery">`)
	for i, src := range a.Images {
		caption := Escape(a.Caption(i))
		fmt.Fprintf(&b,
			`<div class="gallery-item"><img src="%s" alt="%s" data-caption="%s" data-index="%d" class="gallery-image-clickable"><p>%s</p></div>`,
			Escape(CacheBust(r.resolve(src), stamp)), caption, caption, i, caption,
		)
	}
	b.WriteString("</div>")
	return b.String()
}

// CacheBust appends t=<stamp> to src, respecting an existing query.
func CacheBust(src string, stamp int64) string {
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%d", src, sep, stamp)
}

// Log renders a status block.
func (r *Renderer) Log(msg string, isError bool) string {
	class := "log-success"
	if isError {
		class = "log-error"
	}
	return fmt.Sprintf(`<div class="markdown %s">%s</div>`, class, Escape(msg))
}

// Message renders transient or placeholder text.
func (r *Renderer) Message(msg string) string {
	return "<p>" + Escape(msg) + "</p>"
}

var (
	headingPattern = regexp.MustCompile(`###\s(.*)`)
	strongPattern  = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletPattern  = regexp.MustCompile(`\* (.*)`)
)

// Story renders the narrative markdown subset: "### " headings, **strong**
// spans, "* " bullets and line breaks. The text is escaped first, so the
// only markup in the output is the tags this method adds.
func (r *Renderer) Story(markdown string) string {
	s := Escape(markdown)
	s = headingPattern.ReplaceAllString(s, "<h3>$1</h3>")
	s = strongPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = bulletPattern.ReplaceAllString(s, "<li>$1</li>")
	return strings.ReplaceAll(s, "\n", "<br>")
}
