package mock

import (
	"context"

	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var (
	_ csvstory.Viewer    = (*Viewer)(nil)
	_ csvstory.Renderer  = (*Renderer)(nil)
	_ csvstory.Clipboard = (*Clipboard)(nil)
	_ csvstory.EventSink = (*EventSink)(nil)
)

// Viewer is a mock implementation of csvstory.Viewer.
type Viewer struct {
	ViewFn func(ctx context.Context, wb *csvstory.Workbench) error
}

func (v *Viewer) View(ctx context.Context, wb *csvstory.Workbench) error {
	return v.ViewFn(ctx, wb)
}

// Renderer is a mock implementation of csvstory.Renderer.
type Renderer struct {
	TableFn   func(rows []csvstory.Row, maxRows int) string
	GalleryFn func(a *csvstory.Artifact) string
	LogFn     func(msg string, isError bool) string
	StoryFn   func(markdown string) string
	MessageFn func(msg string) string
}

func (r *Renderer) Table(rows []csvstory.Row, maxRows int) string {
	return r.TableFn(rows, maxRows)
}

func (r *Renderer) Gallery(a *csvstory.Artifact) string {
	return r.GalleryFn(a)
}

func (r *Renderer) Log(msg string, isError bool) string {
	return r.LogFn(msg, isError)
}

func (r *Renderer) Story(markdown string) string {
	return r.StoryFn(markdown)
}

func (r *Renderer) Message(msg string) string {
	return r.MessageFn(msg)
}

// Clipboard is a mock implementation of csvstory.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}

// EventSink is a mock implementation of csvstory.EventSink.
type EventSink struct {
	RecordFn func(ev csvstory.Event) error
}

func (s *EventSink) Record(ev csvstory.Event) error {
	return s.RecordFn(ev)
}
