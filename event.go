package csvstory

import (
	"log/slog"
	"time"
)

// EventKind names a Workbench state transition.
type EventKind string

// Event kinds.
const (
	EventFileSelected EventKind = "file_selected"
	EventReset        EventKind = "reset"
	EventStarted      EventKind = "started"
	EventSucceeded    EventKind = "succeeded"
	EventFailed       EventKind = "failed"
	EventStale        EventKind = "stale"
	EventAlert        EventKind = "alert"
	EventSection      EventKind = "section"
	EventDownload     EventKind = "download"
)

// Event records one Workbench state transition.
type Event struct {
	Time    time.Time `json:"time"`
	Kind    EventKind `json:"kind"`
	Action  Action    `json:"action,omitempty"`
	Token   uint64    `json:"token,omitempty"`
	Section Section   `json:"section,omitempty"`
	Message string    `json:"message,omitempty"`
}

// EventSink receives Workbench events after the state change is visible.
type EventSink interface {
	Record(ev Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev Event) error

// Record calls f(ev).
func (f EventSinkFunc) Record(ev Event) error {
	return f(ev)
}

func (ev Event) level() slog.Level {
	switch ev.Kind {
	case EventFailed, EventAlert:
		return slog.LevelWarn
	case EventStale:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (ev Event) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("kind", string(ev.Kind))}
	if ev.Action != "" {
		attrs = append(attrs, slog.String("action", string(ev.Action)), slog.Uint64("token", ev.Token))
	}
	if ev.Section != "" {
		attrs = append(attrs, slog.String("section", string(ev.Section)))
	}
	if ev.Message != "" {
		attrs = append(attrs, slog.String("message", ev.Message))
	}
	return attrs
}
