package mirror

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

type EventKind string

const (
	EventCreatedFolder EventKind = "created-folder"
	EventNoUpdate      EventKind = "no-update"
	EventSyncBegin     EventKind = "sync-begin"
	EventCopiedNew     EventKind = "copied-new"
	EventCopiedUpdated EventKind = "copied-updated"
	EventRemovedFolder EventKind = "removed-folder"
	EventRemovedFile   EventKind = "removed-file"
	EventSkipped       EventKind = "skipped"
	EventError         EventKind = "error"
)

// Event is one observed state change during a pass. Path is the
// replica-side path for copy/remove/create events; From is the
// source-side path where one is involved.
type Event struct {
	Kind EventKind
	Path string
	From string
	Size int64
	Time time.Time
	Err  error
}

// EventSink records synchronization events. The synchronizer and its
// helpers never log directly, they only emit events.
type EventSink interface {
	Record(Event)
}

// SlogSink records events through a slog logger.
type SlogSink struct {
	log *slog.Logger
}

func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

func (s *SlogSink) Record(e Event) {
	switch e.Kind {
	case EventError:
		s.log.Error("sync", "event", e.Kind, "path", e.Path, "error", e.Err)
	case EventSkipped:
		s.log.Warn("sync", "event", e.Kind, "path", e.Path)
	case EventCopiedNew, EventCopiedUpdated:
		s.log.Info("sync", "event", e.Kind, "path", e.Path, "from", e.From, "size", humanize.Bytes(uint64(e.Size)))
	default:
		s.log.Info("sync", "event", e.Kind, "path", e.Path)
	}
}
