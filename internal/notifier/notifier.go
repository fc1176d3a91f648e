package notifier

import (
	"context"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
)

// Event is one session lifecycle change
type Event struct {
	Action       cnst.LifecycleAction `json:"event"`
	SessionID    string               `json:"session"`
	ConnectionID string               `json:"connection,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Notifier publishes session lifecycle events to observers. It is a
// one-way feed; nothing is read back into the registry.
type Notifier interface {
	// Notify publishes one event
	Notify(ctx context.Context, event Event) error
	// Close releases any connection the notifier holds
	Close() error
}

// Watcher can replay the feed it publishes to
type Watcher interface {
	// Watch returns a channel receiving events published after the call
	Watch(ctx context.Context) (<-chan Event, error)
}

// NoopNotifier discards every event
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Event) error { return nil }
func (NoopNotifier) Close() error                        { return nil }
