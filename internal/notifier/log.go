package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogNotifier writes every event to the logger
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier.log")}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("session lifecycle",
		zap.String("event", event.Action.String()),
		zap.String("session", event.SessionID),
		zap.String("connection", event.ConnectionID),
		zap.String("timestamp", event.Timestamp.Format(time.RFC3339Nano)))
	return nil
}

func (n *LogNotifier) Close() error { return nil }
