package transport

import (
	"go.uber.org/zap"
)

// loggingTransport logs every call before forwarding it
type loggingTransport struct {
	next   Transport
	logger *zap.Logger
}

// NewLoggingTransport wraps next so that every outbound frame and group
// change is logged at debug level
func NewLoggingTransport(next Transport, logger *zap.Logger) Transport {
	return &loggingTransport{next: next, logger: logger.Named("transport.trace")}
}

func (t *loggingTransport) SendTo(connID, event string, payload any) error {
	err := t.next.SendTo(connID, event, payload)
	t.logger.Debug("send",
		zap.String("connection", connID),
		zap.String("event", event),
		zap.Any("data", payload),
		zap.Error(err))
	return err
}

func (t *loggingTransport) SendToGroup(group, event string, payload any) error {
	err := t.next.SendToGroup(group, event, payload)
	t.logger.Debug("broadcast",
		zap.String("session", group),
		zap.String("event", event),
		zap.Strings("members", t.next.Members(group)),
		zap.Any("data", payload),
		zap.Error(err))
	return err
}

func (t *loggingTransport) Join(connID, group string) error {
	err := t.next.Join(connID, group)
	t.logger.Debug("join",
		zap.String("connection", connID),
		zap.String("session", group),
		zap.Error(err))
	return err
}

func (t *loggingTransport) Leave(connID, group string) {
	t.next.Leave(connID, group)
	t.logger.Debug("leave",
		zap.String("connection", connID),
		zap.String("session", group))
}

func (t *loggingTransport) DissolveGroup(group string) {
	t.next.DissolveGroup(group)
	t.logger.Debug("dissolve", zap.String("session", group))
}

func (t *loggingTransport) Members(group string) []string {
	return t.next.Members(group)
}
