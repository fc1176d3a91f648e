package core

import (
	"context"
	"errors"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/game"
	"github.com/amoylab/cryptogrammer/internal/notifier"
	"github.com/amoylab/cryptogrammer/internal/protocol"
	"github.com/amoylab/cryptogrammer/internal/transport"
	"github.com/amoylab/cryptogrammer/pkg/metrics"
	"github.com/amoylab/cryptogrammer/pkg/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// malformedEvent labels metrics for frames that could not be decoded
const malformedEvent = "invalid"

type (
	// Handler turns inbound client events into registry mutations and
	// room broadcasts. It implements transport.Dispatcher.
	Handler struct {
		logger    *zap.Logger
		registry  *game.Registry
		transport transport.Transport
		notifier  notifier.Notifier
		metrics   *metrics.Metrics
		tracer    *trace.Builder
		now       func() time.Time
	}

	// HandlerOption configures a Handler
	HandlerOption func(*Handler)
)

// WithNotifier publishes lifecycle events to n
func WithNotifier(n notifier.Notifier) HandlerOption {
	return func(h *Handler) {
		if n != nil {
			h.notifier = n
		}
	}
}

// WithMetrics records event metrics on m
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithHandlerClock overrides the time source for lifecycle timestamps
func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a Handler over registry that broadcasts through t
func NewHandler(logger *zap.Logger, registry *game.Registry, t transport.Transport, opts ...HandlerOption) *Handler {
	h := &Handler{
		logger:    logger.Named("core.handler"),
		registry:  registry,
		transport: t,
		notifier:  notifier.NoopNotifier{},
		tracer:    trace.Tracer(cnst.TraceCore),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConnect tells the new connection its own id
func (h *Handler) HandleConnect(_ context.Context, connID string) {
	if err := h.transport.SendTo(connID, cnst.EventConnected, connID); err != nil {
		h.logger.Warn("failed to greet connection",
			zap.String("connection", connID),
			zap.Error(err))
	}
}

// HandleMessage decodes one inbound frame and applies it. Malformed
// frames are logged and dropped; a panic is recovered so the connection
// stays up.
func (h *Handler) HandleMessage(ctx context.Context, connID string, data []byte) {
	start := time.Now()
	ev, err := protocol.Decode(data)
	if err != nil {
		h.logger.Warn("ignoring malformed frame",
			zap.String("connection", connID),
			zap.Int("size", len(data)),
			zap.Error(err))
		h.metrics.EventDone(malformedEvent, metrics.OutcomeMalformed, start)
		return
	}

	name := ev.EventName()
	span := h.tracer.Start(ctx, cnst.SpanEventPrefix+name).
		WithAttrs(attribute.String("connection.id", connID))
	outcome := metrics.OutcomeFailed
	var notices []notifier.Event

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while handling event",
				zap.String("connection", connID),
				zap.String("event", name),
				zap.Any("panic", r),
				zap.Stack("stack"))
			span.Fail(errors.New("panic while handling event"))
			outcome = metrics.OutcomeFailed
		}
		span.WithAttrs(attribute.String("event.outcome", outcome)).End()
		h.metrics.EventDone(name, outcome, start)
	}()

	switch e := ev.(type) {
	case protocol.CreateSession:
		outcome, notices = h.createSession(connID)
	case protocol.JoinSession:
		span.WithAttrs(attribute.String("session.id", e.ID))
		outcome, notices = h.joinSession(connID, e.ID)
	case protocol.UpdateInputSentence:
		span.WithAttrs(attribute.String("session.id", e.ID))
		outcome = h.update(connID, e.ID, name, func(s *game.Store) (game.Session, error) {
			return s.SetInputSentence(e.ID, e.Text)
		})
	case protocol.UpdateColors:
		span.WithAttrs(attribute.String("session.id", e.ID))
		outcome = h.update(connID, e.ID, name, func(s *game.Store) (game.Session, error) {
			return s.SetColors(e.ID, e.OrigColor, e.ModColor)
		})
	case protocol.UpdateModifications:
		span.WithAttrs(attribute.String("session.id", e.ID))
		outcome = h.update(connID, e.ID, name, func(s *game.Store) (game.Session, error) {
			return s.SetModifications(e.ID, e.List)
		})
	}

	h.publish(span.Ctx, notices)
}

// HandleDisconnect removes the connection from its room and tells the
// remaining members
func (h *Handler) HandleDisconnect(ctx context.Context, connID string) {
	span := h.tracer.Start(ctx, cnst.SpanDisconnect).
		WithAttrs(attribute.String("connection.id", connID))
	defer span.End()

	var notices []notifier.Event
	h.registry.Do(func(_ *game.Store, m *game.Membership) {
		prev, ok := m.Detach(connID)
		if !ok {
			return
		}
		notices = append(notices, h.leaveRoom(connID, prev))
	})
	h.publish(span.Ctx, notices)
}

func (h *Handler) createSession(connID string) (string, []notifier.Event) {
	outcome := metrics.OutcomeOK
	var notices []notifier.Event

	h.registry.Do(func(s *game.Store, m *game.Membership) {
		id, sess, err := s.Create(m.Referenced)
		if err != nil {
			h.logger.Error("failed to create session",
				zap.String("connection", connID),
				zap.Error(err))
			outcome = metrics.OutcomeFailed
			return
		}
		h.metrics.SetSessions(s.Len())
		notices = append(notices, h.notice(cnst.ActionCreated, id, connID))

		if prev, moved := m.Assign(connID, id); moved && prev != "" {
			notices = append(notices, h.leaveRoom(connID, prev))
		}
		h.join(connID, id)
		notices = append(notices, h.notice(cnst.ActionJoined, id, connID))

		h.broadcast(id, cnst.EventSessionCreated, id)
		h.broadcast(id, cnst.EventSessionState, sess)

		h.logger.Info("session created",
			zap.String("session", id),
			zap.String("connection", connID),
			zap.Int("active_sessions", s.Len()))
	})
	return outcome, notices
}

func (h *Handler) joinSession(connID, id string) (string, []notifier.Event) {
	outcome := metrics.OutcomeOK
	var notices []notifier.Event

	h.registry.Do(func(s *game.Store, m *game.Membership) {
		if _, err := s.Get(id); err != nil {
			outcome = metrics.OutcomeNotFound
			h.logger.Debug("join for unknown session",
				zap.String("session", id),
				zap.String("connection", connID))
			if err := h.transport.SendTo(connID, cnst.EventError, cnst.ErrorCodeSessionNotFound); err != nil {
				h.logger.Warn("failed to send error",
					zap.String("connection", connID),
					zap.Error(err))
			}
			return
		}

		prev, moved := m.Assign(connID, id)
		if moved && prev != "" {
			notices = append(notices, h.leaveRoom(connID, prev))
		}
		h.join(connID, id)
		_ = s.Touch(id)
		if moved {
			notices = append(notices, h.notice(cnst.ActionJoined, id, connID))
		}

		sess, _ := s.Get(id)
		h.broadcast(id, cnst.EventSessionJoined, protocol.SessionJoined{ID: id, Session: sess})
	})
	return outcome, notices
}

// update applies fn and rebroadcasts the full state. A missing session
// is a silent no-op.
func (h *Handler) update(connID, id, event string, fn func(*game.Store) (game.Session, error)) string {
	outcome := metrics.OutcomeOK
	h.registry.Do(func(s *game.Store, _ *game.Membership) {
		sess, err := fn(s)
		if err != nil {
			outcome = metrics.OutcomeNotFound
			h.logger.Debug("dropping update for unknown session",
				zap.String("event", event),
				zap.String("session", id),
				zap.String("connection", connID))
			return
		}
		h.broadcast(id, cnst.EventSessionState, sess)
	})
	return outcome
}

// leaveRoom takes connID out of the transport group for session and
// tells the members left behind. Called with the registry lock held.
func (h *Handler) leaveRoom(connID, session string) notifier.Event {
	h.transport.Leave(connID, session)
	h.broadcast(session, cnst.EventMemberLeft, connID)
	return h.notice(cnst.ActionLeft, session, connID)
}

func (h *Handler) join(connID, session string) {
	if err := h.transport.Join(connID, session); err != nil {
		h.logger.Warn("failed to join transport group",
			zap.String("connection", connID),
			zap.String("session", session),
			zap.Error(err))
	}
}

func (h *Handler) broadcast(session, event string, payload any) {
	if err := h.transport.SendToGroup(session, event, payload); err != nil {
		h.logger.Warn("broadcast incomplete",
			zap.String("session", session),
			zap.String("event", event),
			zap.Error(err))
	}
}

func (h *Handler) notice(action cnst.LifecycleAction, session, connID string) notifier.Event {
	return notifier.Event{
		Action:       action,
		SessionID:    session,
		ConnectionID: connID,
		Timestamp:    h.now(),
	}
}

// publish sends lifecycle events outside the registry lock
func (h *Handler) publish(ctx context.Context, notices []notifier.Event) {
	for _, n := range notices {
		if err := h.notifier.Notify(ctx, n); err != nil {
			h.logger.Warn("failed to publish lifecycle event",
				zap.String("event", n.Action.String()),
				zap.String("session", n.SessionID),
				zap.Error(err))
		}
	}
}
