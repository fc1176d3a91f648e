package core

import (
	"context"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/common/config"
	"github.com/amoylab/cryptogrammer/internal/game"
	"github.com/amoylab/cryptogrammer/internal/notifier"
	"github.com/amoylab/cryptogrammer/internal/transport"
	"github.com/amoylab/cryptogrammer/pkg/metrics"
	"github.com/amoylab/cryptogrammer/pkg/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Reaper periodically evicts sessions that have been idle for too long
// and tells their members the session is gone. Membership entries that
// still point at an evicted session are left alone.
type Reaper struct {
	logger      *zap.Logger
	registry    *game.Registry
	transport   transport.Transport
	notifier    notifier.Notifier
	metrics     *metrics.Metrics
	tracer      *trace.Builder
	interval    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewReaper creates a reaper using the session timing from cfg
func NewReaper(logger *zap.Logger, registry *game.Registry, t transport.Transport, cfg config.SessionConfig, n notifier.Notifier, m *metrics.Metrics) *Reaper {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	interval := cfg.ReapInterval
	if interval <= 0 {
		interval = config.DefaultReapInterval
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = 30 * interval
	}
	return &Reaper{
		logger:      logger.Named("core.reaper"),
		registry:    registry,
		transport:   t,
		notifier:    n,
		metrics:     m,
		tracer:      trace.Tracer(cnst.TraceReaper),
		interval:    interval,
		idleTimeout: idle,
		now:         time.Now,
	}
}

// Run sweeps once per interval until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("idle_timeout", r.idleTimeout))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep evicts every idle session and returns the evicted ids
func (r *Reaper) Sweep(ctx context.Context) []string {
	span := r.tracer.Start(ctx, cnst.SpanReaperSweep)
	defer span.End()

	var evicted []string
	r.registry.Do(func(s *game.Store, _ *game.Membership) {
		for _, id := range s.IdleSince(r.idleTimeout) {
			if _, err := s.Evict(id); err != nil {
				continue
			}
			if err := r.transport.SendToGroup(id, cnst.EventSessionDeleted, nil); err != nil {
				r.logger.Warn("broadcast incomplete",
					zap.String("session", id),
					zap.String("event", cnst.EventSessionDeleted),
					zap.Error(err))
			}
			r.transport.DissolveGroup(id)
			evicted = append(evicted, id)
		}
		r.metrics.SetSessions(s.Len())
	})

	span.WithAttrs(attribute.Int("sessions.evicted", len(evicted)))
	if len(evicted) == 0 {
		return nil
	}

	r.metrics.SessionsEvicted(len(evicted))
	r.logger.Info("purged inactive sessions", zap.Strings("sessions", evicted))

	now := r.now()
	for _, id := range evicted {
		err := r.notifier.Notify(span.Ctx, notifier.Event{
			Action:    cnst.ActionDeleted,
			SessionID: id,
			Timestamp: now,
		})
		if err != nil {
			r.logger.Warn("failed to publish lifecycle event",
				zap.String("session", id),
				zap.Error(err))
		}
	}
	return evicted
}
