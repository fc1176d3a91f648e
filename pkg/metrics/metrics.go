package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Event handling outcomes
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)

// Metrics owns a private registry with the session server collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec
	sessions   prometheus.Gauge
	conns      prometheus.Gauge
	eventCnt   *prometheus.CounterVec
	eventDur   *prometheus.HistogramVec
	frameCnt   *prometheus.CounterVec
	droppedCnt *prometheus.CounterVec
	evictCnt   prometheus.Counter
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry:   r,
		httpReqCnt: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"}),
		httpDur:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: buckets}, []string{"method", "route", "status"}),
		httpInfl:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"}),
		sessions:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "sessions_active"}),
		conns:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "connections_open"}),
		eventCnt:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "events_total"}, []string{"event", "outcome"}),
		eventDur:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "event_duration_seconds", Buckets: buckets}, []string{"event"}),
		frameCnt:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "frames_sent_total"}, []string{"event"}),
		droppedCnt: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "frames_dropped_total"}, []string{"event"}),
		evictCnt:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "sessions_evicted_total"}),
	}
	r.MustRegister(m.httpReqCnt, m.httpDur, m.httpInfl)
	r.MustRegister(m.sessions, m.conns, m.eventCnt, m.eventDur, m.frameCnt, m.droppedCnt, m.evictCnt)
	return m
}

// SetSessions records the number of live sessions
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ConnOpened is called when the transport accepts a connection
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.conns.Inc()
}

// ConnClosed is called when the transport drops a connection
func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.conns.Dec()
}

// EventDone records one handled inbound event
func (m *Metrics) EventDone(event, outcome string, since time.Time) {
	if m == nil {
		return
	}
	m.eventCnt.WithLabelValues(event, outcome).Inc()
	m.eventDur.WithLabelValues(event).Observe(time.Since(since).Seconds())
}

// FrameSent counts a frame queued for delivery
func (m *Metrics) FrameSent(event string) {
	if m == nil {
		return
	}
	m.frameCnt.WithLabelValues(event).Inc()
}

// FrameDropped counts a frame discarded because an outbound queue was full
func (m *Metrics) FrameDropped(event string) {
	if m == nil {
		return
	}
	m.droppedCnt.WithLabelValues(event).Inc()
}

// SessionsEvicted counts sessions removed by the reaper
func (m *Metrics) SessionsEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictCnt.Add(float64(n))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
