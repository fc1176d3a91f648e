package transport

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/common/config"
	"github.com/amoylab/cryptogrammer/internal/protocol"
	"github.com/amoylab/cryptogrammer/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ifuryst/lol"
	"go.uber.org/zap"
)

// Hub is the websocket Transport. It owns every connection and the
// room membership of each.
type Hub struct {
	logger     *zap.Logger
	cfg        config.TransportConfig
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
	dispatcher Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	clients map[string]*client
	groups  map[string]map[string]*client
}

// NewHub creates a websocket hub. The dispatcher must be bound with
// SetDispatcher before the hub serves connections.
func NewHub(logger *zap.Logger, cfg config.TransportConfig, m *metrics.Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	cfg = withDefaults(cfg)
	h := &Hub{
		logger:  logger.Named("transport.hub"),
		cfg:     cfg,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:      originChecker(cfg.AllowOrigins),
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// SetDispatcher binds the handler that receives connection events
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

func withDefaults(cfg config.TransportConfig) config.TransportConfig {
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = config.DefaultSendQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultWriteTimeout
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = config.DefaultPongTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = config.DefaultMaxMessageSize
	}
	return cfg
}

// originChecker allows every origin when the list is empty
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := lol.UniqSlice(origins)
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := strings.TrimSuffix(r.Header.Get("Origin"), "/")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
				return true
			}
		}
		return false
	}
}

// ServeWS upgrades the request and runs the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, cnst.ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket connection",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn, h.cfg.SendQueueSize)
	if err := h.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.cfg.WriteTimeout))
		_ = conn.Close()
		return
	}
	defer h.wg.Done()

	h.logger.Info("websocket client connected",
		zap.String("connection", c.id),
		zap.String("remote_addr", r.RemoteAddr))

	go h.writePump(c)
	if h.dispatcher != nil {
		h.dispatcher.HandleConnect(h.ctx, c.id)
	}
	h.readPump(c)

	h.unregister(c)
	if h.dispatcher != nil {
		h.dispatcher.HandleDisconnect(h.ctx, c.id)
	}
	h.logger.Info("websocket client disconnected", zap.String("connection", c.id))
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return cnst.ErrHubClosed
	}
	h.clients[c.id] = c
	h.wg.Add(1)
	h.metrics.ConnOpened()
	return nil
}

func (h *Hub) unregister(c *client) {
	c.shutdown(websocket.CloseNormalClosure, "")

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	for name, members := range h.groups {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	h.metrics.ConnClosed()
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(h.cfg.MaxMessageSize)
	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	}
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.logger.Warn("websocket read failed",
					zap.String("connection", c.id),
					zap.Error(err))
			}
			return
		}
		_ = extend()
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		if h.dispatcher != nil {
			h.dispatcher.HandleMessage(h.ctx, c.id, data)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Debug("websocket write failed",
					zap.String("connection", c.id),
					zap.Error(err))
				c.shutdown(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-c.done:
			if c.closeCode != websocket.CloseAbnormalClosure {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(c.closeCode, c.closeText),
					time.Now().Add(h.cfg.WriteTimeout))
			}
			return
		}
	}
}

// SendTo implements Transport.SendTo
func (h *Hub) SendTo(connID, event string, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return cnst.ErrConnectionNotFound
	}
	if !h.deliver(c, event, frame) {
		return cnst.ErrQueueFull
	}
	return nil
}

// SendToGroup implements Transport.SendToGroup
func (h *Hub) SendToGroup(group, event string, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dropped int
	for _, c := range targets {
		if !h.deliver(c, event, frame) {
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%d of %d connections in %s: %w", dropped, len(targets), group, cnst.ErrQueueFull)
	}
	return nil
}

func (h *Hub) deliver(c *client, event string, frame []byte) bool {
	if c.enqueue(frame) {
		h.metrics.FrameSent(event)
		return true
	}
	h.metrics.FrameDropped(event)
	h.logger.Warn("dropping frame for slow connection",
		zap.String("connection", c.id),
		zap.String("event", event))
	return false
}

// Join implements Transport.Join
func (h *Hub) Join(connID, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return cnst.ErrConnectionNotFound
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*client)
		h.groups[group] = members
	}
	members[connID] = c
	return nil
}

// Leave implements Transport.Leave
func (h *Hub) Leave(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// DissolveGroup implements Transport.DissolveGroup
func (h *Hub) DissolveGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, group)
}

// Members implements Transport.Members
func (h *Hub) Members(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of open connections
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops accepting connections, sends a going-away close frame to
// every client and waits for their handlers to finish or ctx to expire.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	defer h.cancel()

	select {
	case <-done:
		h.logger.Info("all websocket clients closed", zap.Int("count", len(clients)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
