package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"maze-arena/internal/game"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// wsSendBuffer is the per-client frame backlog before frames are dropped
	wsSendBuffer = 8

	wsWriteWait  = 5 * time.Second
	wsPongWait   = 30 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 16 << 10
)

// StateEvent is the envelope event name for snapshot frames
const StateEvent = "world:state"

// wsEnvelope wraps every frame sent to clients
type wsEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsClient tracks a WebSocket connection with its source IP and chosen
// frame format. Only its write pump writes to conn.
type wsClient struct {
	conn   *websocket.Conn
	ip     string
	format string
	send   chan []byte
	input  *rate.Limiter
}

// HubConfig configures a WebSocketHub
type HubConfig struct {
	Engine        EngineInterface
	Origins       *OriginPolicy
	InputRate     InputRateConfig
	BroadcastRate int // Frames per second
	Logger        *zap.Logger
	Metrics       *TickMetrics // Optional, synced from the broadcast loop
}

// WebSocketHub manages all WebSocket connections with DoS protection. It
// pushes snapshots out and feeds client input into the engine queue.
type WebSocketHub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex

	engine   EngineInterface
	upgrader websocket.Upgrader
	cfg      HubConfig
	logger   *zap.Logger

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWebSocketHub creates a new hub with connection limiting. Nothing runs
// until Start.
func NewWebSocketHub(cfg HubConfig) *WebSocketHub {
	if cfg.Origins == nil {
		cfg.Origins = NewOriginPolicy(nil)
	}
	if cfg.InputRate.EventsPerSecond <= 0 {
		cfg.InputRate = DefaultInputRateConfig
	}
	if cfg.BroadcastRate <= 0 {
		cfg.BroadcastRate = 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &WebSocketHub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		engine:     cfg.Engine,
		cfg:        cfg,
		logger:     logger,
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		stopChan:   make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if cfg.Origins.Allowed(origin) {
				return true
			}

			// Log rejected origin for security monitoring
			logger.Warn("⚠️ WebSocket connection rejected", zap.String("origin", origin))
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Start launches the registry and broadcast goroutines
func (h *WebSocketHub) Start() {
	h.wg.Add(2)
	go h.run()
	go h.broadcastLoop()
}

// Stop ends both loops and closes every connection
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
	h.wg.Wait()
}

// run owns registration. Closing a client's send channel ends its write pump.
func (h *WebSocketHub) run() {
	defer h.wg.Done()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("📱 Client connected",
				zap.String("ip", client.ip),
				zap.String("format", client.format),
				zap.Int("total", count))
			UpdateWSConnections(count)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				// Release the connection slot for this IP
				h.wsLimiter.Release(client.ip)
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("📱 Client disconnected", zap.Int("remaining", count))
			UpdateWSConnections(count)

		case <-h.stopChan:
			h.mu.Lock()
			for client := range h.clients {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return
		}
	}
}

// broadcastLoop pushes each new snapshot to every client, encoding once per
// format.
func (h *WebSocketHub) broadcastLoop() {
	defer h.wg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.BroadcastRate))
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-h.stopChan:
			return
		case <-ticker.C:
		}

		if h.cfg.Metrics != nil {
			h.cfg.Metrics.SyncEventLog()
		}
		if h.ClientCount() == 0 {
			continue
		}

		snap := h.engine.GetSnapshot()
		if snap.Sequence == lastSeq {
			continue
		}
		lastSeq = snap.Sequence
		h.BroadcastSnapshot(snap)
	}
}

// BroadcastSnapshot sends snap to every client in its chosen format
func (h *WebSocketHub) BroadcastSnapshot(snap *game.WorldSnapshot) {
	frames := make(map[string][]byte, 2)
	env := wsEnvelope{Event: StateEvent, Data: snap}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		frame, ok := frames[client.format]
		if !ok {
			var err error
			frame, err = encodeFrame(env, client.format)
			if err != nil {
				h.logger.Error("❌ Snapshot encode failed", zap.String("format", client.format), zap.Error(err))
				continue
			}
			frames[client.format] = frame
		}

		select {
		case client.send <- frame:
			IncrementWSMessages(client.format)
		default:
			// Slow client, skip (backpressure)
		}
	}
}

func encodeFrame(env wsEnvelope, format string) ([]byte, error) {
	if format == FormatMsgpack {
		return marshalMsgpack(env)
	}
	return json.Marshal(env)
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection.
// ?format=msgpack selects binary frames.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := GetClientIP(r)

	// Check total connection limit
	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		h.logger.Warn("⚠️ WebSocket connection rejected: total limit reached", zap.Int("total", total))
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		h.logger.Warn("⚠️ WebSocket connection rejected: per-IP limit reached", zap.String("ip", ip))
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Upgrade to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade error", zap.Error(err))
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}

	client := &wsClient{
		conn:   conn,
		ip:     ip,
		format: requestFormat(r),
		send:   make(chan []byte, wsSendBuffer),
		input:  newInputLimiter(h.cfg.InputRate),
	}

	select {
	case h.register <- client:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// writePump is the only writer on the connection
func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.format == FormatMsgpack {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msgType, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump turns client messages into engine input. Text frames carry JSON
// and binary frames msgpack; either may hold one message or an array.
func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		// A dropped client must not leave keys held down
		h.engine.SubmitInput(game.InputEvent{Kind: game.InputReleaseAll})
		h.engine.SubmitInput(game.InputEvent{Kind: game.InputPointerLock, Locked: false})
		select {
		case h.unregister <- c:
		case <-h.stopChan:
		}
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		msgs, err := decodeWSInput(msgType, data)
		if err != nil {
			h.logger.Debug("📨 Bad websocket message", zap.String("ip", c.ip), zap.Error(err))
			continue
		}
		for _, m := range msgs {
			if !c.input.Allow() {
				RecordConnectionRejected("input_rate")
				continue
			}
			ev, err := m.ToEvent()
			if err != nil {
				h.logger.Debug("📨 Rejected input", zap.String("ip", c.ip), zap.Error(err))
				continue
			}
			h.engine.SubmitInput(ev)
		}
	}
}

// decodeWSInput parses one frame into input messages
func decodeWSInput(msgType int, data []byte) ([]InputMessage, error) {
	if msgType == websocket.BinaryMessage {
		var raw interface{}
		if err := unmarshalMsgpack(data, &raw); err != nil {
			return nil, err
		}
		if _, isList := raw.([]interface{}); isList {
			var msgs []InputMessage
			if err := unmarshalMsgpack(data, &msgs); err != nil {
				return nil, err
			}
			return msgs, nil
		}
		var m InputMessage
		if err := unmarshalMsgpack(data, &m); err != nil {
			return nil, err
		}
		return []InputMessage{m}, nil
	}
	return decodeInputBody(data)
}
