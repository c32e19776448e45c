package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/draftday/mockdraft/internal/notify"
)

// Config holds WebSocket connection tuning.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the standard connection tuning. CheckOrigin
// accepts everything; restrict it behind a real deployment.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Manager fans live draft events out to WebSocket clients, pooled per
// draft. It implements notify.Sink so the notifier can feed it directly.
type Manager struct {
	pools map[uuid.UUID]map[*Connection]bool
	mu    sync.RWMutex

	upgrader    websocket.Upgrader
	config      Config
	broadcastCh chan notify.Envelope
}

// Connection is one client subscribed to one draft's events.
type Connection struct {
	ID      string
	UserID  string
	DraftID uuid.UUID

	conn    *websocket.Conn
	send    chan []byte
	manager *Manager

	closeMu sync.Mutex
	closed  bool

	ConnectedAt time.Time
}

// enqueue hands data to the write pump. Returns false when the buffer is
// full or the connection is already closed; checking closed under the
// mutex keeps broadcast from sending on a channel a pump goroutine just
// closed.
func (c *Connection) enqueue(data []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// NewManager creates a connection manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		pools: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		config:      cfg,
		broadcastCh: make(chan notify.Envelope, 1000),
	}
}

// Start processes queued broadcasts until the context ends.
func (m *Manager) Start(ctx context.Context) {
	log.Info().Msg("gateway manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway manager shutting down")
			return
		case env := <-m.broadcastCh:
			m.broadcast(env)
		}
	}
}

// Deliver queues an envelope for broadcast to the draft's pool. A full
// queue drops the envelope; clients resync from the state endpoint.
func (m *Manager) Deliver(_ context.Context, env notify.Envelope) error {
	select {
	case m.broadcastCh <- env:
		return nil
	default:
		return fmt.Errorf("broadcast queue full, dropped %s for draft %s", env.EventType, env.DraftID)
	}
}

// Upgrade promotes an HTTP request to a WebSocket subscription on the
// given draft.
func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request, userID string, draftID uuid.UUID) error {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		DraftID:     draftID,
		conn:        ws,
		send:        make(chan []byte, 256),
		manager:     m,
		ConnectedAt: time.Now(),
	}

	m.register(conn)

	go conn.writePump()
	go conn.readPump()

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", userID).
		Str("draft_id", draftID.String()).
		Msg("websocket connection established")

	return nil
}

func (m *Manager) register(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pools[conn.DraftID] == nil {
		m.pools[conn.DraftID] = make(map[*Connection]bool)
	}
	m.pools[conn.DraftID][conn] = true
}

func (m *Manager) unregister(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[conn.DraftID]
	if !ok {
		return
	}
	if _, ok := pool[conn]; !ok {
		return
	}
	delete(pool, conn)
	conn.closeMu.Lock()
	conn.closed = true
	close(conn.send)
	conn.closeMu.Unlock()
	if len(pool) == 0 {
		delete(m.pools, conn.DraftID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("draft_id", conn.DraftID.String()).
		Msg("websocket connection closed")
}

func (m *Manager) broadcast(env notify.Envelope) {
	m.mu.RLock()
	pool, ok := m.pools[env.DraftID]
	if !ok {
		m.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(pool))
	for conn := range pool {
		targets = append(targets, conn)
	}
	m.mu.RUnlock()

	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast envelope")
		return
	}

	for _, conn := range targets {
		if !conn.enqueue(data) {
			// Slow client; drop it rather than stall the draft.
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("send buffer full, closing connection")
			m.unregister(conn)
			conn.conn.Close()
		}
	}
}

// Stats reports active connection counts per draft.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int, len(m.pools))
	for draftID, pool := range m.pools {
		stats[draftID.String()] = len(pool)
	}
	return stats
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.manager.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			return
		}

		// Clients are read-only subscribers; commands go through the
		// HTTP API. Anything they send is just logged.
		log.Debug().
			Str("connection_id", c.ID).
			RawJSON("message", message).
			Msg("client message ignored")
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
