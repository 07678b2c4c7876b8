package subscription

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/quizroom/internal/model"
)

// ErrClosed is returned when registering with a manager that has shut down
var ErrClosed = errors.New("subscription manager closed")

// Manager tracks live subscribers per topic and fans messages out to them.
// It is safe for concurrent use; Register, Unregister and Broadcast may race freely.
type Manager struct {
	mu      sync.Mutex
	topics  map[Topic]map[*Client]struct{}
	closed  bool
	logger  *slog.Logger
	upgrade websocket.Upgrader
}

// NewManager creates a new Manager
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		topics: make(map[Topic]map[*Client]struct{}),
		logger: logger.With(slog.String("component", "subscription")),
		upgrade: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Subscribers authenticate with a device credential header, not cookies
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register adds c to topic
func (m *Manager) Register(topic Topic, c *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	clients, ok := m.topics[topic]
	if !ok {
		clients = make(map[*Client]struct{})
		m.topics[topic] = clients
	}
	clients[c] = struct{}{}
	c.topic = topic
	m.logger.Info("subscriber registered",
		slog.String("subscription", string(topic.Path)),
		slog.String("session_id", string(topic.SessionID)),
		slog.String("player_id", string(c.playerID)),
		slog.Int("subscribers", len(clients)),
	)
	return nil
}

// Unregister removes c from its topic, dropping the topic once empty.
// Unregistering a client twice is a no-op.
func (m *Manager) Unregister(c *Client) {
	c.stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	clients, ok := m.topics[c.topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(m.topics, c.topic)
	}
	m.logger.Info("subscriber unregistered",
		slog.String("subscription", string(c.topic.Path)),
		slog.String("session_id", string(c.topic.SessionID)),
		slog.String("player_id", string(c.playerID)),
		slog.Duration("connection_duration", time.Since(c.connectedAt)),
	)
}

// Broadcast delivers data to every client registered on topic when it is called.
// A client that is slow or gone misses the message; the others still receive it.
// It returns how many clients the message was queued for.
func (m *Manager) Broadcast(topic Topic, data any) int {
	msg, err := json.Marshal(Event{Subscription: topic.Path, SessionID: topic.SessionID, Data: data})
	if err != nil {
		m.logger.Error("failed to encode broadcast",
			slog.String("subscription", string(topic.Path)),
			slog.String("error", err.Error()),
		)
		return 0
	}

	m.mu.Lock()
	targets := make([]*Client, 0, len(m.topics[topic]))
	for c := range m.topics[topic] {
		targets = append(targets, c)
	}
	m.mu.Unlock()

	sent, dropped := 0, 0
	for _, c := range targets {
		if c.deliver(msg) {
			sent++
			continue
		}
		dropped++
		m.logger.Warn("subscription message dropped",
			slog.String("subscription", string(topic.Path)),
			slog.String("player_id", string(c.playerID)),
		)
	}
	if dropped > 0 {
		m.logger.Warn("subscription broadcast partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped),
		)
	}
	return sent
}

// Sessions returns the sessions that currently have subscribers on path
func (m *Manager) Sessions(path Path) []model.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sessions []model.SessionID
	for topic := range m.topics {
		if topic.Path == path {
			sessions = append(sessions, topic.SessionID)
		}
	}
	return sessions
}

// Subscribers returns the number of clients registered on topic
func (m *Manager) Subscribers(topic Topic) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics[topic])
}

// Serve upgrades the request to a WebSocket and subscribes it to topic.
// On upgrade failure the upgrader has already written an HTTP error.
func (m *Manager) Serve(w http.ResponseWriter, r *http.Request, topic Topic, playerID model.PlayerID) error {
	conn, err := m.upgrade.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(conn, topic, playerID)
	if err := m.Register(topic, c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return err
	}

	go c.writePump()
	go c.readPump(m)
	return nil
}

// Listen registers an in-process subscriber on topic. Messages arrive on the
// returned channel until cancel is called; the channel is never closed.
func (m *Manager) Listen(topic Topic) (<-chan []byte, func(), error) {
	c := newClient(nil, topic, "")
	if err := m.Register(topic, c); err != nil {
		return nil, nil, err
	}
	return c.send, func() { m.Unregister(c) }, nil
}

// Close disconnects every subscriber and refuses new ones
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	count := 0
	for topic, clients := range m.topics {
		for c := range clients {
			c.stop()
			count++
		}
		delete(m.topics, topic)
	}
	m.mu.Unlock()
	m.logger.Info("subscription manager closed", slog.Int("disconnected_clients", count))
}
