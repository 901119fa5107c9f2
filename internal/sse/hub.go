package sse

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Roles a dashboard session can hold.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// DefaultHeartbeat is the keep-alive interval used when none is configured.
const DefaultHeartbeat = 30 * time.Second

// ErrClosed is returned by Register once the hub has been shut down.
var ErrClosed = errors.New("sse: hub closed")

// Identity is the verified principal behind a stream. ClientID is the tenant
// the session may see; it is ignored for admins.
type Identity struct {
	UserID   string
	Role     string
	ClientID string
}

// canSee reports whether the identity may receive events of tenantID.
func (id Identity) canSee(tenantID string) bool {
	if id.Role == RoleAdmin {
		return true
	}
	return tenantID != "" && id.ClientID == tenantID
}

// Session is one physical connection. A user may hold several at once.
type Session struct {
	Key         string
	Identity    Identity
	ConnectedAt time.Time

	w      Stream
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *Session) close() { s.once.Do(func() { close(s.done) }) }

// ClientInfo describes a registered session for the stats endpoint.
type ClientInfo struct {
	UserID      string    `json:"userId"`
	Key         string    `json:"key"`
	Role        string    `json:"role"`
	ClientID    string    `json:"clientId"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Stats is a point-in-time snapshot of the registry.
type Stats struct {
	TotalConnections int          `json:"totalConnections"`
	Clients          []ClientInfo `json:"clients"`
}

// Hub owns the session registry. Only the hub mutates it; writes to a
// session's stream happen on that session's Serve goroutine.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	buffer int
	now    func() time.Time
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-session queue length. Events offered to a full
// queue are dropped for that session.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHub returns an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[string]*Session),
		buffer:   16,
		now:      time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register writes the initial "connected" event to w and adds a session for
// id. A closed hub returns ErrClosed before anything is written. The caller
// must Unregister the returned key when the stream closes; Serve does both.
func (h *Hub) Register(id Identity, w Stream) (*Session, error) {
	if h.isClosed() {
		return nil, ErrClosed
	}
	s := &Session{
		Key:         id.UserID + "_" + uuid.NewString(),
		Identity:    id,
		ConnectedAt: h.now().UTC(),
		w:           w,
		events:      make(chan Event, h.buffer),
		done:        make(chan struct{}),
	}

	hello, err := NewEvent(KindConnected, map[string]any{
		"message":    "connected to notification server",
		"sessionKey": s.Key,
		"timestamp":  stamp(s.ConnectedAt),
	})
	if err != nil {
		return nil, err
	}
	if err := writeEvent(w, hello); err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.sessions[s.Key] = s
	total := len(h.sessions)
	h.mu.Unlock()

	connGauge.Inc()
	log.Info().
		Str("session_key", s.Key).
		Str("user_id", id.UserID).
		Str("role", id.Role).
		Str("client_id", id.ClientID).
		Int("total", total).
		Msg("sse client connected")
	return s, nil
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Unregister removes the session with key. Unknown keys are ignored.
func (h *Hub) Unregister(key string) {
	h.mu.Lock()
	s, ok := h.sessions[key]
	if ok {
		delete(h.sessions, key)
	}
	total := len(h.sessions)
	h.mu.Unlock()
	if !ok {
		return
	}
	s.close()
	connGauge.Dec()
	log.Info().
		Str("session_key", key).
		Str("user_id", s.Identity.UserID).
		Int("total", total).
		Msg("sse client disconnected")
}

// Serve registers w and pumps queued events into it until ctx is done, the
// hub closes, or a write fails. The session is always deregistered on return.
func (h *Hub) Serve(ctx context.Context, id Identity, w Stream) error {
	s, err := h.Register(id, w)
	if err != nil {
		return err
	}
	defer h.Unregister(s.Key)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case ev := <-s.events:
			if err := writeEvent(w, ev); err != nil {
				eventsTotal.WithLabelValues(ev.Kind, outcomeFailed).Inc()
				log.Warn().Err(err).
					Str("session_key", s.Key).
					Str("kind", ev.Kind).
					Msg("sse write failed")
				return err
			}
		}
	}
}

// Broadcast offers an event to every session that may see tenantID (admins
// always) and returns how many sessions accepted it. Delivery is best-effort:
// a session whose queue is full misses the event.
func (h *Hub) Broadcast(kind string, payload any, tenantID string) int {
	ev, err := NewEvent(kind, payload)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("sse broadcast dropped")
		return 0
	}
	return h.fanout(ev, func(id Identity) bool { return id.canSee(tenantID) })
}

// Heartbeat sends a keep-alive event to every open session.
func (h *Hub) Heartbeat() int {
	ev, err := NewEvent(KindHeartbeat, map[string]string{"timestamp": stamp(h.now())})
	if err != nil {
		return 0
	}
	return h.fanout(ev, func(Identity) bool { return true })
}

func (h *Hub) fanout(ev Event, match func(Identity) bool) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for key, s := range h.sessions {
		if !match(s.Identity) {
			continue
		}
		select {
		case s.events <- ev:
			n++
			eventsTotal.WithLabelValues(ev.Kind, outcomeDelivered).Inc()
		default:
			eventsTotal.WithLabelValues(ev.Kind, outcomeDropped).Inc()
			log.Warn().Str("session_key", key).Str("kind", ev.Kind).Msg("sse queue full, event dropped")
		}
	}
	return n
}

// Run emits heartbeats every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHeartbeat
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Heartbeat()
		}
	}
}

// Close ends every open session and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, s := range h.sessions {
		s.close()
	}
	h.mu.Unlock()
}

// Stats returns the registered sessions ordered by connection time.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	clients := make([]ClientInfo, 0, len(h.sessions))
	for _, s := range h.sessions {
		clients = append(clients, ClientInfo{
			UserID:      s.Identity.UserID,
			Key:         s.Key,
			Role:        s.Identity.Role,
			ClientID:    s.Identity.ClientID,
			ConnectedAt: s.ConnectedAt,
		})
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		if clients[i].ConnectedAt.Equal(clients[j].ConnectedAt) {
			return clients[i].Key < clients[j].Key
		}
		return clients[i].ConnectedAt.Before(clients[j].ConnectedAt)
	})
	return Stats{TotalConnections: len(clients), Clients: clients}
}
