package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/metrics"
)

// Session is a connected live viewer. Send and SendSnapshot must not block; a
// returned error means the session can no longer be served. Messages from both
// calls are delivered in the order they were accepted. Send may refuse a
// message when the viewer falls behind, SendSnapshot only when it is closed.
type Session interface {
	ID() string
	Send(msg []byte) error
	SendSnapshot(msg []byte) error
	Close()
}

type snapshotSource interface {
	Each(fn func(domain.Vehicle))
}

type Hub struct {
	mu       sync.RWMutex
	closed   bool
	sessions map[Session]struct{}
	source   snapshotSource
	log      zerolog.Logger
}

func NewHub(source snapshotSource, log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[Session]struct{}),
		source:   source,
		log:      log.With().Str("component", "broadcast").Logger(),
	}
}

// Register adds s and sends it one message per known vehicle. Each snapshot
// message is queued under that vehicle's store lock, so a concurrent commit for
// the same vehicle always reaches s after the snapshot copy. After Close, s is
// closed and not registered.
func (h *Hub) Register(s Session) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.Close()
		h.log.Debug().Str("session", s.ID()).Msg("live session rejected after close")
		return
	}
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	metrics.LiveSessions.Set(float64(n))

	h.log.Info().Str("session", s.ID()).Int("sessions", n).Msg("live session connected")

	failed := false
	h.source.Each(func(v domain.Vehicle) {
		if failed {
			return
		}
		msg, err := json.Marshal(v)
		if err != nil {
			h.log.Error().Err(err).Str("vehicle_id", v.ID).Msg("marshal snapshot vehicle")
			return
		}
		if err := s.SendSnapshot(msg); err != nil {
			failed = true
		}
	})
	if failed {
		h.drop(s)
	}
}

// Unregister removes s and closes it. Calling it more than once is a no-op.
func (h *Hub) Unregister(s Session) {
	h.remove(s)
}

// Broadcast sends v to every registered session. Sessions that fail are
// dropped; the rest still receive the message.
func (h *Hub) Broadcast(v domain.Vehicle) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Str("vehicle_id", v.ID).Msg("marshal vehicle")
		return
	}

	for _, s := range h.snapshot() {
		if err := s.Send(msg); err != nil {
			h.log.Warn().Err(err).Str("session", s.ID()).Msg("live send failed")
			h.drop(s)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close unregisters every session and rejects later registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	for _, s := range h.snapshot() {
		h.Unregister(s)
	}
}

func (h *Hub) drop(s Session) {
	if h.remove(s) {
		metrics.LiveDroppedSessionsTotal.Inc()
	}
}

func (h *Hub) remove(s Session) bool {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	n := len(h.sessions)
	h.mu.Unlock()
	if !ok {
		return false
	}

	metrics.LiveSessions.Set(float64(n))
	s.Close()
	h.log.Info().Str("session", s.ID()).Int("sessions", n).Msg("live session disconnected")
	return true
}

func (h *Hub) snapshot() []Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Session, 0, len(h.sessions))
	for s := range h.sessions {
		out = append(out, s)
	}
	return out
}
