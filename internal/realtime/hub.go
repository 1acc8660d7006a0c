package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/pkg/logger"
	"github.com/ryoevisu/kaishop-backend/pkg/metrics"
)

// Hub tracks live connections and fans events out to them. Connections are
// grouped by the identity that authenticated them, with administrators also
// addressable as a group of their own.
type Hub struct {
	logg    *logger.Logger
	metrics *metrics.RealtimeMetrics

	mu         sync.RWMutex
	identities map[uuid.UUID]map[*connection]struct{}
	admins     map[*connection]struct{}
}

// NewHub builds an empty hub. Metrics may be nil in tests.
func NewHub(logg *logger.Logger, m *metrics.RealtimeMetrics) *Hub {
	return &Hub{
		logg:       logg,
		metrics:    m,
		identities: make(map[uuid.UUID]map[*connection]struct{}),
		admins:     make(map[*connection]struct{}),
	}
}

// PushToIdentity sends an event to every live connection belonging to the
// identity. Connections whose send buffer is full are skipped rather than
// blocked on.
func (h *Hub) PushToIdentity(ctx context.Context, identityID uuid.UUID, event string, data any) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logg.Error(ctx, "marshal realtime event", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(ctx, h.identities[identityID], event, payload)
}

// PushToAdministrators sends an event to every connection authenticated as an
// administrator.
func (h *Hub) PushToAdministrators(ctx context.Context, event string, data any) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logg.Error(ctx, "marshal realtime event", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(ctx, h.admins, event, payload)
}

// deliver runs under the read lock so no connection can be torn down, and its
// send channel closed, while a send is in flight.
func (h *Hub) deliver(ctx context.Context, targets map[*connection]struct{}, event string, payload []byte) {
	for conn := range targets {
		select {
		case conn.send <- payload:
			h.metrics.IncPublished(event)
		default:
			h.metrics.IncDropped(event)
			h.logg.Warn(h.logg.WithField(ctx, "event", event), "realtime send buffer full, dropping event")
		}
	}
}

func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.identities[conn.identityID]
	if set == nil {
		set = make(map[*connection]struct{})
		h.identities[conn.identityID] = set
	}
	set[conn] = struct{}{}
	if conn.admin {
		h.admins[conn] = struct{}{}
	}
	h.metrics.ConnOpened()
}

func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.identities[conn.identityID]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.identities, conn.identityID)
	}
	delete(h.admins, conn)
	close(conn.send)
	h.metrics.ConnClosed()
}

// ConnectionCount reports the number of authenticated connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, set := range h.identities {
		count += len(set)
	}
	return count
}
