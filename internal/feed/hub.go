package feed

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/cliniqueselma/booking-server/internal/booking"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

const subscriberBuffer = 16

// Event is the wire payload pushed to reception dashboards when an
// appointment is booked.
type Event struct {
	Type            string `json:"type"` // "appointment_created", "ping", "pong"
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	PatientName     string `json:"patientName,omitempty"`
	ServiceType     string `json:"serviceType,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	IsEmergency     bool   `json:"isEmergency,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
}

type subscriber struct {
	events chan Event
	done   chan struct{}
}

// Hub fans booking events out to connected WebSocket clients. A
// subscriber that cannot keep up is dropped rather than blocking the
// booking path.
type Hub struct {
	logger *logging.Logger

	mu   sync.RWMutex
	subs map[string]*subscriber
}

// NewHub creates an event hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[string]*subscriber),
	}
}

// BookingCreated publishes a created appointment to all subscribers.
func (h *Hub) BookingCreated(_ context.Context, appt *booking.Appointment) {
	if appt == nil {
		return
	}
	ev := Event{
		Type:            "appointment_created",
		ReferenceNumber: appt.ReferenceNumber,
		PatientName:     appt.PatientName,
		ServiceType:     appt.ServiceType,
		Date:            appt.Date,
		Time:            appt.Time,
		IsEmergency:     appt.IsEmergency,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.RLock()
	stale := make([]string, 0)
	for id, sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stale {
		h.drop(id)
		h.logger.Warn("feed: dropped slow subscriber", "subscriber_id", id)
	}
}

// SubscriberCount reports the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) add() (string, *subscriber) {
	sub := &subscriber{
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	id := uuid.NewString()
	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()
	return id, sub
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(sub.done)
	}
}

// HandleWebSocket upgrades to WebSocket and streams booking events.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn)
	}).ServeHTTP(w, r)
}

func (h *Hub) serveWS(conn *websocket.Conn) {
	id, sub := h.add()
	defer h.drop(id)

	h.logger.Info("feed: subscriber connected", "subscriber_id", id)

	// Reader goroutine: we only expect pings, but Receive also tells us
	// when the client goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var in Event
			if err := websocket.JSON.Receive(conn, &in); err != nil {
				return
			}
			if in.Type == "ping" {
				_ = websocket.JSON.Send(conn, Event{Type: "pong"})
			}
		}
	}()

	for {
		select {
		case ev := <-sub.events:
			if err := websocket.JSON.Send(conn, ev); err != nil {
				h.logger.Debug("feed: subscriber write failed", "subscriber_id", id, "error", err)
				return
			}
		case <-sub.done:
			return
		case <-closed:
			h.logger.Info("feed: subscriber disconnected", "subscriber_id", id)
			return
		}
	}
}
