package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/providers"
)

// QueueStreamHandler handles Server-Sent Events for live queue updates.
// Doctor queue rooms carry payload-free change signals; the full snapshot
// is pushed once on connect and re-fetched by clients after each signal.
type QueueStreamHandler struct {
	eventBus providers.EventBus
	queues   QueueReader
	clients  map[string]map[chan *entities.QueueEvent]bool // channel -> clients
	mu       sync.RWMutex
}

// NewQueueStreamHandler creates a new queue stream handler
func NewQueueStreamHandler(eventBus providers.EventBus, queues QueueReader) *QueueStreamHandler {
	return &QueueStreamHandler{
		eventBus: eventBus,
		queues:   queues,
		clients:  make(map[string]map[chan *entities.QueueEvent]bool),
	}
}

// StreamDoctorQueue handles SSE connections for a doctor's queue room.
// GET /api/stream/queue/{id}
func (h *QueueStreamHandler) StreamDoctorQueue(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	date, err := parseDateQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setStreamHeaders(w)

	clientChan := make(chan *entities.QueueEvent, 10)
	channel := providers.DoctorQueueChannel(doctorID)

	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		return
	}

	// Push the full queue state once; afterwards only change signals
	// flow and clients re-fetch.
	snapshot, err := h.queues.Snapshot(r.Context(), doctorID, date)
	if err != nil {
		log.Warn().Err(err).Str("doctor_id", doctorID).Msg("failed to load initial snapshot")
		h.sendEvent(w, string(entities.QueueEventSnapshot), map[string]interface{}{
			"doctor_id": doctorID,
			"timestamp": time.Now(),
		})
	} else {
		h.sendEvent(w, string(entities.QueueEventSnapshot), snapshot)
	}
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	h.serve(w, r, flusher, clientChan, channel)
}

// StreamPatientAppointments handles SSE connections for a patient's own
// appointment room. GET /api/stream/appointments
func (h *QueueStreamHandler) StreamPatientAppointments(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setStreamHeaders(w)

	clientChan := make(chan *entities.QueueEvent, 10)
	channel := providers.PatientAppointmentChannel(principal.UserID)

	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		return
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"patient_id": principal.UserID,
		"timestamp":  time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	h.serve(w, r, flusher, clientChan, channel)
}

// serve runs the heartbeat and event loop until the client disconnects.
func (h *QueueStreamHandler) serve(w http.ResponseWriter, r *http.Request, flusher http.Flusher, clientChan chan *entities.QueueEvent, channel string) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("channel", channel).Msg("stream client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *QueueStreamHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.QueueEvent, clientChan chan<- *entities.QueueEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

func (h *QueueStreamHandler) registerClient(channel string, clientChan chan *entities.QueueEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.QueueEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Debug().Str("channel", channel).Int("total", len(h.clients[channel])).Msg("stream client registered")
}

func (h *QueueStreamHandler) unregisterClient(channel string, clientChan chan *entities.QueueEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes one SSE frame to the client
func (h *QueueStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stream event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected stream clients
func (h *QueueStreamHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}
