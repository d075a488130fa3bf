package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// QueueReader exposes the queue aggregate and snapshot reads
type QueueReader interface {
	Status(ctx context.Context, doctorID string, date time.Time) (*entities.QueueStatus, error)
	Snapshot(ctx context.Context, doctorID string, date time.Time) (*entities.QueueSnapshot, error)
}

// QueueHandler handles queue state requests
type QueueHandler struct {
	queues QueueReader
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queues QueueReader) *QueueHandler {
	return &QueueHandler{queues: queues}
}

// Status handles GET /api/doctors/{id}/queue?date=YYYY-MM-DD
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	date, err := parseDateQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	status, err := h.queues.Status(r.Context(), id, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// Snapshot handles GET /api/doctors/{id}/queue/snapshot?date=YYYY-MM-DD
func (h *QueueHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	date, err := parseDateQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	snapshot, err := h.queues.Snapshot(r.Context(), id, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}
