package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/application/services"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
)

// SlotCalculator computes the bookable slots of a doctor's day
type SlotCalculator interface {
	AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]entities.Slot, error)
}

// DoctorHandler handles doctor roster, schedule and slot requests
type DoctorHandler struct {
	doctors *services.DoctorService
	slots   SlotCalculator
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(doctors *services.DoctorService, slots SlotCalculator) *DoctorHandler {
	return &DoctorHandler{
		doctors: doctors,
		slots:   slots,
	}
}

// List handles GET /api/doctors
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := repositories.DoctorFilter{
		DepartmentID: r.URL.Query().Get("department_id"),
		Specialty:    r.URL.Query().Get("specialty"),
		Limit:        50,
	}
	doctors, err := h.doctors.List(r.Context(), principal, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
	})
}

// Get handles GET /api/doctors/{id}
func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	doctor, err := h.doctors.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}

// AvailableSlots handles GET /api/doctors/{id}/slots?date=YYYY-MM-DD
func (h *DoctorHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
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

	slots, err := h.slots.AvailableSlots(r.Context(), id, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"slots": slots,
	})
}

// Profile handles GET /api/doctors/me
func (h *DoctorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	doctor, err := h.doctors.Profile(r.Context(), principal)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}

// Appointments handles GET /api/doctors/me/appointments?date=YYYY-MM-DD
func (h *DoctorHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	date, err := parseDateQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	appointments, err := h.doctors.Appointments(r.Context(), principal, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":         date.Format("2006-01-02"),
		"appointments": appointments,
	})
}

// Availability handles GET /api/doctors/me/availability
func (h *DoctorHandler) Availability(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	windows, err := h.doctors.Availability(r.Context(), principal)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"availability": windows,
	})
}

// UpsertAvailability handles PUT /api/doctors/me/availability
func (h *DoctorHandler) UpsertAvailability(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input services.AvailabilityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	availability, err := h.doctors.UpsertAvailability(r.Context(), principal, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, availability)
}

// SetAvailable handles PATCH /api/doctors/me/availability/toggle
func (h *DoctorHandler) SetAvailable(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	doctor, err := h.doctors.SetAvailable(r.Context(), principal, body.IsAvailable)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}
