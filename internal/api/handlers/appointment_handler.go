package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/application/services"
	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
)

// BookingOperations defines the appointment lifecycle operations the
// handler depends on
type BookingOperations interface {
	Book(ctx context.Context, principal auth.Principal, req *services.BookingRequest) (*entities.Appointment, error)
	Cancel(ctx context.Context, principal auth.Principal, appointmentID string) error
	Reschedule(ctx context.Context, principal auth.Principal, appointmentID, newDate, newSlot string) (*entities.Appointment, error)
}

// ConsultationOperations defines the doctor-side consultation operations
type ConsultationOperations interface {
	Start(ctx context.Context, principal auth.Principal, appointmentID string) (*entities.Appointment, error)
	End(ctx context.Context, principal auth.Principal, appointmentID string, input services.EndConsultationInput) (*entities.Appointment, error)
	UpdateStatus(ctx context.Context, principal auth.Principal, appointmentID string, next entities.AppointmentStatus) (*entities.Appointment, error)
}

// AppointmentHandler handles appointment lifecycle requests
type AppointmentHandler struct {
	bookings        BookingOperations
	consultations   ConsultationOperations
	appointmentRepo repositories.AppointmentRepository
	doctorRepo      repositories.DoctorRepository
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(
	bookings BookingOperations,
	consultations ConsultationOperations,
	appointmentRepo repositories.AppointmentRepository,
	doctorRepo repositories.DoctorRepository,
) *AppointmentHandler {
	return &AppointmentHandler{
		bookings:        bookings,
		consultations:   consultations,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
	}
}

type bookAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	DoctorID        string `json:"doctor_id"`
	Date            string `json:"appointment_date"`
	TimeSlot        string `json:"time_slot"`
	Reason          string `json:"reason"`
	BookingType     string `json:"booking_type"`
	IsForSelf       *bool  `json:"is_for_self"`
	PatientRelation string `json:"patient_relation"`
}

// Book handles POST /api/appointments
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body bookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	// Patients book for themselves unless they say otherwise.
	if body.PatientID == "" {
		body.PatientID = principal.UserID
	}
	isForSelf := true
	if body.IsForSelf != nil {
		isForSelf = *body.IsForSelf
	}
	bookingType := entities.BookingType(body.BookingType)
	if bookingType == "" {
		bookingType = entities.BookingTypeDoctor
	}

	appointment, err := h.bookings.Book(r.Context(), principal, &services.BookingRequest{
		PatientID:       body.PatientID,
		DoctorID:        body.DoctorID,
		Date:            body.Date,
		TimeSlot:        body.TimeSlot,
		Reason:          body.Reason,
		BookingType:     bookingType,
		IsForSelf:       isForSelf,
		PatientRelation: body.PatientRelation,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// Get handles GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.appointmentRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	// Doctors may only read their own appointments, so resolve the
	// owning doctor's user account before the policy check.
	doctorUserID := ""
	if appointment.DoctorID != "" {
		doctor, err := h.doctorRepo.GetByID(r.Context(), appointment.DoctorID)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		if doctor != nil {
			doctorUserID = doctor.UserID
		}
	}
	if !principal.CanViewAppointment(appointment, doctorUserID) {
		respondWithError(w, http.StatusForbidden, "not allowed to view this appointment")
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ListMine handles GET /api/appointments
func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := repositories.AppointmentFilter{
		Status: entities.AppointmentStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	appointments, err := h.appointmentRepo.ListByPatient(r.Context(), principal.UserID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
	})
}

// Cancel handles POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	if err := h.bookings.Cancel(r.Context(), principal, id); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "appointment cancelled",
	})
}

// Reschedule handles POST /api/appointments/{id}/reschedule
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var body struct {
		Date     string `json:"appointment_date"`
		TimeSlot string `json:"time_slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.bookings.Reschedule(r.Context(), principal, id, body.Date, body.TimeSlot)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// UpdateStatus handles PATCH /api/appointments/{id}/status
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.consultations.UpdateStatus(r.Context(), principal, id, entities.AppointmentStatus(body.Status))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// StartConsultation handles POST /api/appointments/{id}/start
func (h *AppointmentHandler) StartConsultation(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.consultations.Start(r.Context(), principal, id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// EndConsultation handles POST /api/appointments/{id}/end
func (h *AppointmentHandler) EndConsultation(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var input services.EndConsultationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.consultations.End(r.Context(), principal, id, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// parseDateQuery reads the date query parameter, defaulting to today.
func parseDateQuery(r *http.Request) (time.Time, error) {
	value := r.URL.Query().Get("date")
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", value)
}
