package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/application/services"
)

// PatientHandler handles patient account requests
type PatientHandler struct {
	patients *services.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patients *services.PatientService) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// Register handles POST /api/patients/register. This is the one open
// endpoint; everything else requires a session.
func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterPatientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := h.patients.Register(r.Context(), input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

// Profile handles GET /api/patients/me
func (h *PatientHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.patients.Profile(r.Context(), principal)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/patients/me
func (h *PatientHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input services.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := h.patients.UpdateProfile(r.Context(), principal, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// AddFamilyMember handles POST /api/patients/me/family
func (h *PatientHandler) AddFamilyMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input services.FamilyMemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	member, err := h.patients.AddFamilyMember(r.Context(), principal, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, member)
}

// ListFamilyMembers handles GET /api/patients/me/family
func (h *PatientHandler) ListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	members, err := h.patients.FamilyMembers(r.Context(), principal)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"family_members": members,
	})
}

// RemoveFamilyMember handles DELETE /api/patients/me/family/{id}
func (h *PatientHandler) RemoveFamilyMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "family member ID is required")
		return
	}

	if err := h.patients.RemoveFamilyMember(r.Context(), principal, id); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "family member removed",
	})
}

// ListMedicalRecords handles GET /api/medical-records
func (h *PatientHandler) ListMedicalRecords(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	records, err := h.patients.MedicalRecords(r.Context(), principal, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"medical_records": records,
	})
}

// GetMedicalRecord handles GET /api/medical-records/{id}
func (h *PatientHandler) GetMedicalRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "record ID is required")
		return
	}

	record, err := h.patients.MedicalRecord(r.Context(), principal, id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}
