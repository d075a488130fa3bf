package handlers

import (
	"net/http"

	"github.com/arogya-hms/backend/internal/domain/repositories"
)

// DepartmentHandler handles department reference data requests
type DepartmentHandler struct {
	departmentRepo repositories.DepartmentRepository
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(departmentRepo repositories.DepartmentRepository) *DepartmentHandler {
	return &DepartmentHandler{
		departmentRepo: departmentRepo,
	}
}

// List handles GET /api/departments
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departmentRepo.ListActive(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"departments": departments,
	})
}

// Get handles GET /api/departments/{id}
func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "department ID is required")
		return
	}

	department, err := h.departmentRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if department == nil {
		respondWithError(w, http.StatusNotFound, "department not found")
		return
	}

	respondWithJSON(w, http.StatusOK, department)
}
