package routes

import (
	"net/http"

	"github.com/arogya-hms/backend/internal/api/handlers"
	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler *handlers.AppointmentHandler
	doctorHandler      *handlers.DoctorHandler
	queueHandler       *handlers.QueueHandler
	departmentHandler  *handlers.DepartmentHandler
	patientHandler     *handlers.PatientHandler
	adminHandler       *handlers.AdminHandler

	authMiddleware  *middleware.AuthMiddleware
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	doctorHandler *handlers.DoctorHandler,
	queueHandler *handlers.QueueHandler,
	departmentHandler *handlers.DepartmentHandler,
	patientHandler *handlers.PatientHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		appointmentHandler: appointmentHandler,
		doctorHandler:      doctorHandler,
		queueHandler:       queueHandler,
		departmentHandler:  departmentHandler,
		patientHandler:     patientHandler,
		adminHandler:       adminHandler,
		authMiddleware:     authMiddleware,
		cacheMiddleware:    cacheMiddleware,
		metrics:            metrics,
	}
}

func (r *Router) authed(handler http.HandlerFunc) http.Handler {
	return r.authMiddleware.RequireAuth(handler)
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Open endpoints: registration, reference data and the waiting-room
	// queue board
	r.mux.HandleFunc("POST /api/patients/register", r.patientHandler.Register)
	r.mux.HandleFunc("GET /api/departments", r.departmentHandler.List)
	r.mux.HandleFunc("GET /api/departments/{id}", r.departmentHandler.Get)
	r.mux.HandleFunc("GET /api/doctors/{id}/slots", r.doctorHandler.AvailableSlots)
	r.mux.HandleFunc("GET /api/doctors/{id}/queue", r.queueHandler.Status)
	r.mux.HandleFunc("GET /api/doctors/{id}/queue/snapshot", r.queueHandler.Snapshot)

	// Patient account endpoints
	r.mux.Handle("GET /api/patients/me", r.authed(r.patientHandler.Profile))
	r.mux.Handle("PUT /api/patients/me", r.authed(r.patientHandler.UpdateProfile))
	r.mux.Handle("POST /api/patients/me/family", r.authed(r.patientHandler.AddFamilyMember))
	r.mux.Handle("GET /api/patients/me/family", r.authed(r.patientHandler.ListFamilyMembers))
	r.mux.Handle("DELETE /api/patients/me/family/{id}", r.authed(r.patientHandler.RemoveFamilyMember))
	r.mux.Handle("GET /api/medical-records", r.authed(r.patientHandler.ListMedicalRecords))
	r.mux.Handle("GET /api/medical-records/{id}", r.authed(r.patientHandler.GetMedicalRecord))

	// Doctor roster and schedule endpoints
	r.mux.Handle("GET /api/doctors", r.authed(r.doctorHandler.List))
	r.mux.Handle("GET /api/doctors/me", r.authed(r.doctorHandler.Profile))
	r.mux.Handle("GET /api/doctors/me/appointments", r.authed(r.doctorHandler.Appointments))
	r.mux.Handle("GET /api/doctors/me/availability", r.authed(r.doctorHandler.Availability))
	r.mux.Handle("PUT /api/doctors/me/availability", r.authed(r.doctorHandler.UpsertAvailability))
	r.mux.Handle("PATCH /api/doctors/me/availability/toggle", r.authed(r.doctorHandler.SetAvailable))
	r.mux.Handle("GET /api/doctors/{id}", r.authed(r.doctorHandler.Get))

	// Appointment lifecycle endpoints
	r.mux.Handle("POST /api/appointments", r.authed(r.appointmentHandler.Book))
	r.mux.Handle("GET /api/appointments", r.authed(r.appointmentHandler.ListMine))
	r.mux.Handle("GET /api/appointments/{id}", r.authed(r.appointmentHandler.Get))
	r.mux.Handle("POST /api/appointments/{id}/cancel", r.authed(r.appointmentHandler.Cancel))
	r.mux.Handle("POST /api/appointments/{id}/reschedule", r.authed(r.appointmentHandler.Reschedule))
	r.mux.Handle("PATCH /api/appointments/{id}/status", r.authed(r.appointmentHandler.UpdateStatus))
	r.mux.Handle("POST /api/appointments/{id}/start", r.authed(r.appointmentHandler.StartConsultation))
	r.mux.Handle("POST /api/appointments/{id}/end", r.authed(r.appointmentHandler.EndConsultation))

	// Admin endpoints
	r.mux.Handle("POST /api/admin/doctors", r.authed(r.adminHandler.RegisterDoctor))
	r.mux.Handle("GET /api/admin/doctors/pending", r.authed(r.adminHandler.PendingDoctors))
	r.mux.Handle("POST /api/admin/doctors/{id}/verify", r.authed(r.adminHandler.VerifyDoctor))
	r.mux.Handle("GET /api/admin/users", r.authed(r.adminHandler.ListUsers))
	r.mux.Handle("PATCH /api/admin/users/{id}/active", r.authed(r.adminHandler.SetUserActive))

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
