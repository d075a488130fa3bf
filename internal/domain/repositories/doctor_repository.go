package repositories

import (
	"context"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// DoctorRepository defines the interface for doctor profile operations
type DoctorRepository interface {
	// Create creates a new doctor profile
	Create(ctx context.Context, doctor *entities.Doctor) error

	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// GetByUserID retrieves a doctor profile by its linked user account
	GetByUserID(ctx context.Context, userID string) (*entities.Doctor, error)

	// Update updates a doctor profile
	Update(ctx context.Context, doctor *entities.Doctor) error

	// List retrieves doctors matching the filter
	List(ctx context.Context, filter DoctorFilter) ([]*entities.Doctor, error)
}

// DoctorFilter defines filters for listing doctors
type DoctorFilter struct {
	DepartmentID string
	Specialty    string
	// VerifiedOnly limits results to verified, available doctors, the set
	// patients may book with.
	VerifiedOnly bool
	// PendingVerification limits results to unverified doctors.
	PendingVerification bool
	Limit               int
	Offset              int
}

// AvailabilityRepository defines the interface for doctors' weekly
// availability windows
type AvailabilityRepository interface {
	// Upsert creates the window for (doctor, weekday) or replaces the
	// existing one; at most one row per pair survives
	Upsert(ctx context.Context, availability *entities.DoctorAvailability) error

	// GetByDoctorAndDay retrieves the active window for a doctor's
	// weekday, or nil when none is configured
	GetByDoctorAndDay(ctx context.Context, doctorID string, day entities.Weekday) (*entities.DoctorAvailability, error)

	// ListByDoctor retrieves all of a doctor's windows
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.DoctorAvailability, error)
}
