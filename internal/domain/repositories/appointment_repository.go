package repositories

import (
	"context"
	"time"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// Create creates a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// Update updates an appointment
	Update(ctx context.Context, appointment *entities.Appointment) error

	// ListByPatient retrieves appointments for a patient
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListByDoctorAndDate retrieves a doctor's appointments on a date,
	// ordered by queue position
	ListByDoctorAndDate(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) ([]*entities.Appointment, error)

	// CountByDepartmentAndDate counts all appointments ever created for a
	// department on a date, regardless of status. The next token sequence
	// is one past this count.
	CountByDepartmentAndDate(ctx context.Context, departmentID string, date time.Time) (int, error)

	// FindBySlot returns the first appointment occupying the exact
	// (doctor, date, time slot) with a status in statuses, skipping
	// excludeID if non-empty. Returns nil when the slot is free.
	FindBySlot(ctx context.Context, doctorID string, date time.Time, timeSlot string, excludeID string, statuses ...entities.AppointmentStatus) (*entities.Appointment, error)

	// ListBookedSlots returns the time slots occupied on a doctor's date by
	// appointments in statuses
	ListBookedSlots(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) ([]string, error)

	// CountByDoctorDateAndStatus counts a doctor's appointments on a date
	// with a status in statuses
	CountByDoctorDateAndStatus(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) (int, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
