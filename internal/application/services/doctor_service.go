package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// AvailabilityInput is one weekday window of a doctor's schedule.
type AvailabilityInput struct {
	DayOfWeek       entities.Weekday `json:"day_of_week"`
	StartTime       string           `json:"start_time"`
	EndTime         string           `json:"end_time"`
	MaxAppointments int              `json:"max_appointments"`
	IsAvailable     bool             `json:"is_available"`
}

// DoctorService covers the doctor-facing operations: schedule management,
// day lists and the patient-visible roster.
type DoctorService struct {
	doctorRepo       repositories.DoctorRepository
	availabilityRepo repositories.AvailabilityRepository
	appointmentRepo  repositories.AppointmentRepository
}

// NewDoctorService creates a new doctor service
func NewDoctorService(
	doctorRepo repositories.DoctorRepository,
	availabilityRepo repositories.AvailabilityRepository,
	appointmentRepo repositories.AppointmentRepository,
) *DoctorService {
	return &DoctorService{
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
	}
}

// List returns doctors visible to the principal. Patients only see
// verified, available doctors; doctors and admins see everyone matching
// the filter.
func (s *DoctorService) List(ctx context.Context, principal auth.Principal, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	if principal.IsPatient() {
		filter.VerifiedOnly = true
	}
	return s.doctorRepo.List(ctx, filter)
}

// Get returns a doctor profile by ID.
func (s *DoctorService) Get(ctx context.Context, id string) (*entities.Doctor, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}
	return doctor, nil
}

// Profile returns the doctor profile owned by the principal's user
// account.
func (s *DoctorService) Profile(ctx context.Context, principal auth.Principal) (*entities.Doctor, error) {
	if !principal.IsDoctor() {
		return nil, apperrors.NewForbiddenError("doctor role required")
	}
	doctor, err := s.doctorRepo.GetByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor profile not found")
	}
	return doctor, nil
}

// Appointments returns the doctor's appointments for a date ordered by
// queue position.
func (s *DoctorService) Appointments(ctx context.Context, principal auth.Principal, date time.Time) ([]*entities.Appointment, error) {
	doctor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.appointmentRepo.ListByDoctorAndDate(ctx, doctor.ID, date)
}

// Availability returns the doctor's weekly schedule.
func (s *DoctorService) Availability(ctx context.Context, principal auth.Principal) ([]*entities.DoctorAvailability, error) {
	doctor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.availabilityRepo.ListByDoctor(ctx, doctor.ID)
}

// UpsertAvailability creates or replaces the window for one weekday. At
// most one window survives per (doctor, weekday).
func (s *DoctorService) UpsertAvailability(ctx context.Context, principal auth.Principal, input AvailabilityInput) (*entities.DoctorAvailability, error) {
	doctor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !principal.CanManageDoctorSchedule(doctor.UserID) {
		return nil, apperrors.NewForbiddenError("not allowed to manage this schedule")
	}

	if !validWeekday(input.DayOfWeek) {
		return nil, apperrors.NewValidationError("invalid day of week")
	}
	start, err := parseClock(input.StartTime)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid start time, use HH:MM")
	}
	end, err := parseClock(input.EndTime)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid end time, use HH:MM")
	}
	// 00:00 as an end means end of day, so only reject other inversions.
	if end != 0 && end <= start {
		return nil, apperrors.NewValidationError("end time must be after start time")
	}
	if input.MaxAppointments < 0 {
		return nil, apperrors.NewValidationError("max appointments cannot be negative")
	}
	maxAppointments := input.MaxAppointments
	if maxAppointments == 0 {
		maxAppointments = 20
	}

	now := time.Now()
	availability := &entities.DoctorAvailability{
		ID:              uuid.New().String(),
		DoctorID:        doctor.ID,
		DayOfWeek:       input.DayOfWeek,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		MaxAppointments: maxAppointments,
		IsAvailable:     input.IsAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.availabilityRepo.Upsert(ctx, availability); err != nil {
		return nil, err
	}
	return availability, nil
}

// SetAvailable toggles the doctor's own soft-deactivation flag. Doctors
// are never deleted.
func (s *DoctorService) SetAvailable(ctx context.Context, principal auth.Principal, available bool) (*entities.Doctor, error) {
	doctor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	doctor.IsAvailable = available
	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func validWeekday(day entities.Weekday) bool {
	switch day {
	case entities.Monday, entities.Tuesday, entities.Wednesday, entities.Thursday,
		entities.Friday, entities.Saturday, entities.Sunday:
		return true
	}
	return false
}
