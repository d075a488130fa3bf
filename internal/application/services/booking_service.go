package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// BookingRequest is the input for booking an appointment.
type BookingRequest struct {
	PatientID       string
	DoctorID        string
	Date            string
	TimeSlot        string
	Reason          string
	BookingType     entities.BookingType
	IsForSelf       bool
	PatientRelation string
}

// BookingService validates and creates appointments, assigning each its
// token number and queue position. The slot-conflict check and the
// department sequence are read-then-decide over the store: two concurrent
// requests can both pass, which mirrors the upstream contract. The
// token_number unique index is the only storage-level guard.
type BookingService struct {
	appointmentRepo  repositories.AppointmentRepository
	doctorRepo       repositories.DoctorRepository
	departmentRepo   repositories.DepartmentRepository
	availabilityRepo repositories.AvailabilityRepository
	queueService     *QueueService
}

// NewBookingService creates a new booking service
func NewBookingService(
	appointmentRepo repositories.AppointmentRepository,
	doctorRepo repositories.DoctorRepository,
	departmentRepo repositories.DepartmentRepository,
	availabilityRepo repositories.AvailabilityRepository,
	queueService *QueueService,
) *BookingService {
	return &BookingService{
		appointmentRepo:  appointmentRepo,
		doctorRepo:       doctorRepo,
		departmentRepo:   departmentRepo,
		availabilityRepo: availabilityRepo,
		queueService:     queueService,
	}
}

// Book validates the requested slot, persists the appointment with its
// token and queue position, refreshes the queue aggregate and signals live
// subscribers.
func (s *BookingService) Book(ctx context.Context, principal auth.Principal, req *BookingRequest) (*entities.Appointment, error) {
	if !principal.CanBookAppointment(req.PatientID) {
		return nil, apperrors.NewForbiddenError("not allowed to book for this patient")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := parseClock(req.TimeSlot); err != nil {
		return nil, apperrors.NewValidationError("invalid time slot, use HH:MM")
	}
	if req.Reason == "" {
		return nil, apperrors.NewValidationError("reason is required")
	}
	if !req.IsForSelf && req.PatientRelation == "" {
		return nil, apperrors.NewValidationError("patient relation is required for proxy bookings")
	}

	doctor, err := s.doctorRepo.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}

	if err := s.validateSlot(ctx, doctor.ID, date, req.TimeSlot, ""); err != nil {
		return nil, err
	}

	department, err := s.departmentRepo.GetByID(ctx, doctor.DepartmentID)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, apperrors.NewNotFoundError("department not found")
	}

	tokenNumber, position, err := s.assignToken(ctx, department, date)
	if err != nil {
		return nil, err
	}

	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = entities.BookingTypeDoctor
	}

	now := time.Now()
	appointment := &entities.Appointment{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		DoctorID:        doctor.ID,
		DepartmentID:    department.ID,
		Date:            date,
		TimeSlot:        req.TimeSlot,
		Status:          entities.AppointmentStatusScheduled,
		TokenNumber:     tokenNumber,
		QueuePosition:   position,
		Reason:          req.Reason,
		BookingType:     bookingType,
		IsForSelf:       req.IsForSelf,
		PatientRelation: req.PatientRelation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	if _, err := s.queueService.Recompute(ctx, doctor.ID, date); err != nil {
		return nil, err
	}
	s.queueService.NotifyQueueChanged(ctx, doctor.ID)
	s.queueService.NotifyPatient(ctx, appointment.PatientID, "Appointment booked: "+tokenNumber)

	return appointment, nil
}

// Cancel cancels an appointment. Cancellation is a status transition, not
// a removal, and later queue positions are not renumbered.
func (s *BookingService) Cancel(ctx context.Context, principal auth.Principal, appointmentID string) error {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	if !principal.CanCancelAppointment(appointment) {
		return apperrors.NewForbiddenError("not allowed to cancel this appointment")
	}
	if !appointment.Status.CanTransitionTo(entities.AppointmentStatusCancelled) {
		return apperrors.NewValidationError(
			fmt.Sprintf("cannot cancel an appointment in status %q", appointment.Status))
	}

	appointment.Status = entities.AppointmentStatusCancelled
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return err
	}

	if _, err := s.queueService.Recompute(ctx, appointment.DoctorID, appointment.Date); err != nil {
		return err
	}
	s.queueService.NotifyQueueChanged(ctx, appointment.DoctorID)
	s.queueService.NotifyPatient(ctx, appointment.PatientID, "Appointment cancelled: "+appointment.TokenNumber)

	return nil
}

// Reschedule moves an appointment to a new slot after re-running the same
// validation as booking, excluding the appointment itself from the
// conflict check. The token number and queue position stay as originally
// assigned; a cross-date move refreshes the queue aggregate for both days
// so neither serves a stale view.
func (s *BookingService) Reschedule(ctx context.Context, principal auth.Principal, appointmentID, newDate, newSlot string) (*entities.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !principal.CanRescheduleAppointment(appointment) {
		return nil, apperrors.NewForbiddenError("not allowed to reschedule this appointment")
	}
	if appointment.Status.IsTerminal() || appointment.Status == entities.AppointmentStatusInProgress {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("cannot reschedule an appointment in status %q", appointment.Status))
	}

	date, err := parseDate(newDate)
	if err != nil {
		return nil, err
	}
	if _, err := parseClock(newSlot); err != nil {
		return nil, apperrors.NewValidationError("invalid time slot, use HH:MM")
	}

	if err := s.validateSlot(ctx, appointment.DoctorID, date, newSlot, appointment.ID); err != nil {
		return nil, err
	}

	oldDate := appointment.Date
	appointment.Date = date
	appointment.TimeSlot = newSlot
	appointment.Status = entities.AppointmentStatusScheduled
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	if _, err := s.queueService.Recompute(ctx, appointment.DoctorID, date); err != nil {
		return nil, err
	}
	if !oldDate.Equal(date) {
		if _, err := s.queueService.Recompute(ctx, appointment.DoctorID, oldDate); err != nil {
			return nil, err
		}
	}
	s.queueService.NotifyQueueChanged(ctx, appointment.DoctorID)
	s.queueService.NotifyPatient(ctx, appointment.PatientID, "Appointment rescheduled: "+appointment.TokenNumber)

	return appointment, nil
}

// validateSlot enforces one patient per slot and, when a window is
// configured for the weekday, working hours. Without a configured window
// any time is accepted; the 09:00-17:00 default applies to slot listing
// only.
func (s *BookingService) validateSlot(ctx context.Context, doctorID string, date time.Time, timeSlot, excludeID string) error {
	existing, err := s.appointmentRepo.FindBySlot(ctx, doctorID, date, timeSlot, excludeID, entities.ActiveStatuses...)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.NewConflictError(
			fmt.Sprintf("time slot %s is already booked, please select a different time", timeSlot))
	}

	availability, err := s.availabilityRepo.GetByDoctorAndDay(ctx, doctorID, entities.WeekdayOf(date))
	if err != nil {
		return err
	}
	if availability == nil {
		return nil
	}

	slot, err := parseClock(timeSlot)
	if err != nil {
		return apperrors.NewValidationError("invalid time slot, use HH:MM")
	}
	start, err := parseClock(availability.StartTime)
	if err != nil {
		return apperrors.NewInternalError("invalid availability start time", err)
	}
	end, err := parseClock(availability.EndTime)
	if err != nil {
		return apperrors.NewInternalError("invalid availability end time", err)
	}
	if end == 0 {
		end = 23*60 + 59
	}

	if slot < start || slot > end {
		return apperrors.NewValidationError(fmt.Sprintf(
			"selected time is outside the doctor's available hours (%s - %s)",
			availability.StartTime, availability.EndTime))
	}
	return nil
}

// assignToken issues the next token for (department, date):
// "{code}-{YYYYMMDD}-{seq:04d}" with seq one past the department's
// appointment count for the day. The count doubles as the queue position.
func (s *BookingService) assignToken(ctx context.Context, department *entities.Department, date time.Time) (string, int, error) {
	count, err := s.appointmentRepo.CountByDepartmentAndDate(ctx, department.ID, date)
	if err != nil {
		return "", 0, err
	}
	seq := count + 1
	token := fmt.Sprintf("%s-%s-%04d", department.Code, date.Format("20060102"), seq)
	return token, seq, nil
}
