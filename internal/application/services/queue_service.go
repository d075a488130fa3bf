package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/providers"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// QueueService owns the per-(doctor, date) queue aggregate and the change
// signals sent to live subscribers. Recompute is wholesale and idempotent;
// nothing else writes QueueStatus.
type QueueService struct {
	appointmentRepo repositories.AppointmentRepository
	queueRepo       repositories.QueueStatusRepository
	doctorRepo      repositories.DoctorRepository
	eventBus        providers.EventBus
}

// NewQueueService creates a new queue service
func NewQueueService(
	appointmentRepo repositories.AppointmentRepository,
	queueRepo repositories.QueueStatusRepository,
	doctorRepo repositories.DoctorRepository,
	eventBus providers.EventBus,
) *QueueService {
	return &QueueService{
		appointmentRepo: appointmentRepo,
		queueRepo:       queueRepo,
		doctorRepo:      doctorRepo,
		eventBus:        eventBus,
	}
}

// Recompute rescans the doctor's appointments for the date and rewrites
// the aggregate: total counts scheduled, confirmed, in-progress and
// completed tokens; current token is the in-progress appointment's, or
// empty.
func (s *QueueService) Recompute(ctx context.Context, doctorID string, date time.Time) (*entities.QueueStatus, error) {
	appointments, err := s.appointmentRepo.ListByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	status := &entities.QueueStatus{
		DoctorID: doctorID,
		Date:     date,
	}
	for _, appointment := range appointments {
		switch appointment.Status {
		case entities.AppointmentStatusCompleted:
			status.TotalTokens++
			status.CompletedTokens++
		case entities.AppointmentStatusInProgress:
			status.TotalTokens++
			status.CurrentToken = appointment.TokenNumber
		case entities.AppointmentStatusScheduled, entities.AppointmentStatusConfirmed:
			status.TotalTokens++
		}
	}

	if err := s.queueRepo.Upsert(ctx, status); err != nil {
		return nil, err
	}
	return status, nil
}

// Status returns the stored aggregate for (doctor, date). A missing row
// reads as an empty queue rather than an error.
func (s *QueueService) Status(ctx context.Context, doctorID string, date time.Time) (*entities.QueueStatus, error) {
	status, err := s.queueRepo.Get(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if status == nil {
		status = &entities.QueueStatus{DoctorID: doctorID, Date: date}
	}
	return status, nil
}

// Snapshot assembles the full queue state pushed to a subscriber on
// connect: the aggregate plus today's queued appointments ordered by queue
// position.
func (s *QueueService) Snapshot(ctx context.Context, doctorID string, date time.Time) (*entities.QueueSnapshot, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}

	status, err := s.Status(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	queued, err := s.appointmentRepo.ListByDoctorAndDate(ctx, doctorID, date, entities.ActiveStatuses...)
	if err != nil {
		return nil, err
	}

	snapshot := &entities.QueueSnapshot{
		DoctorID:        doctorID,
		DoctorName:      doctor.FullName,
		Date:            date.Format("2006-01-02"),
		CurrentToken:    status.CurrentToken,
		TotalTokens:     status.TotalTokens,
		CompletedTokens: status.CompletedTokens,
		Queue:           make([]entities.QueueEntry, 0, len(queued)),
	}
	for _, appointment := range queued {
		snapshot.Queue = append(snapshot.Queue, entities.QueueEntry{
			TokenNumber:   appointment.TokenNumber,
			PatientName:   appointment.PatientName,
			Status:        appointment.Status,
			QueuePosition: appointment.QueuePosition,
			EstimatedTime: appointment.EstimatedTime,
		})
	}
	return snapshot, nil
}

// NotifyQueueChanged publishes the payload-free invalidation signal to the
// doctor's queue room. Subscribers re-fetch the full snapshot; there is no
// delta protocol. Publish failures are logged, not surfaced: live updates
// are best effort.
func (s *QueueService) NotifyQueueChanged(ctx context.Context, doctorID string) {
	event := &entities.QueueEvent{
		ID:        uuid.New().String(),
		EventType: entities.QueueEventChanged,
		DoctorID:  doctorID,
		Message:   "Queue has been updated.",
		Timestamp: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, providers.DoctorQueueChannel(doctorID), event); err != nil {
		log.Warn().Err(err).Str("doctor_id", doctorID).Msg("failed to publish queue change")
	}
}

// NotifyPatient publishes an appointment-update signal to the patient's
// room.
func (s *QueueService) NotifyPatient(ctx context.Context, patientID, message string) {
	event := &entities.QueueEvent{
		ID:        uuid.New().String(),
		EventType: entities.QueueEventAppointment,
		PatientID: patientID,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, providers.PatientAppointmentChannel(patientID), event); err != nil {
		log.Warn().Err(err).Str("patient_id", patientID).Msg("failed to publish appointment update")
	}
}
