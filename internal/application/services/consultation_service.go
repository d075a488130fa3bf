package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// MedicalRecordInput is the optional clinical record captured when a
// consultation ends.
type MedicalRecordInput struct {
	Diagnosis        string          `json:"diagnosis"`
	Symptoms         string          `json:"symptoms"`
	TreatmentPlan    string          `json:"treatment_plan"`
	Prescriptions    json.RawMessage `json:"prescriptions,omitempty"`
	Procedures       string          `json:"procedures,omitempty"`
	Vitals           json.RawMessage `json:"vitals,omitempty"`
	FollowUpRequired bool            `json:"follow_up_required"`
	FollowUpDate     *time.Time      `json:"follow_up_date,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// EndConsultationInput carries the consultation outcome.
type EndConsultationInput struct {
	Prescription  string              `json:"prescription"`
	Notes         string              `json:"notes"`
	MedicalRecord *MedicalRecordInput `json:"medical_record,omitempty"`
}

// ConsultationService drives the appointment status machine and the
// doctor-side queue effects of running consultations.
type ConsultationService struct {
	appointmentRepo repositories.AppointmentRepository
	doctorRepo      repositories.DoctorRepository
	recordRepo      repositories.MedicalRecordRepository
	queueService    *QueueService
}

// NewConsultationService creates a new consultation service
func NewConsultationService(
	appointmentRepo repositories.AppointmentRepository,
	doctorRepo repositories.DoctorRepository,
	recordRepo repositories.MedicalRecordRepository,
	queueService *QueueService,
) *ConsultationService {
	return &ConsultationService{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		recordRepo:      recordRepo,
		queueService:    queueService,
	}
}

// Start moves an appointment to in_progress, points the doctor's current
// token at it and marks the doctor busy.
func (s *ConsultationService) Start(ctx context.Context, principal auth.Principal, appointmentID string) (*entities.Appointment, error) {
	appointment, doctor, err := s.loadOwned(ctx, principal, appointmentID)
	if err != nil {
		return nil, err
	}

	if !appointment.Status.CanTransitionTo(entities.AppointmentStatusInProgress) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("cannot start a consultation from status %q", appointment.Status))
	}

	now := time.Now()
	appointment.Status = entities.AppointmentStatusInProgress
	appointment.ConsultationStartedAt = &now
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	doctor.CurrentToken = appointment.TokenNumber
	doctor.QueueState = entities.DoctorQueueBusy
	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, err
	}

	if _, err := s.queueService.Recompute(ctx, doctor.ID, appointment.Date); err != nil {
		return nil, err
	}
	s.queueService.NotifyQueueChanged(ctx, doctor.ID)
	s.queueService.NotifyPatient(ctx, appointment.PatientID, "Consultation started: "+appointment.TokenNumber)

	return appointment, nil
}

// End completes an appointment, stores the outcome and refreshes the
// queue. When no other consultation is running the doctor's current token
// is cleared and the doctor returns to available.
//
// A medical record supplied with the input is created best effort: its
// failure is logged and swallowed so the completed consultation stands.
// This asymmetry is deliberate and mirrors the upstream behavior.
func (s *ConsultationService) End(ctx context.Context, principal auth.Principal, appointmentID string, input EndConsultationInput) (*entities.Appointment, error) {
	appointment, doctor, err := s.loadOwned(ctx, principal, appointmentID)
	if err != nil {
		return nil, err
	}

	if !appointment.Status.CanTransitionTo(entities.AppointmentStatusCompleted) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("cannot complete a consultation from status %q", appointment.Status))
	}

	now := time.Now()
	appointment.Status = entities.AppointmentStatusCompleted
	appointment.ConsultationEndedAt = &now
	appointment.Prescription = input.Prescription
	appointment.Notes = input.Notes
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	if input.MedicalRecord != nil {
		record := &entities.MedicalRecord{
			ID:               uuid.New().String(),
			PatientID:        appointment.PatientID,
			DoctorID:         doctor.ID,
			AppointmentID:    appointment.ID,
			Diagnosis:        input.MedicalRecord.Diagnosis,
			Symptoms:         input.MedicalRecord.Symptoms,
			TreatmentPlan:    input.MedicalRecord.TreatmentPlan,
			Prescriptions:    input.MedicalRecord.Prescriptions,
			Procedures:       input.MedicalRecord.Procedures,
			Vitals:           input.MedicalRecord.Vitals,
			FollowUpRequired: input.MedicalRecord.FollowUpRequired,
			FollowUpDate:     input.MedicalRecord.FollowUpDate,
			Notes:            input.MedicalRecord.Notes,
			VisitDate:        now,
			CreatedAt:        now,
		}
		if err := s.recordRepo.Create(ctx, record); err != nil {
			log.Warn().Err(err).Str("appointment_id", appointment.ID).
				Msg("failed to create medical record, consultation completion stands")
		}
	}

	inProgress, err := s.appointmentRepo.CountByDoctorDateAndStatus(
		ctx, doctor.ID, appointment.Date, entities.AppointmentStatusInProgress)
	if err != nil {
		return nil, err
	}
	if inProgress == 0 {
		doctor.CurrentToken = ""
		doctor.QueueState = entities.DoctorQueueAvailable
		if err := s.doctorRepo.Update(ctx, doctor); err != nil {
			return nil, err
		}
	}

	if _, err := s.queueService.Recompute(ctx, doctor.ID, appointment.Date); err != nil {
		return nil, err
	}
	s.queueService.NotifyQueueChanged(ctx, doctor.ID)
	s.queueService.NotifyPatient(ctx, appointment.PatientID, "Consultation completed: "+appointment.TokenNumber)

	return appointment, nil
}

// UpdateStatus applies a doctor-driven status transition outside the
// consultation flow, e.g. confirming a scheduled appointment or marking a
// no-show. The status machine gates every move.
func (s *ConsultationService) UpdateStatus(ctx context.Context, principal auth.Principal, appointmentID string, next entities.AppointmentStatus) (*entities.Appointment, error) {
	switch next {
	case entities.AppointmentStatusConfirmed, entities.AppointmentStatusNoShow:
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("status %q cannot be set directly", next))
	}

	appointment, doctor, err := s.loadOwned(ctx, principal, appointmentID)
	if err != nil {
		return nil, err
	}

	if !appointment.Status.CanTransitionTo(next) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("cannot transition from %q to %q", appointment.Status, next))
	}

	appointment.Status = next
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	if _, err := s.queueService.Recompute(ctx, doctor.ID, appointment.Date); err != nil {
		return nil, err
	}
	s.queueService.NotifyQueueChanged(ctx, doctor.ID)

	return appointment, nil
}

// loadOwned fetches the appointment and its doctor and checks that the
// principal is the doctor running the consultation.
func (s *ConsultationService) loadOwned(ctx context.Context, principal auth.Principal, appointmentID string) (*entities.Appointment, *entities.Doctor, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}

	doctor, err := s.doctorRepo.GetByID(ctx, appointment.DoctorID)
	if err != nil {
		return nil, nil, err
	}
	if doctor == nil {
		return nil, nil, apperrors.NewNotFoundError("doctor not found")
	}

	if !principal.CanRecordConsultation(doctor.UserID) {
		return nil, nil, apperrors.NewForbiddenError("not authorized for this appointment")
	}
	return appointment, doctor, nil
}
