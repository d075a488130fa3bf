package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = pq.ErrorCode("23505")

// appointmentColumns is the select list shared by every read, including
// the joined patient and doctor display names.
var appointmentColumns = []interface{}{
	goqu.I("a.id"), goqu.I("a.patient_id"), goqu.I("a.doctor_id"),
	goqu.I("a.department_id"), goqu.I("a.appointment_date"), goqu.I("a.time_slot"),
	goqu.I("a.status"), goqu.I("a.token_number"), goqu.I("a.queue_position"),
	goqu.I("a.estimated_time"), goqu.I("a.reason"), goqu.I("a.booking_type"),
	goqu.I("a.is_for_self"), goqu.I("a.patient_relation"),
	goqu.I("a.consultation_started_at"), goqu.I("a.consultation_ended_at"),
	goqu.I("a.notes"), goqu.I("a.prescription"),
	goqu.I("a.created_at"), goqu.I("a.updated_at"),
	goqu.I("pu.full_name").As("patient_name"),
	goqu.I("du.full_name").As("doctor_name"),
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *AppointmentAdapter) selectAppointments() *goqu.SelectDataset {
	return a.db.Select(appointmentColumns...).
		From(goqu.T("appointments").As("a")).
		Join(goqu.T("users").As("pu"), goqu.On(goqu.I("a.patient_id").Eq(goqu.I("pu.id")))).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("a.doctor_id").Eq(goqu.I("d.id")))).
		Join(goqu.T("users").As("du"), goqu.On(goqu.I("d.user_id").Eq(goqu.I("du.id"))))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var estimatedTime, patientRelation, notes, prescription sql.NullString
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&appointment.DepartmentID,
		&appointment.Date,
		&appointment.TimeSlot,
		&appointment.Status,
		&appointment.TokenNumber,
		&appointment.QueuePosition,
		&estimatedTime,
		&appointment.Reason,
		&appointment.BookingType,
		&appointment.IsForSelf,
		&patientRelation,
		&startedAt,
		&endedAt,
		&notes,
		&prescription,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
		&appointment.PatientName,
		&appointment.DoctorName,
	)
	if err != nil {
		return nil, err
	}

	appointment.EstimatedTime = estimatedTime.String
	appointment.PatientRelation = patientRelation.String
	appointment.Notes = notes.String
	appointment.Prescription = prescription.String
	if startedAt.Valid {
		t := startedAt.Time
		appointment.ConsultationStartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		appointment.ConsultationEndedAt = &t
	}
	return appointment, nil
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":                      appointment.ID,
		"patient_id":              appointment.PatientID,
		"doctor_id":               appointment.DoctorID,
		"department_id":           appointment.DepartmentID,
		"appointment_date":        appointment.Date.Format(dateLayout),
		"time_slot":               appointment.TimeSlot,
		"status":                  appointment.Status,
		"token_number":            appointment.TokenNumber,
		"queue_position":          appointment.QueuePosition,
		"estimated_time":          appointment.EstimatedTime,
		"reason":                  appointment.Reason,
		"booking_type":            appointment.BookingType,
		"is_for_self":             appointment.IsForSelf,
		"patient_relation":        appointment.PatientRelation,
		"consultation_started_at": appointment.ConsultationStartedAt,
		"consultation_ended_at":   appointment.ConsultationEndedAt,
		"notes":                   appointment.Notes,
		"prescription":            appointment.Prescription,
		"created_at":              appointment.CreatedAt,
		"updated_at":              appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		// The unique index on token_number is the storage-level guard
		// against two bookings racing to the same token. Surface it as a
		// conflict so the client can retry instead of seeing a 500.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewConflictError("token number already assigned, please retry")
		}
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.selectAppointments().
		Where(goqu.I("a.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// Update updates an appointment
func (a *AppointmentAdapter) Update(ctx context.Context, appointment *entities.Appointment) error {
	appointment.UpdatedAt = time.Now()

	record := goqu.Record{
		"appointment_date":        appointment.Date.Format(dateLayout),
		"time_slot":               appointment.TimeSlot,
		"status":                  appointment.Status,
		"estimated_time":          appointment.EstimatedTime,
		"reason":                  appointment.Reason,
		"consultation_started_at": appointment.ConsultationStartedAt,
		"consultation_ended_at":   appointment.ConsultationEndedAt,
		"notes":                   appointment.Notes,
		"prescription":            appointment.Prescription,
		"updated_at":              appointment.UpdatedAt,
	}

	query, args, err := a.db.Update("appointments").
		Set(record).
		Where(goqu.Ex{"id": appointment.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", appointment.ID))
	}

	return nil
}

// ListByPatient retrieves appointments for a patient, newest first
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.selectAppointments().
		Where(goqu.I("a.patient_id").Eq(patientID))

	if filter.Status != "" {
		ds = ds.Where(goqu.I("a.status").Eq(filter.Status))
	}
	if filter.From != nil {
		ds = ds.Where(goqu.I("a.appointment_date").Gte(filter.From.Format(dateLayout)))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.I("a.appointment_date").Lte(filter.To.Format(dateLayout)))
	}

	ds = ds.Order(goqu.I("a.appointment_date").Desc(), goqu.I("a.time_slot").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.queryAppointments(ctx, ds)
}

// ListByDoctorAndDate retrieves a doctor's appointments on a date ordered
// by queue position
func (a *AppointmentAdapter) ListByDoctorAndDate(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) ([]*entities.Appointment, error) {
	ds := a.selectAppointments().
		Where(
			goqu.I("a.doctor_id").Eq(doctorID),
			goqu.I("a.appointment_date").Eq(date.Format(dateLayout)),
		)
	if len(statuses) > 0 {
		ds = ds.Where(goqu.I("a.status").In(statusValues(statuses)))
	}
	ds = ds.Order(goqu.I("a.queue_position").Asc())

	return a.queryAppointments(ctx, ds)
}

// CountByDepartmentAndDate counts all appointments ever created for a
// department on a date, regardless of status
func (a *AppointmentAdapter) CountByDepartmentAndDate(ctx context.Context, departmentID string, date time.Time) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("appointments").
		Where(
			goqu.C("department_id").Eq(departmentID),
			goqu.C("appointment_date").Eq(date.Format(dateLayout)),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count appointments", err)
	}
	return count, nil
}

// FindBySlot returns the first appointment occupying the exact
// (doctor, date, time slot) with a status in statuses, or nil when free
func (a *AppointmentAdapter) FindBySlot(ctx context.Context, doctorID string, date time.Time, timeSlot string, excludeID string, statuses ...entities.AppointmentStatus) (*entities.Appointment, error) {
	ds := a.selectAppointments().
		Where(
			goqu.I("a.doctor_id").Eq(doctorID),
			goqu.I("a.appointment_date").Eq(date.Format(dateLayout)),
			goqu.I("a.time_slot").Eq(timeSlot),
		)
	if excludeID != "" {
		ds = ds.Where(goqu.I("a.id").Neq(excludeID))
	}
	if len(statuses) > 0 {
		ds = ds.Where(goqu.I("a.status").In(statusValues(statuses)))
	}
	ds = ds.Limit(1)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build slot query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find slot appointment", err)
	}
	return appointment, nil
}

// ListBookedSlots returns the time slots occupied on a doctor's date by
// appointments in statuses
func (a *AppointmentAdapter) ListBookedSlots(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) ([]string, error) {
	ds := a.db.Select("time_slot").
		From("appointments").
		Where(
			goqu.C("doctor_id").Eq(doctorID),
			goqu.C("appointment_date").Eq(date.Format(dateLayout)),
		)
	if len(statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(statusValues(statuses)))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build booked slots query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list booked slots", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, apperrors.NewInternalError("failed to scan booked slot", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// CountByDoctorDateAndStatus counts a doctor's appointments on a date with
// a status in statuses
func (a *AppointmentAdapter) CountByDoctorDateAndStatus(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) (int, error) {
	ds := a.db.Select(goqu.COUNT("*")).
		From("appointments").
		Where(
			goqu.C("doctor_id").Eq(doctorID),
			goqu.C("appointment_date").Eq(date.Format(dateLayout)),
		)
	if len(statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(statusValues(statuses)))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count appointments", err)
	}
	return count, nil
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Appointment, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func statusValues(statuses []entities.AppointmentStatus) []string {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}
