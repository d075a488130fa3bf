package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

var medicalRecordColumns = []interface{}{
	goqu.I("m.id"), goqu.I("m.patient_id"), goqu.I("m.doctor_id"),
	goqu.I("m.appointment_id"), goqu.I("m.diagnosis"), goqu.I("m.symptoms"),
	goqu.I("m.treatment_plan"), goqu.I("m.prescriptions"), goqu.I("m.procedures"),
	goqu.I("m.vitals"), goqu.I("m.follow_up_required"), goqu.I("m.follow_up_date"),
	goqu.I("m.notes"), goqu.I("m.visit_date"), goqu.I("m.created_at"),
	goqu.I("pu.full_name").As("patient_name"),
	goqu.I("du.full_name").As("doctor_name"),
}

// MedicalRecordAdapter implements the MedicalRecordRepository interface
type MedicalRecordAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicalRecordAdapter creates a new medical record adapter
func NewMedicalRecordAdapter(client *postgres.Client) repositories.MedicalRecordRepository {
	return &MedicalRecordAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *MedicalRecordAdapter) selectRecords() *goqu.SelectDataset {
	return a.db.Select(medicalRecordColumns...).
		From(goqu.T("medical_records").As("m")).
		Join(goqu.T("users").As("pu"), goqu.On(goqu.I("m.patient_id").Eq(goqu.I("pu.id")))).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("m.doctor_id").Eq(goqu.I("d.id")))).
		Join(goqu.T("users").As("du"), goqu.On(goqu.I("d.user_id").Eq(goqu.I("du.id"))))
}

func scanMedicalRecord(row rowScanner) (*entities.MedicalRecord, error) {
	record := &entities.MedicalRecord{}
	var appointmentID, procedures, notes sql.NullString
	var prescriptions, vitals []byte
	var followUpDate sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.PatientID,
		&record.DoctorID,
		&appointmentID,
		&record.Diagnosis,
		&record.Symptoms,
		&record.TreatmentPlan,
		&prescriptions,
		&procedures,
		&vitals,
		&record.FollowUpRequired,
		&followUpDate,
		&notes,
		&record.VisitDate,
		&record.CreatedAt,
		&record.PatientName,
		&record.DoctorName,
	)
	if err != nil {
		return nil, err
	}

	record.AppointmentID = appointmentID.String
	record.Procedures = procedures.String
	record.Notes = notes.String
	record.Prescriptions = prescriptions
	record.Vitals = vitals
	if followUpDate.Valid {
		t := followUpDate.Time
		record.FollowUpDate = &t
	}
	return record, nil
}

// Create creates a new medical record
func (a *MedicalRecordAdapter) Create(ctx context.Context, record *entities.MedicalRecord) error {
	appointmentID := sql.NullString{String: record.AppointmentID, Valid: record.AppointmentID != ""}
	row := goqu.Record{
		"id":                 record.ID,
		"patient_id":         record.PatientID,
		"doctor_id":          record.DoctorID,
		"appointment_id":     appointmentID,
		"diagnosis":          record.Diagnosis,
		"symptoms":           record.Symptoms,
		"treatment_plan":     record.TreatmentPlan,
		"prescriptions":      []byte(record.Prescriptions),
		"procedures":         record.Procedures,
		"vitals":             []byte(record.Vitals),
		"follow_up_required": record.FollowUpRequired,
		"follow_up_date":     record.FollowUpDate,
		"notes":              record.Notes,
		"visit_date":         record.VisitDate,
		"created_at":         record.CreatedAt,
	}

	query, args, err := a.db.Insert("medical_records").Rows(row).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create medical record", err)
	}

	return nil
}

// GetByID retrieves a medical record by ID, or nil when not found
func (a *MedicalRecordAdapter) GetByID(ctx context.Context, id string) (*entities.MedicalRecord, error) {
	query, args, err := a.selectRecords().
		Where(goqu.I("m.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record, err := scanMedicalRecord(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get medical record", err)
	}
	return record, nil
}

// ListByPatient retrieves a patient's records, newest first
func (a *MedicalRecordAdapter) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.MedicalRecord, error) {
	ds := a.selectRecords().
		Where(goqu.I("m.patient_id").Eq(patientID)).
		Order(goqu.I("m.visit_date").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.queryRecords(ctx, ds)
}

// ListByDoctor retrieves records written by a doctor, newest first
func (a *MedicalRecordAdapter) ListByDoctor(ctx context.Context, doctorID string, limit int) ([]*entities.MedicalRecord, error) {
	ds := a.selectRecords().
		Where(goqu.I("m.doctor_id").Eq(doctorID)).
		Order(goqu.I("m.visit_date").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.queryRecords(ctx, ds)
}

func (a *MedicalRecordAdapter) queryRecords(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.MedicalRecord, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medical records", err)
	}
	defer rows.Close()

	var records []*entities.MedicalRecord
	for rows.Next() {
		record, err := scanMedicalRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medical record", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
