package repositories

import (
	"context"
	"time"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// QueueStatusRepository defines the interface for the materialized
// per-(doctor, date) queue aggregate
type QueueStatusRepository interface {
	// Get retrieves the aggregate for (doctor, date), or nil when none
	// exists yet
	Get(ctx context.Context, doctorID string, date time.Time) (*entities.QueueStatus, error)

	// Upsert writes the aggregate, creating the (doctor, date) row on
	// first use
	Upsert(ctx context.Context, status *entities.QueueStatus) error

	// ListByDate retrieves all doctors' aggregates for a date
	ListByDate(ctx context.Context, date time.Time) ([]*entities.QueueStatus, error)
}

// MedicalRecordRepository defines the interface for consultation records
type MedicalRecordRepository interface {
	// Create creates a new medical record
	Create(ctx context.Context, record *entities.MedicalRecord) error

	// GetByID retrieves a medical record by ID
	GetByID(ctx context.Context, id string) (*entities.MedicalRecord, error)

	// ListByPatient retrieves a patient's records, newest first
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.MedicalRecord, error)

	// ListByDoctor retrieves records written by a doctor, newest first
	ListByDoctor(ctx context.Context, doctorID string, limit int) ([]*entities.MedicalRecord, error)
}
