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

var availabilityColumns = []interface{}{
	"id", "doctor_id", "day_of_week", "start_time", "end_time",
	"max_appointments", "is_available", "created_at", "updated_at",
}

// AvailabilityAdapter implements the AvailabilityRepository interface
type AvailabilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAvailabilityAdapter creates a new availability adapter
func NewAvailabilityAdapter(client *postgres.Client) repositories.AvailabilityRepository {
	return &AvailabilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanAvailability(row rowScanner) (*entities.DoctorAvailability, error) {
	availability := &entities.DoctorAvailability{}
	err := row.Scan(
		&availability.ID,
		&availability.DoctorID,
		&availability.DayOfWeek,
		&availability.StartTime,
		&availability.EndTime,
		&availability.MaxAppointments,
		&availability.IsAvailable,
		&availability.CreatedAt,
		&availability.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return availability, nil
}

// Upsert creates the window for (doctor, weekday) or replaces the existing
// one; the unique index on (doctor_id, day_of_week) backs the conflict
// clause
func (a *AvailabilityAdapter) Upsert(ctx context.Context, availability *entities.DoctorAvailability) error {
	record := goqu.Record{
		"id":               availability.ID,
		"doctor_id":        availability.DoctorID,
		"day_of_week":      availability.DayOfWeek,
		"start_time":       availability.StartTime,
		"end_time":         availability.EndTime,
		"max_appointments": availability.MaxAppointments,
		"is_available":     availability.IsAvailable,
		"created_at":       availability.CreatedAt,
		"updated_at":       availability.UpdatedAt,
	}

	query, args, err := a.db.Insert("doctor_availability").
		Rows(record).
		OnConflict(goqu.DoUpdate("doctor_id, day_of_week", goqu.Record{
			"start_time":       availability.StartTime,
			"end_time":         availability.EndTime,
			"max_appointments": availability.MaxAppointments,
			"is_available":     availability.IsAvailable,
			"updated_at":       availability.UpdatedAt,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert availability", err)
	}

	return nil
}

// GetByDoctorAndDay retrieves the active window for a doctor's weekday, or
// nil when none is configured
func (a *AvailabilityAdapter) GetByDoctorAndDay(ctx context.Context, doctorID string, day entities.Weekday) (*entities.DoctorAvailability, error) {
	query, args, err := a.db.Select(availabilityColumns...).
		From("doctor_availability").
		Where(goqu.Ex{
			"doctor_id":    doctorID,
			"day_of_week":  day,
			"is_available": true,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	availability, err := scanAvailability(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get availability", err)
	}
	return availability, nil
}

// ListByDoctor retrieves all of a doctor's windows
func (a *AvailabilityAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.DoctorAvailability, error) {
	query, args, err := a.db.Select(availabilityColumns...).
		From("doctor_availability").
		Where(goqu.Ex{"doctor_id": doctorID}).
		Order(goqu.I("day_of_week").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list availability", err)
	}
	defer rows.Close()

	var windows []*entities.DoctorAvailability
	for rows.Next() {
		availability, err := scanAvailability(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan availability", err)
		}
		windows = append(windows, availability)
	}
	return windows, rows.Err()
}
