package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// QueueStatusAdapter implements the QueueStatusRepository interface
type QueueStatusAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQueueStatusAdapter creates a new queue status adapter
func NewQueueStatusAdapter(client *postgres.Client) repositories.QueueStatusRepository {
	return &QueueStatusAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanQueueStatus(row rowScanner) (*entities.QueueStatus, error) {
	status := &entities.QueueStatus{}
	var currentToken sql.NullString
	var avgMinutes sql.NullFloat64

	err := row.Scan(
		&status.ID,
		&status.DoctorID,
		&status.Date,
		&currentToken,
		&status.TotalTokens,
		&status.CompletedTokens,
		&avgMinutes,
		&status.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	status.CurrentToken = currentToken.String
	status.AvgMinutesPerPatient = avgMinutes.Float64
	return status, nil
}

// Get retrieves the aggregate for (doctor, date), or nil when none exists
func (a *QueueStatusAdapter) Get(ctx context.Context, doctorID string, date time.Time) (*entities.QueueStatus, error) {
	query, args, err := a.db.Select(
		"id", "doctor_id", "appointment_date", "current_token",
		"total_tokens", "completed_tokens", "average_time_per_patient",
		"last_updated",
	).
		From("queue_status").
		Where(goqu.Ex{
			"doctor_id":        doctorID,
			"appointment_date": date.Format(dateLayout),
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	status, err := scanQueueStatus(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get queue status", err)
	}
	return status, nil
}

// Upsert writes the aggregate; the unique index on
// (doctor_id, appointment_date) backs the conflict clause
func (a *QueueStatusAdapter) Upsert(ctx context.Context, status *entities.QueueStatus) error {
	if status.ID == "" {
		status.ID = uuid.New().String()
	}
	status.LastUpdated = time.Now()

	record := goqu.Record{
		"id":                       status.ID,
		"doctor_id":                status.DoctorID,
		"appointment_date":         status.Date.Format(dateLayout),
		"current_token":            status.CurrentToken,
		"total_tokens":             status.TotalTokens,
		"completed_tokens":         status.CompletedTokens,
		"average_time_per_patient": status.AvgMinutesPerPatient,
		"last_updated":             status.LastUpdated,
	}

	query, args, err := a.db.Insert("queue_status").
		Rows(record).
		OnConflict(goqu.DoUpdate("doctor_id, appointment_date", goqu.Record{
			"current_token":            status.CurrentToken,
			"total_tokens":             status.TotalTokens,
			"completed_tokens":         status.CompletedTokens,
			"average_time_per_patient": status.AvgMinutesPerPatient,
			"last_updated":             status.LastUpdated,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert queue status", err)
	}

	return nil
}

// ListByDate retrieves all doctors' aggregates for a date with doctor
// names joined in
func (a *QueueStatusAdapter) ListByDate(ctx context.Context, date time.Time) ([]*entities.QueueStatus, error) {
	query, args, err := a.db.Select(
		goqu.I("q.id"), goqu.I("q.doctor_id"), goqu.I("q.appointment_date"),
		goqu.I("q.current_token"), goqu.I("q.total_tokens"),
		goqu.I("q.completed_tokens"), goqu.I("q.average_time_per_patient"),
		goqu.I("q.last_updated"), goqu.I("u.full_name").As("doctor_name"),
	).
		From(goqu.T("queue_status").As("q")).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("q.doctor_id").Eq(goqu.I("d.id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("d.user_id").Eq(goqu.I("u.id")))).
		Where(goqu.I("q.appointment_date").Eq(date.Format(dateLayout))).
		Order(goqu.I("u.full_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list queue statuses", err)
	}
	defer rows.Close()

	var statuses []*entities.QueueStatus
	for rows.Next() {
		status := &entities.QueueStatus{}
		var currentToken sql.NullString
		var avgMinutes sql.NullFloat64

		err := rows.Scan(
			&status.ID,
			&status.DoctorID,
			&status.Date,
			&currentToken,
			&status.TotalTokens,
			&status.CompletedTokens,
			&avgMinutes,
			&status.LastUpdated,
			&status.DoctorName,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan queue status", err)
		}

		status.CurrentToken = currentToken.String
		status.AvgMinutesPerPatient = avgMinutes.Float64
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}
