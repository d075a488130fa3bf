package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// doctorColumns joins the linked user account for contact details and the
// department for its display name.
var doctorColumns = []interface{}{
	goqu.I("d.id"), goqu.I("d.user_id"), goqu.I("d.specialty"),
	goqu.I("d.department_id"), goqu.I("d.qualification"), goqu.I("d.experience"),
	goqu.I("d.license_number"), goqu.I("d.consultation_fee"), goqu.I("d.rating"),
	goqu.I("d.bio"), goqu.I("d.is_available"), goqu.I("d.is_verified"),
	goqu.I("d.current_token"), goqu.I("d.queue_status"),
	goqu.I("d.average_time_per_patient"), goqu.I("d.registered_by"),
	goqu.I("d.created_at"), goqu.I("d.updated_at"),
	goqu.I("u.full_name"), goqu.I("u.email"), goqu.I("u.phone"),
	goqu.I("dep.name").As("department_name"),
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *DoctorAdapter) selectDoctors() *goqu.SelectDataset {
	return a.db.Select(doctorColumns...).
		From(goqu.T("doctors").As("d")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("d.user_id").Eq(goqu.I("u.id")))).
		Join(goqu.T("departments").As("dep"), goqu.On(goqu.I("d.department_id").Eq(goqu.I("dep.id"))))
}

func scanDoctor(row rowScanner) (*entities.Doctor, error) {
	doctor := &entities.Doctor{}
	var bio, currentToken, registeredBy sql.NullString
	var avgMinutes sql.NullFloat64

	err := row.Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.Specialty,
		&doctor.DepartmentID,
		&doctor.Qualification,
		&doctor.Experience,
		&doctor.LicenseNumber,
		&doctor.ConsultationFee,
		&doctor.Rating,
		&bio,
		&doctor.IsAvailable,
		&doctor.IsVerified,
		&currentToken,
		&doctor.QueueState,
		&avgMinutes,
		&registeredBy,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
		&doctor.FullName,
		&doctor.Email,
		&doctor.Phone,
		&doctor.DepartmentName,
	)
	if err != nil {
		return nil, err
	}

	doctor.Bio = bio.String
	doctor.CurrentToken = currentToken.String
	doctor.AvgMinutesPerPatient = avgMinutes.Float64
	doctor.RegisteredBy = registeredBy.String
	return doctor, nil
}

// Create creates a new doctor profile
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	record := goqu.Record{
		"id":                       doctor.ID,
		"user_id":                  doctor.UserID,
		"specialty":                doctor.Specialty,
		"department_id":            doctor.DepartmentID,
		"qualification":            doctor.Qualification,
		"experience":               doctor.Experience,
		"license_number":           doctor.LicenseNumber,
		"consultation_fee":         doctor.ConsultationFee,
		"rating":                   doctor.Rating,
		"bio":                      doctor.Bio,
		"is_available":             doctor.IsAvailable,
		"is_verified":              doctor.IsVerified,
		"current_token":            doctor.CurrentToken,
		"queue_status":             doctor.QueueState,
		"average_time_per_patient": doctor.AvgMinutesPerPatient,
		"registered_by":            doctor.RegisteredBy,
		"created_at":               doctor.CreatedAt,
		"updated_at":               doctor.UpdatedAt,
	}

	query, args, err := a.db.Insert("doctors").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}

	return nil
}

// GetByID retrieves a doctor by ID, or nil when not found
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.selectDoctors().
		Where(goqu.I("d.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor, err := scanDoctor(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// GetByUserID retrieves a doctor profile by its linked user account, or
// nil when not found
func (a *DoctorAdapter) GetByUserID(ctx context.Context, userID string) (*entities.Doctor, error) {
	query, args, err := a.selectDoctors().
		Where(goqu.I("d.user_id").Eq(userID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor, err := scanDoctor(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// Update updates a doctor profile
func (a *DoctorAdapter) Update(ctx context.Context, doctor *entities.Doctor) error {
	doctor.UpdatedAt = time.Now()

	record := goqu.Record{
		"specialty":                doctor.Specialty,
		"department_id":            doctor.DepartmentID,
		"qualification":            doctor.Qualification,
		"experience":               doctor.Experience,
		"license_number":           doctor.LicenseNumber,
		"consultation_fee":         doctor.ConsultationFee,
		"rating":                   doctor.Rating,
		"bio":                      doctor.Bio,
		"is_available":             doctor.IsAvailable,
		"is_verified":              doctor.IsVerified,
		"current_token":            doctor.CurrentToken,
		"queue_status":             doctor.QueueState,
		"average_time_per_patient": doctor.AvgMinutesPerPatient,
		"updated_at":               doctor.UpdatedAt,
	}

	query, args, err := a.db.Update("doctors").
		Set(record).
		Where(goqu.Ex{"id": doctor.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update doctor", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", doctor.ID))
	}

	return nil
}

// List retrieves doctors matching the filter, best rated first
func (a *DoctorAdapter) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	ds := a.selectDoctors()

	if filter.DepartmentID != "" {
		ds = ds.Where(goqu.I("d.department_id").Eq(filter.DepartmentID))
	}
	if filter.Specialty != "" {
		ds = ds.Where(goqu.I("d.specialty").Eq(filter.Specialty))
	}
	if filter.VerifiedOnly {
		ds = ds.Where(
			goqu.I("d.is_verified").IsTrue(),
			goqu.I("d.is_available").IsTrue(),
		)
	}
	if filter.PendingVerification {
		ds = ds.Where(goqu.I("d.is_verified").IsFalse())
	}

	ds = ds.Order(goqu.I("d.rating").Desc(), goqu.I("u.full_name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	var doctors []*entities.Doctor
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doctor)
	}
	return doctors, rows.Err()
}
