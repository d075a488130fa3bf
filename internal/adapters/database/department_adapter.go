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

var departmentColumns = []interface{}{
	"id", "name", "code", "description", "icon", "is_active",
	"created_at", "updated_at",
}

// DepartmentAdapter implements the DepartmentRepository interface
type DepartmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDepartmentAdapter creates a new department adapter
func NewDepartmentAdapter(client *postgres.Client) repositories.DepartmentRepository {
	return &DepartmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanDepartment(row rowScanner) (*entities.Department, error) {
	department := &entities.Department{}
	var description, icon sql.NullString

	err := row.Scan(
		&department.ID,
		&department.Name,
		&department.Code,
		&description,
		&icon,
		&department.IsActive,
		&department.CreatedAt,
		&department.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	department.Description = description.String
	department.Icon = icon.String
	return department, nil
}

// Create creates a new department
func (a *DepartmentAdapter) Create(ctx context.Context, department *entities.Department) error {
	record := goqu.Record{
		"id":          department.ID,
		"name":        department.Name,
		"code":        department.Code,
		"description": department.Description,
		"icon":        department.Icon,
		"is_active":   department.IsActive,
		"created_at":  department.CreatedAt,
		"updated_at":  department.UpdatedAt,
	}

	query, args, err := a.db.Insert("departments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create department", err)
	}

	return nil
}

// GetByID retrieves a department by ID, or nil when not found
func (a *DepartmentAdapter) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	query, args, err := a.db.Select(departmentColumns...).
		From("departments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	department, err := scanDepartment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get department", err)
	}
	return department, nil
}

// GetByCode retrieves a department by its token-prefix code, or nil when
// not found
func (a *DepartmentAdapter) GetByCode(ctx context.Context, code string) (*entities.Department, error) {
	query, args, err := a.db.Select(departmentColumns...).
		From("departments").
		Where(goqu.Ex{"code": code}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	department, err := scanDepartment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get department", err)
	}
	return department, nil
}

// ListActive retrieves active departments ordered by name, with doctor
// counts populated from a left join
func (a *DepartmentAdapter) ListActive(ctx context.Context) ([]*entities.Department, error) {
	query, args, err := a.db.Select(
		goqu.I("dep.id"), goqu.I("dep.name"), goqu.I("dep.code"),
		goqu.I("dep.description"), goqu.I("dep.icon"), goqu.I("dep.is_active"),
		goqu.I("dep.created_at"), goqu.I("dep.updated_at"),
		goqu.COUNT(goqu.I("d.id")).As("doctor_count"),
	).
		From(goqu.T("departments").As("dep")).
		LeftJoin(goqu.T("doctors").As("d"), goqu.On(
			goqu.I("d.department_id").Eq(goqu.I("dep.id")),
			goqu.I("d.is_verified").IsTrue(),
			goqu.I("d.is_available").IsTrue(),
		)).
		Where(goqu.I("dep.is_active").IsTrue()).
		GroupBy(
			goqu.I("dep.id"), goqu.I("dep.name"), goqu.I("dep.code"),
			goqu.I("dep.description"), goqu.I("dep.icon"), goqu.I("dep.is_active"),
			goqu.I("dep.created_at"), goqu.I("dep.updated_at"),
		).
		Order(goqu.I("dep.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list departments", err)
	}
	defer rows.Close()

	var departments []*entities.Department
	for rows.Next() {
		department := &entities.Department{}
		var description, icon sql.NullString

		err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Code,
			&description,
			&icon,
			&department.IsActive,
			&department.CreatedAt,
			&department.UpdatedAt,
			&department.DoctorCount,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan department", err)
		}

		department.Description = description.String
		department.Icon = icon.String
		departments = append(departments, department)
	}
	return departments, rows.Err()
}
