package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

var familyMemberColumns = []interface{}{
	"id", "user_id", "full_name", "age", "gender", "national_id",
	"relation", "created_at",
}

// FamilyMemberAdapter implements the FamilyMemberRepository interface
type FamilyMemberAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFamilyMemberAdapter creates a new family member adapter
func NewFamilyMemberAdapter(client *postgres.Client) repositories.FamilyMemberRepository {
	return &FamilyMemberAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanFamilyMember(row rowScanner) (*entities.FamilyMember, error) {
	member := &entities.FamilyMember{}
	var nationalID sql.NullString

	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.FullName,
		&member.Age,
		&member.Gender,
		&nationalID,
		&member.Relation,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	member.NationalID = nationalID.String
	return member, nil
}

// Create creates a new family member
func (a *FamilyMemberAdapter) Create(ctx context.Context, member *entities.FamilyMember) error {
	record := goqu.Record{
		"id":          member.ID,
		"user_id":     member.UserID,
		"full_name":   member.FullName,
		"age":         member.Age,
		"gender":      member.Gender,
		"national_id": member.NationalID,
		"relation":    member.Relation,
		"created_at":  member.CreatedAt,
	}

	query, args, err := a.db.Insert("family_members").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create family member", err)
	}

	return nil
}

// GetByID retrieves a family member by ID, or nil when not found
func (a *FamilyMemberAdapter) GetByID(ctx context.Context, id string) (*entities.FamilyMember, error) {
	query, args, err := a.db.Select(familyMemberColumns...).
		From("family_members").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	member, err := scanFamilyMember(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get family member", err)
	}
	return member, nil
}

// ListByUser retrieves all family members of a patient
func (a *FamilyMemberAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.FamilyMember, error) {
	query, args, err := a.db.Select(familyMemberColumns...).
		From("family_members").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list family members", err)
	}
	defer rows.Close()

	var members []*entities.FamilyMember
	for rows.Next() {
		member, err := scanFamilyMember(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan family member", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// Delete removes a family member
func (a *FamilyMemberAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("family_members").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete family member", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("family member with id %s not found", id))
	}

	return nil
}
