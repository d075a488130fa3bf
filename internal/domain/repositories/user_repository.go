package repositories

import (
	"context"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// UserRepository defines the interface for user account operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error

	// List retrieves users, newest first
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
}

// UserFilter defines filters for listing users
type UserFilter struct {
	Role   entities.Role
	Limit  int
	Offset int
}

// FamilyMemberRepository defines the interface for patients' family members
type FamilyMemberRepository interface {
	// Create creates a new family member
	Create(ctx context.Context, member *entities.FamilyMember) error

	// GetByID retrieves a family member by ID
	GetByID(ctx context.Context, id string) (*entities.FamilyMember, error)

	// ListByUser retrieves all family members of a patient
	ListByUser(ctx context.Context, userID string) ([]*entities.FamilyMember, error)

	// Delete removes a family member
	Delete(ctx context.Context, id string) error
}
