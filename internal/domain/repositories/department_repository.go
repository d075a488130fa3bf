package repositories

import (
	"context"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// DepartmentRepository defines the interface for department reference data
type DepartmentRepository interface {
	// Create creates a new department
	Create(ctx context.Context, department *entities.Department) error

	// GetByID retrieves a department by ID
	GetByID(ctx context.Context, id string) (*entities.Department, error)

	// GetByCode retrieves a department by its token-prefix code
	GetByCode(ctx context.Context, code string) (*entities.Department, error)

	// ListActive retrieves active departments ordered by name, with doctor
	// counts populated
	ListActive(ctx context.Context) ([]*entities.Department, error)
}
