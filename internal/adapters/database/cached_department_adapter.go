package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/providers"
	"github.com/arogya-hms/backend/internal/domain/repositories"
)

// Cache TTLs (in seconds). Departments are near-static reference data.
const (
	departmentByIDTTL = 1800
	departmentListTTL = 1800
)

const departmentListCacheKey = "departments:active"

func departmentCacheKey(id string) string {
	return fmt.Sprintf("department:%s", id)
}

// CachedDepartmentAdapter wraps DepartmentAdapter with caching
type CachedDepartmentAdapter struct {
	adapter repositories.DepartmentRepository
	cache   providers.CacheProvider
}

// NewCachedDepartmentAdapter creates a new cached department adapter
func NewCachedDepartmentAdapter(adapter repositories.DepartmentRepository, cache providers.CacheProvider) repositories.DepartmentRepository {
	return &CachedDepartmentAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Create creates a department and invalidates the list cache
func (a *CachedDepartmentAdapter) Create(ctx context.Context, department *entities.Department) error {
	if err := a.adapter.Create(ctx, department); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, departmentListCacheKey); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate department list cache")
		}
	}()

	return nil
}

// GetByID retrieves a department by ID with caching
func (a *CachedDepartmentAdapter) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	cacheKey := departmentCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var department entities.Department
		if err := json.Unmarshal(cached, &department); err == nil {
			return &department, nil
		}
		log.Warn().Err(err).Str("department_id", id).Msg("failed to unmarshal cached department")
	}

	department, err := a.adapter.GetByID(ctx, id)
	if err != nil || department == nil {
		return department, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(department); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, departmentByIDTTL); err != nil {
				log.Warn().Err(err).Str("department_id", id).Msg("failed to cache department")
			}
		}
	}()

	return department, nil
}

// GetByCode retrieves a department by code. Code lookups are rare; they go
// straight to the database.
func (a *CachedDepartmentAdapter) GetByCode(ctx context.Context, code string) (*entities.Department, error) {
	return a.adapter.GetByCode(ctx, code)
}

// ListActive retrieves active departments with caching
func (a *CachedDepartmentAdapter) ListActive(ctx context.Context) ([]*entities.Department, error) {
	if cached, err := a.cache.Get(ctx, departmentListCacheKey); err == nil {
		var departments []*entities.Department
		if err := json.Unmarshal(cached, &departments); err == nil {
			return departments, nil
		}
		log.Warn().Err(err).Msg("failed to unmarshal cached department list")
	}

	departments, err := a.adapter.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(departments); err == nil {
			if err := a.cache.Set(bgCtx, departmentListCacheKey, data, departmentListTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache department list")
			}
		}
	}()

	return departments, nil
}
