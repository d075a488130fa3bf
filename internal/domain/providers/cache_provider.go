package providers

import (
	"context"
)

// CacheProvider is the byte-level cache behind the department cache
// adapter and the HTTP response cache middleware. Get reports a miss as
// an error; callers treat any Get failure as a miss and fall through to
// the database.
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}
