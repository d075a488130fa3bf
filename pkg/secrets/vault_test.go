package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVaultSecretsDisabled(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, result.Enabled)
	assert.Zero(t, result.Loaded)
}

func TestApplyVaultSecretsIncompleteConfig(t *testing.T) {
	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true})
	assert.Error(t, err)
}

func TestApplyVaultSecretsKVv2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/arogya-hms/api", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data": map[string]interface{}{
					"JWT_SECRET":  "from-vault",
					"DB_PASSWORD": "from-vault-db",
				},
			},
		})
	}))
	defer server.Close()

	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "already-set")

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "test-token",
		Mount:     "secret",
		Path:      "arogya-hms/api",
		KVVersion: 2,
		Timeout:   2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "from-vault", mustEnv(t, "JWT_SECRET"))
	assert.Equal(t, "already-set", mustEnv(t, "DB_PASSWORD"))
}

func TestApplyVaultSecretsOverwrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data": map[string]interface{}{"REDIS_PASSWORD": "rotated"},
			},
		})
	}))
	defer server.Close()

	t.Setenv("REDIS_PASSWORD", "stale")

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "test-token",
		Mount:     "secret",
		Path:      "arogya-hms/api",
		KVVersion: 2,
		Timeout:   2 * time.Second,
		Overwrite: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, "rotated", mustEnv(t, "REDIS_PASSWORD"))
}

func TestApplyVaultSecretsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "bad-token",
		Mount:     "secret",
		Path:      "arogya-hms/api",
		KVVersion: 2,
		Timeout:   2 * time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault fetch failed")
}

func TestKVReadURL(t *testing.T) {
	url, err := kvReadURL("http://vault:8200/", "secret", "/arogya-hms/api", 2)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/data/arogya-hms/api", url)

	url, err = kvReadURL("http://vault:8200", "kv", "arogya-hms/api", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/kv/arogya-hms/api", url)

	_, err = kvReadURL("", "secret", "path", 2)
	assert.Error(t, err)
}

func mustEnv(t *testing.T, key string) string {
	t.Helper()
	value, ok := os.LookupEnv(key)
	require.True(t, ok, "expected %s to be set", key)
	return value
}
