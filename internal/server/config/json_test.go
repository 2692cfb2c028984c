package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"endpoint_addr_http":             ":8080",
		"storage_backend":                "memory",
		"database_dsn":                   "postgres://x",
		"mongo_uri":                      "mongodb://y",
		"mongo_database":                 "db",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1h",
		"photo_backend":                  "s3",
		"upload_dir":                     "/srv/uploads",
		"s3_root_user":                   "user",
		"s3_root_password":               "password",
		"s3_bucket":                      "bucket",
		"s3_region":                      "region",
		"s3_base_endpoint":               "base_endpoint",
		"log_backend":                    "zap",
		"auth_rate_limit":                2.5,
		"auth_rate_burst":                4,
		"request_timeout":                "10s",
		"require_auth":                   true,
	})

	t.Run("loads every field", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-config", full}))

		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, "memory", cfg.StorageBackend)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "mongodb://y", cfg.MongoURI)
		assert.Equal(t, "db", cfg.MongoDatabase)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "s3", cfg.PhotoBackend)
		assert.Equal(t, "/srv/uploads", cfg.UploadDir)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "zap", cfg.LogBackend)
		assert.Equal(t, 2.5, cfg.AuthRateLimit)
		assert.Equal(t, 4, cfg.AuthRateBurst)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.True(t, cfg.RequireAuth)
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "s"})

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-c", partial}))

		assert.Equal(t, "s", cfg.SecretKey)
		assert.Equal(t, ":3001", cfg.EndpointAddrHTTP)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SecretKey: "key"}
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})
}
