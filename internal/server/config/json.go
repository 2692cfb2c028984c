package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/rentals/internal/flagx"
	"github.com/dmitrijs2005/rentals/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file. Durations
// accept both "15m" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	StorageBackend              string         `json:"storage_backend"`
	DatabaseDSN                 string         `json:"database_dsn"`
	MongoURI                    string         `json:"mongo_uri"`
	MongoDatabase               string         `json:"mongo_database"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	PhotoBackend                string         `json:"photo_backend"`
	UploadDir                   string         `json:"upload_dir"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	LogBackend                  string         `json:"log_backend"`
	AuthRateLimit               float64        `json:"auth_rate_limit"`
	AuthRateBurst               int            `json:"auth_rate_burst"`
	RequestTimeout              timex.Duration `json:"request_timeout"`
	RequireAuth                 bool           `json:"require_auth"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file keep their current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.StorageBackend = c.StorageBackend
	config.DatabaseDSN = c.DatabaseDSN
	config.MongoURI = c.MongoURI
	config.MongoDatabase = c.MongoDatabase
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.PhotoBackend = c.PhotoBackend
	config.UploadDir = c.UploadDir
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.LogBackend = c.LogBackend
	config.AuthRateLimit = c.AuthRateLimit
	config.AuthRateBurst = c.AuthRateBurst
	config.RequestTimeout = c.RequestTimeout.Duration
	config.RequireAuth = c.RequireAuth

	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		StorageBackend:              c.StorageBackend,
		DatabaseDSN:                 c.DatabaseDSN,
		MongoURI:                    c.MongoURI,
		MongoDatabase:               c.MongoDatabase,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		PhotoBackend:                c.PhotoBackend,
		UploadDir:                   c.UploadDir,
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		LogBackend:                  c.LogBackend,
		AuthRateLimit:               c.AuthRateLimit,
		AuthRateBurst:               c.AuthRateBurst,
		RequestTimeout:              timex.Duration{Duration: c.RequestTimeout},
		RequireAuth:                 c.RequireAuth,
	}
}
