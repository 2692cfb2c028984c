package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/rentals/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays values from environment variables. A dotenv file given
// with -env is loaded first; otherwise ./.env is loaded when present.
// Variables already set in the process environment take precedence over the
// file.
func parseEnv(config *Config, args []string) error {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if v, ok := os.LookupEnv("PORT"); ok {
		config.EndpointAddrHTTP = ":" + v
	}
	lookupString("HTTP_ADDR", &config.EndpointAddrHTTP)
	lookupString("STORAGE_BACKEND", &config.StorageBackend)
	lookupString("DATABASE_URL", &config.DatabaseDSN)
	lookupString("MONGO_URL", &config.MongoURI)
	lookupString("MONGO_DB", &config.MongoDatabase)
	lookupString("JWT_SECRET", &config.SecretKey)
	lookupString("PHOTO_BACKEND", &config.PhotoBackend)
	lookupString("UPLOAD_DIR", &config.UploadDir)
	lookupString("S3_ROOT_USER", &config.S3RootUser)
	lookupString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	lookupString("S3_BUCKET", &config.S3Bucket)
	lookupString("S3_REGION", &config.S3Region)
	lookupString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	lookupString("LOG_BACKEND", &config.LogBackend)

	if err := lookupDuration("TOKEN_VALIDITY", &config.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := lookupDuration("REQUEST_TIMEOUT", &config.RequestTimeout); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("AUTH_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
		}
		config.AuthRateLimit = f
	}
	if v, ok := os.LookupEnv("AUTH_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_BURST: %w", err)
		}
		config.AuthRateBurst = n
	}
	if v, ok := os.LookupEnv("REQUIRE_AUTH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REQUIRE_AUTH: %w", err)
		}
		config.RequireAuth = b
	}

	return nil
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func lookupDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
