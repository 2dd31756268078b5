package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageFS, cfg.Storage.Backend)
	assert.Equal(t, "/storage", cfg.Storage.URLPrefix)
	assert.Equal(t, int64(2*1024*1024), cfg.Upload.MaxImageSize)
	assert.Equal(t, "./migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, 5*time.Minute, cfg.Database.MaxLifetime)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "news")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("UPLOAD_MAX_IMAGE_SIZE", "1024")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageS3, cfg.Storage.Backend)
	assert.Equal(t, "news", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, int64(1024), cfg.Upload.MaxImageSize)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "localhost", Name: "news"},
			Storage:  StorageConfig{Backend: StorageMemory},
			Upload:   UploadConfig{MaxImageSize: 1},
			Auth:     AuthConfig{JWTSecret: "secret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }, "STORAGE_BACKEND"},
		{"fs without dir", func(c *Config) { c.Storage.Backend = StorageFS }, "STORAGE_DIR"},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = StorageS3 }, "S3_BUCKET"},
		{"zero upload size", func(c *Config) { c.Upload.MaxImageSize = 0 }, "UPLOAD_MAX_IMAGE_SIZE"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "AUTH_JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	c := &DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "news", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=news sslmode=disable", c.GetDSN())
}
