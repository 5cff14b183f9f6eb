package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONSOLE_CONFIG", "PORT", "DATA_DIR", "DATABASE_PATH", "CONSOLE_APP",
		"UPLOAD_BACKEND", "PREFERENCE_BACKEND", "API_URL",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
		"MINIO_REGION", "MINIO_PUBLIC_URL", "MINIO_SSL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_PREFIX", "REDIS_DB",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/tmp/console-data")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "/tmp/console-data/console.db", cfg.DatabasePath)
	assert.Equal(t, "/tmp/console-data/files", cfg.FilesDir())
	assert.Equal(t, "default", cfg.App)
	assert.Equal(t, UploadDisk, cfg.UploadBackend)
	assert.Equal(t, PreferenceSettings, cfg.PreferenceBackend)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
data_dir: /srv/console
upload_backend: minio
minio:
  endpoint: localhost:9000
  bucket: uploads
  use_ssl: true
`), 0o644))
	t.Setenv("CONSOLE_CONFIG", path)
	t.Setenv("PORT", "9100")
	t.Setenv("MINIO_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "/srv/console", cfg.DataDir)
	assert.Equal(t, UploadMinio, cfg.UploadBackend)
	assert.Equal(t, "uploads", cfg.Minio.Bucket)
	assert.False(t, cfg.Minio.UseSSL)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("PREFERENCE_BACKEND")
	require.NoError(t, os.WriteFile(".env", []byte("PREFERENCE_BACKEND=redis\nREDIS_ADDR=localhost:6379\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("PREFERENCE_BACKEND")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PreferenceRedis, cfg.PreferenceBackend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "console:", cfg.Redis.Prefix)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown upload backend", map[string]string{"UPLOAD_BACKEND": "s3"}},
		{"minio without bucket", map[string]string{"UPLOAD_BACKEND": "minio", "MINIO_ENDPOINT": "x:9000"}},
		{"redis without addr", map[string]string{"PREFERENCE_BACKEND": "redis"}},
		{"unknown preference backend", map[string]string{"PREFERENCE_BACKEND": "etcd"}},
		{"bad redis db", map[string]string{"REDIS_DB": "one"}},
		{"missing config file", map[string]string{"CONSOLE_CONFIG": "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
