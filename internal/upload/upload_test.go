package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUploader(t *testing.T) {
	dir := t.TempDir()
	u, err := NewDiskUploader(filepath.Join(dir, "uploads"), "/files/")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "../../Photo.PNG", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/files/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := strings.TrimPrefix(url, "/files/")
	assert.NotContains(t, name, "/")
	b, err := os.ReadFile(filepath.Join(dir, "uploads", name))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(b))

	other, err := u.Upload(context.Background(), "Photo.PNG", strings.NewReader("again"))
	require.NoError(t, err)
	assert.NotEqual(t, url, other)
}

func TestDiskUploader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	u, err := NewDiskUploader(dir, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = u.Upload(ctx, "a.txt", strings.NewReader("data"))
	assert.True(t, errors.Is(err, context.Canceled))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestObjectName(t *testing.T) {
	name, err := objectName("report.final.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.Len(t, name, 24+4)

	name, err = objectName("noext")
	require.NoError(t, err)
	assert.Len(t, name, 24)
}

func TestMinioUploader(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	ctx := context.Background()
	u, err := NewMinioUploader(ctx, MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "console-test",
	})
	require.NoError(t, err)

	url, err := u.Upload(ctx, "hello.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Contains(t, url, "/console-test/")
}
