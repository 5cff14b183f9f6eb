// Package upload stores files attached to image and file fields and
// returns the URL they are served from.
package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Uploader stores a file and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskUploader writes files below Dir. URLs are BaseURL joined with the
// stored name; the API serves Dir at /files/.
type DiskUploader struct {
	Dir     string
	BaseURL string
}

// NewDiskUploader creates the directory if needed.
func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if baseURL == "" {
		baseURL = "/files"
	}
	return &DiskUploader{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (u *DiskUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(u.Dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	_, err = io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return u.BaseURL + "/" + name, nil
}

// objectName keeps the original extension behind a random name so
// uploads never overwrite each other or escape the target directory.
func objectName(filename string) (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("random name: %w", err)
	}
	ext := strings.ToLower(path.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return hex.EncodeToString(b[:]) + ext, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
