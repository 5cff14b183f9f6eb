package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures an object storage uploader.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL overrides the base of returned URLs, e.g. a CDN in front
	// of the bucket. Defaults to the endpoint URL plus the bucket.
	PublicURL string
}

// MinioUploader stores files in an S3-compatible bucket.
type MinioUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioUploader connects to the endpoint and creates the bucket if it
// does not exist.
func NewMinioUploader(ctx context.Context, cfg MinioConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	base := cfg.PublicURL
	if base == "" {
		base = client.EndpointURL().String() + "/" + cfg.Bucket
	}
	return &MinioUploader{client: client, bucket: cfg.Bucket, baseURL: strings.TrimSuffix(base, "/")}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// Size -1 streams the body as a multipart upload.
	if _, err := u.client.PutObject(ctx, u.bucket, name, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	return u.baseURL + "/" + name, nil
}

// BaseURL is the prefix of every URL Upload returns.
func (u *MinioUploader) BaseURL() string { return u.baseURL }
