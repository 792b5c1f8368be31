package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// MinioStorage keeps attachments in an S3-compatible bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
	useSSL bool
	now    func() time.Time
}

// MinioOptions configures the bucket connection.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStorage connects and ensures the bucket exists.
func NewMinioStorage(ctx context.Context, opts MinioOptions, clock func() time.Time) (*MinioStorage, error) {
	if clock == nil {
		clock = time.Now
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, apperrors.NewBackendError("blob.connect", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, apperrors.NewBackendError("blob.bucket", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.NewBackendError("blob.bucket", err)
		}
	}

	return &MinioStorage{client: client, bucket: opts.Bucket, useSSL: opts.UseSSL, now: clock}, nil
}

// Save streams the upload into the bucket.
func (s *MinioStorage) Save(ctx context.Context, filename string, size int64, contentType string, r io.Reader) (domain.Attachment, error) {
	object := fmt.Sprintf("%d_%s", s.now().UnixMilli(), sanitizeFilename(filename))

	info, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.Attachment{}, apperrors.NewBackendError("blob.put", err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return domain.Attachment{
		Name: filename,
		Size: info.Size,
		URL:  fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, object),
	}, nil
}
