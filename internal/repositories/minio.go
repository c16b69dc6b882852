package repositories

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/log"
)

// MinioBlobStore keeps blobs in a MinIO bucket.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

func NewMinioBlobStore(bucket string, cfg config.MinioConfig) (*MinioBlobStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}

	// a fixed region keeps presigning offline, no bucket location lookup
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	log.Logger.Info("initialized minio blob store",
		zap.String("bucket", bucket), zap.String("endpoint", cfg.Endpoint))
	return &MinioBlobStore{client: client, bucket: bucket}, nil
}

func (s *MinioBlobStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	if _, err := s.client.PutObject(ctx, s.bucket, path, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return errors.Wrapf(err, "put object %q", path)
	}
	return nil
}

func (s *MinioBlobStore) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %q", path)
	}
	return nil
}

func (s *MinioBlobStore) SignURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, url.Values{})
	if err != nil {
		return "", errors.Wrapf(err, "presign get %q", path)
	}
	return u.String(), nil
}
