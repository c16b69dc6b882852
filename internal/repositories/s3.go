package repositories

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/log"
)

// S3BlobStore keeps blobs in an S3 compatible bucket (AWS S3, Cloudflare R2).
type S3BlobStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3BlobStore initializes the client using static credentials. When cfg.Endpoint
// is empty and cfg.AccountID is set, the R2 endpoint of that account is used.
func NewS3BlobStore(bucket string, cfg config.S3Config) (*S3BlobStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	log.Logger.Info("initialized s3 blob store",
		zap.String("bucket", bucket), zap.String("endpoint", endpoint))

	return &S3BlobStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}, nil
}

func (s *S3BlobStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "put object %q", path)
	}
	return nil
}

func (s *S3BlobStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return errors.Wrapf(err, "delete object %q", path)
	}
	return nil
}

// SignURL creates a presigned GET URL for downloading a blob.
func (s *S3BlobStore) SignURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.Wrapf(err, "presign get %q", path)
	}
	return req.URL, nil
}
