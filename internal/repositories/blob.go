package repositories

import (
	"context"
	"io"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/utils"
)

// BlobStore is the object storage holding transfer files, keyed by path.
type BlobStore interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	// Delete removes a blob, deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
	// SignURL mints a retrieval URL valid for ttl.
	SignURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// NewBlobStore builds the backend selected by cfg.Blob.Backend.
func NewBlobStore(cfg config.Config) (BlobStore, error) {
	switch cfg.Blob.Backend {
	case config.BlobBackendS3, config.BlobBackendR2:
		return NewS3BlobStore(cfg.Blob.Bucket, cfg.Blob.S3)
	case config.BlobBackendMinio:
		return NewMinioBlobStore(cfg.Blob.Bucket, cfg.Blob.Minio)
	case config.BlobBackendLocal:
		secret := cfg.Blob.Local.SigningSecret
		if secret == "" {
			// links do not survive a restart without a configured secret
			var err error
			if secret, err = utils.GenerateSecureToken(32); err != nil {
				return nil, errors.Wrap(err, "generate local signing secret")
			}
		}
		return NewLocalBlobStore(cfg.Blob.Local.Dir, []byte(secret), cfg.PublicBaseURL+"/api/v1/blobs")
	default:
		return nil, errors.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}
