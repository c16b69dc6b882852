package repositories

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSizeMismatch is returned when a blob body does not hold the declared number of bytes.
	ErrSizeMismatch = errors.New("blob size mismatch")
	// ErrInvalidBlobPath is returned for paths escaping the store directory.
	ErrInvalidBlobPath = errors.New("invalid blob path")
	// ErrInvalidBlobToken is returned for forged, malformed or expired download tokens.
	ErrInvalidBlobToken = errors.New("invalid blob token")
)

// LocalBlobStore keeps blobs on the local disk. Signed URLs point back to the
// gateway and carry an HS256 token naming the blob and its expiry.
type LocalBlobStore struct {
	dir     string
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewLocalBlobStore creates dir if missing. baseURL is the public prefix the
// token is appended to, e.g. https://host/api/v1/blobs.
func NewLocalBlobStore(dir string, secret []byte, baseURL string) (*LocalBlobStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create blob dir %q", dir)
	}
	return &LocalBlobStore{
		dir:     dir,
		secret:  secret,
		baseURL: baseURL,
		now:     time.Now,
	}, nil
}

func (s *LocalBlobStore) resolve(path string) (string, error) {
	local := filepath.FromSlash(path)
	if path == "" || !filepath.IsLocal(local) {
		return "", errors.Wrapf(ErrInvalidBlobPath, "%q", path)
	}
	return filepath.Join(s.dir, local), nil
}

// Put writes into a temporary file first, so a failed write never leaves a partial blob at path.
func (s *LocalBlobStore) Put(ctx context.Context, path string, body io.Reader, size int64, _ string) error {
	dst, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.Wrap(err, "create blob parent dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp blob")
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: body})
	if err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write blob %q", path)
	}
	if written != size {
		_ = tmp.Close()
		return errors.Wrapf(ErrSizeMismatch, "%q: declared %d bytes, got %d", path, size, written)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync blob")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close blob")
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return errors.Wrapf(err, "commit blob %q", path)
	}
	return nil
}

func (s *LocalBlobStore) Delete(_ context.Context, path string) error {
	dst, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err = os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete blob %q", path)
	}
	// drop the per-transfer directory once it is empty
	if parent := filepath.Dir(dst); parent != filepath.Clean(s.dir) {
		_ = os.Remove(parent)
	}
	return nil
}

func (s *LocalBlobStore) SignURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.resolve(path); err != nil {
		return "", err
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   path,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign blob token")
	}
	return s.baseURL + "/" + url.PathEscape(signed), nil
}

// Verify checks a token minted by SignURL and returns the blob path it grants.
func (s *LocalBlobStore) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidBlobToken, "%v", err)
	}
	if _, err = s.resolve(claims.Subject); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Open returns the blob at path, the caller closes it.
func (s *LocalBlobStore) Open(path string) (*os.File, error) {
	dst, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(dst)
	if err != nil {
		return nil, errors.Wrapf(err, "open blob %q", path)
	}
	return f, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
