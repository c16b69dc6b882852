package transfer

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rohits-web03/transferly/internal/models"
	"github.com/rohits-web03/transferly/internal/repositories"
)

const (
	maxNameBytes    = 255
	maxMessageBytes = 4096

	defaultMimeType = "application/octet-stream"
	// rollbackTimeout bounds the cleanup of staged blobs after a failed creation.
	rollbackTimeout = 30 * time.Second
)

// CreateTransfer validates the request against the sender's tier, stores every
// blob, then commits the transfer and its file rows in one transaction. On any
// failure the staged blobs are deleted and no row is left behind.
func (m *Manager) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*CreateTransferResult, error) {
	tierName, err := m.validateCreate(req)
	if err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(req.Password, m.settings.PasswordCost)
	if err != nil {
		if _, ok := AsError(err); ok {
			return nil, err
		}
		return nil, errors.Wrap(err, "create transfer")
	}

	now := m.clock()
	transfer := &models.Transfer{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(req.Name),
		ExpiresAt:     now.Add(time.Duration(req.ExpiryDays) * 24 * time.Hour),
		PasswordHash:  passwordHash,
		DownloadCount: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if transfer.Name == "" {
		transfer.Name = fmt.Sprintf("Transfer %s", now.Format(time.DateOnly))
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		transfer.Message = &msg
	}

	files := make([]*models.File, 0, len(req.Files))
	for _, upload := range req.Files {
		files = append(files, &models.File{
			ID:          uuid.New(),
			TransferID:  transfer.ID,
			Name:        upload.Name,
			Size:        upload.Size,
			MimeType:    mimeTypeOf(upload),
			StoragePath: models.StoragePath(transfer.ID, upload.Name),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	logger := m.logger.With(zap.String("transfer_id", transfer.ID.String()))

	staged, err := m.stageBlobs(ctx, files, req.Files)
	if err != nil {
		m.rollbackBlobs(ctx, staged)
		logger.Warn("stage transfer blobs", zap.Error(err))
		return nil, err
	}

	// the transfer row precedes its files, both become visible together on commit
	err = m.repo.Transaction(ctx, func(tx repositories.TransferRepository) error {
		if err := tx.InsertTransfer(ctx, transfer); err != nil {
			return err
		}
		for _, f := range files {
			if err := tx.InsertFile(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.rollbackBlobs(ctx, staged)
		logger.Error("commit transfer", zap.Error(err))
		return nil, ioError("failed to save transfer", err)
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	logger.Info("transfer created",
		zap.String("tier", tierName),
		zap.Int("files", len(files)),
		zap.Int64("total_size", total),
		zap.Time("expires_at", transfer.ExpiresAt),
		zap.Bool("password", passwordHash != nil))

	return &CreateTransferResult{
		ID:        transfer.ID.String(),
		Name:      transfer.Name,
		ExpiresAt: transfer.ExpiresAt,
		FileCount: len(files),
		TotalSize: total,
	}, nil
}

// validateCreate checks the request before any side effect and returns the applied tier name.
func (m *Manager) validateCreate(req CreateTransferRequest) (string, error) {
	if len(req.Files) == 0 {
		return "", validationError("no files selected")
	}

	tierName := req.Tier
	if tierName == "" {
		tierName = m.settings.DefaultTier
	}
	tier, ok := m.settings.Tiers[tierName]
	if !ok {
		return "", validationError("unknown tier %q", tierName)
	}

	if !slices.Contains(m.settings.ExpiryDays, req.ExpiryDays) {
		return "", validationError("expiry must be one of %v days", m.settings.ExpiryDays)
	}
	if len(strings.TrimSpace(req.Name)) > maxNameBytes {
		return "", validationError("transfer name must be at most %d bytes", maxNameBytes)
	}
	if len(strings.TrimSpace(req.Message)) > maxMessageBytes {
		return "", validationError("message must be at most %d bytes", maxMessageBytes)
	}
	if len(req.Password) > maxPasswordBytes {
		return "", validationError("password must be at most %d bytes", maxPasswordBytes)
	}

	seen := make(map[string]struct{}, len(req.Files))
	var total int64
	for _, f := range req.Files {
		if err := validateFileName(f.Name); err != nil {
			return "", err
		}
		if _, dup := seen[f.Name]; dup {
			return "", validationError("duplicate file name %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Size < 0 {
			return "", validationError("file %q has a negative size", f.Name)
		}
		if f.Content == nil {
			return "", validationError("file %q has no content", f.Name)
		}
		if f.Size > tier.MaxTotalSizeBytes-total {
			return "", quotaError("total size exceeds the %s tier limit of %d bytes", tierName, tier.MaxTotalSizeBytes)
		}
		total += f.Size
	}

	if req.ExpiryDays > tier.MaxExpiryDays {
		return "", quotaError("the %s tier allows transfers to live at most %d days", tierName, tier.MaxExpiryDays)
	}

	return tierName, nil
}

// validateFileName keeps {transferId}/{name} a single, well-formed storage key.
func validateFileName(name string) error {
	switch {
	case name == "":
		return validationError("file name is required")
	case len(name) > maxNameBytes:
		return validationError("file name %q is longer than %d bytes", name, maxNameBytes)
	case !utf8.ValidString(name):
		return validationError("file name is not valid UTF-8")
	case name == "." || name == "..":
		return validationError("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return validationError("file name %q must not contain path separators", name)
	case strings.ContainsFunc(name, unicode.IsControl):
		return validationError("file name %q contains control characters", name)
	}
	return nil
}

func mimeTypeOf(upload FileUpload) string {
	if upload.MimeType != "" {
		return upload.MimeType
	}
	if byExt := mime.TypeByExtension(filepath.Ext(upload.Name)); byExt != "" {
		return byExt
	}
	return defaultMimeType
}

// stageBlobs uploads every file concurrently and returns every path a write was
// attempted on, including failed ones, so the caller can compensate.
func (m *Manager) stageBlobs(ctx context.Context, files []*models.File, uploads []FileUpload) ([]string, error) {
	var (
		mu        sync.Mutex
		attempted []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.UploadConcurrency)
	for i := range files {
		file, upload := files[i], uploads[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return ioError("transfer creation aborted", err)
			}

			mu.Lock()
			attempted = append(attempted, file.StoragePath)
			mu.Unlock()

			opCtx, cancel := m.blobContext(gctx)
			defer cancel()
			if err := m.blobs.Put(opCtx, file.StoragePath, upload.Content, file.Size, file.MimeType); err != nil {
				return putError(file, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return attempted, err
}

func putError(file *models.File, err error) error {
	switch {
	case errors.Is(err, repositories.ErrSizeMismatch):
		return validationError("file %q does not match its declared size of %d bytes", file.Name, file.Size)
	case errors.Is(err, context.DeadlineExceeded):
		return ioError(fmt.Sprintf("timed out storing file %q", file.Name), err)
	default:
		return ioError(fmt.Sprintf("failed to store file %q", file.Name), err)
	}
}

// rollbackBlobs deletes staged blobs with a context detached from the
// caller's, which may already be cancelled.
func (m *Manager) rollbackBlobs(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	for _, path := range paths {
		if err := m.blobs.Delete(cleanupCtx, path); err != nil {
			m.logger.Error("orphaned blob after failed transfer creation",
				zap.String("path", path), zap.Error(err))
		}
	}
}
