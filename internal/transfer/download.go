package transfer

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"github.com/rohits-web03/transferly/internal/models"
	"github.com/rohits-web03/transferly/internal/repositories"
)

// IssueDownload gates access and mints signed URLs. Checks run in order and the
// first failure wins: the transfer exists, it is not expired now, the password
// matches, and the requested file belongs to the transfer.
//
// With a FileID one URL is minted and any signing failure fails the call. Without
// one, every file is signed and per-file failures are skipped; the call only fails
// when no file could be signed. Either way a successful call counts as exactly one
// download.
func (m *Manager) IssueDownload(ctx context.Context, req IssueDownloadRequest) (*DownloadResult, error) {
	transfer, err := m.loadTransfer(ctx, req.TransferID)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	if transfer.IsExpired(now) {
		return nil, expiredError()
	}
	if err = authorize(transfer, req.Password); err != nil {
		return nil, err
	}

	logger := m.logger.With(zap.String("transfer_id", transfer.ID.String()))
	result := &DownloadResult{}

	if req.FileID != "" {
		file := findFile(transfer, req.FileID)
		if file == nil {
			return nil, notFoundError("file not found")
		}
		link, err := m.signFile(ctx, file, now)
		if err != nil {
			logger.Error("sign download url", zap.String("file_id", req.FileID), zap.Error(err))
			return nil, ioError("failed to create download link", err)
		}
		result.Links = []DownloadLink{link}
	} else {
		result.Links = make([]DownloadLink, 0, len(transfer.Files))
		for i := range transfer.Files {
			link, err := m.signFile(ctx, &transfer.Files[i], now)
			if err != nil {
				result.Skipped++
				logger.Warn("skip file in download all",
					zap.String("file_id", transfer.Files[i].ID.String()), zap.Error(err))
				continue
			}
			result.Links = append(result.Links, link)
		}
		if len(result.Links) == 0 {
			return nil, ioError("failed to create download links", nil)
		}
	}

	count, err := m.repo.IncrementDownloadCount(ctx, transfer.ID, 1)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundError("transfer not found")
	}
	if err != nil {
		logger.Error("count download", zap.Error(err))
		return nil, ioError("failed to record download", err)
	}
	result.DownloadCount = count

	logger.Debug("download issued",
		zap.Int("links", len(result.Links)),
		zap.Int("skipped", result.Skipped),
		zap.Int64("download_count", count))
	return result, nil
}

func findFile(transfer *models.Transfer, fileID string) *models.File {
	id, err := uuid.Parse(fileID)
	if err != nil {
		return nil
	}
	for i := range transfer.Files {
		if transfer.Files[i].ID == id {
			return &transfer.Files[i]
		}
	}
	return nil
}

func (m *Manager) signFile(ctx context.Context, file *models.File, now time.Time) (DownloadLink, error) {
	opCtx, cancel := m.blobContext(ctx)
	defer cancel()

	ttl := m.settings.SignedURLTTL
	url, err := m.blobs.SignURL(opCtx, file.StoragePath, ttl)
	if err != nil {
		return DownloadLink{}, errors.Wrapf(err, "sign %q", file.StoragePath)
	}
	return DownloadLink{
		FileID:     file.ID.String(),
		Name:       file.Name,
		Size:       file.Size,
		URL:        url,
		ValidUntil: now.Add(ttl),
	}, nil
}
