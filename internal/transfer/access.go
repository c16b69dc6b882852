package transfer

import (
	"context"
	"time"

	"github.com/rohits-web03/transferly/internal/models"
)

// FetchTransfer returns the recipient view of a transfer. Expiry is derived at
// call time and reported, not enforced; IssueDownload enforces it again.
func (m *Manager) FetchTransfer(ctx context.Context, id string) (*TransferView, error) {
	transfer, err := m.loadTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	return newTransferView(transfer, m.clock()), nil
}

// Authorize checks suppliedPassword against the transfer's password. Transfers
// without a password accept any input. Nothing is remembered between calls.
func (m *Manager) Authorize(ctx context.Context, id, suppliedPassword string) error {
	transfer, err := m.loadTransfer(ctx, id)
	if err != nil {
		return err
	}
	return authorize(transfer, suppliedPassword)
}

func authorize(transfer *models.Transfer, suppliedPassword string) error {
	if !transfer.HasPassword() {
		return nil
	}
	if !passwordMatches(*transfer.PasswordHash, suppliedPassword) {
		return authError()
	}
	return nil
}

func newTransferView(transfer *models.Transfer, now time.Time) *TransferView {
	view := &TransferView{
		ID:               transfer.ID.String(),
		Name:             transfer.Name,
		CreatedAt:        transfer.CreatedAt,
		ExpiresAt:        transfer.ExpiresAt,
		DownloadCount:    transfer.DownloadCount,
		IsExpired:        transfer.IsExpired(now),
		RequiresPassword: transfer.HasPassword(),
		TotalSize:        transfer.TotalSize(),
		Files:            make([]FileView, 0, len(transfer.Files)),
	}
	if transfer.Message != nil {
		view.Message = *transfer.Message
	}
	for _, f := range transfer.Files {
		view.Files = append(view.Files, FileView{
			ID:       f.ID.String(),
			Name:     f.Name,
			Size:     f.Size,
			MimeType: f.MimeType,
		})
	}
	return view
}
