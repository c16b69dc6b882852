// Package transfer owns the lifecycle of a transfer: creation, access gating
// and download issuance. It is the only place business rules are enforced;
// the repository and blob store it drives are plain persistence primitives.
package transfer

import (
	"context"
	"slices"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/log"
	"github.com/rohits-web03/transferly/internal/models"
	"github.com/rohits-web03/transferly/internal/repositories"
)

// Clock returns the current time.
type Clock func() time.Time

// AllowedExpiryDays lists the lifetimes a sender may pick, further capped by the tier.
var AllowedExpiryDays = []int{1, 3, 7, 14, 30, 90}

// Settings captures the runtime configuration of a Manager.
type Settings struct {
	Tiers             config.Tiers
	DefaultTier       string
	ExpiryDays        []int
	SignedURLTTL      time.Duration
	BlobTimeout       time.Duration
	UploadConcurrency int
	PasswordCost      int
}

// SettingsFromConfig derives manager settings from the process configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		Tiers:             cfg.Tiers,
		DefaultTier:       cfg.Transfer.DefaultTier,
		ExpiryDays:        AllowedExpiryDays,
		SignedURLTTL:      cfg.Transfer.SignedURLTTL,
		BlobTimeout:       cfg.Transfer.BlobTimeout,
		UploadConcurrency: cfg.Transfer.UploadConcurrency,
		PasswordCost:      bcrypt.DefaultCost,
	}
}

// Manager coordinates transfer creation, access gating and download issuance.
type Manager struct {
	repo     repositories.TransferRepository
	blobs    repositories.BlobStore
	settings Settings
	logger   logSDK.Logger
	clock    Clock
}

// NewManager constructs a Manager. A nil logger or clock falls back to the process
// logger and the wall clock.
func NewManager(repo repositories.TransferRepository, blobs repositories.BlobStore, settings Settings, logger logSDK.Logger, clock Clock) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("transfer repository is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if _, ok := settings.Tiers[settings.DefaultTier]; !ok {
		return nil, errors.Errorf("default tier %q is not configured", settings.DefaultTier)
	}
	if len(settings.ExpiryDays) == 0 {
		settings.ExpiryDays = AllowedExpiryDays
	}
	if settings.SignedURLTTL <= 0 {
		settings.SignedURLTTL = time.Hour
	}
	if settings.UploadConcurrency <= 0 {
		settings.UploadConcurrency = 1
	}
	if settings.PasswordCost == 0 {
		settings.PasswordCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = log.Logger.Named("transfer_manager")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Manager{
		repo:     repo,
		blobs:    blobs,
		settings: settings,
		logger:   logger,
		clock:    clock,
	}, nil
}

// Tiers returns the tier table and the tier applied to anonymous senders.
func (m *Manager) Tiers() (config.Tiers, string) {
	return m.settings.Tiers, m.settings.DefaultTier
}

// ExpiryDays returns the selectable transfer lifetimes in days.
func (m *Manager) ExpiryDays() []int {
	return slices.Clone(m.settings.ExpiryDays)
}

// blobContext bounds a single blob operation when a timeout is configured.
func (m *Manager) blobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.settings.BlobTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.settings.BlobTimeout)
}

// loadTransfer maps a missing row to a NOT_FOUND error.
func (m *Manager) loadTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	transferID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFoundError("transfer not found")
	}
	transfer, err := m.repo.GetTransferWithFiles(ctx, transferID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundError("transfer not found")
	}
	if err != nil {
		m.logger.Error("load transfer", zap.String("transfer_id", id), zap.Error(err))
		return nil, ioError("failed to load transfer", err)
	}
	return transfer, nil
}
