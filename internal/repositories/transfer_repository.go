package repositories

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rohits-web03/transferly/internal/models"
)

// ErrNotFound is returned when no transfer row matches the requested id.
var ErrNotFound = errors.New("record not found")

// TransferRepository persists transfers and their files. It carries no business rules.
type TransferRepository interface {
	InsertTransfer(ctx context.Context, transfer *models.Transfer) error
	InsertFile(ctx context.Context, file *models.File) error
	// GetTransferWithFiles loads a transfer joined with its files ordered by name.
	GetTransferWithFiles(ctx context.Context, id uuid.UUID) (*models.Transfer, error)
	// IncrementDownloadCount atomically adds delta and returns the new value.
	IncrementDownloadCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	// Transaction runs fn against a repository bound to a single database transaction.
	Transaction(ctx context.Context, fn func(repo TransferRepository) error) error
}

type GormTransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

func (r *GormTransferRepository) InsertTransfer(ctx context.Context, transfer *models.Transfer) error {
	// files are inserted explicitly, one row at a time
	if err := r.db.WithContext(ctx).Omit("Files").Create(transfer).Error; err != nil {
		return errors.Wrap(err, "insert transfer")
	}
	return nil
}

func (r *GormTransferRepository) InsertFile(ctx context.Context, file *models.File) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return errors.Wrapf(err, "insert file %q", file.Name)
	}
	return nil
}

func (r *GormTransferRepository) GetTransferWithFiles(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Where("id = ?", id).
		First(&transfer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get transfer %s", id)
	}
	return &transfer, nil
}

func (r *GormTransferRepository) IncrementDownloadCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	if delta < 0 {
		return 0, errors.Errorf("download count delta must not be negative, got %d", delta)
	}

	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the row lock taken by the update makes the following read see our own increment
		res := tx.Model(&models.Transfer{}).
			Where("id = ?", id).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", delta))
		if res.Error != nil {
			return errors.Wrap(res.Error, "increment download count")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Model(&models.Transfer{}).
			Where("id = ?", id).
			Select("download_count").
			Scan(&count).Error; err != nil {
			return errors.Wrap(err, "read download count")
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, errors.Wrapf(err, "update download count of %s", id)
	}
	return count, nil
}

func (r *GormTransferRepository) Transaction(ctx context.Context, fn func(repo TransferRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormTransferRepository{db: tx})
	})
}
