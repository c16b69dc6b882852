package models

import (
	"time"

	"github.com/google/uuid"
)

type Transfer struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Message       *string   `json:"message"`
	ExpiresAt     time.Time `json:"expiresAt" gorm:"not null;index"`
	PasswordHash  *string   `json:"-"` // bcrypt, nil when the transfer is not password-gated
	DownloadCount int64     `json:"downloadCount" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
	Files         []File    `json:"files" gorm:"foreignKey:TransferID"` // one-to-many relation
}

// TotalSize sums the sizes of the loaded files.
func (t *Transfer) TotalSize() int64 {
	var total int64
	for _, f := range t.Files {
		total += f.Size
	}
	return total
}

// HasPassword reports whether downloads are password-gated.
func (t *Transfer) HasPassword() bool {
	return t.PasswordHash != nil && *t.PasswordHash != ""
}

// IsExpired reports whether the transfer is expired at now, the boundary itself counts as expired.
func (t *Transfer) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
