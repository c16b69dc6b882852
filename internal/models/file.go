package models

import (
	"time"

	"github.com/google/uuid"
)

type File struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TransferID  uuid.UUID `json:"transferId" gorm:"type:uuid;not null;uniqueIndex:idx_files_transfer_name"` // foreign key
	Name        string    `json:"name" gorm:"not null;uniqueIndex:idx_files_transfer_name"`
	Size        int64     `json:"size" gorm:"not null"` // bytes
	MimeType    string    `json:"mimeType" gorm:"not null"`
	StoragePath string    `json:"-" gorm:"not null"` // {transferId}/{name}
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// StoragePath derives the blob key of a file inside a transfer.
func StoragePath(transferID uuid.UUID, name string) string {
	return transferID.String() + "/" + name
}
