package transfer

import (
	"io"
	"time"
)

// FileUpload is one file of a transfer being created.
type FileUpload struct {
	Name     string
	Size     int64
	MimeType string
	// Content must yield exactly Size bytes.
	Content io.Reader
}

// CreateTransferRequest describes a new transfer.
type CreateTransferRequest struct {
	Files      []FileUpload
	Name       string
	Message    string
	ExpiryDays int
	Password   string
	// Tier defaults to the configured default tier.
	Tier string
}

// CreateTransferResult summarizes a committed transfer.
type CreateTransferResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
	FileCount int       `json:"fileCount"`
	TotalSize int64     `json:"totalSize"`
}

// FileView is the recipient-facing description of a file.
type FileView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// TransferView is the recipient-facing description of a transfer. It never
// carries the password or its hash.
type TransferView struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Message          string     `json:"message,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	DownloadCount    int64      `json:"downloadCount"`
	IsExpired        bool       `json:"isExpired"`
	RequiresPassword bool       `json:"requiresPassword"`
	TotalSize        int64      `json:"totalSize"`
	Files            []FileView `json:"files"`
}

// IssueDownloadRequest asks for signed URLs of one file, or of every file when FileID is empty.
type IssueDownloadRequest struct {
	TransferID string
	FileID     string
	Password   string
}

// DownloadLink is a time-limited capability to fetch one file.
type DownloadLink struct {
	FileID     string    `json:"fileId"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	ValidUntil time.Time `json:"validUntil"`
}

// DownloadResult is the outcome of one issuance.
type DownloadResult struct {
	Links         []DownloadLink `json:"links"`
	DownloadCount int64          `json:"downloadCount"`
	// Skipped counts files whose URL could not be signed in all-files mode.
	Skipped int `json:"skipped,omitempty"`
}
