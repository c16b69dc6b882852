package handlers

import (
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/transfer"
	"github.com/rohits-web03/transferly/internal/utils"
)

const (
	defaultExpiryDays = 7

	// multipartOverhead is allowed on top of the tier limit for form fields and part headers.
	multipartOverhead  = 1 << 20
	defaultFormMemory  = 32 << 20
	maxJSONBodyBytes   = 4 << 10
	transferIDPathName = "id"
)

// TransferHandler exposes the transfer lifecycle over HTTP.
type TransferHandler struct {
	manager    *transfer.Manager
	formMemory int64
	logger     logSDK.Logger
}

// NewTransferHandler creates a handler. formMemory bounds the in-memory part of
// a multipart upload, zero picks a default.
func NewTransferHandler(manager *transfer.Manager, formMemory int64, logger logSDK.Logger) *TransferHandler {
	if formMemory <= 0 {
		formMemory = defaultFormMemory
	}
	return &TransferHandler{
		manager:    manager,
		formMemory: formMemory,
		logger:     logger,
	}
}

type tiersResponse struct {
	DefaultTier string       `json:"defaultTier"`
	ExpiryDays  []int        `json:"expiryDays"`
	Tiers       config.Tiers `json:"tiers"`
}

// ListTiers godoc
// @Summary List plan tiers
// @Description Returns the tier table, the tier applied to anonymous senders and the selectable expiry days.
// @Tags Transfers
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/tiers [get]
func (h *TransferHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, defaultTier := h.manager.Tiers()
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Tiers retrieved successfully",
		Data: tiersResponse{
			DefaultTier: defaultTier,
			ExpiryDays:  h.manager.ExpiryDays(),
			Tiers:       tiers,
		},
	})
}

// CreateTransfer godoc
// @Summary Create a transfer
// @Description Uploads one or more files as a single transfer. The total size and expiry are bounded by the sender's tier.
// @Tags Transfers
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to upload" style(form) explode(true)
// @Param name formData string false "Transfer name"
// @Param message formData string false "Message for the recipient"
// @Param expiryDays formData int false "Lifetime in days" default(7)
// @Param password formData string false "Password recipients must supply"
// @Success 201 {object} utils.Payload{data=transfer.CreateTransferResult}
// @Failure 400 {object} utils.Payload
// @Failure 413 {object} utils.Payload
// @Failure 503 {object} utils.Payload
// @Router /api/v1/transfers [post]
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	tiers, defaultTier := h.manager.Tiers()
	r.Body = http.MaxBytesReader(w, r.Body, uploadLimit(tiers[defaultTier].MaxTotalSizeBytes))

	if err := r.ParseMultipartForm(h.formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(w, http.StatusRequestEntityTooLarge, string(transfer.ErrCodeQuotaExceeded),
				"Upload exceeds the size limit of your plan")
			return
		}
		utils.ErrorResponse(w, http.StatusBadRequest, string(transfer.ErrCodeValidation), "Invalid file upload form")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("remove multipart temp files", zap.Error(err))
		}
	}()

	expiryDays := defaultExpiryDays
	if raw := strings.TrimSpace(r.FormValue("expiryDays")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, string(transfer.ErrCodeValidation), "expiryDays must be a number")
			return
		}
		expiryDays = days
	}

	uploads, closeAll, err := openUploads(r.MultipartForm.File["files"])
	defer closeAll()
	if err != nil {
		h.logger.Error("open multipart file", zap.Error(err))
		utils.ErrorResponse(w, http.StatusBadRequest, string(transfer.ErrCodeValidation), "Invalid file upload form")
		return
	}

	result, err := h.manager.CreateTransfer(r.Context(), transfer.CreateTransferRequest{
		Files:      uploads,
		Name:       r.FormValue("name"),
		Message:    r.FormValue("message"),
		ExpiryDays: expiryDays,
		Password:   r.FormValue("password"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Transfer created successfully",
		Data:    result,
	})
}

// uploadLimit is the request body cap for a tier size, saturating at math.MaxInt64.
func uploadLimit(tierBytes int64) int64 {
	if tierBytes > math.MaxInt64-multipartOverhead {
		return math.MaxInt64
	}
	return tierBytes + multipartOverhead
}

// openUploads opens every multipart file. The returned func closes whatever was opened.
func openUploads(headers []*multipart.FileHeader) ([]transfer.FileUpload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]transfer.FileUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, errors.Wrapf(err, "open %q", fh.Filename)
		}
		files = append(files, f)
		uploads = append(uploads, transfer.FileUpload{
			Name:     fh.Filename,
			Size:     fh.Size,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  f,
		})
	}
	return uploads, closeAll, nil
}

// GetTransfer godoc
// @Summary Retrieve a transfer
// @Description Returns the recipient view of a transfer. Expired transfers are still described, with isExpired set.
// @Tags Transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} utils.Payload{data=transfer.TransferView}
// @Failure 404 {object} utils.Payload
// @Router /api/v1/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.FetchTransfer(r.Context(), r.PathValue(transferIDPathName))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Transfer retrieved successfully",
		Data:    view,
	})
}

type authorizeInput struct {
	Password string `json:"password"`
}

// Authorize godoc
// @Summary Check a transfer password
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param body body authorizeInput true "Password"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/transfers/{id}/authorize [post]
func (h *TransferHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var input authorizeInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, string(transfer.ErrCodeValidation), "Invalid input")
		return
	}

	if err := h.manager.Authorize(r.Context(), r.PathValue(transferIDPathName), input.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Access granted",
	})
}

type downloadInput struct {
	Password string `json:"password"`
	// FileID selects one file, empty requests every file.
	FileID string `json:"fileId"`
}

// IssueDownload godoc
// @Summary Issue download links
// @Description Mints time-limited URLs for one file, or for every file when fileId is omitted, and counts one download.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param body body downloadInput false "Password and optional file"
// @Success 200 {object} utils.Payload{data=transfer.DownloadResult}
// @Failure 401 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Failure 410 {object} utils.Payload
// @Failure 503 {object} utils.Payload
// @Router /api/v1/transfers/{id}/downloads [post]
func (h *TransferHandler) IssueDownload(w http.ResponseWriter, r *http.Request) {
	var input downloadInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, string(transfer.ErrCodeValidation), "Invalid input")
		return
	}

	result, err := h.manager.IssueDownload(r.Context(), transfer.IssueDownloadRequest{
		TransferID: r.PathValue(transferIDPathName),
		FileID:     input.FileID,
		Password:   input.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	message := "Download links generated successfully"
	if result.Skipped > 0 {
		message = "Some download links could not be generated"
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: message,
		Data:    result,
	})
}
