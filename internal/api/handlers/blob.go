package handlers

import (
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/rohits-web03/transferly/internal/repositories"
	"github.com/rohits-web03/transferly/internal/transfer"
	"github.com/rohits-web03/transferly/internal/utils"
)

// BlobHandler serves files of the local blob backend behind signed tokens.
type BlobHandler struct {
	store  *repositories.LocalBlobStore
	logger logSDK.Logger
}

func NewBlobHandler(store *repositories.LocalBlobStore, logger logSDK.Logger) *BlobHandler {
	return &BlobHandler{store: store, logger: logger}
}

// ServeBlob godoc
// @Summary Download a file
// @Description Streams a file of the local storage backend. The token comes from a download link and expires with it.
// @Tags Blobs
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/blobs/{token} [get]
func (h *BlobHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	blobPath, err := h.store.Verify(r.PathValue("token"))
	if err != nil {
		utils.ErrorResponse(w, http.StatusForbidden, "FORBIDDEN", "Invalid or expired download link")
		return
	}

	f, err := h.store.Open(blobPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			utils.ErrorResponse(w, http.StatusNotFound, string(transfer.ErrCodeNotFound), "File not found")
			return
		}
		h.logger.Error("open blob", zap.String("path", blobPath), zap.Error(err))
		utils.ErrorResponse(w, http.StatusServiceUnavailable, string(transfer.ErrCodeIO), "Failed to read file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("stat blob", zap.String("path", blobPath), zap.Error(err))
		utils.ErrorResponse(w, http.StatusServiceUnavailable, string(transfer.ErrCodeIO), "Failed to read file")
		return
	}

	name := path.Base(blobPath)
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
