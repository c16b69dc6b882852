package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/rohits-web03/transferly/internal/transfer"
	"github.com/rohits-web03/transferly/internal/utils"
)

// statusOf maps a lifecycle error kind to its HTTP status.
func statusOf(code transfer.ErrorCode) int {
	switch code {
	case transfer.ErrCodeValidation:
		return http.StatusBadRequest
	case transfer.ErrCodeQuotaExceeded:
		return http.StatusRequestEntityTooLarge
	case transfer.ErrCodeNotFound:
		return http.StatusNotFound
	case transfer.ErrCodeExpired:
		return http.StatusGone
	case transfer.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case transfer.ErrCodeIO:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the response envelope. Causes of storage failures
// are logged, never sent to the client.
func writeError(w http.ResponseWriter, logger logSDK.Logger, err error) {
	typed, ok := transfer.AsError(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		utils.ErrorResponse(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	if typed.Retryable && typed.Code == transfer.ErrCodeIO {
		w.Header().Set("Retry-After", "5")
	}
	utils.ErrorResponse(w, statusOf(typed.Code), string(typed.Code), typed.Message)
}

// decodeJSON reads a small JSON body, an empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, "decode json body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after json body")
	}
	return nil
}
