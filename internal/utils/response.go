package utils

import (
	"encoding/json"
	"net/http"

	"github.com/Laisky/zap"

	"github.com/rohits-web03/transferly/internal/log"
)

// Payload is the envelope of every JSON response.
type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Code is the machine-readable error kind, set on failures only.
	Code string `json:"code,omitempty"`
	Data any    `json:"data,omitempty"`
}

// JSONResponse sends a JSON response with given status, success flag, and payload
func JSONResponse(w http.ResponseWriter, status int, payload Payload) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Logger.Debug("write json response", zap.Int("status", status), zap.Error(err))
	}
}

// ErrorResponse sends a failed envelope carrying code.
func ErrorResponse(w http.ResponseWriter, status int, code, message string) {
	JSONResponse(w, status, Payload{
		Success: false,
		Message: message,
		Code:    code,
	})
}
