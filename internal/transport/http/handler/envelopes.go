package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-verify-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// VerificationEnvelope wraps a verification record for confirm/verify and
// operator lookups. The raw code never leaves the service.
type VerificationEnvelope struct {
	VerificationID string    `json:"verification_id"`
	Phone          string    `json:"phone"`
	CorrelationID  string    `json:"correlation_id"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      int64     `json:"expires_at"`
	Activated      bool      `json:"activated"`
	ChannelUsed    string    `json:"channel_used"`
	DeliveryStatus string    `json:"delivery_status"`
}

func toVerificationEnvelope(v *domain.PhoneVerification) *VerificationEnvelope {
	return &VerificationEnvelope{
		VerificationID: v.VerificationID,
		Phone:          v.Phone,
		CorrelationID:  v.CorrelationID,
		CreatedAt:      v.CreatedAt,
		ExpiresAt:      v.ExpiresAt,
		Activated:      v.Activated,
		ChannelUsed:    string(v.ChannelUsed),
		DeliveryStatus: string(v.DeliveryStatus),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// Stable numeric error codes, part of the public contract.
const (
	codeMaxLiveExceeded = 1001
	codeCodeNotFound    = 1002
	codeCodeActivated   = 1003
	codeCodeExpired     = 1004
	codePhoneMismatch   = 1005
	codeMissingToken    = 1006
)

// httpError maps domain errors onto statuses and stable error codes. Every
// verification failure keeps its own identity on the wire; nothing collapses
// into a generic 500.
func httpError(w http.ResponseWriter, err error) {
	var status, code int
	switch {
	case errors.Is(err, domain.ErrMaxLiveExceeded):
		status, code = http.StatusTooManyRequests, codeMaxLiveExceeded
	case errors.Is(err, domain.ErrCodeNotFound):
		status, code = http.StatusNotFound, codeCodeNotFound
	case errors.Is(err, domain.ErrCodeActivated):
		status, code = http.StatusConflict, codeCodeActivated
	case errors.Is(err, domain.ErrCodeExpired):
		status, code = http.StatusGone, codeCodeExpired
	case errors.Is(err, domain.ErrPhoneMismatch):
		status, code = http.StatusUnprocessableEntity, codePhoneMismatch
	case errors.Is(err, domain.ErrMissingToken):
		status, code = http.StatusBadRequest, codeMissingToken
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, MessageEnvelope{Error: err.Error(), ErrorCode: code})
}
