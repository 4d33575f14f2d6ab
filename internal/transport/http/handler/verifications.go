package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-verify-api/internal/application/verification"
	"github.com/go-verify-api/internal/pkg/validate"
)

// VerificationHandler handles the verification lifecycle endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type createVerificationRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
}

type confirmRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

type verifyRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Token string `json:"correlation_id"`
}

func (h *VerificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Create(r.Context(), req.Phone)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	v, err := h.svc.Confirm(r.Context(), req.Phone, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationEnvelope(v))
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	v, err := h.svc.Verify(r.Context(), req.Phone, req.Token)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationEnvelope(v))
}

func (h *VerificationHandler) Activate(w http.ResponseWriter, r *http.Request) {
	won, err := h.svc.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if !won {
		writeJSON(w, http.StatusConflict, MessageEnvelope{Error: "already activated", ErrorCode: codeCodeActivated})
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "activated"})
}

// Get is the operator-only record lookup.
func (h *VerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationEnvelope(v))
}
