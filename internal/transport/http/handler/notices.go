package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-verify-api/internal/application/verification"
	"github.com/go-verify-api/internal/domain"
	"github.com/go-verify-api/internal/pkg/validate"
)

// NoticeHandler handles transactional notice dispatch.
type NoticeHandler struct {
	sender verification.NoticeSender
}

func NewNoticeHandler(sender verification.NoticeSender) *NoticeHandler {
	return &NoticeHandler{sender: sender}
}

type sendNoticeRequest struct {
	Phone    string            `json:"phone" validate:"required,numeric,min=10,max=15"`
	Template string            `json:"template_id" validate:"required"`
	Params   map[string]string `json:"params"`
}

type noticeEnvelope struct {
	Channel string `json:"channel"`
}

func (h *NoticeHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendNoticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ch, err := h.sender.SendNotice(r.Context(), req.Phone, domain.TemplateID(req.Template), req.Params)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noticeEnvelope{Channel: string(ch)})
}
