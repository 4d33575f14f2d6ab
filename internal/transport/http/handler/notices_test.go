package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-verify-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockNoticeSender struct{ mock.Mock }

func (m *mockNoticeSender) SendNotice(ctx context.Context, phone string, template domain.TemplateID, params map[string]string) (domain.Channel, error) {
	args := m.Called(ctx, phone, template, params)
	return args.Get(0).(domain.Channel), args.Error(1)
}

func noticeRouter(sender *mockNoticeSender) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/notices", NewNoticeHandler(sender).Send)
	return r
}

func TestSendNotice_OK(t *testing.T) {
	sender := &mockNoticeSender{}
	sender.On("SendNotice", mock.Anything, "79990001122", domain.TemplateOrderConfirmation,
		map[string]string{"order": "A-17"}).Return(domain.ChannelPush, nil)

	rr := doJSON(t, noticeRouter(sender), http.MethodPost, "/v1/notices", map[string]interface{}{
		"phone":       "79990001122",
		"template_id": "order-confirmation",
		"params":      map[string]string{"order": "A-17"},
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"channel":"push"}`, rr.Body.String())
}

func TestSendNotice_UnknownTemplate(t *testing.T) {
	sender := &mockNoticeSender{}
	sender.On("SendNotice", mock.Anything, mock.Anything, domain.TemplateID("nope"), mock.Anything).
		Return(domain.ChannelNone, domain.ErrBadRequest)

	rr := doJSON(t, noticeRouter(sender), http.MethodPost, "/v1/notices", map[string]interface{}{
		"phone":       "79990001122",
		"template_id": "nope",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendNotice_MissingTemplateRejectedByValidation(t *testing.T) {
	sender := &mockNoticeSender{}
	rr := doJSON(t, noticeRouter(sender), http.MethodPost, "/v1/notices", map[string]interface{}{
		"phone": "79990001122",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	sender.AssertNotCalled(t, "SendNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
