package verification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-verify-api/internal/domain"
)

// NoticeSender dispatches transactional notices (order confirmations,
// cancellations) through the same push-then-SMS channel pair. Notices are
// not rate limited and leave no verification record; the outcome is logged.
type NoticeSender interface {
	SendNotice(ctx context.Context, phone string, template domain.TemplateID, params map[string]string) (domain.Channel, error)
}

type noticeSender struct {
	limiter *RateLimiter
	push    PushGateway
	sms     SMSGateway
}

func NewNoticeSender(limiter *RateLimiter, push PushGateway, sms SMSGateway) NoticeSender {
	return &noticeSender{limiter: limiter, push: push, sms: sms}
}

func (n *noticeSender) SendNotice(ctx context.Context, phone string, template domain.TemplateID, params map[string]string) (domain.Channel, error) {
	// The auth-code template only goes out through Create.
	if !domain.KnownTemplate(template) || template == domain.TemplateAuthCode {
		return domain.ChannelNone, fmt.Errorf("template %q is not a notice template: %w", template, domain.ErrBadRequest)
	}

	if n.limiter.ShouldAttemptPush(ctx, phone) {
		receipt, err := n.push.SendTemplated(ctx, phone, template, params)
		if err == nil && receipt.StatusCode == domain.StatusOK {
			slog.Info("notice delivered via push", "template", template, "message_id", receipt.MessageID)
			return domain.ChannelPush, nil
		}
		if err != nil {
			slog.Warn("notice push failed, falling back to sms", "template", template, "err", err)
		} else {
			slog.Info("notice push not accepted, falling back to sms", "template", template, "provider_code", receipt.StatusCode)
		}
	}

	text := domain.RenderMessage(template, params)
	receipt, err := n.sms.Send(ctx, phone, text)
	if err != nil {
		return domain.ChannelSMS, fmt.Errorf("notice sms: %w", err)
	}
	slog.Info("notice delivered via sms", "template", template, "message_id", receipt.MessageID)
	return domain.ChannelSMS, nil
}
