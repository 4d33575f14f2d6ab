package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-verify-api/internal/config"
	"github.com/go-verify-api/internal/domain"
	"github.com/go-verify-api/internal/pkg/clock"
	"github.com/go-verify-api/internal/pkg/code"
	"github.com/go-verify-api/internal/pkg/id"
)

// Store persists verification records.
type Store interface {
	Insert(ctx context.Context, v *domain.PhoneVerification) error
	GetByPhoneAndCode(ctx context.Context, phone, code string) (*domain.PhoneVerification, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.PhoneVerification, error)
	ListRecentByPhone(ctx context.Context, phone string, since time.Time) ([]domain.PhoneVerification, error)
	Get(ctx context.Context, verificationID string) (*domain.PhoneVerification, error)
	ActivateIfPending(ctx context.Context, verificationID string) (bool, error)
	UpdateDeliveryOutcome(ctx context.Context, verificationID string, channel domain.Channel, status domain.DeliveryStatus, detail, providerMessageID string) error
}

// Cache holds rate-window snapshots and push-cooldown markers.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// PushGateway is the preferred, templated channel.
type PushGateway interface {
	SendTemplated(ctx context.Context, phone string, template domain.TemplateID, params map[string]string) (*domain.DeliveryReceipt, error)
}

// SMSGateway is the fallback channel; it takes fully rendered text.
type SMSGateway interface {
	Send(ctx context.Context, phone, text string) (*domain.DeliveryReceipt, error)
}

// CreateResult is what the caller gets back from Create. The raw code is
// never part of it; it travels only inside the delivered message.
type CreateResult struct {
	CorrelationID string         `json:"correlation_id"`
	ChannelUsed   domain.Channel `json:"channel_used"`
}

// Service issues verification codes and drives their lifecycle.
type Service interface {
	Create(ctx context.Context, phone string) (*CreateResult, error)
	Confirm(ctx context.Context, phone, code string) (*domain.PhoneVerification, error)
	Verify(ctx context.Context, phone, correlationID string) (*domain.PhoneVerification, error)
	Activate(ctx context.Context, verificationID string) (bool, error)
	Get(ctx context.Context, verificationID string) (*domain.PhoneVerification, error)
}

type service struct {
	store   Store
	limiter *RateLimiter
	push    PushGateway
	sms     SMSGateway
	clock   clock.Clock
	env     config.Environment
	codeTTL time.Duration
}

func NewService(
	store Store,
	limiter *RateLimiter,
	push PushGateway,
	sms SMSGateway,
	clk clock.Clock,
	env config.Environment,
	codeTTL time.Duration,
) Service {
	return &service{
		store:   store,
		limiter: limiter,
		push:    push,
		sms:     sms,
		clock:   clk,
		env:     env,
		codeTTL: codeTTL,
	}
}

// Create runs the admission check, persists a pending record and dispatches
// the code through push with SMS fallback. Delivery failures are folded into
// the record's delivery status; the caller still gets a correlation id so
// confirmation and resend flows keep working.
func (s *service) Create(ctx context.Context, phone string) (*CreateResult, error) {
	// Admission is production-only by policy, not an implementation shortcut.
	if s.env.IsProduction() {
		if err := s.limiter.Admit(ctx, phone); err != nil {
			return nil, err
		}
	}

	otp, err := code.Numeric(6)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	v := &domain.PhoneVerification{
		VerificationID: id.New(),
		Phone:          phone,
		Code:           otp,
		CorrelationID:  id.New(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.codeTTL).Unix(),
		ChannelUsed:    domain.ChannelNone,
		DeliveryStatus: domain.DeliveryPending,
	}
	if err := s.store.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}

	channel := domain.ChannelNone
	if !s.env.IsLocal() {
		// Local keeps records pending/none so test environments never
		// reach a real provider.
		channel = s.dispatch(ctx, v)
	}

	return &CreateResult{CorrelationID: v.CorrelationID, ChannelUsed: channel}, nil
}

// dispatch picks a channel, sends, and records the outcome. Always returns
// the channel that ended up carrying (or failing to carry) the message.
func (s *service) dispatch(ctx context.Context, v *domain.PhoneVerification) domain.Channel {
	params := map[string]string{"code": v.Code}

	if s.limiter.ShouldAttemptPush(ctx, v.Phone) {
		receipt, err := s.push.SendTemplated(ctx, v.Phone, domain.TemplateAuthCode, params)
		if err == nil && receipt.StatusCode == domain.StatusOK {
			s.recordOutcome(ctx, v, domain.ChannelPush, domain.DeliverySent, receipt.StatusCode, receipt.MessageID)
			return domain.ChannelPush
		}
		// Operators watch the push/SMS split through these lines.
		if err != nil {
			slog.Warn("push delivery failed, falling back to sms", "phone", v.Phone, "err", err)
		} else {
			slog.Info("push not accepted, falling back to sms", "phone", v.Phone, "provider_code", receipt.StatusCode)
		}
	}

	text := domain.RenderMessage(domain.TemplateAuthCode, params)
	receipt, err := s.sms.Send(ctx, v.Phone, text)
	if err != nil {
		slog.Warn("sms delivery failed", "phone", v.Phone, "err", err)
		s.recordOutcome(ctx, v, domain.ChannelSMS, domain.DeliveryError, err.Error(), "")
		return domain.ChannelSMS
	}
	s.recordOutcome(ctx, v, domain.ChannelSMS, domain.DeliverySent, receipt.StatusCode, receipt.MessageID)
	return domain.ChannelSMS
}

// recordOutcome never fails the create: a lost outcome write leaves a
// well-formed pending record and the caller keeps its correlation id.
func (s *service) recordOutcome(ctx context.Context, v *domain.PhoneVerification, channel domain.Channel, status domain.DeliveryStatus, detail, providerMessageID string) {
	if err := s.store.UpdateDeliveryOutcome(ctx, v.VerificationID, channel, status, detail, providerMessageID); err != nil {
		slog.Warn("failed to record delivery outcome", "verification_id", v.VerificationID, "err", err)
	}
}

// Confirm validates a code the user typed back. It does not activate; the
// caller activates explicitly once it is done using the code.
func (s *service) Confirm(ctx context.Context, phone, otp string) (*domain.PhoneVerification, error) {
	v, err := s.store.GetByPhoneAndCode(ctx, phone, otp)
	if err != nil {
		return nil, err
	}
	if v.Activated {
		return nil, fmt.Errorf("confirm phone %s: %w", phone, domain.ErrCodeActivated)
	}
	if v.IsExpired(s.clock.Now()) {
		return nil, fmt.Errorf("confirm phone %s: %w", phone, domain.ErrCodeExpired)
	}
	return v, nil
}

// Verify validates a correlation token instead of the code. Activated
// records are not re-verifiable through the token. Unlike Confirm there is
// no expiry check: the token deliberately outlives the code TTL so
// token-based flows can finish after the code itself has lapsed.
func (s *service) Verify(ctx context.Context, phone, correlationID string) (*domain.PhoneVerification, error) {
	if correlationID == "" {
		return nil, domain.ErrMissingToken
	}
	v, err := s.store.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if v.Activated {
		return nil, fmt.Errorf("verify phone %s: %w", phone, domain.ErrCodeNotFound)
	}
	if v.Phone != phone {
		slog.Warn("correlation token replayed against another phone", "verification_id", v.VerificationID)
		return nil, fmt.Errorf("verify phone %s: %w", phone, domain.ErrPhoneMismatch)
	}
	return v, nil
}

// Activate marks the record used. Reports whether this caller won; a
// concurrent double-activation loses the conditional write and gets false.
func (s *service) Activate(ctx context.Context, verificationID string) (bool, error) {
	return s.store.ActivateIfPending(ctx, verificationID)
}

func (s *service) Get(ctx context.Context, verificationID string) (*domain.PhoneVerification, error) {
	return s.store.Get(ctx, verificationID)
}
