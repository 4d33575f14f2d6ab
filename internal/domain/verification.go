package domain

import "time"

// Channel is the delivery transport a verification or notice went out on.
type Channel string

const (
	ChannelNone Channel = "none"
	ChannelPush Channel = "push"
	ChannelSMS  Channel = "sms"
)

// DeliveryStatus tracks the outcome of the dispatch attempt for a record.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryError   DeliveryStatus = "error"
)

// StatusOK is the provider status code that signals an accepted message.
// Anything else from the push gateway triggers the SMS fallback.
const StatusOK = "OK"

// PhoneVerification is a one-time code issued to a phone number.
// PK: verification_id. GSIs: phone-created_at-index, correlation_id-index.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type PhoneVerification struct {
	VerificationID    string         `json:"verification_id" dynamodbav:"verification_id"`
	Phone             string         `json:"phone" dynamodbav:"phone"`
	Code              string         `json:"-" dynamodbav:"code"`
	CorrelationID     string         `json:"correlation_id" dynamodbav:"correlation_id"`
	CreatedAt         time.Time      `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt         int64          `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Activated         bool           `json:"activated" dynamodbav:"activated"`
	ChannelUsed       Channel        `json:"channel_used" dynamodbav:"channel_used"`
	DeliveryStatus    DeliveryStatus `json:"delivery_status" dynamodbav:"delivery_status"`
	DeliveryDetail    string         `json:"delivery_detail,omitempty" dynamodbav:"delivery_detail"`
	ProviderMessageID string         `json:"provider_message_id,omitempty" dynamodbav:"provider_message_id"`
}

// IsExpired reports whether the record's TTL has passed at the given instant.
func (v *PhoneVerification) IsExpired(now time.Time) bool {
	return now.Unix() >= v.ExpiresAt
}

// IsActive reports whether the record still counts against the live limit:
// not activated and not past its expiry. Expiry is derived at read time,
// never written.
func (v *PhoneVerification) IsActive(now time.Time) bool {
	return !v.Activated && !v.IsExpired(now)
}

// DeliveryReceipt is what a channel gateway returns for an accepted send.
type DeliveryReceipt struct {
	MessageID  string
	StatusCode string
}
