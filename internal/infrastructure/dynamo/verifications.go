package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-verify-api/internal/domain"
)

// Attribute names used in update and condition expressions.
const (
	fieldChannelUsed       = "channel_used"
	fieldDeliveryStatus    = "delivery_status"
	fieldDeliveryDetail    = "delivery_detail"
	fieldProviderMessageID = "provider_message_id"
)

// VerificationRepo provides typed DynamoDB operations for the phone
// verifications table.
// PK: verification_id. GSIs: phone-created_at-index, correlation_id-index.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Insert(ctx context.Context, v *domain.PhoneVerification) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByPhoneAndCode returns the newest verification matching phone and code.
// Codes are not unique across time for a phone, so the query walks the
// phone-created_at-index newest-first and takes the first code match.
func (r *VerificationRepo) GetByPhoneAndCode(ctx context.Context, phone, code string) (*domain.PhoneVerification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("phone-created_at-index"),
		KeyConditionExpression: aws.String("phone = :p"),
		// "code" is a DynamoDB reserved word, hence the name alias.
		FilterExpression:         aws.String("#code = :c"),
		ExpressionAttributeNames: map[string]string{"#code": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: phone},
			":c": &types.AttributeValueMemberS{Value: code},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrCodeNotFound)
	}
	var v domain.PhoneVerification
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByCorrelationID looks up a verification by its opaque correlation token via GSI.
func (r *VerificationRepo) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.PhoneVerification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("correlation_id-index"),
		KeyConditionExpression: aws.String("correlation_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: correlationID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrCodeNotFound)
	}
	var v domain.PhoneVerification
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListRecentByPhone returns all verifications created for the phone since the
// given instant, oldest first. The admission policy derives both the total
// and the active subset from this page, so the records come back whole.
func (r *VerificationRepo) ListRecentByPhone(ctx context.Context, phone string, since time.Time) ([]domain.PhoneVerification, error) {
	sinceAv, err := attributevalue.Marshal(since)
	if err != nil {
		return nil, fmt.Errorf("marshal since: %w", err)
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("phone-created_at-index"),
		KeyConditionExpression: aws.String("phone = :p AND created_at >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":     &types.AttributeValueMemberS{Value: phone},
			":since": sinceAv,
		},
	})
	if err != nil {
		return nil, err
	}
	var list []domain.PhoneVerification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Get fetches a single verification by primary key.
func (r *VerificationRepo) Get(ctx context.Context, verificationID string) (*domain.PhoneVerification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("verification_id", verificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var v domain.PhoneVerification
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ActivateIfPending flips activated to true iff it is still false, as a
// single conditional write. Returns false when another caller already won
// the race (or the id does not exist).
func (r *VerificationRepo) ActivateIfPending(ctx context.Context, verificationID string) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("verification_id", verificationID),
		UpdateExpression:    aws.String("SET activated = :t"),
		ConditionExpression: aws.String("attribute_exists(verification_id) AND activated = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdateDeliveryOutcome records the final channel and delivery status of a
// dispatch on the verification row.
func (r *VerificationRepo) UpdateDeliveryOutcome(ctx context.Context, verificationID string, channel domain.Channel, status domain.DeliveryStatus, detail, providerMessageID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldChannelUsed:       string(channel),
		fieldDeliveryStatus:    string(status),
		fieldDeliveryDetail:    detail,
		fieldProviderMessageID: providerMessageID,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("verification_id", verificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
