package sns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-verify-api/internal/config"
	"github.com/go-verify-api/internal/domain"
)

// Sender is the SMS fallback channel, backed by AWS SNS. The text is always
// rendered client-side before it gets here; there is no template indirection
// on the SMS path.
type Sender struct {
	client *sns.Client
}

func NewSender(cfg *config.Config) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &Sender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *Sender) Send(ctx context.Context, to, text string) (*domain.DeliveryReceipt, error) {
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &text,
	})
	if err != nil {
		return nil, err
	}
	return &domain.DeliveryReceipt{
		MessageID:  aws.ToString(out.MessageId),
		StatusCode: domain.StatusOK,
	}, nil
}
