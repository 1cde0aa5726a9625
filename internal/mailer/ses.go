package mailer

import (
	"context"
	stderrors "errors"
	"fmt"
	"mime"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"mail-autoreply/internal/common/errors"
)

// SESTransport relays mail through Amazon SES instead of the provider's own
// SMTP endpoint, for deployments where outbound port 587 is blocked.
type SESTransport struct {
	client *ses.Client
}

func NewSESTransport(ctx context.Context, region string) (*SESTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESTransport{client: ses.NewFromConfig(cfg)}, nil
}

func (t *SESTransport) Send(ctx context.Context, msg Message) error {
	source := msg.From
	if msg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", msg.FromName), msg.From)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &sestypes.Body{
				Text: &sestypes.Content{
					Data:    aws.String(msg.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := t.client.SendEmail(ctx, input); err != nil {
		var rejected *sestypes.MessageRejected
		if stderrors.As(err, &rejected) {
			return errors.NewRecipientRejectedError(msg.To, err)
		}
		return errors.NewSendFailedError(msg.To, err)
	}
	return nil
}
