// Package mail delivers rendered notification emails.
package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"kadryhr/internal/domain/notification"
	"kadryhr/pkg/logger"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, msg notification.Email) error
}

// ConsoleSender writes messages to the log instead of sending them.
type ConsoleSender struct {
	log *logger.Logger
}

// NewConsoleSender creates a sender logging through log.
func NewConsoleSender(log *logger.Logger) *ConsoleSender {
	return &ConsoleSender{log: log.WithComponent("mail")}
}

// Send implements Sender.
func (s *ConsoleSender) Send(ctx context.Context, msg notification.Email) error {
	s.log.WithContext(ctx).Infow("email",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}

// SESAPI is the part of the SES v2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures the SES client.
type SESConfig struct {
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// NewSESClient builds an SES v2 client. Empty keys use the default AWS credential chain.
func NewSESClient(ctx context.Context, cfg SESConfig) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		cred := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)
		opts = append(opts, awsconfig.WithCredentialsProvider(cred))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

// SESSender sends messages through Amazon SES.
type SESSender struct {
	api  SESAPI
	from string
}

// NewSESSender creates a sender using api with the given From address.
func NewSESSender(api SESAPI, from string) *SESSender {
	return &SESSender{api: api, from: from}
}

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, msg notification.Email) error {
	body := &types.Body{}
	if msg.Text != "" {
		body.Text = utf8(msg.Text)
	}
	if msg.HTML != "" {
		body.Html = utf8(msg.HTML)
	}

	out, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8(msg.Subject),
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if out == nil || out.MessageId == nil {
		return fmt.Errorf("send email: no message id returned")
	}
	return nil
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}
