package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesMaxRecipients is the SES per-request destination limit.
const sesMaxRecipients = 50

// SESAPI is the subset of the SES v2 client used by the gateway.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// SES implements Client for AWS SES v2.
type SES struct {
	name   string
	region string
	client SESAPI
}

// NewSES loads AWS configuration for cfg.Region and creates an SES gateway.
// Static credentials are used when both keys are set; otherwise the default
// credential chain applies.
func NewSES(ctx context.Context, cfg Config) (*SES, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewSESWithClient(cfg, client), nil
}

// NewSESWithClient creates an SES gateway around an existing client.
func NewSESWithClient(cfg Config, client SESAPI) *SES {
	name := cfg.Name
	if name == "" {
		name = "ses"
	}
	return &SES{name: name, region: cfg.Region, client: client}
}

func (s *SES) GetName() string { return s.name }

func (s *SES) Hostname() string {
	return "email." + s.region + ".amazonaws.com"
}

// Send issues one SendEmail call per 50 recipients and stops at the first
// rejected chunk.
func (s *SES) Send(ctx context.Context, msg *Message) (*Result, error) {
	var lastID string
	for start := 0; start < len(msg.To); start += sesMaxRecipients {
		end := min(start+sesMaxRecipients, len(msg.To))
		out, err := s.client.SendEmail(ctx, buildSESInput(msg, msg.To[start:end]))
		if err != nil {
			return nil, s.classify(err)
		}
		lastID = aws.ToString(out.MessageId)
	}

	return &Result{
		MessageID: lastID,
		Status:    StatusSent,
		Timestamp: time.Now(),
		Metadata:  map[string]string{"region": s.region},
	}, nil
}

// HealthCheck calls GetAccount and fails when sending is paused.
func (s *SES) HealthCheck(ctx context.Context) error {
	out, err := s.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return fmt.Errorf("ses: get account: %w", err)
	}
	if !out.SendingEnabled {
		return errors.New("ses: sending is disabled for this account")
	}
	return nil
}

func (s *SES) classify(err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		ge := ClassifyHTTPError(s.name, re.HTTPStatusCode(), err.Error())
		if ge != nil {
			return ge
		}
	}
	return fmt.Errorf("ses: send email: %w", err)
}

func buildSESInput(msg *Message, to []string) *sesv2.SendEmailInput {
	headers := make([]types.MessageHeader, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, types.MessageHeader{Name: aws.String(k), Value: aws.String(v)})
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
				},
				Headers: headers,
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	return input
}
