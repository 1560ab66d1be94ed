package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// campaignAttribute is the SQS message attribute carrying the campaign id,
// so operators can filter the queue without decoding bodies.
const campaignAttribute = "campaign_id"

// sqsAPI is the slice of the SQS API the queue uses. Tests swap in a fake.
type sqsAPI interface {
	SendMessage(ctx context.Context, input *sqsSendInput) (*sqsSendOutput, error)
	ReceiveMessage(ctx context.Context, input *sqsReceiveInput) (*sqsReceiveOutput, error)
	DeleteMessage(ctx context.Context, input *sqsDeleteInput) error
	ChangeMessageVisibility(ctx context.Context, input *sqsChangeVisibilityInput) error
}

type sqsSendInput struct {
	QueueURL     string
	MessageBody  string
	DelaySeconds int32
	CampaignID   string
}

type sqsSendOutput struct {
	MessageID string
}

type sqsReceiveInput struct {
	QueueURL            string
	MaxNumberOfMessages int32
	WaitTimeSeconds     int32
	VisibilityTimeout   int32
}

type sqsReceiveOutput struct {
	Messages []sqsReceivedMessage
}

type sqsReceivedMessage struct {
	MessageID     string
	ReceiptHandle string
	Body          string
	CampaignID    string
}

type sqsDeleteInput struct {
	QueueURL      string
	ReceiptHandle string
}

type sqsChangeVisibilityInput struct {
	QueueURL          string
	ReceiptHandle     string
	VisibilityTimeout int32
}

// awsSQSClient adapts *sqs.Client to sqsAPI.
type awsSQSClient struct {
	client *sqs.Client
}

// newAWSSQSClient creates an awsSQSClient for region. A non-empty endpoint
// overrides the service URL, e.g. for LocalStack.
func newAWSSQSClient(ctx context.Context, region, endpoint string) (*awsSQSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &awsSQSClient{client: client}, nil
}

func (c *awsSQSClient) SendMessage(ctx context.Context, input *sqsSendInput) (*sqsSendOutput, error) {
	params := &sqs.SendMessageInput{
		QueueUrl:     aws.String(input.QueueURL),
		MessageBody:  aws.String(input.MessageBody),
		DelaySeconds: input.DelaySeconds,
	}
	if input.CampaignID != "" {
		params.MessageAttributes = map[string]types.MessageAttributeValue{
			campaignAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(input.CampaignID),
			},
		}
	}
	out, err := c.client.SendMessage(ctx, params)
	if err != nil {
		return nil, err
	}
	return &sqsSendOutput{MessageID: aws.ToString(out.MessageId)}, nil
}

func (c *awsSQSClient) ReceiveMessage(ctx context.Context, input *sqsReceiveInput) (*sqsReceiveOutput, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(input.QueueURL),
		MaxNumberOfMessages:   input.MaxNumberOfMessages,
		WaitTimeSeconds:       input.WaitTimeSeconds,
		VisibilityTimeout:     input.VisibilityTimeout,
		MessageAttributeNames: []string{campaignAttribute},
	})
	if err != nil {
		return nil, err
	}

	received := make([]sqsReceivedMessage, len(out.Messages))
	for i, m := range out.Messages {
		received[i] = sqsReceivedMessage{
			MessageID:     aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
		}
		if attr, ok := m.MessageAttributes[campaignAttribute]; ok {
			received[i].CampaignID = aws.ToString(attr.StringValue)
		}
	}
	return &sqsReceiveOutput{Messages: received}, nil
}

func (c *awsSQSClient) DeleteMessage(ctx context.Context, input *sqsDeleteInput) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(input.QueueURL),
		ReceiptHandle: aws.String(input.ReceiptHandle),
	})
	return err
}

// ChangeMessageVisibility is used to hide a failed job until its backoff
// elapses.
func (c *awsSQSClient) ChangeMessageVisibility(ctx context.Context, input *sqsChangeVisibilityInput) error {
	_, err := c.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(input.QueueURL),
		ReceiptHandle:     aws.String(input.ReceiptHandle),
		VisibilityTimeout: input.VisibilityTimeout,
	})
	return err
}
