package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// maxSQSDelay is the SQS limit on per-message delivery delay, in seconds.
const maxSQSDelay = 900

// SQSEnqueuer publishes jobs to an AWS SQS queue.
type SQSEnqueuer struct {
	client   sqsAPI
	queueURL string
	log      zerolog.Logger
}

// NewSQSEnqueuer creates a new SQSEnqueuer targeting the given queue URL.
func NewSQSEnqueuer(client sqsAPI, queueURL string, log zerolog.Logger) *SQSEnqueuer {
	return &SQSEnqueuer{
		client:   client,
		queueURL: queueURL,
		log:      log,
	}
}

// Enqueue sends the job and returns the SQS message ID.
func (e *SQSEnqueuer) Enqueue(ctx context.Context, job *Job) (string, error) {
	return e.EnqueueWithDelay(ctx, job, 0)
}

// EnqueueWithDelay sends the job with a delivery delay, capped at the SQS
// maximum of 900 seconds.
func (e *SQSEnqueuer) EnqueueWithDelay(ctx context.Context, job *Job, delaySeconds int32) (string, error) {
	body, err := encodeJob(job)
	if err != nil {
		return "", err
	}

	if delaySeconds > maxSQSDelay {
		delaySeconds = maxSQSDelay
	}

	out, err := e.client.SendMessage(ctx, &sqsSendInput{
		QueueURL:     e.queueURL,
		MessageBody:  body,
		DelaySeconds: delaySeconds,
		CampaignID:   job.CampaignID,
	})
	if err != nil {
		return "", fmt.Errorf("sqs send message: %w", err)
	}

	JobsEnqueuedTotal.Inc()
	return out.MessageID, nil
}
