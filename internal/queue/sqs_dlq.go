package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// SQSDLQ manages dead letter operations backed by an AWS SQS queue.
type SQSDLQ struct {
	client   sqsAPI
	dlqURL   string
	enqueuer Enqueuer
	log      zerolog.Logger
}

// NewSQSDLQ creates a new SQSDLQ targeting the given DLQ URL. Reprocessed
// jobs are handed back to enqueuer.
func NewSQSDLQ(client sqsAPI, dlqURL string, enqueuer Enqueuer, log zerolog.Logger) *SQSDLQ {
	return &SQSDLQ{
		client:   client,
		dlqURL:   dlqURL,
		enqueuer: enqueuer,
		log:      log,
	}
}

// MoveToDLQ wraps the job in a DLQEntry and sends it to the DLQ.
func (d *SQSDLQ) MoveToDLQ(ctx context.Context, job *Job, reason string) error {
	data, err := json.Marshal(DLQEntry{Job: job, FailureReason: reason, MovedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	if _, err := d.client.SendMessage(ctx, &sqsSendInput{
		QueueURL:    d.dlqURL,
		MessageBody: string(data),
		CampaignID:  job.CampaignID,
	}); err != nil {
		return fmt.Errorf("sqs send to dlq: %w", err)
	}

	JobsProcessedTotal.WithLabelValues("dlq").Inc()
	return nil
}

// Reprocess drains up to len(entryIDs) jobs from the DLQ back to the primary
// queue. SQS cannot fetch by ID, so the IDs only bound the count.
func (d *SQSDLQ) Reprocess(ctx context.Context, entryIDs []string) (int, error) {
	batchSize := len(entryIDs)
	if batchSize == 0 {
		return 0, nil
	}
	if batchSize > 10 {
		batchSize = 10
	}

	out, err := d.client.ReceiveMessage(ctx, &sqsReceiveInput{
		QueueURL:            d.dlqURL,
		MaxNumberOfMessages: int32(batchSize),
		VisibilityTimeout:   30,
	})
	if err != nil {
		return 0, fmt.Errorf("sqs receive from dlq: %w", err)
	}

	reprocessed := 0
	for _, msg := range out.Messages {
		var entry DLQEntry
		if err := json.Unmarshal([]byte(msg.Body), &entry); err != nil || entry.Job == nil {
			d.log.Warn().Err(err).Str("sqs_message_id", msg.MessageID).Msg("skipping malformed dlq entry")
			continue
		}

		entry.Job.RetryCount = 0
		if _, err := d.enqueuer.Enqueue(ctx, entry.Job); err != nil {
			return reprocessed, fmt.Errorf("re-enqueue job %s: %w", entry.Job.ID, err)
		}

		if err := d.client.DeleteMessage(ctx, &sqsDeleteInput{
			QueueURL:      d.dlqURL,
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			return reprocessed, fmt.Errorf("delete dlq message: %w", err)
		}
		reprocessed++
	}

	return reprocessed, nil
}
