package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// SQSQueue is the production Queue backend over an AWS SQS FIFO queue.
type SQSQueue struct {
	client  *sqs.Client
	queueURL string
	// WaitSeconds controls long-poll duration for Receive; 0 disables
	// long polling.
	WaitSeconds int32
	// VisibilityTimeout must exceed the 95th-percentile handler latency.
	VisibilityTimeout int32
}

// NewSQSQueue builds an SQSQueue against queueURL, optionally overriding the
// endpoint (used for LocalStack in development, per the LOCALSTACK_URL
// environment variable).
func NewSQSQueue(ctx context.Context, queueURL string, endpointOverride string) (*SQSQueue, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if endpointOverride != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(endpointOverride))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSQueue{
		client:            sqs.NewFromConfig(cfg),
		queueURL:          queueURL,
		WaitSeconds:       10,
		VisibilityTimeout: 60,
	}, nil
}

// Send implements Queue, relying on SQS FIFO's content-based deduplication
// (MessageDeduplicationId derived from the body) rather than tracking a
// dedup window ourselves.
func (q *SQSQueue) Send(ctx context.Context, body string, groupID string) error {
	dedupID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(groupID+"\x00"+body)).String()
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(q.queueURL),
		MessageBody:            aws.String(body),
		MessageGroupId:         aws.String(groupID),
		MessageDeduplicationId: aws.String(dedupID),
	})
	if err != nil {
		return fmt.Errorf("sqs send: %w", err)
	}
	return nil
}

// Receive implements Queue.
func (q *SQSQueue) Receive(ctx context.Context, max int) ([]Message, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:             aws.String(q.queueURL),
		MaxNumberOfMessages:  int32min(max, 10),
		WaitTimeSeconds:      q.WaitSeconds,
		VisibilityTimeout:    q.VisibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameMessageGroupId,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive: %w", err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		groupID := ""
		if m.Attributes != nil {
			groupID = m.Attributes[string(types.MessageSystemAttributeNameMessageGroupId)]
		}
		msgs = append(msgs, Message{
			Body:      aws.ToString(m.Body),
			GroupID:   groupID,
			ReceiptID: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

// Delete implements Queue.
func (q *SQSQueue) Delete(ctx context.Context, receiptID string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptID),
	})
	if err != nil {
		return fmt.Errorf("sqs delete: %w", err)
	}
	return nil
}

// Depth implements DepthReporter via the queue's approximate message
// count attribute.
func (q *SQSQueue) Depth(ctx context.Context) (int, error) {
	out, err := q.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(q.queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
	})
	if err != nil {
		return 0, fmt.Errorf("sqs queue attributes: %w", err)
	}
	raw := out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessages)]
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse queue depth %q: %w", raw, err)
	}
	return depth, nil
}

func int32min(a, b int) int32 {
	if a < b {
		return int32(a)
	}
	return int32(b)
}
