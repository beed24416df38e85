package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Publisher delivers lifecycle events to downstream consumers. Delivery is
// best effort; callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, aggregate string, evt CanonicalEvent, opts ...EnvelopeOption) error
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends envelopes to an AWS/LocalStack SQS queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
}

// NewSQSPublisher creates a publisher around the provided SQS client.
func NewSQSPublisher(client *sqs.Client, queueURL string) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	return newSQSPublisher(client, queueURL)
}

func newSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Publish(ctx context.Context, aggregate string, evt CanonicalEvent, opts ...EnvelopeOption) error {
	env, err := NewEnvelope(aggregate, evt, opts...)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(env.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: failed to send SQS message: %w", err)
	}
	return nil
}

// LogPublisher writes events to the structured log when no queue is configured.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, aggregate string, evt CanonicalEvent, opts ...EnvelopeOption) error {
	env, err := NewEnvelope(aggregate, evt, opts...)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "domain event",
		"event_id", env.EventID.String(),
		"event_type", env.EventType,
		"version", env.Version,
		"aggregate", env.Aggregate,
		"correlation_id", env.CorrelationID,
		"payload", string(env.Payload),
	)
	return nil
}
