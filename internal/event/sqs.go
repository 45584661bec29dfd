package event

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SQSSender is the part of *sqs.Client the publisher needs.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSEventPublisher struct {
	client SQSSender
	logger *zap.Logger

	queueURL string
}

var (
	_ Publisher = (*SQSEventPublisher)(nil)
	_ SQSSender = (*sqs.Client)(nil)
)

func NewSQSEventPublisher(client SQSSender, logger *zap.Logger, queueURL string) *SQSEventPublisher {
	return &SQSEventPublisher{
		client:   client,
		logger:   logger,
		queueURL: queueURL,
	}
}

func (p *SQSEventPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshalling payload")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"topic": {DataType: aws.String("String"), StringValue: aws.String(Topic)},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return errors.Wrap(err, "sending message")
	}

	p.logger.Debug("completion published",
		zap.String("runID", e.RunID.String()),
		zap.Int("task", e.TaskID),
		zap.Int("job", e.JobID),
	)

	return nil
}
