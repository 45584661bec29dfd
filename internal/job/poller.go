package job

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/pkg/errors"
)

var (
	NoErrEmptyJobs  = errors.New("jobs are empty")
	ErrMalformedJob = errors.New("malformed job")
)

type Poller interface {
	Poll(ctx context.Context) (id string, job Job, err error)
	MarkAsDone(ctx context.Context, id string) (err error)
}

// SQSClient is the part of *sqs.Client the poller needs.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type poller struct {
	client   SQSClient
	queueURL string
}

var _ Poller = (*poller)(nil)

func NewPoller(client SQSClient, queueURL string) *poller {
	return &poller{
		client:   client,
		queueURL: queueURL,
	}
}

// Poll receives at most one job. The returned id is the receipt handle
// to pass to MarkAsDone. It is also returned with ErrMalformedJob so the
// message can be discarded.
func (p *poller) Poll(ctx context.Context) (id string, job Job, err error) {
	input := &sqs.ReceiveMessageInput{QueueUrl: aws.String(p.queueURL)}

	result, err := p.client.ReceiveMessage(ctx, input)
	if err != nil {
		return "", Job{}, errors.Wrap(err, "receiving message")
	}

	if len(result.Messages) == 0 {
		return "", Job{}, NoErrEmptyJobs
	}

	msg := result.Messages[0]
	if msg.Body == nil || msg.ReceiptHandle == nil {
		return "", Job{}, errors.New("message without body or receipt handle")
	}

	var decoded Job
	if err := json.Unmarshal([]byte(*msg.Body), &decoded); err != nil {
		return *msg.ReceiptHandle, Job{}, errors.Wrapf(ErrMalformedJob, "unmarshaling job: %v", err)
	}

	return *msg.ReceiptHandle, decoded, nil
}

func (p *poller) MarkAsDone(ctx context.Context, id string) (err error) {
	input := &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.queueURL),
		ReceiptHandle: aws.String(id),
	}

	if _, err = p.client.DeleteMessage(ctx, input); err != nil {
		return errors.Wrap(err, "failed to delete message")
	}

	return nil
}
