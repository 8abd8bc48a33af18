package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

const (
	// sqsLongPollSeconds is the longest wait SQS allows for one receive
	sqsLongPollSeconds = 20

	// sqsMaxBatch is the SendMessageBatch entry limit
	sqsMaxBatch = 10
)

// SQSAPI is the subset of the SQS client used by the adapter
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// SQS implements WorkQueue on Amazon SQS. A received message is deleted
// immediately, which gives the destructive pop the worker expects.
type SQS struct {
	api       SQSAPI
	pingQueue string

	mu   sync.Mutex
	urls map[string]string
}

// NewSQS creates an SQS-backed work queue. pingQueue is resolved on Ping.
func NewSQS(api SQSAPI, pingQueue string) *SQS {
	return &SQS{
		api:       api,
		pingQueue: pingQueue,
		urls:      make(map[string]string),
	}
}

func (s *SQS) queueURL(ctx context.Context, queue string) (string, error) {
	s.mu.Lock()
	url, ok := s.urls[queue]
	s.mu.Unlock()
	if ok {
		return url, nil
	}

	out, err := s.api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queue)})
	if err != nil {
		return "", wrapSQSError("GetQueueUrl", err)
	}

	url = aws.ToString(out.QueueUrl)
	s.mu.Lock()
	s.urls[queue] = url
	s.mu.Unlock()

	return url, nil
}

// receive pops at most one message, waiting up to waitSeconds
func (s *SQS) receive(ctx context.Context, queue string, waitSeconds int32) ([]byte, bool, error) {
	url, err := s.queueURL(ctx, queue)
	if err != nil {
		return nil, false, err
	}

	out, err := s.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(url),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		return nil, false, wrapSQSError("ReceiveMessage", err)
	}
	if len(out.Messages) == 0 {
		return nil, false, nil
	}

	msg := out.Messages[0]
	_, err = s.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(url),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		return nil, false, wrapSQSError("DeleteMessage", err)
	}

	return []byte(aws.ToString(msg.Body)), true, nil
}

// BlockingPop long-polls until a message arrives
func (s *SQS) BlockingPop(ctx context.Context, queue string) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, ok, err := s.receive(ctx, queue, sqsLongPollSeconds)
		if err != nil {
			return nil, err
		}
		if ok {
			return body, nil
		}
	}
}

// NonBlockingPop receives without waiting
func (s *SQS) NonBlockingPop(ctx context.Context, queue string) ([]byte, error) {
	body, ok, err := s.receive(ctx, queue, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmpty
	}
	return body, nil
}

// Push sends messages in batches of ten
func (s *SQS) Push(ctx context.Context, queue string, messages ...[]byte) error {
	url, err := s.queueURL(ctx, queue)
	if err != nil {
		return err
	}

	for start := 0; start < len(messages); start += sqsMaxBatch {
		end := min(start+sqsMaxBatch, len(messages))

		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i := start; i < end; i++ {
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:          aws.String(strconv.Itoa(i)),
				MessageBody: aws.String(string(messages[i])),
			})
		}

		out, err := s.api.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(url),
			Entries:  entries,
		})
		if err != nil {
			return wrapSQSError("SendMessageBatch", err)
		}
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return fmt.Errorf("sqs SendMessageBatch: %d entries failed, first %s: %s",
				len(out.Failed), aws.ToString(f.Code), aws.ToString(f.Message))
		}
	}

	return nil
}

// Ping resolves the configured queue
func (s *SQS) Ping(ctx context.Context) error {
	_, err := s.api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(s.pingQueue)})
	if err != nil {
		return wrapSQSError("GetQueueUrl", err)
	}
	return nil
}

// wrapSQSError treats anything that is not a service API error as a connection error
func wrapSQSError(op string, err error) error {
	if isContextError(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("sqs %s: %w", op, err)
	}

	return fmt.Errorf("sqs %s: %w: %w", op, ErrConnection, err)
}
