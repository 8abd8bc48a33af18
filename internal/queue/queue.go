// Package queue defines the broker capabilities the worker and the gateway
// rely on, and adapts redis, RabbitMQ and SQS to them.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrEmpty is returned by non-blocking reads when nothing is available
	ErrEmpty = errors.New("queue: empty")

	// ErrConnection marks transport-level failures talking to the broker
	ErrConnection = errors.New("queue: broker connection error")
)

// WorkQueue is a FIFO broker with atomic single-consumer delivery
type WorkQueue interface {
	// BlockingPop waits until a message is available on queue and removes it.
	BlockingPop(ctx context.Context, queue string) ([]byte, error)

	// NonBlockingPop removes the head of queue or returns ErrEmpty.
	NonBlockingPop(ctx context.Context, queue string) ([]byte, error)

	// Push appends messages to the tail of queue in order.
	Push(ctx context.Context, queue string, messages ...[]byte) error

	// Ping checks that the broker answers.
	Ping(ctx context.Context) error
}

// ResultStore is the ephemeral key/value store holding synchronous results
type ResultStore interface {
	// Get returns the value under key or ErrEmpty.
	Get(ctx context.Context, key string) ([]byte, error)

	// MGet returns one entry per key, nil where the key is absent.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// IsConnectionError reports whether err is a broker transport failure
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
