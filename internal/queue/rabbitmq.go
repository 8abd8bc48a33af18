package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpTransport is the part of shared/rabbitmq.Client used by the adapter
type amqpTransport interface {
	Consume(queue, consumerTag string) (<-chan amqp.Delivery, error)
	Get(queue string) (amqp.Delivery, bool, error)
	Publish(ctx context.Context, queue string, body []byte, contentType string) error
	Reconnect() error
	IsConnected() bool
}

// RabbitMQ implements WorkQueue on RabbitMQ queues.
// BlockingPop reads from a long-lived consumer and acknowledges on receipt.
// NonBlockingPop drains the consumer's prefetch buffer before falling back to
// basic.get, so a batch sees messages in queue order.
type RabbitMQ struct {
	transport   amqpTransport
	consumerTag string
	logger      *slog.Logger

	mu        sync.Mutex
	consumers map[string]<-chan amqp.Delivery
}

// NewRabbitMQ creates a RabbitMQ-backed work queue
func NewRabbitMQ(transport amqpTransport, consumerTag string, logger *slog.Logger) *RabbitMQ {
	return &RabbitMQ{
		transport:   transport,
		consumerTag: consumerTag,
		logger:      logger,
		consumers:   make(map[string]<-chan amqp.Delivery),
	}
}

func (r *RabbitMQ) consumer(queue string) (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if deliveries, ok := r.consumers[queue]; ok {
		return deliveries, nil
	}

	deliveries, err := r.transport.Consume(queue, r.consumerTag)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w: %w", ErrConnection, err)
	}

	r.consumers[queue] = deliveries
	return deliveries, nil
}

func (r *RabbitMQ) resetConsumers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.consumers = make(map[string]<-chan amqp.Delivery)
}

// BlockingPop waits for the next delivery on queue
func (r *RabbitMQ) BlockingPop(ctx context.Context, queue string) ([]byte, error) {
	deliveries, err := r.consumer(queue)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case delivery, ok := <-deliveries:
		return r.take(delivery, ok)
	}
}

// NonBlockingPop returns the next message without waiting. Deliveries already
// prefetched by the consumer come first since the broker handed them out
// before anything still on the queue; basic.get is used once they run out.
func (r *RabbitMQ) NonBlockingPop(_ context.Context, queue string) ([]byte, error) {
	r.mu.Lock()
	deliveries, consuming := r.consumers[queue]
	r.mu.Unlock()

	if consuming {
		select {
		case delivery, ok := <-deliveries:
			return r.take(delivery, ok)
		default:
		}
	}

	delivery, ok, err := r.transport.Get(queue)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq get: %w: %w", ErrConnection, err)
	}
	if !ok {
		return nil, ErrEmpty
	}
	return delivery.Body, nil
}

// take acknowledges a consumer delivery. Popping is destructive: the message
// is acknowledged before it is processed.
func (r *RabbitMQ) take(delivery amqp.Delivery, ok bool) ([]byte, error) {
	if !ok {
		r.resetConsumers()
		return nil, fmt.Errorf("rabbitmq delivery channel closed: %w", ErrConnection)
	}

	if err := delivery.Ack(false); err != nil {
		r.resetConsumers()
		return nil, fmt.Errorf("rabbitmq ack: %w: %w", ErrConnection, err)
	}

	return delivery.Body, nil
}

// Push publishes messages to queue in order
func (r *RabbitMQ) Push(ctx context.Context, queue string, messages ...[]byte) error {
	for _, msg := range messages {
		if err := r.transport.Publish(ctx, queue, msg, "application/json"); err != nil {
			return fmt.Errorf("rabbitmq publish: %w: %w", ErrConnection, err)
		}
	}
	return nil
}

// Ping reports the connection state, re-dialling when the connection is gone
func (r *RabbitMQ) Ping(_ context.Context) error {
	if r.transport.IsConnected() {
		return nil
	}

	r.resetConsumers()

	r.logger.Warn("RabbitMQ connection lost, reconnecting")
	if err := r.transport.Reconnect(); err != nil {
		return fmt.Errorf("rabbitmq reconnect: %w: %w", ErrConnection, err)
	}
	return nil
}
