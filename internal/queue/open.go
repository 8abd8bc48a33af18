package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/24p11/predict-api/internal/config"
	"github.com/24p11/predict-api/shared/rabbitmq"
	sharedredis "github.com/24p11/predict-api/shared/redis"
)

// Broker bundles the work queue selected by configuration with the redis
// result store and the clients behind them
type Broker struct {
	Queue   WorkQueue
	Results *Redis
	Redis   *sharedredis.Client

	closers []func() error
}

// Open connects redis and the configured work queue driver
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Broker, error) {
	redisClient, err := sharedredis.NewClient(&sharedredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		DialTimeout:   cfg.Redis.DialTimeout,
		RetryAttempts: cfg.Redis.RetryAttempts,
		RetryInterval: cfg.Redis.RetryInterval,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	results := NewRedis(redisClient.GetClient(), cfg.Redis.ResultTTL)
	broker := &Broker{
		Results: results,
		Redis:   redisClient,
		closers: []func() error{redisClient.Close},
	}

	switch cfg.Broker.Driver {
	case config.DriverRedis, "":
		broker.Queue = results

	case config.DriverRabbitMQ:
		rc := cfg.Broker.RabbitMQ
		client, err := rabbitmq.NewClient(&rabbitmq.Config{
			Host:               rc.Host,
			Port:               rc.Port,
			User:               rc.User,
			Password:           rc.Password,
			VHost:              rc.VHost,
			ExchangeName:       rc.Exchange.Name,
			ExchangeType:       rc.Exchange.Type,
			ExchangeDurable:    rc.Exchange.Durable,
			ExchangeAutoDelete: rc.Exchange.AutoDelete,
			QueueDurable:       rc.Queue.Durable,
			QueueAutoDelete:    rc.Queue.AutoDelete,
			PrefetchCount:      rc.Consumer.PrefetchCount,
			RetryAttempts:      rc.Connection.RetryAttempts,
			RetryInterval:      rc.Connection.RetryInterval,
			Heartbeat:          rc.Connection.Heartbeat,
			PublishRetries:     rc.Publish.RetryAttempts,
			PublishRetryDelay:  rc.Publish.RetryInterval,
			PublishBackoffMult: rc.Publish.BackoffMultiplier,
		}, logger)
		if err != nil {
			broker.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		broker.Queue = NewRabbitMQ(client, rc.ConsumerTag, logger)
		broker.closers = append(broker.closers, client.Close)

	case config.DriverSQS:
		client, err := newSQSClient(ctx, cfg.Broker.SQS)
		if err != nil {
			broker.Close()
			return nil, fmt.Errorf("failed to initialize SQS: %w", err)
		}
		broker.Queue = NewSQS(client, pingQueue(cfg))

	default:
		broker.Close()
		return nil, fmt.Errorf("unknown broker driver: %s", cfg.Broker.Driver)
	}

	logger.Info("Broker initialized",
		slog.String("driver", cfg.Broker.Driver),
	)

	return broker, nil
}

// Close releases every client opened by Open
func (b *Broker) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newSQSClient(ctx context.Context, cfg config.SQSConfig) (*sqs.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var sqsOpts []func(*sqs.Options)
	if cfg.Endpoint != "" {
		sqsOpts = append(sqsOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return sqs.NewFromConfig(awsCfg, sqsOpts...), nil
}

// pingQueue picks the queue whose URL lookup serves as the SQS health check
func pingQueue(cfg *config.Config) string {
	if cfg.Worker.QueueName != "" {
		return cfg.Worker.QueueName
	}
	for _, task := range cfg.Gateway.Tasks {
		return task.Queue
	}
	return ""
}
