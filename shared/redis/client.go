package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds redis connection configuration
type Config struct {
	Host          string
	Port          int
	Password      string
	DB            int
	PoolSize      int
	DialTimeout   time.Duration
	RetryAttempts int
	RetryInterval time.Duration
}

// Client represents a redis client
type Client struct {
	rdb    *goredis.Client
	config *Config
	logger *slog.Logger
}

// NewClient creates a new redis client and waits until the server answers
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	logger.Info("Connecting to redis",
		slog.String("addr", addr),
		slog.Int("db", config.DB),
	)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    config.Password,
		DB:          config.DB,
		PoolSize:    config.PoolSize,
		DialTimeout: config.DialTimeout,
		// BLPOP holds a connection until a job arrives
		ReadTimeout: -1,
	})

	client := &Client{
		rdb:    rdb,
		config: config,
		logger: logger,
	}

	if err := client.waitReady(); err != nil {
		rdb.Close()
		return nil, err
	}

	logger.Info("Successfully connected to redis",
		slog.String("addr", addr),
		slog.Int("pool_size", config.PoolSize),
	)

	return client, nil
}

// waitReady pings redis until it answers or the attempts are exhausted
func (c *Client) waitReady() error {
	attempts := c.config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = c.rdb.Ping(ctx).Err()
		cancel()

		if err == nil {
			return nil
		}

		c.logger.Warn("Redis not ready",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		if attempt < attempts {
			time.Sleep(c.config.RetryInterval)
		}
	}

	return fmt.Errorf("failed to connect to redis after %d attempts: %w", attempts, err)
}

// GetClient returns the underlying go-redis client
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Close closes the redis connection pool
func (c *Client) Close() error {
	c.logger.Info("Closing redis connection")

	if err := c.rdb.Close(); err != nil {
		c.logger.Error("Failed to close redis connection",
			slog.Any("error", err),
		)
		return err
	}

	c.logger.Info("Redis connection closed successfully")
	return nil
}

// HealthCheck performs a health check on redis
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
