package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBlockSlice bounds a single BLPOP so that cancellation is observed
const DefaultBlockSlice = 5 * time.Second

// Redis implements WorkQueue and ResultStore on a redis server
type Redis struct {
	client     redis.UniversalClient
	resultTTL  time.Duration
	blockSlice time.Duration
}

// NewRedis creates a redis-backed queue and result store.
// A zero resultTTL stores results without expiry.
func NewRedis(client redis.UniversalClient, resultTTL time.Duration) *Redis {
	return &Redis{
		client:     client,
		resultTTL:  resultTTL,
		blockSlice: DefaultBlockSlice,
	}
}

// WithBlockSlice changes how long a single BLPOP call may wait
func (r *Redis) WithBlockSlice(d time.Duration) *Redis {
	if d > 0 {
		r.blockSlice = d
	}
	return r
}

// BlockingPop waits on BLPOP until a message arrives. The wait is split in
// slices so that a cancelled context ends it; callers see no timeout.
func (r *Redis) BlockingPop(ctx context.Context, queue string) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := r.client.BLPop(ctx, r.blockSlice, queue).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, wrapRedisError("BLPOP", err)
		}

		// result[0] is the queue name, result[1] the payload
		return []byte(result[1]), nil
	}
}

// NonBlockingPop removes the head of queue with LPOP
func (r *Redis) NonBlockingPop(ctx context.Context, queue string) ([]byte, error) {
	data, err := r.client.LPop(ctx, queue).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, wrapRedisError("LPOP", err)
	}
	return data, nil
}

// Push appends messages with a single RPUSH
func (r *Redis) Push(ctx context.Context, queue string, messages ...[]byte) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, len(messages))
	for i, msg := range messages {
		values[i] = msg
	}

	if err := r.client.RPush(ctx, queue, values...).Err(); err != nil {
		return wrapRedisError("RPUSH", err)
	}
	return nil
}

// Ping checks the redis server
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return wrapRedisError("PING", err)
	}
	return nil
}

// Get reads a stored result
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, wrapRedisError("GET", err)
	}
	return data, nil
}

// MGet reads several stored results in one round trip
func (r *Redis) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return [][]byte{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapRedisError("MGET", err)
	}

	out := make([][]byte, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case string:
			out[i] = []byte(val)
		case []byte:
			out[i] = val
		}
	}
	return out, nil
}

// Set stores a result, overwriting any previous value
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.resultTTL).Err(); err != nil {
		return wrapRedisError("SET", err)
	}
	return nil
}

// wrapRedisError marks everything that is not a server reply as a connection error
func wrapRedisError(op string, err error) error {
	if isContextError(err) {
		return err
	}

	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return fmt.Errorf("redis %s: %w", op, err)
	}

	return fmt.Errorf("redis %s: %w: %w", op, ErrConnection, err)
}
