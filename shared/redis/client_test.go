package redis

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func configFor(t *testing.T, mr *miniredis.Miniredis) *Config {
	t.Helper()

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	return &Config{
		Host:          mr.Host(),
		Port:          port,
		PoolSize:      4,
		DialTimeout:   time.Second,
		RetryAttempts: 2,
		RetryInterval: 10 * time.Millisecond,
	}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(configFor(t, mr), discardLogger())
	require.NoError(t, err)
	defer client.Close()

	require.NotNil(t, client.GetClient())
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(t, mr)
	mr.Close()

	client, err := NewClient(cfg, discardLogger())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to redis after 2 attempts")
}
