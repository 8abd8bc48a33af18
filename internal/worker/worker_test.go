package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/24p11/predict-api/internal/classifier"
	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/mocks"
	"github.com/24p11/predict-api/internal/queue"
)

const testQueue = "test-queue"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	mr      *miniredis.Miniredis
	queue   *queue.Redis
	records *mocks.MockPredictionCompleter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctrl := gomock.NewController(t)

	return &testEnv{
		mr:      mr,
		queue:   queue.NewRedis(client, 0).WithBlockSlice(100 * time.Millisecond),
		records: mocks.NewMockPredictionCompleter(ctrl),
	}
}

func (e *testEnv) push(t *testing.T, messages ...string) {
	t.Helper()

	raw := make([][]byte, len(messages))
	for i, m := range messages {
		raw[i] = []byte(m)
	}
	require.NoError(t, e.queue.Push(context.Background(), testQueue, raw...))
}

func (e *testEnv) worker(logger *slog.Logger, c classifier.Classifier, mutate func(*Config)) *Worker {
	cfg := &Config{
		Logger: logger,
		Queue:  e.queue,
		Sink: NewSink(&SinkConfig{
			Logger:  logger,
			Results: e.queue,
			Records: e.records,
		}),
		Classifier: c,
		QueueName:  testQueue,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewWorker(cfg)
}

func (e *testEnv) stored(t *testing.T, key string) string {
	t.Helper()

	value, err := e.mr.Get(key)
	require.NoError(t, err)
	return value
}

func TestWorker_StoresEphemeralResult(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), []string{"hi"}).
		Return([]domain.Outcome{{Labels: []string{"X"}}}, nil)

	env.push(t, `{"id":"1","text":"hi"}`)

	w := env.worker(discardLogger(), cls, nil)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.JSONEq(t, `{"labels":["X"],"status":"done"}`, env.stored(t, "1"))
}

func TestWorker_BatchPreservesOrder(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), []string{"t1", "t3", "t2"}).
		Return([]domain.Outcome{
			{Labels: []string{"L1"}},
			{Labels: []string{"L3"}},
			{Labels: []string{"L2"}},
		}, nil).
		Times(1)

	env.push(t,
		`{"id":"1","text":"t1"}`,
		`{"id":"3","text":"t3"}`,
		`{"id":"2","text":"t2"}`,
	)

	w := env.worker(discardLogger(), cls, func(c *Config) { c.MaxBatchSize = 16 })
	require.NoError(t, w.RunOnce(context.Background()))

	assert.JSONEq(t, `{"labels":["L1"],"status":"done"}`, env.stored(t, "1"))
	assert.JSONEq(t, `{"labels":["L2"],"status":"done"}`, env.stored(t, "2"))
	assert.JSONEq(t, `{"labels":["L3"],"status":"done"}`, env.stored(t, "3"))
}

func TestWorker_MaxBatchSizeOne(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), gomock.Len(1)).
		DoAndReturn(func(_ context.Context, texts []string) ([]domain.Outcome, error) {
			return []domain.Outcome{{Labels: []string{strings.ToUpper(texts[0])}}}, nil
		}).
		Times(3)

	env.push(t,
		`{"id":"1","text":"a"}`,
		`{"id":"2","text":"b"}`,
		`{"id":"3","text":"c"}`,
	)

	w := env.worker(discardLogger(), cls, func(c *Config) { c.MaxBatchSize = 1 })
	for range 3 {
		require.NoError(t, w.RunOnce(context.Background()))
	}

	assert.JSONEq(t, `{"labels":["A"],"status":"done"}`, env.stored(t, "1"))
	assert.JSONEq(t, `{"labels":["B"],"status":"done"}`, env.stored(t, "2"))
	assert.JSONEq(t, `{"labels":["C"],"status":"done"}`, env.stored(t, "3"))
}

func TestWorker_DiscardsBadMessages(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	cls.EXPECT().Predict(gomock.Any(), []string{"Hello", "Hello again"}).
		Return([]domain.Outcome{{Labels: []string{"A"}}, {Labels: []string{"B"}}}, nil)

	env.push(t,
		`Hello`,
		`{"id":"1","text":"Hello"}`,
		`{"id":"2","text":"Hello again"}`,
	)

	w := env.worker(logger, cls, nil)

	// a discarded first message ends the iteration without dispatch
	require.NoError(t, w.RunOnce(context.Background()))
	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, 1, strings.Count(logs.String(), "Discarding badly formatted message"))
	assert.JSONEq(t, `{"labels":["A"],"status":"done"}`, env.stored(t, "1"))
	assert.JSONEq(t, `{"labels":["B"],"status":"done"}`, env.stored(t, "2"))
}

func TestWorker_DiscardsDuringDrain(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), []string{"first", "last"}).
		Return([]domain.Outcome{{Labels: []string{"A"}}, {Labels: []string{"B"}}}, nil)

	env.push(t,
		`{"id":"1","text":"first"}`,
		`{"id":"2","bad_key":"Hello again"}`,
		``,
		`{"id":"3","text":"last"}`,
	)

	w := env.worker(discardLogger(), cls, nil)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.JSONEq(t, `{"labels":["B"],"status":"done"}`, env.stored(t, "3"))
	assert.False(t, env.mr.Exists("2"))
}

func TestWorker_ClassifierFailureFailsWholeBatch(t *testing.T) {
	failure := `{"labels":["ERROR"],"error_message":"classifier raised an unexpected exception","status":"error"}`

	tests := []struct {
		name       string
		classifier classifier.Classifier
	}{
		{
			name: "returned error",
			classifier: classifier.Func(func(context.Context, []string) ([]domain.Outcome, error) {
				return nil, errors.New("model crashed")
			}),
		},
		{
			name: "panic",
			classifier: classifier.Func(func(context.Context, []string) ([]domain.Outcome, error) {
				panic("out of memory")
			}),
		},
		{
			name: "misaligned answer",
			classifier: classifier.Func(func(context.Context, []string) ([]domain.Outcome, error) {
				return []domain.Outcome{{Labels: []string{"A"}}}, nil
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.push(t, `{"id":"a","text":"a"}`, `{"id":"b","text":"b"}`)

			w := env.worker(discardLogger(), tt.classifier, nil)
			require.NoError(t, w.RunOnce(context.Background()))

			assert.JSONEq(t, failure, env.stored(t, "a"))
			assert.JSONEq(t, failure, env.stored(t, "b"))
		})
	}
}

func TestWorker_PersistedResult(t *testing.T) {
	env := newTestEnv(t)

	env.records.EXPECT().
		CompletePrediction(gomock.Any(), "job-1", domain.Outcome{Labels: []string{"X"}}).
		Return(nil)

	env.push(t, `{"id":"job-1","text":"t","persist":true}`)

	w := env.worker(discardLogger(), classifier.NewStatic("X"), nil)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.False(t, env.mr.Exists("job-1"), "persisted jobs leave no ephemeral entry")
}

func TestWorker_PersistedErrorResult(t *testing.T) {
	env := newTestEnv(t)

	env.records.EXPECT().
		CompletePrediction(gomock.Any(), "job-1", domain.FailedOutcome(domain.ClassifierFailureMessage)).
		Return(nil)

	env.push(t, `{"id":"job-1","text":"t","persist":1}`)

	failing := classifier.Func(func(context.Context, []string) ([]domain.Outcome, error) {
		return nil, errors.New("boom")
	})

	w := env.worker(discardLogger(), failing, nil)
	require.NoError(t, w.RunOnce(context.Background()))
}

func TestWorker_TimeoutKeepsBatchOpen(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), []string{"first", "late"}).
		Return([]domain.Outcome{{Labels: []string{"A"}}, {Labels: []string{"B"}}}, nil)

	env.push(t, `{"id":"1","text":"first"}`)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = env.queue.Push(context.Background(), testQueue, []byte(`{"id":"2","text":"late"}`))
	}()

	w := env.worker(discardLogger(), cls, func(c *Config) {
		c.Timeout = time.Second
		c.MaxBatchSize = 2
	})
	require.NoError(t, w.RunOnce(context.Background()))
}

func TestWorker_NoTimeoutClosesBatchOnEmptyPop(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), []string{"only"}).
		Return([]domain.Outcome{{Labels: []string{"A"}}}, nil)

	env.push(t, `{"id":"1","text":"only"}`)

	w := env.worker(discardLogger(), cls, nil)

	started := time.Now()
	require.NoError(t, w.RunOnce(context.Background()))
	assert.Less(t, time.Since(started), time.Second)
}

func TestWorker_TimeoutElapsedClosesBatch(t *testing.T) {
	env := newTestEnv(t)
	cls := mocks.NewMockClassifier(gomock.NewController(t))

	cls.EXPECT().Predict(gomock.Any(), []string{"only"}).
		Return([]domain.Outcome{{Labels: []string{"A"}}}, nil)

	env.push(t, `{"id":"1","text":"only"}`)

	w := env.worker(discardLogger(), cls, func(c *Config) { c.Timeout = 100 * time.Millisecond })

	started := time.Now()
	require.NoError(t, w.RunOnce(context.Background()))
	assert.GreaterOrEqual(t, time.Since(started), 100*time.Millisecond)
}

// flakyQueue fails the way a dropped broker connection does
type flakyQueue struct {
	mu            sync.Mutex
	blocking      [][]byte
	blockingErrs  []error
	drainErr      error
	pingFailures  int
	pings         int
	pushedResults map[string][]byte
}

func (q *flakyQueue) BlockingPop(ctx context.Context, _ string) ([]byte, error) {
	q.mu.Lock()
	if len(q.blockingErrs) > 0 {
		err := q.blockingErrs[0]
		q.blockingErrs = q.blockingErrs[1:]
		q.mu.Unlock()
		return nil, err
	}
	if len(q.blocking) > 0 {
		msg := q.blocking[0]
		q.blocking = q.blocking[1:]
		q.mu.Unlock()
		return msg, nil
	}
	q.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *flakyQueue) NonBlockingPop(context.Context, string) ([]byte, error) {
	if q.drainErr != nil {
		return nil, q.drainErr
	}
	return nil, queue.ErrEmpty
}

func (q *flakyQueue) Push(context.Context, string, ...[]byte) error { return nil }

func (q *flakyQueue) Ping(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pings++
	if q.pings <= q.pingFailures {
		return queue.ErrConnection
	}
	return nil
}

func (q *flakyQueue) pingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pings
}

type memoryResults struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (m *memoryResults) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return nil, queue.ErrEmpty
}

func (m *memoryResults) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i], _ = m.Get(ctx, k)
	}
	return out, nil
}

func (m *memoryResults) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func TestWorker_ReconnectsAfterConnectionError(t *testing.T) {
	q := &flakyQueue{
		blockingErrs: []error{queue.ErrConnection},
		blocking:     [][]byte{[]byte(`{"id":"1","text":"after"}`)},
		pingFailures: 2,
	}
	results := &memoryResults{values: map[string][]byte{}}

	w := NewWorker(&Config{
		Logger:       discardLogger(),
		Queue:        q,
		Sink:         NewSink(&SinkConfig{Logger: discardLogger(), Results: results}),
		Classifier:   classifier.NewStatic("X"),
		QueueName:    testQueue,
		PingInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := results.Get(context.Background(), "1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 3, q.pingCount())
}

func TestWorker_DispatchesPartialBatchOnDrainFailure(t *testing.T) {
	q := &flakyQueue{
		blocking: [][]byte{[]byte(`{"id":"1","text":"popped"}`)},
		drainErr: queue.ErrConnection,
	}
	results := &memoryResults{values: map[string][]byte{}}

	w := NewWorker(&Config{
		Logger:     discardLogger(),
		Queue:      q,
		Sink:       NewSink(&SinkConfig{Logger: discardLogger(), Results: results}),
		Classifier: classifier.NewStatic("X"),
		QueueName:  testQueue,
	})

	err := w.RunOnce(context.Background())
	assert.True(t, queue.IsConnectionError(err))

	stored, err := results.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":["X"],"status":"done"}`, string(stored))
}

func TestWorker_RunSwallowsIterationPanics(t *testing.T) {
	env := newTestEnv(t)
	env.push(t, `{"id":"1","text":"a","persist":true}`, `{"id":"2","text":"b"}`)

	calls := 0
	env.records.EXPECT().CompletePrediction(gomock.Any(), "1", gomock.Any()).
		DoAndReturn(func(context.Context, string, domain.Outcome) error {
			calls++
			panic("driver bug")
		})

	w := env.worker(discardLogger(), classifier.NewStatic("X"), func(c *Config) { c.MaxBatchSize = 1 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return env.mr.Exists("2") }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
}

func TestPool_RunsAllWorkers(t *testing.T) {
	env := newTestEnv(t)
	for i := range 20 {
		env.push(t, `{"id":"job-`+string(rune('a'+i))+`","text":"t"}`)
	}

	pool := NewPool(&Config{
		Logger: discardLogger(),
		Queue:  env.queue,
		Sink: NewSink(&SinkConfig{
			Logger:  discardLogger(),
			Results: env.queue,
		}),
		Classifier:   classifier.NewStatic("X"),
		WorkerID:     "test",
		QueueName:    testQueue,
		MaxBatchSize: 3,
	}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	require.Eventually(t, func() bool {
		for i := range 20 {
			if !env.mr.Exists("job-" + string(rune('a'+i))) {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
