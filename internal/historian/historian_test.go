// internal/historian/historian_test.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trustless-rewards/internal/events"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue serves queued payloads and then reports an empty list.
type fakeQueue struct {
	mu    sync.Mutex
	items []string
	lists map[string][]string
}

func (q *fakeQueue) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lists == nil {
		q.lists = make(map[string][]string)
	}
	for _, v := range values {
		q.lists[key] = append(q.lists[key], string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(q.lists[key])), nil)
}

func (q *fakeQueue) list(key string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.lists[key]...)
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		time.Sleep(time.Millisecond)
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	item := q.items[0]
	q.items = q.items[1:]
	return redis.NewStringSliceResult([]string{keys[0], item}, nil)
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]models.Event
	fail    int
	// refuse rejects, permanently, any batch holding an event with this index.
	refuse int
}

func (w *recordingWriter) write(_ context.Context, evs []models.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail > 0 {
		w.fail--
		return errors.New("db down")
	}
	for _, ev := range evs {
		if w.refuse > 0 && ev.Index == w.refuse {
			return Permanent(errors.New("numeric field out of range"))
		}
	}
	w.batches = append(w.batches, append([]models.Event(nil), evs...))
	return nil
}

func (w *recordingWriter) recover() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = 0
}

func (w *recordingWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func payloads(t *testing.T, n int) []string {
	t.Helper()
	tx := uuid.New()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		b, err := json.Marshal(models.Event{TxID: tx, Index: i, Type: models.EventPrint, Topic: "result-finished"})
		require.NoError(t, err)
		out = append(out, string(b))
	}
	return out
}

func TestRunFlushesInBatches(t *testing.T) {
	q := &fakeQueue{items: payloads(t, 5)}
	w := &recordingWriter{}
	s := New(q, "rewards_events", w.write, 2, time.Hour, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return w.total() == 4 && q.len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// the odd event out is written on shutdown
	assert.Equal(t, 5, w.total())
	assert.Len(t, w.batches, 3)
	assert.Equal(t, 4, w.batches[2][0].Index)
}

func TestRunSkipsBadPayloadsAndRetriesFailedWrites(t *testing.T) {
	items := append([]string{"not json"}, payloads(t, 2)...)
	q := &fakeQueue{items: items}
	w := &recordingWriter{fail: 1}
	s := New(q, "rewards_events", w.write, 2, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return w.total() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Len(t, w.batches, 1, "the failed batch is written once it succeeds")
}

func TestRunDeadLettersRefusedEvents(t *testing.T) {
	q := &fakeQueue{items: payloads(t, 3)}
	w := &recordingWriter{refuse: 1}
	s := New(q, "rewards_events", w.write, 3, time.Hour, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return w.total() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// the healthy events are stored one by one around the refused one
	require.Len(t, w.batches, 2)
	assert.Equal(t, 0, w.batches[0][0].Index)
	assert.Equal(t, 2, w.batches[1][0].Index)

	dead := q.list(DeadLetterQueue("rewards_events"))
	require.Len(t, dead, 1)
	var ev models.Event
	require.NoError(t, json.Unmarshal([]byte(dead[0]), &ev))
	assert.Equal(t, 1, ev.Index)
}

func TestRunStopsPoppingWhileStoreIsDown(t *testing.T) {
	const total = 100
	q := &fakeQueue{items: payloads(t, total)}
	w := &recordingWriter{fail: 1 << 30}
	s := New(q, "rewards_events", w.write, 2, 5*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	backlog := total - 2*pendingBatches
	require.Eventually(t, func() bool { return q.len() == backlog }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, backlog, q.len(), "events past the cap stay in the queue")
	assert.Zero(t, w.total())

	w.recover()
	require.Eventually(t, func() bool { return w.total() == total }, 3*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, q.list(DeadLetterQueue("rewards_events")))
}

func TestRedisQueueToHistorian(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := events.ConnectRedis(addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	queue := "historian_test_" + uuid.NewString()
	defer rdb.Del(context.Background(), queue)

	tx := uuid.New()
	sink := events.NewRedisQueue(rdb, queue)
	require.NoError(t, sink.Publish(context.Background(), []models.Event{
		{TxID: tx, Index: 0, Type: models.EventSTXTransfer, Amount: 4},
		{TxID: tx, Index: 1, Type: models.EventPrint, Topic: "result-finished"},
	}))

	w := &recordingWriter{}
	s := New(rdb, queue, w.write, 2, 50*time.Millisecond, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return w.total() == 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, tx, w.batches[0][0].TxID)
}
