package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHubDeliversInOrder(t *testing.T) {
	h := NewHub(quietLogger())
	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	tx := uuid.New()
	batch := []models.Event{
		{TxID: tx, Index: 0, Type: models.EventSTXTransfer, Amount: 4},
		{TxID: tx, Index: 1, Type: models.EventPrint, Topic: "result-finished"},
	}
	require.NoError(t, h.Publish(context.Background(), batch))

	for i := range batch {
		select {
		case ev := <-ch:
			assert.Equal(t, i, ev.Index)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub(quietLogger())
	id, ch := h.Subscribe()

	batch := make([]models.Event, subscriberBuffer+10)
	require.NoError(t, h.Publish(context.Background(), batch))
	assert.Len(t, ch, subscriberBuffer)

	h.Unsubscribe(id)
	assert.Zero(t, h.Subscribers())
	h.Unsubscribe(id) // second call is a no-op
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	h := NewHub(quietLogger())
	_, ch1 := h.Subscribe()
	id2, ch2 := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Close()
	_, open1 := <-ch1
	_, open2 := <-ch2
	assert.False(t, open1)
	assert.False(t, open2)
	assert.Zero(t, h.Subscribers())
	h.Unsubscribe(id2) // already gone
}

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, []models.Event) error { return f.err }

type countingSink struct{ n int }

func (c *countingSink) Publish(_ context.Context, evs []models.Event) error {
	c.n += len(evs)
	return nil
}

func TestMultiPublishesToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingSink{}
	m := Multi{failingSink{boom}, counter, Discard{}}

	err := m.Publish(context.Background(), []models.Event{{}, {}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, counter.n, "a failing sink must not starve the others")
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "rewards.nft_transfer_event", RoutingKey(models.Event{Type: models.EventNFTTransfer}))
}

// Needs a live Redis; set REDIS_ADDR to run.
func TestRedisQueuePublish(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := ConnectRedis(addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	ctx := context.Background()
	queue := "rewards_events_test_" + uuid.NewString()
	defer rdb.Del(ctx, queue)

	q := NewRedisQueue(rdb, queue)
	tx := uuid.New()
	require.NoError(t, q.Publish(ctx, []models.Event{
		{TxID: tx, Index: 0, Type: models.EventSTXTransfer, Amount: 5},
		{TxID: tx, Index: 1, Type: models.EventPrint},
	}))

	raw, err := rdb.LRange(ctx, queue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 2)

	var first models.Event
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &first))
	assert.Equal(t, uint64(5), first.Amount)
	assert.Equal(t, tx, first.TxID)
}

// Needs a live RabbitMQ; set AMQP_URL to run.
func TestAMQPPublisherRoutesByType(t *testing.T) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		t.Skip("AMQP_URL not set")
	}
	exchange := "rewards_test_" + uuid.NewString()
	pub, err := NewAMQPPublisher(url, exchange)
	require.NoError(t, err)
	defer pub.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	defer ch.ExchangeDelete(exchange, false, false)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "rewards.stx_transfer_event", exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	tx := uuid.New()
	require.NoError(t, pub.Publish(context.Background(), []models.Event{
		{TxID: tx, Index: 0, Type: models.EventSTXTransfer, Amount: 4},
		{TxID: tx, Index: 1, Type: models.EventPrint, Topic: "result-finished"},
	}))

	select {
	case d := <-deliveries:
		assert.Equal(t, tx.String()+"/0", d.MessageId)
		var ev models.Event
		require.NoError(t, json.Unmarshal(d.Body, &ev))
		assert.Equal(t, uint64(4), ev.Amount)
	case <-time.After(3 * time.Second):
		t.Fatal("no delivery for the transfer event")
	}
}
