// Package historian drains contract events from a Redis list into durable storage.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Popper is the slice of the Redis client the historian reads and dead-letters with.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Writer persists one batch. It must be idempotent per (tx id, index) since a
// batch is retried after a failed write. Errors that retrying cannot cure are
// marked with Permanent.
type Writer func(ctx context.Context, events []models.Event) error

// ErrPermanent marks a write failure caused by the events themselves.
var ErrPermanent = errors.New("permanent write failure")

// Permanent wraps err so the historian stops retrying the events behind it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// DeadLetterQueue names the list that holds events the store refused for good.
func DeadLetterQueue(queue string) string {
	return queue + ":dead"
}

// pendingBatches bounds how many batches the historian holds while the store
// is failing. Past that it stops popping and the backlog stays in Redis.
const pendingBatches = 10

// Service pops events, accumulates them and flushes on size or age.
type Service struct {
	rdb        Popper
	queue      string
	dead       string
	write      Writer
	batchSize  int
	maxPending int
	flushDelay time.Duration
	logger     *logrus.Logger

	batch     []models.Event
	lastFlush time.Time
}

func New(rdb Popper, queue string, write Writer, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		rdb:        rdb,
		queue:      queue,
		dead:       DeadLetterQueue(queue),
		write:      write,
		batchSize:  batchSize,
		maxPending: batchSize * pendingBatches,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]models.Event, 0, batchSize),
		lastFlush:  time.Now(),
	}
}

// Run consumes until ctx is cancelled, then flushes what it holds.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithField("queue", s.queue).Info("historian started")
	defer s.logger.Info("historian stopped")

	for {
		if ctx.Err() != nil {
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.flush(final)
		}

		if len(s.batch) < s.maxPending {
			s.pop(ctx)
		}

		if len(s.batch) >= s.batchSize || (len(s.batch) > 0 && time.Since(s.lastFlush) >= s.flushDelay) {
			if err := s.flush(ctx); err != nil {
				s.logger.WithError(err).WithField("pending", len(s.batch)).Error("flush failed, will retry")
				s.pause(ctx)
			}
		}
	}
}

// pop moves at most one event from the queue into the batch.
func (s *Service) pop(ctx context.Context) {
	res, err := s.rdb.BLPop(ctx, s.flushDelay, s.queue).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		if ctx.Err() == nil {
			s.logger.WithError(err).Error("BLPop failed")
			s.pause(ctx)
		}
	case len(res) == 2:
		// res[0] is the list name and res[1] the payload.
		var ev models.Event
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
			s.logger.WithError(err).Warn("invalid event record, skipped")
			return
		}
		s.batch = append(s.batch, ev)
	}
}

func (s *Service) pause(ctx context.Context) {
	t := time.NewTimer(s.flushDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// flush writes the held batch. On failure the batch is kept for the next
// attempt, except events the store refuses permanently, which are parked on
// the dead-letter list.
func (s *Service) flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	err := s.write(ctx, s.batch)
	if errors.Is(err, ErrPermanent) {
		err = s.isolate(ctx)
	}
	if err != nil {
		return err
	}
	s.logger.WithField("events", len(s.batch)).Debug("flushed events")
	s.batch = s.batch[:0]
	s.lastFlush = time.Now()
	return nil
}

// isolate writes the batch one event at a time, dropping each event from the
// batch once it is stored or dead-lettered.
func (s *Service) isolate(ctx context.Context) error {
	for len(s.batch) > 0 {
		ev := s.batch[0]
		err := s.write(ctx, s.batch[:1])
		if errors.Is(err, ErrPermanent) {
			err = s.bury(ctx, ev, err)
		}
		if err != nil {
			return err
		}
		s.batch = s.batch[1:]
	}
	return nil
}

func (s *Service) bury(ctx context.Context, ev models.Event, cause error) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode dead event %s/%d: %w", ev.TxID, ev.Index, err)
	}
	if err := s.rdb.RPush(ctx, s.dead, b).Err(); err != nil {
		return fmt.Errorf("failed to dead-letter event %s/%d: %w", ev.TxID, ev.Index, err)
	}
	s.logger.WithError(cause).WithFields(logrus.Fields{
		"tx_id": ev.TxID,
		"index": ev.Index,
		"queue": s.dead,
	}).Error("event refused by store, moved to dead-letter list")
	return nil
}
