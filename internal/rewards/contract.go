// internal/rewards/contract.go
package rewards

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trustless-rewards/internal/events"
	"github.com/jason-s-yu/trustless-rewards/internal/ledger"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
	"github.com/sirupsen/logrus"
)

// publishTimeout bounds how long a committed call waits on its sinks.
const publishTimeout = 5 * time.Second

// Config holds the identities the contract is deployed with.
type Config struct {
	// Pool is the contract's own account; stakes are paid into it and rewards out of it.
	Pool models.Principal
	// Deployer seeds the global authority when the store has none yet.
	Deployer models.Principal
}

// Contract is the lobby lifecycle and settlement state machine. Mutating calls
// are serialized and each runs to completion or leaves no trace.
type Contract struct {
	mu sync.Mutex

	store  store.Store
	ledger ledger.Gateway
	sink   events.Sink
	logger *logrus.Logger
	pool   models.Principal

	// now stamps events; replaced in tests.
	now func() time.Time
}

// New wires the contract and seeds the authority slot on first use.
func New(ctx context.Context, cfg Config, st store.Store, gw ledger.Gateway, sink events.Sink, logger *logrus.Logger) (*Contract, error) {
	if cfg.Pool == "" {
		return nil, fmt.Errorf("contract pool principal is required")
	}
	if sink == nil {
		sink = events.Discard{}
	}
	if logger == nil {
		logger = logrus.New()
	}

	err := st.Update(ctx, func(tx store.Tx) error {
		cur, err := tx.Authority(ctx)
		if err != nil {
			return err
		}
		if cur != "" {
			return nil
		}
		if cfg.Deployer == "" {
			return fmt.Errorf("no authority stored and no deployer configured")
		}
		return tx.SetAuthority(ctx, cfg.Deployer)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed authority: %w", err)
	}

	return &Contract{
		store:  st,
		ledger: gw,
		sink:   sink,
		logger: logger,
		pool:   cfg.Pool,
		now:    time.Now,
	}, nil
}

// Pool returns the contract's own account.
func (k *Contract) Pool() models.Principal { return k.pool }

// call is the staging area for one mutating operation.
type call struct {
	ctx       context.Context
	tx        store.Tx
	caller    models.Principal
	transfers []ledger.Transfer
	events    []models.Event
}

// transfer plans an asset movement and the event that reports it.
func (c *call) transfer(t ledger.Transfer) {
	c.transfers = append(c.transfers, t)
	ev := models.Event{
		Sender:    t.Sender,
		Recipient: t.Recipient,
	}
	switch t.Kind {
	case ledger.Native:
		ev.Type = models.EventSTXTransfer
		ev.Amount = t.Amount
	case ledger.Fungible:
		ev.Type = models.EventFTTransfer
		ev.Amount = t.Amount
		ev.Asset = t.Asset
	case ledger.NonFungible:
		ev.Type = models.EventNFTTransfer
		ev.Asset = t.Asset
		ev.TokenID = t.TokenID
	}
	c.events = append(c.events, ev)
}

func (c *call) print(topic string, payload map[string]interface{}) {
	c.events = append(c.events, models.Event{
		Type:    models.EventPrint,
		Topic:   topic,
		Payload: payload,
	})
}

// execute runs fn inside one store transaction. The transfer plan is handed to
// the ledger last, so any rejection before or during it rolls back the writes.
// Events go out only after commit.
func (k *Contract) execute(ctx context.Context, op string, caller models.Principal, fields logrus.Fields, fn func(*call) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var committed *call
	err := k.store.Update(ctx, func(tx store.Tx) error {
		c := &call{ctx: ctx, tx: tx, caller: caller}
		if err := fn(c); err != nil {
			return err
		}
		if len(c.transfers) > 0 {
			if err := k.ledger.Apply(ctx, c.transfers); err != nil {
				return fmt.Errorf("ledger rejected transfers: %w", err)
			}
		}
		committed = c
		return nil
	})

	entry := k.logger.WithFields(fields).WithFields(logrus.Fields{
		"op":     op,
		"caller": caller,
	})
	if err != nil {
		code := CodeOf(err)
		entry = entry.WithField("code", code).WithError(err)
		if code == CodeInternal {
			entry.Error("call failed")
		} else {
			entry.Info("call rejected")
		}
		return err
	}

	k.publish(ctx, committed.events, entry)
	entry.WithField("events", len(committed.events)).Debug("call committed")
	return nil
}

// publish ships the events of a committed call. The caller's cancellation is
// not inherited: the value already moved, so its events must still go out.
func (k *Contract) publish(ctx context.Context, evs []models.Event, entry *logrus.Entry) {
	if len(evs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	txID := uuid.New()
	ts := k.now().UnixMilli()
	for i := range evs {
		evs[i].TxID = txID
		evs[i].Index = i
		evs[i].Timestamp = ts
	}
	if err := k.sink.Publish(ctx, evs); err != nil {
		entry.WithError(err).WithField("tx_id", txID).Warn("failed to publish events")
	}
}

// lobby loads a lobby or fails with ErrNotFound.
func (c *call) lobby(id uint64) (models.Lobby, error) {
	l, ok, err := c.tx.Lobby(c.ctx, id)
	if err != nil {
		return models.Lobby{}, fmt.Errorf("failed to load lobby %d: %w", id, err)
	}
	if !ok {
		return models.Lobby{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return l, nil
}
