package rewards

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/trustless-rewards/internal/ledger"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
	"github.com/sirupsen/logrus"
)

// Join stakes the lobby's entry price from caller into the pool and records
// the participation. Each account joins a lobby at most once; every reject
// path happens before any value moves.
func (k *Contract) Join(ctx context.Context, caller models.Principal, lobbyID uint64) (uint, error) {
	err := k.execute(ctx, "join", caller, logrus.Fields{"lobby": lobbyID}, func(c *call) error {
		if caller == "" {
			return invalid("caller must not be empty")
		}
		if caller == k.pool {
			return invalid("the pool account cannot join a lobby")
		}
		l, err := c.lobby(lobbyID)
		if err != nil {
			return err
		}
		if !l.Active {
			return ErrForbidden
		}
		joined, err := c.tx.HasJoined(c.ctx, lobbyID, caller)
		if err != nil {
			return fmt.Errorf("failed to check participation: %w", err)
		}
		if joined {
			return ErrAlreadyJoined
		}

		if l.Price > 0 {
			c.transfer(ledger.Transfer{
				Kind:      ledger.Native,
				Sender:    caller,
				Recipient: k.pool,
				Amount:    l.Price,
			})
		}
		if err := c.tx.AddParticipant(c.ctx, lobbyID, caller); err != nil {
			return fmt.Errorf("failed to record participation: %w", err)
		}
		return nil
	})
	if err != nil {
		return CodeOf(err), err
	}
	return CodeJoined, nil
}

// HasJoined reports whether account has a participation record for the lobby.
func (k *Contract) HasJoined(ctx context.Context, lobbyID uint64, account models.Principal) (bool, error) {
	var joined bool
	err := k.store.View(ctx, func(r store.Reader) error {
		var err error
		joined, err = r.HasJoined(ctx, lobbyID, account)
		return err
	})
	return joined, err
}
