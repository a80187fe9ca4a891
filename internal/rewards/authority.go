package rewards

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
	"github.com/sirupsen/logrus"
)

// Authority returns the account allowed to settle results and move pool funds.
func (k *Contract) Authority(ctx context.Context) (models.Principal, error) {
	var p models.Principal
	err := k.store.View(ctx, func(r store.Reader) error {
		var err error
		p, err = r.Authority(ctx)
		return err
	})
	return p, err
}

// IsAuthority reports whether account currently holds the authority slot.
func (k *Contract) IsAuthority(ctx context.Context, account models.Principal) (bool, error) {
	p, err := k.Authority(ctx)
	if err != nil {
		return false, err
	}
	return account != "" && account == p, nil
}

// SetAuthority hands the authority slot to newAccount. Only the incumbent may call it.
func (k *Contract) SetAuthority(ctx context.Context, caller, newAccount models.Principal) (bool, error) {
	err := k.execute(ctx, "set-owner", caller, logrus.Fields{"new_owner": newAccount}, func(c *call) error {
		if err := c.requireAuthority(); err != nil {
			return err
		}
		if newAccount == "" {
			return invalid("new owner must not be empty")
		}
		return c.tx.SetAuthority(c.ctx, newAccount)
	})
	return err == nil, err
}

func (c *call) requireAuthority() error {
	p, err := c.tx.Authority(c.ctx)
	if err != nil {
		return fmt.Errorf("failed to load authority: %w", err)
	}
	if c.caller == "" || c.caller != p {
		return ErrUnauthorized
	}
	return nil
}
