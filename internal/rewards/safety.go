package rewards

import (
	"context"

	"github.com/jason-s-yu/trustless-rewards/internal/ledger"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/sirupsen/logrus"
)

// Authority-only withdrawals out of the pool. Each call is gated on its own.

// TransferValue moves amount of the native currency from the pool to recipient.
func (k *Contract) TransferValue(ctx context.Context, caller, recipient models.Principal, amount uint64) (bool, error) {
	return k.drain(ctx, "transfer-stx", caller, ledger.Transfer{
		Kind:      ledger.Native,
		Sender:    k.pool,
		Recipient: recipient,
		Amount:    amount,
	})
}

// TransferFungible moves amount of the fungible token contract from the pool to recipient.
func (k *Contract) TransferFungible(ctx context.Context, caller, recipient models.Principal, amount uint64, token string) (bool, error) {
	return k.drain(ctx, "transfer-ft", caller, ledger.Transfer{
		Kind:      ledger.Fungible,
		Asset:     token,
		Sender:    k.pool,
		Recipient: recipient,
		Amount:    amount,
	})
}

// TransferNonFungible hands token id tokenID of the token contract from the pool to recipient.
func (k *Contract) TransferNonFungible(ctx context.Context, caller, recipient models.Principal, tokenID uint64, token string) (bool, error) {
	return k.drain(ctx, "transfer-nft", caller, ledger.Transfer{
		Kind:      ledger.NonFungible,
		Asset:     token,
		Sender:    k.pool,
		Recipient: recipient,
		TokenID:   tokenID,
	})
}

func (k *Contract) drain(ctx context.Context, op string, caller models.Principal, t ledger.Transfer) (bool, error) {
	fields := logrus.Fields{
		"recipient": t.Recipient,
		"amount":    t.Amount,
		"asset":     t.Asset,
		"token_id":  t.TokenID,
	}
	err := k.execute(ctx, op, caller, fields, func(c *call) error {
		if err := c.requireAuthority(); err != nil {
			return err
		}
		if t.Recipient == "" {
			return invalid("recipient must not be empty")
		}
		if t.Recipient == k.pool {
			return invalid("recipient must not be the pool")
		}
		if err := checkValue("amount", t.Amount); err != nil {
			return err
		}
		if err := checkValue("token id", t.TokenID); err != nil {
			return err
		}
		c.transfer(t)
		return nil
	})
	return err == nil, err
}
