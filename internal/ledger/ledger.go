// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

// Kind is the asset class a transfer moves.
type Kind uint8

const (
	Native Kind = iota
	Fungible
	NonFungible
)

func (k Kind) String() string {
	switch k {
	case Native:
		return "stx"
	case Fungible:
		return "ft"
	case NonFungible:
		return "nft"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Transfer is a single asset movement. Asset names the token contract for
// fungible and non-fungible transfers and is empty for the native currency.
type Transfer struct {
	Kind      Kind
	Asset     string
	Sender    models.Principal
	Recipient models.Principal
	Amount    uint64
	TokenID   uint64
}

// Gateway moves value between accounts. Apply must be all-or-nothing: either
// every transfer in the batch lands, in order, or none does.
type Gateway interface {
	Apply(ctx context.Context, transfers []Transfer) error
}

var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrNotOwner          = errors.New("sender does not own token")
	ErrZeroAmount        = errors.New("transfer amount must be positive")
	ErrSelfTransfer      = errors.New("sender and recipient are the same")
	ErrMissingAsset      = errors.New("token contract is required")
	ErrOverflow          = errors.New("balance would overflow")
)

// Validate checks the shape of a transfer independent of balances.
func (t Transfer) Validate() error {
	if t.Sender == t.Recipient {
		return ErrSelfTransfer
	}
	if t.Kind != Native && t.Asset == "" {
		return ErrMissingAsset
	}
	if t.Kind != NonFungible && t.Amount == 0 {
		return ErrZeroAmount
	}
	return nil
}
