// internal/ledger/memory.go
package ledger

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

type balanceKey struct {
	asset string
	owner models.Principal
}

type tokenKey struct {
	asset string
	id    uint64
}

// Memory is an in-process ledger used for devnet runs and tests.
// It keeps native and fungible balances and non-fungible ownership.
type Memory struct {
	mu       sync.Mutex
	balances map[balanceKey]uint64
	owners   map[tokenKey]models.Principal
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[balanceKey]uint64),
		owners:   make(map[tokenKey]models.Principal),
	}
}

// Mint credits amount of asset ("" for native) to owner. It fails with
// ErrOverflow rather than wrap the balance.
func (m *Memory) Mint(asset string, owner models.Principal, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := balanceKey{asset, owner}
	if m.balances[k] > math.MaxUint64-amount {
		return fmt.Errorf("mint %d to %s: %w", amount, owner, ErrOverflow)
	}
	m.balances[k] += amount
	return nil
}

// MintNFT assigns token id of asset to owner.
func (m *Memory) MintNFT(asset string, id uint64, owner models.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[tokenKey{asset, id}] = owner
}

// Balance returns owner's balance of asset ("" for native).
func (m *Memory) Balance(asset string, owner models.Principal) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[balanceKey{asset, owner}]
}

// OwnerOf returns the holder of a non-fungible token, if minted.
func (m *Memory) OwnerOf(asset string, id uint64) (models.Principal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.owners[tokenKey{asset, id}]
	return p, ok
}

// Apply runs the batch against a staged copy of the touched entries and only
// writes the result back when every transfer succeeded.
func (m *Memory) Apply(ctx context.Context, transfers []Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	balances := make(map[balanceKey]uint64)
	owners := make(map[tokenKey]models.Principal)
	balance := func(k balanceKey) uint64 {
		if v, ok := balances[k]; ok {
			return v
		}
		return m.balances[k]
	}
	owner := func(k tokenKey) (models.Principal, bool) {
		if v, ok := owners[k]; ok {
			return v, true
		}
		v, ok := m.owners[k]
		return v, ok
	}

	for i, t := range transfers {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transfer %d (%s): %w", i, t.Kind, err)
		}
		switch t.Kind {
		case Native, Fungible:
			asset := t.Asset
			if t.Kind == Native {
				asset = ""
			}
			from := balanceKey{asset, t.Sender}
			to := balanceKey{asset, t.Recipient}
			have := balance(from)
			if have < t.Amount {
				return fmt.Errorf("transfer %d (%s %d from %s): %w", i, t.Kind, t.Amount, t.Sender, ErrInsufficientFunds)
			}
			balances[from] = have - t.Amount
			cur := balance(to)
			if cur > math.MaxUint64-t.Amount {
				return fmt.Errorf("transfer %d (%s %d to %s): %w", i, t.Kind, t.Amount, t.Recipient, ErrOverflow)
			}
			balances[to] = cur + t.Amount
		case NonFungible:
			k := tokenKey{t.Asset, t.TokenID}
			cur, ok := owner(k)
			if !ok || cur != t.Sender {
				return fmt.Errorf("transfer %d (nft %s#%d): %w", i, t.Asset, t.TokenID, ErrNotOwner)
			}
			owners[k] = t.Recipient
		default:
			return fmt.Errorf("transfer %d: unknown kind %s", i, t.Kind)
		}
	}

	for k, v := range balances {
		m.balances[k] = v
	}
	for k, v := range owners {
		m.owners[k] = v
	}
	return nil
}

// ParseGenesis reads "principal:amount" pairs separated by commas and mints the
// native balances. An empty string is a no-op.
func (m *Memory) ParseGenesis(balances string) error {
	for _, part := range strings.Split(balances, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.LastIndex(part, ":")
		if idx <= 0 {
			return fmt.Errorf("genesis entry %q: expected principal:amount", part)
		}
		amount, err := strconv.ParseUint(part[idx+1:], 10, 64)
		if err != nil {
			return fmt.Errorf("genesis entry %q: %w", part, err)
		}
		if err := m.Mint("", models.Principal(part[:idx]), amount); err != nil {
			return fmt.Errorf("genesis entry %q: %w", part, err)
		}
	}
	return nil
}
