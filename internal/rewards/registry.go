// internal/rewards/registry.go
package rewards

import (
	"context"
	"fmt"
	"math"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
	"github.com/sirupsen/logrus"
)

// Text bounds for lobby metadata and result perks.
const (
	MaxDescriptionLen = 99
	MaxTrackFieldLen  = 30
	MaxNFTLen         = 99
)

// MaxValue caps every numeric field a call stores or moves, so values fit a
// signed 64-bit column.
const MaxValue uint64 = math.MaxInt64

// checkValue rejects numbers above MaxValue.
func checkValue(field string, v uint64) error {
	if v > MaxValue {
		return invalid("%s %d exceeds %d", field, v, MaxValue)
	}
	return nil
}

// checkASCII rejects text that is too long or outside printable ASCII.
func checkASCII(field, s string, max int) error {
	if len(s) > max {
		return invalid("%s longer than %d characters", field, max)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return invalid("%s contains non-printable or non-ascii byte at %d", field, i)
		}
	}
	return nil
}

// ValidateLobbyParams checks the text and numeric bounds of a lobby request.
func ValidateLobbyParams(p models.LobbyParams) error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"description", p.Description, MaxDescriptionLen},
		{"mapy", p.Mapy, MaxTrackFieldLen},
		{"length", p.Length, MaxTrackFieldLen},
		{"traffic", p.Traffic, MaxTrackFieldLen},
		{"curves", p.Curves, MaxTrackFieldLen},
	}
	for _, c := range checks {
		if err := checkASCII(c.field, c.value, c.max); err != nil {
			return err
		}
	}
	numbers := []struct {
		field string
		value uint64
	}{
		{"price", p.Price},
		{"factor", p.Factor},
		{"commission", p.Commission},
		{"hours", p.Hours},
	}
	for _, n := range numbers {
		if err := checkValue(n.field, n.value); err != nil {
			return err
		}
	}
	return nil
}

// CreateLobby registers a new active lobby owned by caller and returns its id.
// Any account may create lobbies.
func (k *Contract) CreateLobby(ctx context.Context, caller models.Principal, p models.LobbyParams) (uint64, error) {
	var id uint64
	err := k.execute(ctx, "create-lobby", caller, logrus.Fields{"price": p.Price}, func(c *call) error {
		if caller == "" {
			return invalid("caller must not be empty")
		}
		if err := ValidateLobbyParams(p); err != nil {
			return err
		}
		last, err := c.tx.LastLobbyID(c.ctx)
		if err != nil {
			return fmt.Errorf("failed to read lobby sequence: %w", err)
		}
		id = last + 1

		lobby := models.Lobby{
			ID:          id,
			Owner:       caller,
			Description: p.Description,
			Mapy:        p.Mapy,
			Length:      p.Length,
			Traffic:     p.Traffic,
			Curves:      p.Curves,
			Price:       p.Price,
			Factor:      p.Factor,
			Commission:  p.Commission,
			Hours:       p.Hours,
			Balance:     p.Price,
			Active:      true,
		}
		if err := c.tx.PutLobby(c.ctx, lobby); err != nil {
			return fmt.Errorf("failed to store lobby %d: %w", id, err)
		}
		c.print("lobby-created", map[string]interface{}{
			"lobby-id": id,
			"owner":    caller.String(),
			"price":    p.Price,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetLobby returns the lobby snapshot, or false when id is unknown.
func (k *Contract) GetLobby(ctx context.Context, id uint64) (models.Lobby, bool, error) {
	var (
		l  models.Lobby
		ok bool
	)
	err := k.store.View(ctx, func(r store.Reader) error {
		var err error
		l, ok, err = r.Lobby(ctx, id)
		return err
	})
	return l, ok, err
}

// ListLobbies returns every lobby in id order.
func (k *Contract) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	var out []models.Lobby
	err := k.store.View(ctx, func(r store.Reader) error {
		var err error
		out, err = r.Lobbies(ctx)
		return err
	})
	return out, err
}

// DisableLobby marks the lobby inactive so no further joins are accepted.
// Only the lobby owner may call it; disabling twice succeeds.
func (k *Contract) DisableLobby(ctx context.Context, caller models.Principal, id uint64) (bool, error) {
	err := k.execute(ctx, "disable-lobby", caller, logrus.Fields{"lobby": id}, func(c *call) error {
		l, err := c.lobby(id)
		if err != nil {
			return err
		}
		if caller == "" || l.Owner != caller {
			return ErrUnauthorized
		}
		if !l.Active {
			return nil
		}
		l.Active = false
		if err := c.tx.PutLobby(c.ctx, l); err != nil {
			return fmt.Errorf("failed to store lobby %d: %w", id, err)
		}
		return nil
	})
	return err == nil, err
}
