// Package store defines the transactional state the rewards contract runs on.
package store

import (
	"context"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

// Reader exposes read-only access to contract state.
type Reader interface {
	// Authority returns the global authority, or "" when none has been seeded.
	Authority(ctx context.Context) (models.Principal, error)
	Lobby(ctx context.Context, id uint64) (models.Lobby, bool, error)
	// Lobbies returns every lobby ordered by id.
	Lobbies(ctx context.Context) ([]models.Lobby, error)
	// LastLobbyID returns the highest allocated lobby id, 0 if none.
	LastLobbyID(ctx context.Context) (uint64, error)
	HasJoined(ctx context.Context, lobbyID uint64, account models.Principal) (bool, error)
	Score(ctx context.Context, lobbyID uint64, account models.Principal) (models.ScoreRecord, bool, error)
}

// Tx is a Reader that can also stage writes. Writes become visible to other
// callers only once the enclosing Update returns nil.
type Tx interface {
	Reader
	SetAuthority(ctx context.Context, account models.Principal) error
	PutLobby(ctx context.Context, lobby models.Lobby) error
	AddParticipant(ctx context.Context, lobbyID uint64, account models.Principal) error
	PutScore(ctx context.Context, lobbyID uint64, account models.Principal, rec models.ScoreRecord) error
}

// Store runs functions against contract state. Update commits every staged
// write if fn returns nil and discards all of them otherwise.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Tx) error) error
}
