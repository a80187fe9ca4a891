// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

type entryKey struct {
	lobbyID uint64
	account models.Principal
}

// Memory keeps contract state in process. Update stages writes in an overlay
// and merges it only on success, so a failed call leaves no trace.
type Memory struct {
	mu sync.RWMutex

	authority    models.Principal
	lobbies      map[uint64]models.Lobby
	lastID       uint64
	participants map[entryKey]struct{}
	scores       map[entryKey]models.ScoreRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		lobbies:      make(map[uint64]models.Lobby),
		participants: make(map[entryKey]struct{}),
		scores:       make(map[entryKey]models.ScoreRecord),
	}
}

func (m *Memory) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.overlay())
}

func (m *Memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := m.overlay()
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *Memory) overlay() *memTx {
	return &memTx{
		base:         m,
		lastID:       m.lastID,
		lobbies:      make(map[uint64]models.Lobby),
		participants: make(map[entryKey]struct{}),
		scores:       make(map[entryKey]models.ScoreRecord),
	}
}

// memTx reads through to base for anything it has not staged itself.
type memTx struct {
	base *Memory

	authority    *models.Principal
	lastID       uint64
	lobbies      map[uint64]models.Lobby
	participants map[entryKey]struct{}
	scores       map[entryKey]models.ScoreRecord
}

func (tx *memTx) commit() {
	m := tx.base
	if tx.authority != nil {
		m.authority = *tx.authority
	}
	for id, l := range tx.lobbies {
		m.lobbies[id] = l
	}
	m.lastID = tx.lastID
	for k := range tx.participants {
		m.participants[k] = struct{}{}
	}
	for k, rec := range tx.scores {
		m.scores[k] = rec
	}
}

func (tx *memTx) Authority(context.Context) (models.Principal, error) {
	if tx.authority != nil {
		return *tx.authority, nil
	}
	return tx.base.authority, nil
}

func (tx *memTx) Lobby(_ context.Context, id uint64) (models.Lobby, bool, error) {
	if l, ok := tx.lobbies[id]; ok {
		return l, true, nil
	}
	l, ok := tx.base.lobbies[id]
	return l, ok, nil
}

func (tx *memTx) Lobbies(context.Context) ([]models.Lobby, error) {
	merged := make(map[uint64]models.Lobby, len(tx.base.lobbies)+len(tx.lobbies))
	for id, l := range tx.base.lobbies {
		merged[id] = l
	}
	for id, l := range tx.lobbies {
		merged[id] = l
	}
	out := make([]models.Lobby, 0, len(merged))
	for _, l := range merged {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) LastLobbyID(context.Context) (uint64, error) {
	return tx.lastID, nil
}

func (tx *memTx) HasJoined(_ context.Context, lobbyID uint64, account models.Principal) (bool, error) {
	k := entryKey{lobbyID, account}
	if _, ok := tx.participants[k]; ok {
		return true, nil
	}
	_, ok := tx.base.participants[k]
	return ok, nil
}

func (tx *memTx) Score(_ context.Context, lobbyID uint64, account models.Principal) (models.ScoreRecord, bool, error) {
	k := entryKey{lobbyID, account}
	if rec, ok := tx.scores[k]; ok {
		return rec, true, nil
	}
	rec, ok := tx.base.scores[k]
	return rec, ok, nil
}

func (tx *memTx) SetAuthority(_ context.Context, account models.Principal) error {
	tx.authority = &account
	return nil
}

func (tx *memTx) PutLobby(_ context.Context, lobby models.Lobby) error {
	tx.lobbies[lobby.ID] = lobby
	if lobby.ID > tx.lastID {
		tx.lastID = lobby.ID
	}
	return nil
}

func (tx *memTx) AddParticipant(_ context.Context, lobbyID uint64, account models.Principal) error {
	tx.participants[entryKey{lobbyID, account}] = struct{}{}
	return nil
}

func (tx *memTx) PutScore(_ context.Context, lobbyID uint64, account models.Principal, rec models.ScoreRecord) error {
	tx.scores[entryKey{lobbyID, account}] = rec
	return nil
}
