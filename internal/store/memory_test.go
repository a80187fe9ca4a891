package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCommitsStagedWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	err := s.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.SetAuthority(ctx, "deployer"))
		require.NoError(t, tx.PutLobby(ctx, models.Lobby{ID: 1, Price: 5, Active: true}))
		require.NoError(t, tx.AddParticipant(ctx, 1, "w1"))

		// staged writes are visible inside the same transaction
		joined, err := tx.HasJoined(ctx, 1, "w1")
		require.NoError(t, err)
		assert.True(t, joined)
		return nil
	})
	require.NoError(t, err)

	err = s.View(ctx, func(r Reader) error {
		auth, _ := r.Authority(ctx)
		assert.Equal(t, models.Principal("deployer"), auth)
		last, _ := r.LastLobbyID(ctx)
		assert.Equal(t, uint64(1), last)
		l, ok, _ := r.Lobby(ctx, 1)
		assert.True(t, ok)
		assert.Equal(t, uint64(5), l.Price)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx Tx) error {
		_ = tx.PutLobby(ctx, models.Lobby{ID: 1})
		_ = tx.PutScore(ctx, 1, "w1", models.ScoreRecord{RAC: 4})
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = s.View(ctx, func(r Reader) error {
		last, _ := r.LastLobbyID(ctx)
		assert.Zero(t, last)
		_, ok, _ := r.Score(ctx, 1, "w1")
		assert.False(t, ok)
		lobbies, _ := r.Lobbies(ctx)
		assert.Empty(t, lobbies)
		return nil
	})
}

func TestLobbiesAreOrderedAcrossOverlay(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		_ = tx.PutLobby(ctx, models.Lobby{ID: 2})
		return tx.PutLobby(ctx, models.Lobby{ID: 1})
	}))
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		_ = tx.PutLobby(ctx, models.Lobby{ID: 3})
		lobbies, err := tx.Lobbies(ctx)
		require.NoError(t, err)
		require.Len(t, lobbies, 3)
		for i, l := range lobbies {
			assert.Equal(t, uint64(i+1), l.ID)
		}
		return nil
	}))
}
