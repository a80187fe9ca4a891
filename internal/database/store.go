package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
)

// Store keeps contract state in Postgres. Every Update runs in one
// serializable transaction.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool. Call EnsureSchema first on a fresh database.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

func (s *Store) View(ctx context.Context, fn func(store.Reader) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

const lobbyColumns = `id, owner, description, mapy, length, traffic, curves,
	price, factor, commission, hours, balance, active`

func scanLobby(row pgx.Row) (models.Lobby, error) {
	var l models.Lobby
	err := row.Scan(
		&l.ID, &l.Owner, &l.Description, &l.Mapy, &l.Length, &l.Traffic, &l.Curves,
		&l.Price, &l.Factor, &l.Commission, &l.Hours, &l.Balance, &l.Active,
	)
	return l, err
}

func (t *pgTx) Authority(ctx context.Context) (models.Principal, error) {
	var p models.Principal
	err := t.tx.QueryRow(ctx, `SELECT principal FROM contract_owner WHERE id = 1`).Scan(&p)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return p, err
}

func (t *pgTx) Lobby(ctx context.Context, id uint64) (models.Lobby, bool, error) {
	l, err := scanLobby(t.tx.QueryRow(ctx, `SELECT `+lobbyColumns+` FROM lobbies WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Lobby{}, false, nil
	}
	if err != nil {
		return models.Lobby{}, false, err
	}
	return l, true, nil
}

func (t *pgTx) Lobbies(ctx context.Context) ([]models.Lobby, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+lobbyColumns+` FROM lobbies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lobby
	for rows.Next() {
		l, err := scanLobby(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) LastLobbyID(ctx context.Context) (uint64, error) {
	var id uint64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM lobbies`).Scan(&id)
	return id, err
}

func (t *pgTx) HasJoined(ctx context.Context, lobbyID uint64, account models.Principal) (bool, error) {
	var joined bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lobby_participants WHERE lobby_id = $1 AND principal = $2
		)`, lobbyID, account).Scan(&joined)
	return joined, err
}

func (t *pgTx) Score(ctx context.Context, lobbyID uint64, account models.Principal) (models.ScoreRecord, bool, error) {
	var r models.ScoreRecord
	err := t.tx.QueryRow(ctx, `
		SELECT score, rank, sum_rank_factor, rank_factor, rewards, rac, nft
		FROM scores
		WHERE lobby_id = $1 AND principal = $2
	`, lobbyID, account).Scan(
		&r.Score, &r.Rank, &r.SumRankFactor, &r.RankFactor, &r.Rewards, &r.RAC, &r.NFT,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ScoreRecord{}, false, nil
	}
	if err != nil {
		return models.ScoreRecord{}, false, err
	}
	return r, true, nil
}

func (t *pgTx) SetAuthority(ctx context.Context, account models.Principal) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO contract_owner (id, principal) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET principal = EXCLUDED.principal
	`, account)
	return err
}

func (t *pgTx) PutLobby(ctx context.Context, l models.Lobby) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO lobbies (`+lobbyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			owner = EXCLUDED.owner,
			description = EXCLUDED.description,
			mapy = EXCLUDED.mapy,
			length = EXCLUDED.length,
			traffic = EXCLUDED.traffic,
			curves = EXCLUDED.curves,
			price = EXCLUDED.price,
			factor = EXCLUDED.factor,
			commission = EXCLUDED.commission,
			hours = EXCLUDED.hours,
			balance = EXCLUDED.balance,
			active = EXCLUDED.active
	`,
		l.ID, l.Owner, l.Description, l.Mapy, l.Length, l.Traffic, l.Curves,
		l.Price, l.Factor, l.Commission, l.Hours, l.Balance, l.Active,
	)
	return err
}

func (t *pgTx) AddParticipant(ctx context.Context, lobbyID uint64, account models.Principal) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO lobby_participants (lobby_id, principal) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, lobbyID, account)
	return err
}

func (t *pgTx) PutScore(ctx context.Context, lobbyID uint64, account models.Principal, r models.ScoreRecord) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO scores (lobby_id, principal, score, rank, sum_rank_factor, rank_factor, rewards, rac, nft)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (lobby_id, principal) DO UPDATE SET
			score = EXCLUDED.score,
			rank = EXCLUDED.rank,
			sum_rank_factor = EXCLUDED.sum_rank_factor,
			rank_factor = EXCLUDED.rank_factor,
			rewards = EXCLUDED.rewards,
			rac = EXCLUDED.rac,
			nft = EXCLUDED.nft
	`, lobbyID, account, r.Score, r.Rank, r.SumRankFactor, r.RankFactor, r.Rewards, r.RAC, r.NFT)
	return err
}
