package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool against url and pings it before returning.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS contract_owner (
	id        SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	principal TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lobbies (
	id          BIGINT PRIMARY KEY,
	owner       TEXT NOT NULL,
	description TEXT NOT NULL,
	mapy        TEXT NOT NULL,
	length      TEXT NOT NULL,
	traffic     TEXT NOT NULL,
	curves      TEXT NOT NULL,
	price       BIGINT NOT NULL,
	factor      BIGINT NOT NULL,
	commission  BIGINT NOT NULL,
	hours       BIGINT NOT NULL,
	balance     BIGINT NOT NULL,
	active      BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS lobby_participants (
	lobby_id  BIGINT NOT NULL REFERENCES lobbies (id),
	principal TEXT NOT NULL,
	joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (lobby_id, principal)
);

CREATE TABLE IF NOT EXISTS scores (
	lobby_id        BIGINT NOT NULL REFERENCES lobbies (id),
	principal       TEXT NOT NULL,
	score           BIGINT NOT NULL,
	rank            BIGINT NOT NULL,
	sum_rank_factor BIGINT NOT NULL,
	rank_factor     BIGINT NOT NULL,
	rewards         BIGINT NOT NULL,
	rac             BIGINT NOT NULL,
	nft             TEXT NOT NULL,
	PRIMARY KEY (lobby_id, principal)
);

CREATE TABLE IF NOT EXISTS contract_events (
	tx_id      UUID NOT NULL,
	idx        INT NOT NULL,
	type       TEXT NOT NULL,
	sender     TEXT NOT NULL DEFAULT '',
	recipient  TEXT NOT NULL DEFAULT '',
	amount     BIGINT NOT NULL DEFAULT 0,
	asset      TEXT NOT NULL DEFAULT '',
	token_id   BIGINT NOT NULL DEFAULT 0,
	topic      TEXT NOT NULL DEFAULT '',
	payload    JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (tx_id, idx)
);
`

// EnsureSchema creates the contract tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
