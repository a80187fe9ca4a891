package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

// ErrBadEvent reports an event that cannot be encoded for storage.
var ErrBadEvent = errors.New("event cannot be stored")

// IsPermanent reports whether an insert failed on the data itself rather than
// on the connection: data exceptions (class 22), constraint violations (class
// 23) and events that do not encode.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrBadEvent) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return true
		}
	}
	return false
}

// InsertEvents persists a batch of contract events in one transaction.
// Re-delivered events (same tx id and index) are ignored.
func InsertEvents(ctx context.Context, pool *pgxpool.Pool, evs []models.Event) error {
	if len(evs) == 0 {
		return nil
	}
	q := `
		INSERT INTO contract_events (
			tx_id, idx, type, sender, recipient, amount, asset, token_id, topic, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tx_id, idx) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, ev := range evs {
			var payload []byte
			if ev.Payload != nil {
				b, err := json.Marshal(ev.Payload)
				if err != nil {
					return fmt.Errorf("%w: payload of %s/%d: %w", ErrBadEvent, ev.TxID, ev.Index, err)
				}
				payload = b
			}
			_, err := tx.Exec(ctx, q,
				ev.TxID, ev.Index, string(ev.Type), ev.Sender, ev.Recipient,
				ev.Amount, ev.Asset, ev.TokenID, ev.Topic, payload,
				time.UnixMilli(ev.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("failed to insert event %s/%d: %w", ev.TxID, ev.Index, err)
			}
		}
		return nil
	})
}
