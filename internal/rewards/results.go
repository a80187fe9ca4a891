// internal/rewards/results.go
package rewards

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
	"github.com/sirupsen/logrus"
)

// MaxBatchRecords caps the number of records in one publish/finish call.
const MaxBatchRecords = 50

// GetScore returns the stored standing, or the zero record when nothing was
// published for (lobbyID, account). Unknown lobbies and accounts are not errors.
func (k *Contract) GetScore(ctx context.Context, lobbyID uint64, account models.Principal) (models.ScoreRecord, error) {
	var rec models.ScoreRecord
	err := k.store.View(ctx, func(r store.Reader) error {
		var err error
		rec, _, err = r.Score(ctx, lobbyID, account)
		return err
	})
	return rec, err
}

// validateBatch checks every record before anything is written. It is the only
// place a batch can be rejected on its contents.
func (c *call) validateBatch(records []models.ResultRecord) error {
	if len(records) > MaxBatchRecords {
		return invalid("batch has %d records, at most %d allowed", len(records), MaxBatchRecords)
	}
	seen := make(map[uint64]bool)
	for i, rec := range records {
		if rec.Address == "" {
			return invalid("record %d: address must not be empty", i)
		}
		if err := checkASCII(fmt.Sprintf("record %d nft", i), rec.NFT, MaxNFTLen); err != nil {
			return err
		}
		if err := checkRecordValues(i, rec.ScoreRecord); err != nil {
			return err
		}
		if seen[rec.LobbyID] {
			continue
		}
		if _, err := c.lobby(rec.LobbyID); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		seen[rec.LobbyID] = true
	}
	return nil
}

func checkRecordValues(i int, r models.ScoreRecord) error {
	for _, n := range []struct {
		field string
		value uint64
	}{
		{"score", r.Score},
		{"rank", r.Rank},
		{"sum-rank-factor", r.SumRankFactor},
		{"rank-factor", r.RankFactor},
		{"rewards", r.Rewards},
		{"rac", r.RAC},
	} {
		if err := checkValue(fmt.Sprintf("record %d %s", i, n.field), n.value); err != nil {
			return err
		}
	}
	return nil
}

func (c *call) writeScores(records []models.ResultRecord) error {
	for _, rec := range records {
		if err := c.tx.PutScore(c.ctx, rec.LobbyID, rec.Address, rec.ScoreRecord); err != nil {
			return fmt.Errorf("failed to store score for %s in lobby %d: %w", rec.Address, rec.LobbyID, err)
		}
	}
	return nil
}

// PublishResultMany records provisional standings. The authority submits the
// batch; a single record pointing at an unknown lobby rejects all of it.
// No value moves at this stage.
func (k *Contract) PublishResultMany(ctx context.Context, caller models.Principal, records []models.ResultRecord) (bool, error) {
	err := k.execute(ctx, "publish-result-many", caller, logrus.Fields{"records": len(records)}, func(c *call) error {
		if err := c.requireAuthority(); err != nil {
			return err
		}
		if err := c.validateBatch(records); err != nil {
			return err
		}
		return c.writeScores(records)
	})
	return err == nil, err
}
