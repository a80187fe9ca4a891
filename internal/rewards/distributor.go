package rewards

import (
	"context"

	"github.com/jason-s-yu/trustless-rewards/internal/ledger"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/sirupsen/logrus"
)

// FinishResultMany records final standings and pays each record's RAC from
// the pool to its address, in list order. Rewards is stored but never moved.
//
// Each record produces a transfer event (skipped when RAC is zero) followed by
// a "result-finished" print event. The whole batch is one ledger call, so an
// underfunded pool rejects every record, including the score writes.
func (k *Contract) FinishResultMany(ctx context.Context, caller models.Principal, records []models.ResultRecord) (bool, error) {
	err := k.execute(ctx, "finish-result-many", caller, logrus.Fields{"records": len(records)}, func(c *call) error {
		if err := c.requireAuthority(); err != nil {
			return err
		}
		if err := c.validateBatch(records); err != nil {
			return err
		}
		if err := c.writeScores(records); err != nil {
			return err
		}
		for _, rec := range records {
			if rec.RAC > 0 {
				c.transfer(ledger.Transfer{
					Kind:      ledger.Native,
					Sender:    k.pool,
					Recipient: rec.Address,
					Amount:    rec.RAC,
				})
			}
			c.print("result-finished", map[string]interface{}{
				"lobby-id":        rec.LobbyID,
				"address":         rec.Address.String(),
				"score":           rec.Score,
				"rank":            rec.Rank,
				"sum-rank-factor": rec.SumRankFactor,
				"rank-factor":     rec.RankFactor,
				"rewards":         rec.Rewards,
				"rac":             rec.RAC,
				"nft":             rec.NFT,
			})
		}
		return nil
	})
	return err == nil, err
}
