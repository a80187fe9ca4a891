package models

// ScoreRecord is the stored standing of one account in one lobby.
// The zero value is what reads return for accounts with no published result.
type ScoreRecord struct {
	Score         uint64 `json:"score"`
	Rank          uint64 `json:"rank"`
	SumRankFactor uint64 `json:"sum-rank-factor"`
	RankFactor    uint64 `json:"rank-factor"`
	Rewards       uint64 `json:"rewards"`
	// RAC is the reward amount confirmed by the authority: the literal payout.
	RAC uint64 `json:"rac"`
	NFT string `json:"nft"`
}

// ResultRecord is one row of a publish/finish batch.
type ResultRecord struct {
	LobbyID uint64    `json:"lobby-id"`
	Address Principal `json:"address"`
	ScoreRecord
}
