package models

import "github.com/google/uuid"

// EventType names the kind of side-channel event a call emitted.
type EventType string

const (
	EventSTXTransfer EventType = "stx_transfer_event"
	EventFTTransfer  EventType = "ft_transfer_event"
	EventNFTTransfer EventType = "nft_transfer_event"
	EventPrint       EventType = "print_event"
)

// Event is emitted for off-chain observers once the call that produced it has committed.
type Event struct {
	TxID  uuid.UUID `json:"tx_id"`
	Index int       `json:"index"`
	Type  EventType `json:"type"`

	Sender    Principal `json:"sender,omitempty"`
	Recipient Principal `json:"recipient,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	// Asset is the token contract for ft/nft transfers; empty for native currency.
	Asset   string `json:"asset,omitempty"`
	TokenID uint64 `json:"token_id,omitempty"`

	Topic   string                 `json:"topic,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`

	Timestamp int64 `json:"timestamp"`
}
