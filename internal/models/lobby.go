// internal/models/lobby.go
package models

// Principal identifies an account on the ledger, e.g. "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
// or a contract principal such as "ST1PQ....trustless-rewards".
type Principal string

func (p Principal) String() string { return string(p) }

// Lobby is a configured competition instance with an entry price and track metadata.
type Lobby struct {
	ID    uint64    `json:"id"`
	Owner Principal `json:"owner"`

	Description string `json:"description"`
	Mapy        string `json:"mapy"`
	Length      string `json:"length"`
	Traffic     string `json:"traffic"`
	Curves      string `json:"curves"`

	// Price is the entry fee charged on every join.
	Price      uint64 `json:"price"`
	Factor     uint64 `json:"factor"`
	Commission uint64 `json:"commission"`
	Hours      uint64 `json:"hours"`

	// Balance echoes Price at creation; joins do not accumulate into it.
	Balance uint64 `json:"balance"`

	// Active is true until the owner disables the lobby. There is no way back.
	Active bool `json:"active"`
}

// LobbyParams holds the caller-supplied fields for a new lobby.
type LobbyParams struct {
	Description string `json:"description"`
	Price       uint64 `json:"price"`
	Factor      uint64 `json:"factor"`
	Commission  uint64 `json:"commission"`
	Mapy        string `json:"mapy"`
	Length      string `json:"length"`
	Traffic     string `json:"traffic"`
	Curves      string `json:"curves"`
	Hours       uint64 `json:"hours"`
}
