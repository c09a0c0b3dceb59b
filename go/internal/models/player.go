package models

import (
	"github.com/shopspring/decimal"
)

// UnknownPlayerName is used when a source row has no name
const UnknownPlayerName = "Unknown"

// Player is a single entry in the auction queue. Records are fully populated
// at load time and never mutated afterwards.
type Player struct {
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// NewPlayer builds a Player, applying defaults for missing fields
func NewPlayer(name string, basePrice decimal.Decimal) Player {
	if name == "" {
		name = UnknownPlayerName
	}
	return Player{Name: name, BasePrice: basePrice}
}
