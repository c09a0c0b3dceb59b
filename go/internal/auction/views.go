package auction

import "github.com/shopspring/decimal"

// Summary is the count-only view sent to new observers and after a reset
type Summary struct {
	TotalPlayers     int `json:"total_players"`
	RemainingPlayers int `json:"remaining_players"`
}

// PlayerView is the view of a single called player
type PlayerView struct {
	Name      string
	BasePrice decimal.Decimal
	Remaining int
	Total     int
}
