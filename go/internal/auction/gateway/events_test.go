package gateway

import (
	"encoding/json"
	"testing"

	"github.com/mcdev12/auctioneer/go/internal/auction"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestNewPlayerEvent_EncodesPriceAsNumber(t *testing.T) {
	view := auction.PlayerView{Name: "B", BasePrice: decimal.RequireFromString("200.50"), Remaining: 1, Total: 2}

	data, err := newPlayerEvent(view).encode()
	assert.NoError(t, err)
	check.Equal(t, `{"event":"new_player","data":{"name":"B","base_price":200.5,"remaining":1,"total":2}}`, string(data))
}

func TestAuctionStateEvent(t *testing.T) {
	data, err := auctionStateEvent(auction.Summary{TotalPlayers: 3, RemainingPlayers: 1}).encode()
	assert.NoError(t, err)
	check.Equal(t, `{"event":"auction_state","data":{"total_players":3,"remaining_players":1}}`, string(data))
}

func TestAuctionResetEvent(t *testing.T) {
	data, err := auctionResetEvent(auction.Summary{TotalPlayers: 4, RemainingPlayers: 4}).encode()
	assert.NoError(t, err)
	check.Equal(t, `{"event":"auction_reset","data":{"total_players":4}}`, string(data))
}

func TestAuctionCompleteEvent(t *testing.T) {
	data, err := auctionCompleteEvent(auction.ErrNoPlayersLoaded).encode()
	assert.NoError(t, err)

	var msg Message
	assert.NoError(t, json.Unmarshal(data, &msg))
	check.Equal(t, EventTypeAuctionComplete, msg.Event)
	check.Equal(t, `{"message":"No players loaded"}`, string(msg.Data))
}

func TestParseClientMessage(t *testing.T) {
	cases := []struct {
		raw  string
		want EventType
	}{
		{`{"event":"next_player"}`, EventTypeNextPlayer},
		{`{"event":"back_player","data":{}}`, EventTypeBackPlayer},
		{"reset_auction", EventTypeResetAuction},
		{"  next_player\n", EventTypeNextPlayer},
		{"", ""},
	}
	for _, tc := range cases {
		got, err := ParseClientMessage([]byte(tc.raw))
		check.NoError(t, err)
		check.Equal(t, tc.want, got)
	}

	_, err := ParseClientMessage([]byte(`{"event":`))
	check.Error(t, err)
}
