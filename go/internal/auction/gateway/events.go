package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/auctioneer/go/internal/auction"
)

// EventType names a message on the auction channel
type EventType string

// Client → server
const (
	EventTypeNextPlayer   EventType = "next_player"
	EventTypeBackPlayer   EventType = "back_player"
	EventTypeResetAuction EventType = "reset_auction"
)

// Server → client
const (
	EventTypeAuctionState    EventType = "auction_state"
	EventTypeNewPlayer       EventType = "new_player"
	EventTypeAuctionComplete EventType = "auction_complete"
	EventTypeErrorMessage    EventType = "error_message"
	EventTypeAuctionReset    EventType = "auction_reset"
)

// Message is the envelope for every frame in either direction
type Message struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewPlayerPayload is sent when a player is called or re-shown
type NewPlayerPayload struct {
	Name      string      `json:"name"`
	BasePrice json.Number `json:"base_price"`
	Remaining int         `json:"remaining"`
	Total     int         `json:"total"`
}

// MessagePayload carries informational and error text
type MessagePayload struct {
	Message string `json:"message"`
}

// AuctionResetPayload is broadcast after a reshuffle
type AuctionResetPayload struct {
	TotalPlayers int `json:"total_players"`
}

// outbound pairs an event with its payload before encoding
type outbound struct {
	Event   EventType
	Payload any
}

func (o outbound) encode() ([]byte, error) {
	data, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: o.Event, Data: data})
}

func auctionStateEvent(summary auction.Summary) outbound {
	return outbound{Event: EventTypeAuctionState, Payload: summary}
}

func newPlayerEvent(view auction.PlayerView) outbound {
	return outbound{
		Event: EventTypeNewPlayer,
		Payload: NewPlayerPayload{
			Name:      view.Name,
			BasePrice: json.Number(view.BasePrice.String()),
			Remaining: view.Remaining,
			Total:     view.Total,
		},
	}
}

func auctionCompleteEvent(err error) outbound {
	return outbound{Event: EventTypeAuctionComplete, Payload: MessagePayload{Message: err.Error()}}
}

func errorMessageEvent(message string) outbound {
	return outbound{Event: EventTypeErrorMessage, Payload: MessagePayload{Message: message}}
}

func auctionResetEvent(summary auction.Summary) outbound {
	return outbound{Event: EventTypeAuctionReset, Payload: AuctionResetPayload{TotalPlayers: summary.TotalPlayers}}
}

// ParseClientMessage decodes a client frame. Bare event names such as
// "next_player" are accepted as well as the JSON envelope.
func ParseClientMessage(raw []byte) (EventType, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return EventType(trimmed), nil
	}

	var msg Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return "", fmt.Errorf("decode client message: %w", err)
	}
	return msg.Event, nil
}
