package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/auctioneer/go/internal/auction"
	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/mcdev12/auctioneer/go/internal/players"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

// recordingPublisher collects event types mirrored to the stream
type recordingPublisher struct {
	events chan string
}

func (p *recordingPublisher) Publish(eventType string, payload any) {
	p.events <- eventType
}

func (p *recordingPublisher) Close() error { return nil }

type testGateway struct {
	server  *httptest.Server
	service *Service
	state   *auction.State
}

func newTestGateway(t *testing.T, src players.Source, publisher *recordingPublisher) *testGateway {
	t.Helper()

	state := auction.NewState(src, auction.WithShuffler(reverseShuffler{}))
	state.Reset(context.Background())

	var svc *Service
	if publisher != nil {
		svc = NewService(DefaultConfig(), state, publisher)
	} else {
		svc = NewService(DefaultConfig(), state, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Start(ctx)
	}()

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &testGateway{server: srv, service: svc, state: state}
}

func (g *testGateway) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(g.server.URL, "http") + "/ws/auction"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event EventType) {
	t.Helper()
	data, err := json.Marshal(Message{Event: event})
	assert.NoError(t, err)
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func receive(t *testing.T, conn *websocket.Conn) (EventType, map[string]any) {
	t.Helper()
	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	assert.NoError(t, err)

	var msg Message
	assert.NoError(t, json.Unmarshal(raw, &msg))
	var data map[string]any
	if len(msg.Data) > 0 {
		assert.NoError(t, json.Unmarshal(msg.Data, &data))
	}
	return msg.Event, data
}

func twoPlayers() players.StaticSource {
	return players.StaticSource{
		models.NewPlayer("A", decimal.NewFromInt(100)),
		models.NewPlayer("B", decimal.NewFromInt(200)),
	}
}

func TestHub_Scenario(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	conn := g.dial(t)

	event, data := receive(t, conn)
	check.Equal(t, EventTypeAuctionState, event)
	check.Equal(t, 2.0, data["total_players"])
	check.Equal(t, 2.0, data["remaining_players"])

	send(t, conn, EventTypeNextPlayer)
	event, data = receive(t, conn)
	check.Equal(t, EventTypeNewPlayer, event)
	check.Equal(t, "B", data["name"])
	check.Equal(t, 200.0, data["base_price"])
	check.Equal(t, 1.0, data["remaining"])
	check.Equal(t, 2.0, data["total"])

	send(t, conn, EventTypeNextPlayer)
	event, data = receive(t, conn)
	check.Equal(t, EventTypeNewPlayer, event)
	check.Equal(t, "A", data["name"])
	check.Equal(t, 100.0, data["base_price"])
	check.Equal(t, 0.0, data["remaining"])

	send(t, conn, EventTypeNextPlayer)
	event, data = receive(t, conn)
	check.Equal(t, EventTypeAuctionComplete, event)
	check.Equal(t, "All players have been called!", data["message"])

	send(t, conn, EventTypeBackPlayer)
	event, data = receive(t, conn)
	check.Equal(t, EventTypeNewPlayer, event)
	check.Equal(t, "A", data["name"])
	check.Equal(t, 1.0, data["remaining"])

	send(t, conn, EventTypeResetAuction)
	event, data = receive(t, conn)
	check.Equal(t, EventTypeAuctionReset, event)
	check.Equal(t, 2.0, data["total_players"])
	check.Equal(t, auction.Summary{TotalPlayers: 2, RemainingPlayers: 2}, g.state.Snapshot())
}

func TestHub_EmptyQueue(t *testing.T) {
	g := newTestGateway(t, players.NewFileSource("/nonexistent/players.xlsx"), nil)
	conn := g.dial(t)

	event, data := receive(t, conn)
	check.Equal(t, EventTypeAuctionState, event)
	check.Equal(t, 0.0, data["total_players"])
	check.Equal(t, 0.0, data["remaining_players"])

	send(t, conn, EventTypeNextPlayer)
	event, data = receive(t, conn)
	check.Equal(t, EventTypeAuctionComplete, event)
	check.Equal(t, "No players loaded", data["message"])
}

func TestHub_BroadcastsToAllObservers(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	operator := g.dial(t)
	receive(t, operator)
	viewer := g.dial(t)
	receive(t, viewer)

	send(t, operator, EventTypeNextPlayer)
	for _, conn := range []*websocket.Conn{operator, viewer} {
		event, data := receive(t, conn)
		check.Equal(t, EventTypeNewPlayer, event)
		check.Equal(t, "B", data["name"])
	}

	// Commands from any observer are accepted
	send(t, viewer, EventTypeResetAuction)
	for _, conn := range []*websocket.Conn{operator, viewer} {
		event, _ := receive(t, conn)
		check.Equal(t, EventTypeAuctionReset, event)
	}
}

func TestHub_NewJoinerSeesCountsOnly(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	operator := g.dial(t)
	receive(t, operator)

	send(t, operator, EventTypeNextPlayer)
	receive(t, operator)

	late := g.dial(t)
	event, data := receive(t, late)
	check.Equal(t, EventTypeAuctionState, event)
	check.Equal(t, 2.0, data["total_players"])
	check.Equal(t, 1.0, data["remaining_players"])
	_, hasName := data["name"]
	check.False(t, hasName)
}

func TestHub_BoundaryErrorBroadcastToAll(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	operator := g.dial(t)
	receive(t, operator)
	viewer := g.dial(t)
	receive(t, viewer)

	send(t, operator, EventTypeBackPlayer)
	for _, conn := range []*websocket.Conn{operator, viewer} {
		event, data := receive(t, conn)
		check.Equal(t, EventTypeErrorMessage, event)
		check.Equal(t, "Already at first player", data["message"])
	}
	check.Equal(t, auction.Summary{TotalPlayers: 2, RemainingPlayers: 2}, g.state.Snapshot())
}

func TestHub_UnknownCommandGoesToRequesterOnly(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	operator := g.dial(t)
	receive(t, operator)
	viewer := g.dial(t)
	receive(t, viewer)

	send(t, operator, EventType("skip_player"))
	event, _ := receive(t, operator)
	check.Equal(t, EventTypeErrorMessage, event)

	assert.NoError(t, operator.WriteMessage(websocket.TextMessage, []byte("{not json")))
	event, data := receive(t, operator)
	check.Equal(t, EventTypeErrorMessage, event)
	check.Equal(t, "invalid message", data["message"])

	// The viewer's next frame is the broadcast, not either error
	send(t, operator, EventTypeNextPlayer)
	event, _ = receive(t, viewer)
	check.Equal(t, EventTypeNewPlayer, event)
}

func TestHub_BareEventNames(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	conn := g.dial(t)
	receive(t, conn)

	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("next_player")))
	event, data := receive(t, conn)
	check.Equal(t, EventTypeNewPlayer, event)
	check.Equal(t, "B", data["name"])
}

func TestHub_DisconnectIsSilent(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)
	operator := g.dial(t)
	receive(t, operator)

	leaver := g.dial(t)
	receive(t, leaver)
	assert.NoError(t, leaver.Close())

	deadline := time.Now().Add(5 * time.Second)
	for g.service.GetStats().TotalConnections != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	check.Equal(t, 1, g.service.GetStats().TotalConnections)

	send(t, operator, EventTypeNextPlayer)
	event, _ := receive(t, operator)
	check.Equal(t, EventTypeNewPlayer, event)
}

func TestHub_MirrorsBroadcastsToPublisher(t *testing.T) {
	pub := &recordingPublisher{events: make(chan string, 10)}
	g := newTestGateway(t, twoPlayers(), pub)
	conn := g.dial(t)
	receive(t, conn)

	send(t, conn, EventTypeNextPlayer)
	receive(t, conn)
	send(t, conn, EventTypeResetAuction)
	receive(t, conn)

	check.Equal(t, "new_player", <-pub.events)
	check.Equal(t, "auction_reset", <-pub.events)
}

func TestStateHandler(t *testing.T) {
	g := newTestGateway(t, twoPlayers(), nil)

	resp, err := http.Get(g.server.URL + "/api/auction/state")
	assert.NoError(t, err)
	defer resp.Body.Close()
	check.Equal(t, http.StatusOK, resp.StatusCode)

	var summary auction.Summary
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	check.Equal(t, auction.Summary{TotalPlayers: 2, RemainingPlayers: 2}, summary)

	post, err := http.Post(g.server.URL+"/api/auction/state", "application/json", nil)
	assert.NoError(t, err)
	post.Body.Close()
	check.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}
