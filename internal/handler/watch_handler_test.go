package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/jwt"
	"sudooom.settlers/internal/middleware"
	appErrors "sudooom.settlers/pkg/errors"
	"sudooom.settlers/pkg/proto"
)

type fakeFeed struct {
	mu      sync.Mutex
	fns     map[string]func([]byte)
	stopped int
	err     error
	ready   chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{fns: make(map[string]func([]byte)), ready: make(chan struct{}, 1)}
}

func (f *fakeFeed) Watch(roomID string, fn func([]byte)) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.fns[roomID] = fn
	f.mu.Unlock()
	f.ready <- struct{}{}
	return func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}, nil
}

func (f *fakeFeed) push(t *testing.T, roomID string, ev proto.GameEvent) {
	t.Helper()
	f.mu.Lock()
	fn := f.fns[roomID]
	f.mu.Unlock()
	require.NotNil(t, fn)
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	fn(data)
}

func setupWatchServer(t *testing.T, feed *fakeFeed) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reader := &mockStateReader{states: map[string]*core.GameState{"room-1": robbedState()}}
	h := NewWatchHandler(reader, feed, []string{"*"})

	r := gin.New()
	r.Use(middleware.Auth(testJWT))
	r.GET("/games/:roomId/watch", h.Watch)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readEvent(t *testing.T, conn *websocket.Conn) proto.GameEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev proto.GameEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestWatchStreamsSnapshotThenNewerEvents(t *testing.T) {
	feed := newFakeFeed()
	srv := setupWatchServer(t, feed)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/games/room-1/watch"), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readEvent(t, conn)
	assert.Equal(t, proto.EventTypeSnapshot, first.Type)
	assert.Equal(t, int64(5), first.Version)
	var snap core.GameView
	require.NoError(t, json.Unmarshal(first.Payload, &snap))
	assert.Equal(t, core.PhaseNormalTurn, snap.Phase)
	for _, p := range snap.Players {
		assert.Nil(t, p.Resources, p.ID)
	}
	assert.Empty(t, snap.Trades)

	<-feed.ready
	// 快照已包含的版本被跳过
	feed.push(t, "room-1", proto.GameEvent{RoomId: "room-1", Version: 5, Type: "dice.rolled"})
	feed.push(t, "room-1", proto.GameEvent{RoomId: "room-1", Version: 6, Type: "turn.changed"})

	ev := readEvent(t, conn)
	assert.Equal(t, int64(6), ev.Version)
	assert.Equal(t, "turn.changed", ev.Type)
}

func TestWatchSnapshotForPlayer(t *testing.T) {
	feed := newFakeFeed()
	srv := setupWatchServer(t, feed)

	url := wsURL(srv, "/games/room-1/watch?token="+tokenFor(t, "A", jwt.RolePlayer))
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readEvent(t, conn)
	var snap core.GameView
	require.NoError(t, json.Unmarshal(first.Payload, &snap))
	assert.Equal(t, 1, snap.Players[0].Resources[core.ResourceWood])
	assert.Nil(t, snap.Players[1].Resources)
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "t1", snap.Trades[0].ID)
}

func TestWatchUnknownRoom(t *testing.T) {
	feed := newFakeFeed()
	srv := setupWatchServer(t, feed)

	resp, err := http.Get(srv.URL + "/games/missing/watch")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, appErrors.CodeGameNotFound, body.Code)

	feed.mu.Lock()
	defer feed.mu.Unlock()
	assert.Equal(t, 1, feed.stopped)
}

func TestWatchFeedFailure(t *testing.T) {
	feed := newFakeFeed()
	feed.err = errors.New("nats down")
	srv := setupWatchServer(t, feed)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/games/room-1/watch"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
