package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game"
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/jwt"
	"sudooom.settlers/internal/middleware"
	"sudooom.settlers/internal/repository"
	appErrors "sudooom.settlers/pkg/errors"
)

type mockStateReader struct {
	states map[string]*core.GameState
}

func (m *mockStateReader) GetSnapshot(_ context.Context, roomID string) (*core.GameState, error) {
	if s, ok := m.states[roomID]; ok {
		return s, nil
	}
	return nil, game.ErrGameNotFound
}

func (m *mockStateReader) Pending(ctx context.Context, roomID string) (*game.PendingView, error) {
	s, err := m.GetSnapshot(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &game.PendingView{
		RoomID:  s.RoomID,
		Version: s.Version,
		Stage:   s.Stage,
		Trades: []game.TradeAge{{
			Trade: &core.TradeOffer{ID: "t1", FromPlayerID: "A", ToPlayerID: "C", OfferFrom: core.Resources{core.ResourceWood: 1}},
			Idle:  time.Second,
		}},
		PendingDiscards: s.PendingDiscards,
	}, nil
}

type mockEventLog struct {
	filter repository.EventFilter
	err    error
}

func (m *mockEventLog) ListEvents(_ context.Context, roomID string, filter repository.EventFilter) ([]repository.EventRecord, error) {
	m.filter = filter
	if m.err != nil {
		return nil, m.err
	}
	return []repository.EventRecord{{RoomID: roomID, Version: filter.SinceVersion + 1, Type: "dice.rolled"}}, nil
}

var testJWT = jwt.NewService("test-secret")

func tokenFor(t *testing.T, playerID string, role jwt.Role) string {
	t.Helper()
	token, err := testJWT.GenerateToken(playerID, role, time.Hour)
	require.NoError(t, err)
	return token
}

// robbedState A 掷出 7 后从 B 手里抢走了一张木材
func robbedState() *core.GameState {
	return &core.GameState{
		RoomID:  "room-1",
		Version: 5,
		Phase:   core.PhaseNormalTurn,
		Stage:   core.StageAwaitingDiscards,
		Players: []*core.Player{
			{ID: "A", Resources: core.Resources{core.ResourceWood: 1}},
			{ID: "B", Resources: core.Resources{core.ResourceWood: 0, core.ResourceStone: 1}},
			{ID: "C", Resources: core.Resources{}},
		},
		PendingDiscards: map[string]int{"B": 4},
		Trades: map[string]*core.TradeOffer{
			core.PairKey("A", "C"): {ID: "t1", FromPlayerID: "A", ToPlayerID: "C", OfferFrom: core.Resources{core.ResourceWood: 1}},
		},
	}
}

// APIResponse 用于解析响应体
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupStateRouter(events *mockEventLog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	reader := &mockStateReader{states: map[string]*core.GameState{"room-1": robbedState()}}
	h := NewStateHandler(reader, events)

	r := gin.New()
	r.Use(middleware.Auth(testJWT))
	r.GET("/games/:roomId", h.GetSnapshot)
	r.GET("/games/:roomId/pending", h.GetPending)
	r.GET("/games/:roomId/events", h.ListEvents)
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) APIResponse {
	t.Helper()
	return doGetAs(t, r, path, "")
}

func doGetAs(t *testing.T, r *gin.Engine, path, token string) APIResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetSnapshot(t *testing.T) {
	r := setupStateRouter(&mockEventLog{})

	resp := doGet(t, r, "/games/room-1")
	assert.Equal(t, appErrors.CodeSuccess, resp.Code)
	var view core.GameView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, int64(5), view.Version)

	resp = doGet(t, r, "/games/missing")
	assert.Equal(t, appErrors.CodeGameNotFound, resp.Code)
}

func TestGetSnapshotHidesStolenResource(t *testing.T) {
	r := setupStateRouter(&mockEventLog{})

	hands := func(resp APIResponse) map[string]map[string]any {
		var body struct {
			Players []map[string]any `json:"players"`
			Trades  []any            `json:"trades"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		out := make(map[string]map[string]any, len(body.Players))
		for _, p := range body.Players {
			out[p["id"].(string)] = p
		}
		return out
	}

	// 观众只看到张数，看不出被抢的是木材
	spectator := hands(doGet(t, r, "/games/room-1"))
	for id, p := range spectator {
		assert.NotContains(t, p, "resources", id)
	}
	assert.EqualValues(t, 1, spectator["A"]["resourceCount"])
	assert.EqualValues(t, 1, spectator["B"]["resourceCount"])

	// 玩家只看到自己的手牌
	asC := hands(doGetAs(t, r, "/games/room-1", tokenFor(t, "C", jwt.RolePlayer)))
	assert.NotContains(t, asC["A"], "resources")
	assert.NotContains(t, asC["B"], "resources")

	asB := doGetAs(t, r, "/games/room-1", tokenFor(t, "B", jwt.RolePlayer))
	var viewB core.GameView
	require.NoError(t, json.Unmarshal(asB.Data, &viewB))
	assert.Equal(t, 1, viewB.Players[1].Resources[core.ResourceStone])
	assert.Nil(t, viewB.Players[0].Resources)
	assert.Empty(t, viewB.Trades)

	// 运维看完整状态
	asOp := doGetAs(t, r, "/games/room-1", tokenFor(t, "", jwt.RoleOperator))
	var full core.GameState
	require.NoError(t, json.Unmarshal(asOp.Data, &full))
	assert.Equal(t, 1, full.Players[0].Resources[core.ResourceWood])
	assert.Len(t, full.Trades, 1)
}

func TestGetPending(t *testing.T) {
	r := setupStateRouter(&mockEventLog{})

	pending := func(token string) game.PendingView {
		resp := doGetAs(t, r, "/games/room-1/pending", token)
		require.Equal(t, appErrors.CodeSuccess, resp.Code)
		var view game.PendingView
		require.NoError(t, json.Unmarshal(resp.Data, &view))
		return view
	}

	view := pending("")
	assert.Equal(t, core.StageAwaitingDiscards, view.Stage)
	assert.Equal(t, 4, view.PendingDiscards["B"])
	assert.Empty(t, view.Trades)

	view = pending(tokenFor(t, "A", jwt.RolePlayer))
	require.Len(t, view.Trades, 1)
	assert.Equal(t, "C", view.Trades[0].Counterpart)
	assert.Equal(t, time.Second, view.Trades[0].Idle)

	assert.Empty(t, pending(tokenFor(t, "B", jwt.RolePlayer)).Trades)
	assert.Len(t, pending(tokenFor(t, "", jwt.RoleOperator)).Trades, 1)
}

func TestListEvents(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		token  string
		err    error
		code   int
		filter repository.EventFilter
	}{
		{"defaults", "/games/room-1/events", "", nil, appErrors.CodeSuccess, repository.EventFilter{Limit: 100}},
		{"paging", "/games/room-1/events?since=7&limit=20", "", nil, appErrors.CodeSuccess, repository.EventFilter{SinceVersion: 7, Limit: 20}},
		{"player", "/games/room-1/events", tokenFor(t, "B", jwt.RolePlayer), nil, appErrors.CodeSuccess, repository.EventFilter{Limit: 100, PlayerID: "B"}},
		{"operator", "/games/room-1/events", tokenFor(t, "", jwt.RoleOperator), nil, appErrors.CodeSuccess, repository.EventFilter{Limit: 100, All: true}},
		{"bad since", "/games/room-1/events?since=x", "", nil, appErrors.CodeInvalidParams, repository.EventFilter{}},
		{"bad limit", "/games/room-1/events?limit=-1", "", nil, appErrors.CodeInvalidParams, repository.EventFilter{}},
		{"db failure", "/games/room-1/events", "", errors.New("timeout"), appErrors.CodeDBError, repository.EventFilter{Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockEventLog{err: tt.err}
			resp := doGetAs(t, setupStateRouter(events), tt.path, tt.token)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.filter, events.filter)

			if tt.code == appErrors.CodeSuccess {
				var records []repository.EventRecord
				require.NoError(t, json.Unmarshal(resp.Data, &records))
				require.Len(t, records, 1)
				assert.Equal(t, tt.filter.SinceVersion+1, records[0].Version)
			}
		})
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	r := setupStateRouter(&mockEventLog{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/games/room-1", nil)
	req.Header.Set("Authorization", "Bearer forged")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
