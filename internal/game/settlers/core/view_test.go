package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewState() *GameState {
	return &GameState{
		RoomID: "room-1",
		Phase:  PhaseNormalTurn,
		Stage:  StageMain,
		Players: []*Player{
			{ID: "A", Resources: Resources{ResourceWood: 1}},
			{ID: "B", Resources: Resources{ResourceStone: 1}},
			{ID: "C", Resources: Resources{ResourceWheat: 2, ResourceSheep: 1}},
		},
		PlayerOrder:     []string{"A", "B", "C"},
		Board:           NewDefaultBoard(),
		Buildings:       map[VertexID]*Building{},
		Roads:           map[EdgeID]*Road{},
		PendingDiscards: map[string]int{},
		Trades: map[string]*TradeOffer{
			PairKey("A", "C"): {ID: "t1", FromPlayerID: "A", ToPlayerID: "C", OfferFrom: Resources{ResourceWood: 1}},
		},
		Version: 9,
	}
}

func TestViewForSpectatorHidesHands(t *testing.T) {
	view := viewState().ViewFor("")

	require.Len(t, view.Players, 3)
	for _, p := range view.Players {
		assert.Nil(t, p.Resources, p.ID)
	}
	assert.Equal(t, 1, view.Players[0].ResourceCount)
	assert.Equal(t, 1, view.Players[1].ResourceCount)
	assert.Equal(t, 3, view.Players[2].ResourceCount)
	assert.Empty(t, view.Trades)
	assert.Equal(t, int64(9), view.Version)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded struct {
		Players []map[string]any `json:"players"`
		Trades  []any            `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, p := range decoded.Players {
		assert.NotContains(t, p, "resources")
		assert.Contains(t, p, "resourceCount")
	}
	assert.Empty(t, decoded.Trades)
}

func TestViewForPlayerShowsOwnHandAndTrades(t *testing.T) {
	state := viewState()

	view := state.ViewFor("A")
	assert.Equal(t, Resources{ResourceWood: 1}, view.Players[0].Resources)
	assert.Nil(t, view.Players[1].Resources)
	assert.Nil(t, view.Players[2].Resources)
	require.Len(t, view.Trades, 1)
	assert.Equal(t, "C", view.Trades[0].Counterpart("A"))

	// 不参与协商的玩家看不到
	assert.Empty(t, state.ViewFor("B").Trades)

	// 视图是副本
	view.Players[0].Resources[ResourceWood] = 5
	assert.Equal(t, 1, state.Players[0].Resources[ResourceWood])
}

func TestViewForUnknownViewerIsSpectator(t *testing.T) {
	view := viewState().ViewFor("Z")
	for _, p := range view.Players {
		assert.Nil(t, p.Resources, p.ID)
	}
	assert.Empty(t, view.Trades)
}
