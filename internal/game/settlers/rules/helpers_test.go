package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers/core"
)

// newState 在正常回合阶段构造状态，A 为当前玩家
func newState(t *testing.T, board *core.Board, ids ...string) *core.GameState {
	t.Helper()
	if board == nil {
		board = core.NewDefaultBoard()
	}
	if len(ids) == 0 {
		ids = []string{"A", "B", "C"}
	}
	s := &core.GameState{
		RoomID:              "room-1",
		Phase:               core.PhaseNormalTurn,
		Stage:               core.StageMain,
		PlayerOrder:         append([]string(nil), ids...),
		CurrentTurnPlayerID: ids[0],
		Board:               board,
		Buildings:           make(map[core.VertexID]*core.Building),
		Roads:               make(map[core.EdgeID]*core.Road),
		Robber:              core.RobberState{Hex: board.DesertHex()},
		PendingDiscards:     make(map[string]int),
		Trades:              make(map[string]*core.TradeOffer),
	}
	for _, id := range ids {
		s.Players = append(s.Players, &core.Player{ID: id, Name: id, Resources: core.NewResources()})
	}
	return s
}

func corner(t *testing.T, b *core.Board, q, r, i int) core.VertexID {
	t.Helper()
	c, ok := b.HexVertices(core.HexCoord{Q: q, R: r})
	require.True(t, ok)
	return c[i]
}

func build(s *core.GameState, owner string, kind core.BuildingKind, v core.VertexID) {
	s.Buildings[v] = &core.Building{Kind: kind, Owner: owner, Vertex: v}
}

func road(s *core.GameState, owner string, a, b core.VertexID) core.EdgeID {
	e := core.NewEdgeID(a, b)
	s.Roads[e] = &core.Road{Edge: e, Owner: owner}
	return e
}

func give(s *core.GameState, playerID string, res core.Resources) {
	s.GetPlayer(playerID).Resources.Add(res)
}

// zigzag 沿第 0 行地块上沿的一条无分叉路线（11 个顶点、10 条边）
func zigzag(t *testing.T, b *core.Board) []core.VertexID {
	t.Helper()
	out := make([]core.VertexID, 0, 11)
	for q := -2; q <= 2; q++ {
		out = append(out, corner(t, b, q, 0, 2), corner(t, b, q, 0, 3))
	}
	return append(out, corner(t, b, 2, 0, 4))
}
