package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers/core"
)

func TestProduceSevenYieldsNothing(t *testing.T) {
	s := newState(t, nil)
	for _, v := range s.Board.Vertices()[:10] {
		build(s, "A", core.BuildingCity, v)
	}
	grants := Produce(s, 7)
	require.NotNil(t, grants)
	assert.Empty(t, grants)
}

func TestProduce(t *testing.T) {
	s := newState(t, nil)
	// (1,0) 木材 3、(1,-1) 木材 5、(0,0) 沙漠 共享此顶点
	v := corner(t, s.Board, 1, 0, 2)
	require.Len(t, s.Board.VertexHexes(v), 3)

	build(s, "A", core.BuildingSettlement, v)

	assert.Equal(t, map[string]core.Resources{"A": {core.ResourceWood: 1}}, Produce(s, 3))
	assert.Equal(t, map[string]core.Resources{"A": {core.ResourceWood: 1}}, Produce(s, 5))
	assert.Empty(t, Produce(s, 6))

	s.Buildings[v].Kind = core.BuildingCity
	assert.Equal(t, map[string]core.Resources{"A": {core.ResourceWood: 2}}, Produce(s, 3))

	// 强盗所在地块不产出
	s.Robber.Hex = core.HexCoord{Q: 1, R: 0}
	assert.Empty(t, Produce(s, 3))
	assert.Equal(t, map[string]core.Resources{"A": {core.ResourceWood: 2}}, Produce(s, 5))
}

func TestProduceCreditsEveryMatchingHex(t *testing.T) {
	board, err := core.NewBoard(core.Layout{Tiles: []core.TileSpec{
		{Q: 0, R: 0, Type: core.TileDesert},
		{Q: 1, R: 0, Type: core.ResourceWood, Number: 8},
		{Q: 1, R: -1, Type: core.ResourceBrick, Number: 8},
	}}, core.DefaultGeometry())
	require.NoError(t, err)

	s := newState(t, board, "A", "B")
	v := corner(t, board, 1, 0, 2)
	require.Len(t, board.VertexHexes(v), 3)

	build(s, "A", core.BuildingSettlement, v)
	build(s, "B", core.BuildingCity, corner(t, board, 1, 0, 5))

	grants := Produce(s, 8)
	assert.Equal(t, core.Resources{core.ResourceWood: 1, core.ResourceBrick: 1}, grants["A"])
	assert.Equal(t, core.Resources{core.ResourceWood: 2}, grants["B"])
}

func TestSetupGrant(t *testing.T) {
	s := newState(t, nil)
	// 与沙漠相邻：只从两个木材地块获得资源
	build(s, "A", core.BuildingSettlement, corner(t, s.Board, 1, 0, 2))
	// 棋盘边缘：(-2,2) 小麦 6 的左下角只接触一个地块
	edge := corner(t, s.Board, -2, 2, 1)
	build(s, "B", core.BuildingSettlement, edge)

	grants := SetupGrant(s)
	assert.Equal(t, core.Resources{core.ResourceWood: 2}, grants["A"])
	assert.Equal(t, len(s.Board.VertexHexes(edge)), grants["B"].Total())
	assert.Equal(t, 1, grants["B"][core.ResourceWheat])
}
