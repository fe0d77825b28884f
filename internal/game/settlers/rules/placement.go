// Package rules 规则判定：只读取状态快照并返回结论或增量，从不修改状态
package rules

import "sudooom.settlers/internal/game/settlers/core"

// 建造费用（只读）
var (
	CostSettlement = core.Resources{
		core.ResourceWood:  1,
		core.ResourceBrick: 1,
		core.ResourceSheep: 1,
		core.ResourceWheat: 1,
	}
	CostCity = core.Resources{
		core.ResourceWheat: 2,
		core.ResourceStone: 3,
	}
	CostRoad = core.Resources{
		core.ResourceWood:  1,
		core.ResourceBrick: 1,
	}
)

// CanPlaceSettlement 验证村庄放置
func CanPlaceSettlement(state *core.GameState, playerID string, v core.VertexID) error {
	player, err := actingPlayer(state, playerID)
	if err != nil {
		return err
	}
	if !state.Board.HasVertex(v) {
		return core.ErrInvalidPlacementTarget.Wrapf("unknown vertex %s", v)
	}

	setup := state.Phase == core.PhaseInitialPlacement
	if setup && state.Setup.Settlement != nil {
		return core.ErrPlacementCapExceeded
	}

	if state.BuildingAt(v) != nil {
		return core.ErrLocationOccupied
	}
	// 距离规则：相邻顶点上不能有任何建筑
	for _, n := range state.Board.VertexNeighbors(v) {
		if state.BuildingAt(n) != nil {
			return core.ErrLocationTooClose
		}
	}

	if setup {
		return nil
	}

	if !player.Resources.Covers(CostSettlement) {
		return core.ErrInsufficientResources
	}
	if !touchesOwnRoad(state, playerID, v) {
		return core.ErrNotConnected
	}
	return nil
}

// CanPlaceCity 验证城市升级
func CanPlaceCity(state *core.GameState, playerID string, v core.VertexID) error {
	player, err := actingPlayer(state, playerID)
	if err != nil {
		return err
	}
	if state.Phase != core.PhaseNormalTurn {
		return core.ErrInvalidPhaseForAction
	}
	if !state.Board.HasVertex(v) {
		return core.ErrInvalidPlacementTarget.Wrapf("unknown vertex %s", v)
	}

	b := state.BuildingAt(v)
	if b == nil || b.Owner != playerID || b.Kind != core.BuildingSettlement {
		return core.ErrInvalidPlacementTarget.Wrapf("no own settlement at %s", v)
	}
	if !player.Resources.Covers(CostCity) {
		return core.ErrInsufficientResources
	}
	return nil
}

// CanPlaceRoad 验证道路放置
func CanPlaceRoad(state *core.GameState, playerID string, e core.EdgeID) error {
	player, err := actingPlayer(state, playerID)
	if err != nil {
		return err
	}
	if !state.Board.HasEdge(e) {
		return core.ErrInvalidPlacementTarget.Wrapf("unknown edge %s", e)
	}

	if state.Phase == core.PhaseInitialPlacement {
		if state.Setup.Road != nil {
			return core.ErrPlacementCapExceeded
		}
		if state.RoadAt(e) != nil {
			return core.ErrLocationOccupied
		}
		// 只能连接本轮刚放置的村庄
		if state.Setup.Settlement == nil || !e.Touches(*state.Setup.Settlement) {
			return core.ErrNotConnected
		}
		return nil
	}

	if state.RoadAt(e) != nil {
		return core.ErrLocationOccupied
	}
	if !player.Resources.Covers(CostRoad) {
		return core.ErrInsufficientResources
	}
	if !roadConnects(state, playerID, e) {
		return core.ErrNotConnected
	}
	return nil
}

// actingPlayer 校验玩家存在且轮到其行动
func actingPlayer(state *core.GameState, playerID string) (*core.Player, error) {
	if state.Phase == core.PhaseFinished {
		return nil, core.ErrGameFinished
	}
	player := state.GetPlayer(playerID)
	if player == nil {
		return nil, core.ErrPlayerNotFound
	}
	if state.CurrentTurnPlayerID != playerID {
		return nil, core.ErrNotYourTurn
	}
	return player, nil
}

func touchesOwnRoad(state *core.GameState, playerID string, v core.VertexID) bool {
	for _, e := range state.Board.VertexEdges(v) {
		if r := state.RoadAt(e); r != nil && r.Owner == playerID {
			return true
		}
	}
	return false
}

// roadConnects 任一端点有自己的建筑，或与自己的道路相接
func roadConnects(state *core.GameState, playerID string, e core.EdgeID) bool {
	for _, v := range []core.VertexID{e.A, e.B} {
		if b := state.BuildingAt(v); b != nil && b.Owner == playerID {
			return true
		}
		for _, adj := range state.Board.VertexEdges(v) {
			if adj == e {
				continue
			}
			if r := state.RoadAt(adj); r != nil && r.Owner == playerID {
				return true
			}
		}
	}
	return false
}
