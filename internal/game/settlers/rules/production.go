package rules

import "sudooom.settlers/internal/game/settlers/core"

// Produce 计算一次掷骰的资源产出
// 沙漠和强盗所在地块不产出；城市产出翻倍；7 点不产出
func Produce(state *core.GameState, dice int) map[string]core.Resources {
	grants := make(map[string]core.Resources)
	if dice == 7 {
		return grants
	}

	for v, b := range state.Buildings {
		yield := 1
		if b.Kind == core.BuildingCity {
			yield = 2
		}
		for _, h := range state.Board.VertexHexes(v) {
			if h == state.Robber.Hex {
				continue
			}
			tile, ok := state.Board.HexAt(h)
			if !ok || tile.IsDesert() || tile.Number != dice {
				continue
			}
			credit(grants, b.Owner, tile.Resource, yield)
		}
	}
	return grants
}

// SetupGrant 初始放置结束时的一次性发放
// 每个村庄从每个相邻的非沙漠地块获得 1 份资源
func SetupGrant(state *core.GameState) map[string]core.Resources {
	grants := make(map[string]core.Resources)
	for v, b := range state.Buildings {
		if b.Kind != core.BuildingSettlement {
			continue
		}
		for _, h := range state.Board.VertexHexes(v) {
			tile, ok := state.Board.HexAt(h)
			if !ok || tile.IsDesert() {
				continue
			}
			credit(grants, b.Owner, tile.Resource, 1)
		}
	}
	return grants
}

func credit(grants map[string]core.Resources, owner string, r core.ResourceType, n int) {
	res, ok := grants[owner]
	if !ok {
		res = make(core.Resources)
		grants[owner] = res
	}
	res[r] += n
}
