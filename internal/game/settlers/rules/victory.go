package rules

import "sudooom.settlers/internal/game/settlers/core"

// LongestRoadBonus 最长道路称号的分值
const LongestRoadBonus = 4

// VictoryPoints 由棋盘重新推导分数：村庄 1、城市 2、最长道路 4
func VictoryPoints(state *core.GameState, playerID string) int {
	points := 0
	for _, b := range state.Buildings {
		if b.Owner != playerID {
			continue
		}
		if b.Kind == core.BuildingCity {
			points += 2
		} else {
			points++
		}
	}
	if state.LongestRoadHolder == playerID {
		points += LongestRoadBonus
	}
	return points
}

// Winner 达到目标分的玩家；actor 优先，其次按行动顺序
// target <= 0 表示不启用胜利判定
func Winner(state *core.GameState, actor string, target int) string {
	if target <= 0 {
		return ""
	}
	if actor != "" && VictoryPoints(state, actor) >= target {
		return actor
	}
	for _, id := range state.PlayerOrder {
		if VictoryPoints(state, id) >= target {
			return id
		}
	}
	return ""
}
