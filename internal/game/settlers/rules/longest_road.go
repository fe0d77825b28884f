package rules

import "sudooom.settlers/internal/game/settlers/core"

// LongestRoadThreshold 获得最长道路所需的最少路段数
const LongestRoadThreshold = 5

// LongestRoad 玩家道路网中最长的简单路径（按路段计）
// 对手建筑所在的顶点可以作为路径端点，但不能穿过
func LongestRoad(state *core.GameState, playerID string) int {
	graph := make(map[core.VertexID][]core.EdgeID)
	for e, r := range state.Roads {
		if r.Owner != playerID {
			continue
		}
		graph[e.A] = append(graph[e.A], e)
		graph[e.B] = append(graph[e.B], e)
	}
	if len(graph) == 0 {
		return 0
	}

	blocked := func(v core.VertexID) bool {
		b := state.BuildingAt(v)
		return b != nil && b.Owner != playerID
	}

	// visited 按路径维护，回溯时撤销
	visited := make(map[core.EdgeID]bool)
	var dfs func(v core.VertexID) int
	dfs = func(v core.VertexID) int {
		best := 0
		for _, e := range graph[v] {
			if visited[e] {
				continue
			}
			visited[e] = true
			next := e.Other(v)
			length := 1
			if !blocked(next) {
				length += dfs(next)
			}
			visited[e] = false
			if length > best {
				best = length
			}
		}
		return best
	}

	longest := 0
	for v := range graph {
		if n := dfs(v); n > longest {
			longest = n
		}
	}
	return longest
}

// RoadLengths 所有玩家的最长道路
func RoadLengths(state *core.GameState) map[string]int {
	lengths := make(map[string]int, len(state.Players))
	for _, p := range state.Players {
		lengths[p.ID] = LongestRoad(state, p.ID)
	}
	return lengths
}

// AwardLongestRoad 根据长度表决定称号归属
//   - 长度不足 5 不能持有
//   - 平局不转移，现任保留
//   - 现任被超过且最大值并列时无人持有
func AwardLongestRoad(incumbent string, lengths map[string]int) string {
	best := 0
	for _, n := range lengths {
		if n > best {
			best = n
		}
	}
	if best < LongestRoadThreshold {
		return ""
	}
	if incumbent != "" && lengths[incumbent] == best {
		return incumbent
	}

	holder := ""
	for id, n := range lengths {
		if n != best {
			continue
		}
		if holder != "" {
			return ""
		}
		holder = id
	}
	return holder
}
