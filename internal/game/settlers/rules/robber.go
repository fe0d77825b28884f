package rules

import (
	"sort"

	"sudooom.settlers/internal/game/settlers/core"
)

// DiscardLimit 手牌超过该数量时掷出 7 需要弃牌
const DiscardLimit = 7

// DiscardRequirements 每个手牌超过 7 张的玩家需弃掉一半（向下取整）
func DiscardRequirements(state *core.GameState) map[string]int {
	required := make(map[string]int)
	for _, p := range state.Players {
		if total := p.Resources.Total(); total > DiscardLimit {
			required[p.ID] = total / 2
		}
	}
	return required
}

// ValidateDiscard 弃牌必须不超过持有量且总数恰好等于要求
func ValidateDiscard(holdings core.Resources, required int, selection core.Resources) error {
	if !selection.Valid() {
		return core.ErrInvalidIntent.Wrapf("invalid discard selection")
	}
	if !holdings.Covers(selection) {
		return core.ErrInsufficientResources
	}
	if selection.Total() != required {
		return core.ErrDiscardCountMismatch.Wrapf("want %d, got %d", required, selection.Total())
	}
	return nil
}

// AutoDiscard 超时代弃：每次从当前最多的一堆中弃 1 张
func AutoDiscard(holdings core.Resources, required int) core.Resources {
	left := holdings.Clone()
	out := make(core.Resources)
	for i := 0; i < required; i++ {
		var pick core.ResourceType
		best := 0
		for _, r := range core.AllResources {
			if left[r] > best {
				best = left[r]
				pick = r
			}
		}
		if best == 0 {
			break
		}
		left[pick]--
		out[pick]++
	}
	return out
}

// StealCandidates 地块上拥有建筑的对手（排序、去重）
func StealCandidates(state *core.GameState, hex core.HexCoord, mover string) []string {
	corners, ok := state.Board.HexVertices(hex)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, 3)
	for _, v := range corners {
		b := state.BuildingAt(v)
		if b == nil || b.Owner == mover {
			continue
		}
		if _, dup := seen[b.Owner]; dup {
			continue
		}
		seen[b.Owner] = struct{}{}
		out = append(out, b.Owner)
	}
	sort.Strings(out)
	return out
}

// PickStolenResource 在目标持有的非零资源类型中等概率选择一种
func PickStolenResource(resources core.Resources, rng core.Randomizer) (core.ResourceType, bool) {
	types := resources.NonZero()
	if len(types) == 0 {
		return "", false
	}
	return types[rng.Intn(len(types))], true
}
