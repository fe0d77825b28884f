package core

import "sort"

// ResourceType 资源类型
type ResourceType string

const (
	ResourceWood  ResourceType = "wood"  // 木材
	ResourceBrick ResourceType = "brick" // 砖块
	ResourceSheep ResourceType = "sheep" // 羊毛
	ResourceWheat ResourceType = "wheat" // 小麦
	ResourceStone ResourceType = "stone" // 矿石

	// TileDesert 沙漠只是地块类型，永远不会出现在玩家的资源中
	TileDesert ResourceType = "desert"
)

// AllResources 可生产的五种资源（固定顺序）
var AllResources = []ResourceType{
	ResourceWood,
	ResourceBrick,
	ResourceSheep,
	ResourceWheat,
	ResourceStone,
}

// IsProducible 是否为可持有的资源
func (r ResourceType) IsProducible() bool {
	switch r {
	case ResourceWood, ResourceBrick, ResourceSheep, ResourceWheat, ResourceStone:
		return true
	default:
		return false
	}
}

// IsTileKind 是否为合法的地块类型
func (r ResourceType) IsTileKind() bool {
	return r == TileDesert || r.IsProducible()
}

// Resources 资源数量表
type Resources map[ResourceType]int

// NewResources 创建五种资源全为 0 的资源表
func NewResources() Resources {
	res := make(Resources, len(AllResources))
	for _, r := range AllResources {
		res[r] = 0
	}
	return res
}

// Total 资源总数
func (r Resources) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Valid 只包含可持有资源且数量非负
func (r Resources) Valid() bool {
	for t, n := range r {
		if !t.IsProducible() || n < 0 {
			return false
		}
	}
	return true
}

// Covers 判断是否足够支付 cost
func (r Resources) Covers(cost Resources) bool {
	for t, n := range cost {
		if r[t] < n {
			return false
		}
	}
	return true
}

// Add 累加（原地修改）
func (r Resources) Add(delta Resources) {
	for t, n := range delta {
		r[t] += n
	}
}

// Sub 扣减（原地修改），调用方负责先用 Covers 校验
func (r Resources) Sub(delta Resources) {
	for t, n := range delta {
		r[t] -= n
	}
}

// Clone 复制
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for t, n := range r {
		out[t] = n
	}
	return out
}

// NonZero 返回数量大于 0 的资源类型（按固定顺序）
func (r Resources) NonZero() []ResourceType {
	types := make([]ResourceType, 0, len(r))
	for t, n := range r {
		if n > 0 {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool {
		return resourceOrder(types[i]) < resourceOrder(types[j])
	})
	return types
}

func resourceOrder(t ResourceType) int {
	for i, r := range AllResources {
		if r == t {
			return i
		}
	}
	return len(AllResources)
}
