package core

import (
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// TileSpec 地块布局描述
type TileSpec struct {
	Q      int          `json:"q" yaml:"q"`
	R      int          `json:"r" yaml:"r"`
	Type   ResourceType `json:"type" yaml:"type"`
	Number int          `json:"number,omitempty" yaml:"number,omitempty"`
}

// Layout 棋盘布局
type Layout struct {
	Tiles []TileSpec `json:"tiles" yaml:"tiles"`
}

// Randomizer 随机源（掷骰、洗牌、抢夺资源）
type Randomizer interface {
	// Intn 返回 [0, n) 的随机整数
	Intn(n int) int
}

type pcgRandom struct {
	r *rand.Rand
}

// NewRandomizer 基于 PCG 的随机源；同一个种子产生相同序列
func NewRandomizer(seed uint64) Randomizer {
	return &pcgRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *pcgRandom) Intn(n int) int {
	return p.r.IntN(n)
}

// DefaultLayout 经典 3-4-5-4-3 固定布局，沙漠位于中心
func DefaultLayout() Layout {
	return Layout{Tiles: []TileSpec{
		// 第 1 行
		{Q: 0, R: -2, Type: ResourceWood, Number: 11},
		{Q: 1, R: -2, Type: ResourceWheat, Number: 12},
		{Q: 2, R: -2, Type: ResourceSheep, Number: 9},
		// 第 2 行
		{Q: -1, R: -1, Type: ResourceBrick, Number: 4},
		{Q: 0, R: -1, Type: ResourceStone, Number: 6},
		{Q: 1, R: -1, Type: ResourceWood, Number: 5},
		{Q: 2, R: -1, Type: ResourceWheat, Number: 10},
		// 第 3 行
		{Q: -2, R: 0, Type: ResourceSheep, Number: 9},
		{Q: -1, R: 0, Type: ResourceBrick, Number: 11},
		{Q: 0, R: 0, Type: TileDesert},
		{Q: 1, R: 0, Type: ResourceWood, Number: 3},
		{Q: 2, R: 0, Type: ResourceStone, Number: 8},
		// 第 4 行
		{Q: -2, R: 1, Type: ResourceSheep, Number: 8},
		{Q: -1, R: 1, Type: ResourceWheat, Number: 10},
		{Q: 0, R: 1, Type: ResourceBrick, Number: 5},
		{Q: 1, R: 1, Type: ResourceStone, Number: 4},
		// 第 5 行
		{Q: -2, R: 2, Type: ResourceWheat, Number: 6},
		{Q: -1, R: 2, Type: ResourceSheep, Number: 2},
		{Q: 0, R: 2, Type: ResourceWood, Number: 3},
	}}
}

// ShuffledLayout 在经典坐标上随机分配地形与点数
// 地形在全部位置间打乱，点数只在非沙漠地块间打乱
func ShuffledLayout(rng Randomizer) Layout {
	base := DefaultLayout()

	kinds := make([]ResourceType, len(base.Tiles))
	numbers := make([]int, 0, len(base.Tiles))
	for i, t := range base.Tiles {
		kinds[i] = t.Type
		if t.Type != TileDesert {
			numbers = append(numbers, t.Number)
		}
	}
	shuffle(rng, len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
	shuffle(rng, len(numbers), func(i, j int) { numbers[i], numbers[j] = numbers[j], numbers[i] })

	next := 0
	for i := range base.Tiles {
		base.Tiles[i].Type = kinds[i]
		if kinds[i] == TileDesert {
			base.Tiles[i].Number = 0
			continue
		}
		base.Tiles[i].Number = numbers[next]
		next++
	}
	return base
}

// LoadLayoutFile 从 YAML 文件加载自定义布局
func LoadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout file: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout 解析 YAML 布局
func ParseLayout(data []byte) (Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, ErrInvalidBoard.Wrap(err)
	}
	return layout, nil
}

// shuffle Fisher-Yates
func shuffle(rng Randomizer, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		swap(i, j)
	}
}

// Shuffle 打乱字符串切片（用于随机决定行动顺序）
func Shuffle(rng Randomizer, ids []string) {
	shuffle(rng, len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}
