package core

import (
	"encoding/json"
	"math"
	"sort"
)

// Geometry 棋盘几何参数（尖顶六边形）
type Geometry struct {
	Radius  float64 `json:"radius"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
}

// DefaultGeometry 默认几何参数
func DefaultGeometry() Geometry {
	return Geometry{Radius: 60, CenterX: 400, CenterY: 350}
}

// HexTile 地块，生成后不可变
type HexTile struct {
	Coord    HexCoord     `json:"coord"`
	Resource ResourceType `json:"resource"`
	Number   int          `json:"number,omitempty"` // 沙漠为 0
}

// IsDesert 是否为沙漠
func (t HexTile) IsDesert() bool {
	return t.Resource == TileDesert
}

// Board 棋盘拓扑
// 构建完成后只读，可在多个状态快照之间共享
type Board struct {
	geometry Geometry
	tiles    []HexTile
	desert   HexCoord

	tileIndex       map[HexCoord]int
	hexVertices     map[HexCoord][6]VertexID
	vertexHexes     map[VertexID][]HexCoord
	vertexEdges     map[VertexID][]EdgeID
	vertexNeighbors map[VertexID][]VertexID
	edges           map[EdgeID]struct{}

	vertexList []VertexID
	edgeList   []EdgeID
}

// NewBoard 根据布局生成棋盘
func NewBoard(layout Layout, geometry Geometry) (*Board, error) {
	if err := validateLayout(layout); err != nil {
		return nil, err
	}
	if geometry.Radius <= 0 {
		return nil, ErrInvalidBoard.Wrapf("radius must be positive")
	}

	b := &Board{
		geometry:        geometry,
		tiles:           make([]HexTile, 0, len(layout.Tiles)),
		tileIndex:       make(map[HexCoord]int, len(layout.Tiles)),
		hexVertices:     make(map[HexCoord][6]VertexID, len(layout.Tiles)),
		vertexHexes:     make(map[VertexID][]HexCoord),
		vertexEdges:     make(map[VertexID][]EdgeID),
		vertexNeighbors: make(map[VertexID][]VertexID),
		edges:           make(map[EdgeID]struct{}),
	}

	for _, spec := range layout.Tiles {
		tile := HexTile{
			Coord:    HexCoord{Q: spec.Q, R: spec.R},
			Resource: spec.Type,
			Number:   spec.Number,
		}
		if tile.IsDesert() {
			b.desert = tile.Coord
		}
		b.tileIndex[tile.Coord] = len(b.tiles)
		b.tiles = append(b.tiles, tile)

		corners := b.corners(tile.Coord)
		b.hexVertices[tile.Coord] = corners
		for i, v := range corners {
			b.vertexHexes[v] = append(b.vertexHexes[v], tile.Coord)
			b.addEdge(NewEdgeID(v, corners[(i+1)%6]))
		}
	}

	b.vertexList = make([]VertexID, 0, len(b.vertexHexes))
	for v := range b.vertexHexes {
		b.vertexList = append(b.vertexList, v)
	}
	sort.Slice(b.vertexList, func(i, j int) bool { return b.vertexList[i].Less(b.vertexList[j]) })

	b.edgeList = make([]EdgeID, 0, len(b.edges))
	for e := range b.edges {
		b.edgeList = append(b.edgeList, e)
	}
	sort.Slice(b.edgeList, func(i, j int) bool {
		if b.edgeList[i].A != b.edgeList[j].A {
			return b.edgeList[i].A.Less(b.edgeList[j].A)
		}
		return b.edgeList[i].B.Less(b.edgeList[j].B)
	})

	return b, nil
}

// NewDefaultBoard 经典布局 + 默认几何参数
func NewDefaultBoard() *Board {
	b, err := NewBoard(DefaultLayout(), DefaultGeometry())
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) addEdge(e EdgeID) {
	if _, ok := b.edges[e]; ok {
		return
	}
	b.edges[e] = struct{}{}
	b.vertexEdges[e.A] = append(b.vertexEdges[e.A], e)
	b.vertexEdges[e.B] = append(b.vertexEdges[e.B], e)
	b.vertexNeighbors[e.A] = append(b.vertexNeighbors[e.A], e.B)
	b.vertexNeighbors[e.B] = append(b.vertexNeighbors[e.B], e.A)
}

// center 轴向坐标转平面坐标
func (b *Board) center(h HexCoord) (float64, float64) {
	g := b.geometry
	x := g.CenterX + g.Radius*math.Sqrt(3)*(float64(h.Q)+float64(h.R)/2)
	y := g.CenterY + g.Radius*1.5*float64(h.R)
	return x, y
}

// corners 地块的 6 个顶点（60° 步进，旋转 90° 为尖顶）
func (b *Board) corners(h HexCoord) [6]VertexID {
	cx, cy := b.center(h)
	var out [6]VertexID
	for i := 0; i < 6; i++ {
		angle := math.Pi/3*float64(i) + math.Pi/2
		x := cx + b.geometry.Radius*math.Cos(angle)
		y := cy + b.geometry.Radius*math.Sin(angle)
		out[i] = VertexID{X: int(math.Round(x)), Y: int(math.Round(y))}
	}
	return out
}

// Geometry 几何参数
func (b *Board) Geometry() Geometry { return b.geometry }

// Tiles 全部地块（副本）
func (b *Board) Tiles() []HexTile {
	out := make([]HexTile, len(b.tiles))
	copy(out, b.tiles)
	return out
}

// HexAt 按坐标取地块
func (b *Board) HexAt(h HexCoord) (HexTile, bool) {
	i, ok := b.tileIndex[h]
	if !ok {
		return HexTile{}, false
	}
	return b.tiles[i], true
}

// HasHex 地块是否存在
func (b *Board) HasHex(h HexCoord) bool {
	_, ok := b.tileIndex[h]
	return ok
}

// DesertHex 沙漠地块坐标（强盗初始位置）
func (b *Board) DesertHex() HexCoord { return b.desert }

// HexVertices 地块的 6 个顶点
func (b *Board) HexVertices(h HexCoord) ([6]VertexID, bool) {
	v, ok := b.hexVertices[h]
	return v, ok
}

// VertexHexes 与顶点相接的地块
func (b *Board) VertexHexes(v VertexID) []HexCoord {
	return b.vertexHexes[v]
}

// VertexEdges 以顶点为端点的边
func (b *Board) VertexEdges(v VertexID) []EdgeID {
	return b.vertexEdges[v]
}

// VertexNeighbors 通过一条边相邻的顶点
func (b *Board) VertexNeighbors(v VertexID) []VertexID {
	return b.vertexNeighbors[v]
}

// HasVertex 顶点是否存在
func (b *Board) HasVertex(v VertexID) bool {
	_, ok := b.vertexHexes[v]
	return ok
}

// HasEdge 边是否存在
func (b *Board) HasEdge(e EdgeID) bool {
	_, ok := b.edges[e]
	return ok
}

// EdgeEndpoints 边的两个端点
func (b *Board) EdgeEndpoints(e EdgeID) ([2]VertexID, bool) {
	if !b.HasEdge(e) {
		return [2]VertexID{}, false
	}
	return [2]VertexID{e.A, e.B}, true
}

// Vertices 全部顶点（有序）
func (b *Board) Vertices() []VertexID { return b.vertexList }

// Edges 全部边（有序）
func (b *Board) Edges() []EdgeID { return b.edgeList }

// Distance 两个顶点之间的欧氏距离
func (b *Board) Distance(a, c VertexID) float64 {
	return math.Hypot(float64(a.X-c.X), float64(a.Y-c.Y))
}

// Layout 还原布局描述
func (b *Board) Layout() Layout {
	specs := make([]TileSpec, len(b.tiles))
	for i, t := range b.tiles {
		specs[i] = TileSpec{Q: t.Coord.Q, R: t.Coord.R, Type: t.Resource, Number: t.Number}
	}
	return Layout{Tiles: specs}
}

type boardJSON struct {
	Geometry Geometry  `json:"geometry"`
	Tiles    []HexTile `json:"tiles"`
}

// MarshalJSON 只序列化几何参数和地块，拓扑在反序列化时重建
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Geometry: b.geometry, Tiles: b.tiles})
}

// UnmarshalJSON 重建拓扑
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	specs := make([]TileSpec, len(raw.Tiles))
	for i, t := range raw.Tiles {
		specs[i] = TileSpec{Q: t.Coord.Q, R: t.Coord.R, Type: t.Resource, Number: t.Number}
	}
	rebuilt, err := NewBoard(Layout{Tiles: specs}, raw.Geometry)
	if err != nil {
		return err
	}
	*b = *rebuilt
	return nil
}

func validateLayout(layout Layout) error {
	if len(layout.Tiles) == 0 {
		return ErrInvalidBoard.Wrapf("layout has no tiles")
	}

	seen := make(map[HexCoord]struct{}, len(layout.Tiles))
	deserts := 0
	for _, t := range layout.Tiles {
		coord := HexCoord{Q: t.Q, R: t.R}
		if _, dup := seen[coord]; dup {
			return ErrInvalidBoard.Wrapf("duplicate tile at %s", coord)
		}
		seen[coord] = struct{}{}

		if !t.Type.IsTileKind() {
			return ErrInvalidBoard.Wrapf("unknown tile type %q at %s", t.Type, coord)
		}
		if t.Type == TileDesert {
			deserts++
			if t.Number != 0 {
				return ErrInvalidBoard.Wrapf("desert at %s must not carry a number", coord)
			}
			continue
		}
		if t.Number < 2 || t.Number > 12 || t.Number == 7 {
			return ErrInvalidBoard.Wrapf("invalid number %d at %s", t.Number, coord)
		}
	}

	if deserts != 1 {
		return ErrInvalidBoard.Wrapf("layout must contain exactly one desert, got %d", deserts)
	}
	return nil
}
