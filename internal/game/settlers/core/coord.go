package core

import (
	"fmt"
	"strconv"
	"strings"
)

// HexCoord 六边形轴向坐标，同时作为地块 ID
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// String 文本形式 "q,r"
func (h HexCoord) String() string {
	return fmt.Sprintf("%d,%d", h.Q, h.R)
}

// MarshalText 实现 encoding.TextMarshaler（可作为 JSON map key）
func (h HexCoord) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (h *HexCoord) UnmarshalText(text []byte) error {
	q, r, err := parsePair(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex id %q: %w", text, err)
	}
	h.Q, h.R = q, r
	return nil
}

// ParseHexCoord 解析 "q,r"
func ParseHexCoord(s string) (HexCoord, error) {
	var h HexCoord
	err := h.UnmarshalText([]byte(s))
	return h, err
}

// VertexID 顶点 ID：顶点平面坐标取整
// 共享同一个角的多个地块得到同一个 VertexID
type VertexID struct {
	X int
	Y int
}

// String 文本形式 "x,y"
func (v VertexID) String() string {
	return fmt.Sprintf("%d,%d", v.X, v.Y)
}

// Less 固定顺序：先 X 后 Y
func (v VertexID) Less(o VertexID) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	return v.Y < o.Y
}

// MarshalText 实现 encoding.TextMarshaler
func (v VertexID) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (v *VertexID) UnmarshalText(text []byte) error {
	x, y, err := parsePair(string(text))
	if err != nil {
		return fmt.Errorf("invalid vertex id %q: %w", text, err)
	}
	v.X, v.Y = x, y
	return nil
}

// ParseVertexID 解析 "x,y"
func ParseVertexID(s string) (VertexID, error) {
	var v VertexID
	err := v.UnmarshalText([]byte(s))
	return v, err
}

// EdgeID 边 ID：两个端点按固定顺序排列（A < B）
type EdgeID struct {
	A VertexID
	B VertexID
}

// NewEdgeID 规范化构造，(a,b) 与 (b,a) 得到同一个 EdgeID
func NewEdgeID(a, b VertexID) EdgeID {
	if b.Less(a) {
		a, b = b, a
	}
	return EdgeID{A: a, B: b}
}

// String 文本形式 "x1,y1-x2,y2"
func (e EdgeID) String() string {
	return e.A.String() + "-" + e.B.String()
}

// Touches 边是否以 v 为端点
func (e EdgeID) Touches(v VertexID) bool {
	return e.A == v || e.B == v
}

// Other 返回另一端点
func (e EdgeID) Other(v VertexID) VertexID {
	if e.A == v {
		return e.B
	}
	return e.A
}

// MarshalText 实现 encoding.TextMarshaler
func (e EdgeID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，并规范化端点顺序
func (e *EdgeID) UnmarshalText(text []byte) error {
	s := string(text)
	// 坐标可能为负数，按第二个逗号之后的 '-' 切分
	idx := splitEdge(s)
	if idx < 0 {
		return fmt.Errorf("invalid edge id %q", s)
	}
	a, err := ParseVertexID(s[:idx])
	if err != nil {
		return err
	}
	b, err := ParseVertexID(s[idx+1:])
	if err != nil {
		return err
	}
	*e = NewEdgeID(a, b)
	return nil
}

// ParseEdgeID 解析 "x1,y1-x2,y2"
func ParseEdgeID(s string) (EdgeID, error) {
	var e EdgeID
	err := e.UnmarshalText([]byte(s))
	return e, err
}

func splitEdge(s string) int {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return -1
	}
	// 跳过第一个数字的 y 分量的符号位
	for i := comma + 2; i < len(s); i++ {
		if s[i] == '-' {
			return i
		}
	}
	return -1
}

func parsePair(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two components")
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
