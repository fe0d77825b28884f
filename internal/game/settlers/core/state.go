package core

import (
	"sort"
	"time"
)

// Phase 对局阶段
type Phase string

const (
	PhaseInitialPlacement Phase = "initial_placement" // 初始放置（蛇形顺序）
	PhaseNormalTurn       Phase = "normal_turn"       // 正常回合
	PhaseFinished         Phase = "finished"          // 已结束
)

// Stage 正常回合内的子阶段
type Stage string

const (
	StageAwaitingRoll        Stage = "awaiting_roll"
	StageAwaitingDiscards    Stage = "awaiting_discards"
	StageAwaitingRobber      Stage = "awaiting_robber"
	StageAwaitingStealTarget Stage = "awaiting_steal_target"
	StageMain                Stage = "main" // 建造 / 交易
)

// BuildingKind 建筑类型
type BuildingKind string

const (
	BuildingSettlement BuildingKind = "settlement"
	BuildingCity       BuildingKind = "city"
)

// Building 建筑，城市是同一位置上村庄的升级
type Building struct {
	Kind   BuildingKind `json:"kind"`
	Owner  string       `json:"owner"`
	Vertex VertexID     `json:"vertex"`
}

// Road 道路
type Road struct {
	Edge  EdgeID `json:"edge"`
	Owner string `json:"owner"`
}

// Player 玩家
type Player struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Color             string     `json:"color"`
	Resources         Resources  `json:"resources"`
	Buildings         []VertexID `json:"buildings"` // 引用 GameState.Buildings
	Roads             []EdgeID   `json:"roads"`     // 引用 GameState.Roads
	VictoryPoints     int        `json:"victoryPoints"`
	LongestRoadLength int        `json:"longestRoadLength"`
	HasLongestRoad    bool       `json:"hasLongestRoad"`
}

// Clone 深拷贝
func (p *Player) Clone() *Player {
	cp := *p
	cp.Resources = p.Resources.Clone()
	cp.Buildings = append([]VertexID(nil), p.Buildings...)
	cp.Roads = append([]EdgeID(nil), p.Roads...)
	return &cp
}

// RobberState 强盗状态
type RobberState struct {
	Hex           HexCoord `json:"hex"`
	MovedThisTurn bool     `json:"movedThisTurn"`
}

// TradeStatus 交易协商状态
type TradeStatus string

const (
	TradeProposed       TradeStatus = "proposed"        // 仅发起方出价
	TradeCounterPending TradeStatus = "counter_pending" // 双方均已出价
)

// TradeOffer 一对玩家之间的交易协商
type TradeOffer struct {
	ID            string      `json:"id"`
	FromPlayerID  string      `json:"fromPlayerId"`
	ToPlayerID    string      `json:"toPlayerId"`
	OfferFrom     Resources   `json:"offerFrom"`
	OfferTo       Resources   `json:"offerTo"`
	FromSubmitted bool        `json:"fromSubmitted"`
	ToSubmitted   bool        `json:"toSubmitted"`
	FromAccepted  bool        `json:"fromAccepted"`
	ToAccepted    bool        `json:"toAccepted"`
	Status        TradeStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Clone 深拷贝
func (t *TradeOffer) Clone() *TradeOffer {
	cp := *t
	cp.OfferFrom = t.OfferFrom.Clone()
	cp.OfferTo = t.OfferTo.Clone()
	return &cp
}

// Involves 是否为协商一方
func (t *TradeOffer) Involves(playerID string) bool {
	return t.FromPlayerID == playerID || t.ToPlayerID == playerID
}

// Counterpart 另一方
func (t *TradeOffer) Counterpart(playerID string) string {
	if t.FromPlayerID == playerID {
		return t.ToPlayerID
	}
	return t.FromPlayerID
}

// PairKey 无序玩家对的键
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// SetupProgress 当前玩家在本轮初始放置中已放置的结构
type SetupProgress struct {
	Settlement *VertexID `json:"settlement,omitempty"`
	Road       *EdgeID   `json:"road,omitempty"`
}

// GameState 对局权威状态
// 只由回合状态机修改，其余组件只读取快照
type GameState struct {
	RoomID string `json:"roomId"`
	Phase  Phase  `json:"phase"`
	Stage  Stage  `json:"stage"`

	Players     []*Player `json:"players"`     // 座位顺序
	PlayerOrder []string  `json:"playerOrder"` // 正常回合顺序
	SnakeOrder  []string  `json:"snakeOrder"`  // 初始放置顺序：正序 + 逆序

	InitialPlacementIndex int           `json:"initialPlacementIndex"`
	Setup                 SetupProgress `json:"setup"`
	CurrentTurnPlayerID   string        `json:"currentTurnPlayerId"`
	TurnNumber            int           `json:"turnNumber"` // 正常回合计数，从 1 开始
	LastDiceRoll          int           `json:"lastDiceRoll"`
	BuildMode             BuildingMode  `json:"buildMode"`

	Board     *Board                 `json:"board"`
	Buildings map[VertexID]*Building `json:"buildings"`
	Roads     map[EdgeID]*Road       `json:"roads"`
	Robber    RobberState            `json:"robber"`

	PendingDiscards map[string]int         `json:"pendingDiscards"`
	StealCandidates []string               `json:"stealCandidates,omitempty"`
	Trades          map[string]*TradeOffer `json:"trades"`

	LongestRoadHolder string `json:"longestRoadHolder,omitempty"`
	WinnerID          string `json:"winnerId,omitempty"`
	VictoryTarget     int    `json:"victoryTarget"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BuildingMode 当前玩家的建造意图（界面提示，不参与规则）
type BuildingMode string

const (
	BuildModeSettlement BuildingMode = "settlement"
	BuildModeCity       BuildingMode = "city"
	BuildModeRoad       BuildingMode = "road"
)

// Valid 是否为已知的建造模式
func (m BuildingMode) Valid() bool {
	return m == BuildModeSettlement || m == BuildModeCity || m == BuildModeRoad
}

// GetPlayer 根据ID获取玩家
func (s *GameState) GetPlayer(playerID string) *Player {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// GetPlayerIndex 根据ID获取玩家在行动顺序中的索引
func (s *GameState) GetPlayerIndex(playerID string) int {
	for i, id := range s.PlayerOrder {
		if id == playerID {
			return i
		}
	}
	return -1
}

// BuildingAt 顶点上的建筑
func (s *GameState) BuildingAt(v VertexID) *Building {
	return s.Buildings[v]
}

// RoadAt 边上的道路
func (s *GameState) RoadAt(e EdgeID) *Road {
	return s.Roads[e]
}

// Trade 获取一对玩家之间的协商
func (s *GameState) Trade(a, b string) *TradeOffer {
	return s.Trades[PairKey(a, b)]
}

// TradesOf 获取某玩家参与的全部协商（按 ID 排序）
func (s *GameState) TradesOf(playerID string) []*TradeOffer {
	out := make([]*TradeOffer, 0)
	for _, t := range s.Trades {
		if t.Involves(playerID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clone 深拷贝状态；Board 不可变，共享引用
func (s *GameState) Clone() *GameState {
	cp := *s

	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.PlayerOrder = append([]string(nil), s.PlayerOrder...)
	cp.SnakeOrder = append([]string(nil), s.SnakeOrder...)
	cp.StealCandidates = append([]string(nil), s.StealCandidates...)

	if s.Setup.Settlement != nil {
		v := *s.Setup.Settlement
		cp.Setup.Settlement = &v
	}
	if s.Setup.Road != nil {
		e := *s.Setup.Road
		cp.Setup.Road = &e
	}

	cp.Buildings = make(map[VertexID]*Building, len(s.Buildings))
	for k, b := range s.Buildings {
		bb := *b
		cp.Buildings[k] = &bb
	}
	cp.Roads = make(map[EdgeID]*Road, len(s.Roads))
	for k, r := range s.Roads {
		rr := *r
		cp.Roads[k] = &rr
	}
	cp.PendingDiscards = make(map[string]int, len(s.PendingDiscards))
	for k, n := range s.PendingDiscards {
		cp.PendingDiscards[k] = n
	}
	cp.Trades = make(map[string]*TradeOffer, len(s.Trades))
	for k, t := range s.Trades {
		cp.Trades[k] = t.Clone()
	}
	return &cp
}
