package core

import "time"

// PlayerView 对外展示的玩家，手牌只公开张数
type PlayerView struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Color             string     `json:"color"`
	ResourceCount     int        `json:"resourceCount"`
	Resources         Resources  `json:"resources,omitempty"` // 仅本人可见
	Buildings         []VertexID `json:"buildings"`
	Roads             []EdgeID   `json:"roads"`
	VictoryPoints     int        `json:"victoryPoints"`
	LongestRoadLength int        `json:"longestRoadLength"`
	HasLongestRoad    bool       `json:"hasLongestRoad"`
}

// GameView 按观察者裁剪后的状态
// 其他玩家的手牌内容与协商属于私有信息，不出现在视图里
type GameView struct {
	RoomID string `json:"roomId"`
	Phase  Phase  `json:"phase"`
	Stage  Stage  `json:"stage"`

	Players     []*PlayerView `json:"players"`
	PlayerOrder []string      `json:"playerOrder"`
	SnakeOrder  []string      `json:"snakeOrder"`

	InitialPlacementIndex int           `json:"initialPlacementIndex"`
	Setup                 SetupProgress `json:"setup"`
	CurrentTurnPlayerID   string        `json:"currentTurnPlayerId"`
	TurnNumber            int           `json:"turnNumber"`
	LastDiceRoll          int           `json:"lastDiceRoll"`
	BuildMode             BuildingMode  `json:"buildMode"`

	Board     *Board                 `json:"board"`
	Buildings map[VertexID]*Building `json:"buildings"`
	Roads     map[EdgeID]*Road       `json:"roads"`
	Robber    RobberState            `json:"robber"`

	PendingDiscards map[string]int `json:"pendingDiscards"`
	StealCandidates []string       `json:"stealCandidates,omitempty"`
	Trades          []*TradeOffer  `json:"trades"` // 观察者参与的协商

	LongestRoadHolder string `json:"longestRoadHolder,omitempty"`
	WinnerID          string `json:"winnerId,omitempty"`
	VictoryTarget     int    `json:"victoryTarget"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ViewFor 以某玩家的视角裁剪状态，viewerID 为空或不在对局中时为观众视角
func (s *GameState) ViewFor(viewerID string) *GameView {
	cp := s.Clone()

	view := &GameView{
		RoomID:                cp.RoomID,
		Phase:                 cp.Phase,
		Stage:                 cp.Stage,
		Players:               make([]*PlayerView, len(cp.Players)),
		PlayerOrder:           cp.PlayerOrder,
		SnakeOrder:            cp.SnakeOrder,
		InitialPlacementIndex: cp.InitialPlacementIndex,
		Setup:                 cp.Setup,
		CurrentTurnPlayerID:   cp.CurrentTurnPlayerID,
		TurnNumber:            cp.TurnNumber,
		LastDiceRoll:          cp.LastDiceRoll,
		BuildMode:             cp.BuildMode,
		Board:                 cp.Board,
		Buildings:             cp.Buildings,
		Roads:                 cp.Roads,
		Robber:                cp.Robber,
		PendingDiscards:       cp.PendingDiscards,
		StealCandidates:       cp.StealCandidates,
		Trades:                []*TradeOffer{},
		LongestRoadHolder:     cp.LongestRoadHolder,
		WinnerID:              cp.WinnerID,
		VictoryTarget:         cp.VictoryTarget,
		Version:               cp.Version,
		UpdatedAt:             cp.UpdatedAt,
	}

	for i, p := range cp.Players {
		pv := &PlayerView{
			ID:                p.ID,
			Name:              p.Name,
			Color:             p.Color,
			ResourceCount:     p.Resources.Total(),
			Buildings:         p.Buildings,
			Roads:             p.Roads,
			VictoryPoints:     p.VictoryPoints,
			LongestRoadLength: p.LongestRoadLength,
			HasLongestRoad:    p.HasLongestRoad,
		}
		if viewerID != "" && p.ID == viewerID {
			pv.Resources = p.Resources
		}
		view.Players[i] = pv
	}
	if viewerID != "" {
		view.Trades = cp.TradesOf(viewerID)
	}
	return view
}
