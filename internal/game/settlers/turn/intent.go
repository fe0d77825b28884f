package turn

import "sudooom.settlers/internal/game/settlers/core"

// IntentType 玩家意图类型
type IntentType string

const (
	IntentProposePlacement  IntentType = "proposePlacement"
	IntentRollDice          IntentType = "rollDice"
	IntentMoveRobber        IntentType = "moveRobber"
	IntentSelectStealTarget IntentType = "selectStealTarget"
	IntentSubmitDiscard     IntentType = "submitDiscard"
	IntentProposeTrade      IntentType = "proposeTrade"
	IntentUpdateTradeOffer  IntentType = "updateTradeOffer"
	IntentAcceptTrade       IntentType = "acceptTrade"
	IntentFinalizeTrade     IntentType = "finalizeTrade"
	IntentCancelTrade       IntentType = "cancelTrade"
	IntentEndTurn           IntentType = "endTurn"
	IntentSetBuildMode      IntentType = "setBuildMode"
)

// PlacementKind 建造类型
type PlacementKind string

const (
	PlaceSettlement PlacementKind = "settlement"
	PlaceCity       PlacementKind = "city"
	PlaceRoad       PlacementKind = "road"
)

// Intent 玩家意图，视为不可信输入
type Intent struct {
	Type     IntentType `json:"type"`
	PlayerID string     `json:"playerId"`

	// proposePlacement
	Kind     PlacementKind `json:"kind,omitempty"`
	Location string        `json:"location,omitempty"` // 顶点 "x,y" 或边 "x1,y1-x2,y2"

	// moveRobber
	Hex string `json:"hex,omitempty"` // "q,r"

	// selectStealTarget / moveRobber 可选目标；交易对手
	TargetPlayerID string `json:"targetPlayerId,omitempty"`

	// submitDiscard 的弃牌 / 交易出价
	Resources core.Resources `json:"resources,omitempty"`

	// setBuildMode
	Mode core.BuildingMode `json:"mode,omitempty"`

	// Automatic 由服务端超时策略代为提交
	Automatic bool   `json:"automatic,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
