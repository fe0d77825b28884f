package core

// EventType 事件类型
type EventType string

const (
	EventGameStarted        EventType = "game.started"
	EventPlacementApplied   EventType = "placement.applied"
	EventDiceRolled         EventType = "dice.rolled"
	EventResourcesProduced  EventType = "resources.produced"
	EventDiscardRequired    EventType = "discard.required"
	EventDiscardApplied     EventType = "discard.applied"
	EventRobberMoved        EventType = "robber.moved"
	EventResourceStolen     EventType = "resource.stolen" // 仅抢夺双方可见
	EventTheftOccurred      EventType = "theft.occurred"  // 公开，不含资源类型
	EventTradeUpdated       EventType = "trade.updated"
	EventTradeAccepted      EventType = "trade.accepted"
	EventTradeCompleted     EventType = "trade.completed"
	EventTradeCancelled     EventType = "trade.cancelled"
	EventLongestRoadChanged EventType = "longest_road.changed"
	EventTurnChanged        EventType = "turn.changed"
	EventSetupCompleted     EventType = "setup.completed"
	EventBuildModeChanged   EventType = "build_mode.changed"
	EventGameFinished       EventType = "game.finished"
)

// Audience 事件可见范围
type Audience string

const (
	AudiencePublic  Audience = "public"
	AudiencePrivate Audience = "private"
)

// Event 状态机产生的事件
// Private 事件只发送给 PlayerIDs 中的玩家
type Event struct {
	Type      EventType `json:"type"`
	Audience  Audience  `json:"audience"`
	PlayerIDs []string  `json:"playerIds,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// PublicEvent 构造公开事件
func PublicEvent(t EventType, payload any) Event {
	return Event{Type: t, Audience: AudiencePublic, Payload: payload}
}

// PrivateEvent 构造定向事件
func PrivateEvent(t EventType, payload any, playerIDs ...string) Event {
	return Event{Type: t, Audience: AudiencePrivate, PlayerIDs: playerIDs, Payload: payload}
}

// IsPrivate 是否定向事件
func (e Event) IsPrivate() bool {
	return e.Audience == AudiencePrivate
}

// 事件负载

// PlacementPayload 建造结果
type PlacementPayload struct {
	PlayerID string    `json:"playerId"`
	Kind     string    `json:"kind"` // settlement / city / road
	Vertex   *VertexID `json:"vertex,omitempty"`
	Edge     *EdgeID   `json:"edge,omitempty"`
	Cost     Resources `json:"cost,omitempty"`
	Phase    Phase     `json:"phase"`
}

// DicePayload 掷骰结果
type DicePayload struct {
	PlayerID string `json:"playerId"`
	Die1     int    `json:"die1"`
	Die2     int    `json:"die2"`
	Total    int    `json:"total"`
}

// ProductionPayload 资源产出（按玩家）
type ProductionPayload struct {
	Dice   int                  `json:"dice"`
	Grants map[string]Resources `json:"grants"`
}

// DiscardRequiredPayload 需要弃牌的玩家及数量
type DiscardRequiredPayload struct {
	Required map[string]int `json:"required"`
}

// DiscardAppliedPayload 弃牌结果
type DiscardAppliedPayload struct {
	PlayerID  string    `json:"playerId"`
	Discarded Resources `json:"discarded"`
	Remaining int       `json:"remaining"` // 仍未弃牌的玩家数
	Automatic bool      `json:"automatic,omitempty"`
}

// RobberMovedPayload 强盗移动
type RobberMovedPayload struct {
	PlayerID   string   `json:"playerId"`
	From       HexCoord `json:"from"`
	To         HexCoord `json:"to"`
	Candidates []string `json:"candidates,omitempty"`
}

// StealPayload 抢夺结果；Resource 为空表示目标没有资源
type StealPayload struct {
	ThiefID  string       `json:"thiefId"`
	VictimID string       `json:"victimId"`
	Resource ResourceType `json:"resource,omitempty"`
}

// TradePayload 交易协商快照
type TradePayload struct {
	Trade  *TradeOffer `json:"trade"`
	Actor  string      `json:"actor,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// LongestRoadPayload 最长道路归属变化
type LongestRoadPayload struct {
	Previous string         `json:"previous,omitempty"`
	Holder   string         `json:"holder,omitempty"`
	Lengths  map[string]int `json:"lengths"`
}

// TurnPayload 行动玩家变化
type TurnPayload struct {
	Phase           Phase  `json:"phase"`
	Stage           Stage  `json:"stage,omitempty"`
	CurrentPlayerID string `json:"currentPlayerId"`
	PlacementIndex  int    `json:"placementIndex,omitempty"`
}

// SetupCompletedPayload 初始放置结束时的资源发放
type SetupCompletedPayload struct {
	Grants map[string]Resources `json:"grants"`
}

// BuildModePayload 建造模式（界面提示）
type BuildModePayload struct {
	PlayerID string       `json:"playerId"`
	Mode     BuildingMode `json:"mode"`
}

// GameFinishedPayload 对局结束
type GameFinishedPayload struct {
	WinnerID      string         `json:"winnerId"`
	VictoryPoints map[string]int `json:"victoryPoints"`
}

// GameStartedPayload 对局开始
type GameStartedPayload struct {
	PlayerOrder []string `json:"playerOrder"`
	SnakeOrder  []string `json:"snakeOrder"`
	RobberHex   HexCoord `json:"robberHex"`
}
