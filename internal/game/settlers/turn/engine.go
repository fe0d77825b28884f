// Package turn 回合状态机：对局状态的唯一修改者
package turn

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/rules"
	appErrors "sudooom.settlers/pkg/errors"
)

// 玩家人数范围
const (
	MinPlayers = 2
	MaxPlayers = 6
)

// DefaultVictoryPoints 默认胜利分数
const DefaultVictoryPoints = 10

// PlayerInfo 入座玩家
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Option 引擎选项
type Option func(*Engine)

// WithRandomizer 指定随机源（掷骰、抢夺）
func WithRandomizer(rng core.Randomizer) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock 指定时钟
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithIDGenerator 指定交易协商 ID 生成器
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithVictoryPoints 胜利分数，0 表示不判定胜负
func WithVictoryPoints(n int) Option {
	return func(e *Engine) { e.victoryTarget = n }
}

// WithLogger 指定日志
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine 单个房间的回合状态机
// 非线程安全，由上层按房间串行调用
type Engine struct {
	state         *core.GameState
	rng           core.Randomizer
	clock         func() time.Time
	newID         func() string
	victoryTarget int
	logger        *slog.Logger
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		clock:         time.Now,
		newID:         uuid.NewString,
		victoryTarget: DefaultVictoryPoints,
		logger:        slog.Default().With("component", "TurnEngine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = core.NewRandomizer(uint64(e.clock().UnixNano()))
	}
	return e
}

// New 创建对局，玩家按给定顺序行动，初始放置使用蛇形顺序
func New(roomID string, players []PlayerInfo, board *core.Board, opts ...Option) (*Engine, error) {
	if board == nil {
		return nil, core.ErrInvalidBoard
	}
	if err := validatePlayers(players); err != nil {
		return nil, err
	}

	e := newEngine(opts)

	order := make([]string, len(players))
	list := make([]*core.Player, len(players))
	for i, p := range players {
		order[i] = p.ID
		list[i] = &core.Player{
			ID:        p.ID,
			Name:      p.Name,
			Color:     p.Color,
			Resources: core.NewResources(),
		}
	}

	snake := make([]string, 0, len(order)*2)
	snake = append(snake, order...)
	for i := len(order) - 1; i >= 0; i-- {
		snake = append(snake, order[i])
	}

	e.state = &core.GameState{
		RoomID:              roomID,
		Phase:               core.PhaseInitialPlacement,
		Players:             list,
		PlayerOrder:         order,
		SnakeOrder:          snake,
		CurrentTurnPlayerID: snake[0],
		Board:               board,
		Buildings:           make(map[core.VertexID]*core.Building),
		Roads:               make(map[core.EdgeID]*core.Road),
		Robber:              core.RobberState{Hex: board.DesertHex()},
		PendingDiscards:     make(map[string]int),
		Trades:              make(map[string]*core.TradeOffer),
		VictoryTarget:       e.victoryTarget,
		Version:             1,
		UpdatedAt:           e.clock(),
	}

	e.logger.Info("对局创建", "roomId", roomID, "players", order)
	return e, nil
}

// Restore 从快照恢复引擎
func Restore(state *core.GameState, opts ...Option) (*Engine, error) {
	if state == nil || state.Board == nil {
		return nil, core.ErrInvalidBoard
	}
	e := newEngine(opts)
	e.state = state.Clone()
	e.victoryTarget = state.VictoryTarget
	if e.state.Buildings == nil {
		e.state.Buildings = make(map[core.VertexID]*core.Building)
	}
	if e.state.Roads == nil {
		e.state.Roads = make(map[core.EdgeID]*core.Road)
	}
	if e.state.PendingDiscards == nil {
		e.state.PendingDiscards = make(map[string]int)
	}
	if e.state.Trades == nil {
		e.state.Trades = make(map[string]*core.TradeOffer)
	}
	return e, nil
}

func validatePlayers(players []PlayerInfo) error {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return appErrors.ErrInvalidPlayers.Wrapf("player count %d", len(players))
	}
	ids := make(map[string]struct{}, len(players))
	colors := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p.ID == "" {
			return appErrors.ErrInvalidPlayers.Wrapf("empty player id")
		}
		if _, dup := ids[p.ID]; dup {
			return appErrors.ErrInvalidPlayers.Wrapf("duplicate player %s", p.ID)
		}
		ids[p.ID] = struct{}{}
		if p.Color == "" {
			continue
		}
		if _, dup := colors[p.Color]; dup {
			return appErrors.ErrInvalidPlayers.Wrapf("duplicate color %s", p.Color)
		}
		colors[p.Color] = struct{}{}
	}
	return nil
}

// State 状态快照（深拷贝）
func (e *Engine) State() *core.GameState {
	return e.state.Clone()
}

// Version 当前版本号
func (e *Engine) Version() int64 {
	return e.state.Version
}

// IsFinished 是否已结束
func (e *Engine) IsFinished() bool {
	return e.state.Phase == core.PhaseFinished
}

// StartedEvent 对局开始事件
func (e *Engine) StartedEvent() core.Event {
	return core.PublicEvent(core.EventGameStarted, core.GameStartedPayload{
		PlayerOrder: append([]string(nil), e.state.PlayerOrder...),
		SnakeOrder:  append([]string(nil), e.state.SnakeOrder...),
		RobberHex:   e.state.Robber.Hex,
	})
}

// Apply 处理一个意图
// 意图在状态副本上执行，只有全部成功才替换当前状态，被拒绝的意图不产生任何修改
func (e *Engine) Apply(intent Intent) ([]core.Event, error) {
	if e.state.Phase == core.PhaseFinished {
		return nil, core.ErrGameFinished
	}
	if e.state.GetPlayer(intent.PlayerID) == nil {
		return nil, core.ErrPlayerNotFound
	}

	next := e.state.Clone()
	tx := &txn{engine: e, state: next, now: e.clock()}

	var err error
	switch intent.Type {
	case IntentProposePlacement:
		err = tx.placement(intent)
	case IntentRollDice:
		err = tx.rollDice(intent)
	case IntentSubmitDiscard:
		err = tx.submitDiscard(intent)
	case IntentMoveRobber:
		err = tx.moveRobber(intent)
	case IntentSelectStealTarget:
		err = tx.selectStealTarget(intent)
	case IntentProposeTrade, IntentUpdateTradeOffer:
		err = tx.offer(intent)
	case IntentAcceptTrade:
		err = tx.acceptTrade(intent)
	case IntentFinalizeTrade:
		err = tx.finalizeTrade(intent)
	case IntentCancelTrade:
		err = tx.cancelTrade(intent)
	case IntentEndTurn:
		err = tx.endTurn(intent)
	case IntentSetBuildMode:
		err = tx.setBuildMode(intent)
	default:
		err = core.ErrInvalidIntent.Wrapf("unknown intent %q", intent.Type)
	}
	if err != nil {
		e.logger.Debug("意图被拒绝",
			"roomId", e.state.RoomID,
			"playerId", intent.PlayerID,
			"intent", intent.Type,
			"error", err)
		return nil, err
	}

	tx.refreshScores(intent.PlayerID)

	next.Version++
	next.UpdatedAt = tx.now
	e.state = next
	return tx.events, nil
}

// txn 单个意图的执行上下文
type txn struct {
	engine *Engine
	state  *core.GameState
	now    time.Time
	events []core.Event
}

func (t *txn) emit(ev core.Event) {
	t.events = append(t.events, ev)
}

// requireTurn 只有当前玩家可以执行
func (t *txn) requireTurn(playerID string) error {
	if t.state.CurrentTurnPlayerID != playerID {
		return core.ErrNotYourTurn
	}
	return nil
}

// requireMainStage 掷骰后且没有待处理的 7 点流程
func (t *txn) requireMainStage() error {
	if t.state.Phase != core.PhaseNormalTurn {
		return core.ErrInvalidPhaseForAction
	}
	switch t.state.Stage {
	case core.StageMain:
		return nil
	case core.StageAwaitingDiscards:
		return core.ErrDiscardRequired
	case core.StageAwaitingRobber, core.StageAwaitingStealTarget:
		return core.ErrRobberMustMoveBeforeContinuing
	default:
		return core.ErrInvalidPhaseForAction
	}
}

// refreshScores 由棋盘重新推导分数，并判定胜负
func (t *txn) refreshScores(actor string) {
	s := t.state
	for _, p := range s.Players {
		p.HasLongestRoad = s.LongestRoadHolder == p.ID
		p.VictoryPoints = rules.VictoryPoints(s, p.ID)
	}

	winner := rules.Winner(s, actor, t.engine.victoryTarget)
	if winner == "" {
		return
	}
	s.Phase = core.PhaseFinished
	s.WinnerID = winner

	points := make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		points[p.ID] = p.VictoryPoints
	}
	t.emit(core.PublicEvent(core.EventGameFinished, core.GameFinishedPayload{
		WinnerID:      winner,
		VictoryPoints: points,
	}))
	t.engine.logger.Info("对局结束", "roomId", s.RoomID, "winner", winner)
}

// refreshLongestRoad 重新计算所有玩家的最长道路及称号
func (t *txn) refreshLongestRoad() {
	s := t.state
	lengths := rules.RoadLengths(s)
	for _, p := range s.Players {
		p.LongestRoadLength = lengths[p.ID]
	}

	previous := s.LongestRoadHolder
	holder := rules.AwardLongestRoad(previous, lengths)
	if holder == previous {
		return
	}
	s.LongestRoadHolder = holder
	t.emit(core.PublicEvent(core.EventLongestRoadChanged, core.LongestRoadPayload{
		Previous: previous,
		Holder:   holder,
		Lengths:  lengths,
	}))
}

func (t *txn) setBuildMode(intent Intent) error {
	if err := t.requireTurn(intent.PlayerID); err != nil {
		return err
	}
	if !intent.Mode.Valid() {
		return core.ErrInvalidIntent.Wrapf("unknown build mode %q", intent.Mode)
	}
	t.state.BuildMode = intent.Mode
	t.emit(core.PublicEvent(core.EventBuildModeChanged, core.BuildModePayload{
		PlayerID: intent.PlayerID,
		Mode:     intent.Mode,
	}))
	return nil
}
