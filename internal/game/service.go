package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"sudooom.settlers/internal/game/settlers"
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/rules"
	"sudooom.settlers/internal/game/settlers/turn"
	"sudooom.settlers/internal/task"
)

// EventPublisher 事件下发
type EventPublisher interface {
	PublishEvents(ctx context.Context, roomID string, version int64, events []core.Event) error
}

// SnapshotStore 房间成员与快照缓存，未命中时返回 nil, nil
type SnapshotStore interface {
	SetMembers(ctx context.Context, roomID string, playerIDs []string) error
	ExpireRoom(ctx context.Context, roomID string, ttl time.Duration) error
	SaveSnapshot(ctx context.Context, state *core.GameState) error
	LoadSnapshot(ctx context.Context, roomID string) (*core.GameState, error)
}

// GameRepository 对局记录持久化，未找到时返回 nil, nil
type GameRepository interface {
	SaveGame(ctx context.Context, state *core.GameState) error
	AppendEvents(ctx context.Context, roomID string, version int64, events []core.Event) error
	LoadGame(ctx context.Context, roomID string) (*core.GameState, error)
}

// TimeoutScheduler 延时任务调度
type TimeoutScheduler interface {
	Schedule(t *task.Task) error
	Cancel(taskID string) bool
}

// ServiceConfig 超时策略
type ServiceConfig struct {
	TradeTimeout    time.Duration // 0 表示不自动取消
	DiscardTimeout  time.Duration // 0 表示不自动弃牌
	FinishedRoomTTL time.Duration // 结束后房间缓存保留时长
}

// GameService 对局服务：处理意图 → 下发事件 → 缓存 → 持久化 → 超时策略
type GameService struct {
	manager   *GameManager
	engines   *settlers.Service
	publisher EventPublisher
	store     SnapshotStore
	repo      GameRepository
	scheduler TimeoutScheduler
	cfg       ServiceConfig
	now       func() time.Time
	logger    *slog.Logger
}

// NewGameService 创建对局服务，并接管管理器的保存回调
func NewGameService(
	manager *GameManager,
	engines *settlers.Service,
	publisher EventPublisher,
	store SnapshotStore,
	repo GameRepository,
	scheduler TimeoutScheduler,
	cfg ServiceConfig,
) *GameService {
	s := &GameService{
		manager:   manager,
		engines:   engines,
		publisher: publisher,
		store:     store,
		repo:      repo,
		scheduler: scheduler,
		cfg:       cfg,
		now:       time.Now,
		logger:    slog.Default().With("component", "GameService"),
	}
	manager.SetPersist(s.persistGame)
	return s
}

// StartGame 为房间创建对局并广播开始事件，房间 ID 不可复用
func (s *GameService) StartGame(ctx context.Context, roomID string, players []turn.PlayerInfo) (*core.GameState, error) {
	if _, ok := s.manager.Get(roomID); ok {
		return nil, ErrGameAlreadyStarted
	}
	if existing, err := s.lookup(ctx, roomID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrGameAlreadyStarted
	}

	engine, err := s.engines.CreateEngine(roomID, players)
	if err != nil {
		return nil, err
	}
	g := NewGame(roomID, engine)
	// 开始事件下发之前，其他意图不能抢先提交
	g.commitMu.Lock()
	defer g.commitMu.Unlock()
	if _, created, err := s.manager.Add(g); err != nil {
		return nil, err
	} else if !created {
		return nil, ErrGameAlreadyStarted
	}
	g.MarkDirty()

	snap := g.Snapshot()
	ids := make([]string, len(snap.PlayerOrder))
	copy(ids, snap.PlayerOrder)
	if err := s.store.SetMembers(ctx, roomID, ids); err != nil {
		s.logger.Warn("Failed to store room members", "roomId", roomID, "error", err)
	}

	s.afterApply(ctx, g, snap, []core.Event{g.StartedEvent()})

	s.logger.Info("Game started",
		"roomId", roomID,
		"players", snap.PlayerOrder)
	return snap, nil
}

// HandleIntent 处理玩家意图，返回处理后的状态
// 内存中没有对局时依次从缓存、数据库恢复
func (s *GameService) HandleIntent(ctx context.Context, roomID string, intent turn.Intent) (*core.GameState, error) {
	g, err := s.loadGame(ctx, roomID)
	if err != nil {
		return nil, err
	}

	g.commitMu.Lock()
	defer g.commitMu.Unlock()
	events, snap, err := g.Apply(intent)
	if err != nil {
		return nil, err
	}
	s.afterApply(ctx, g, snap, events)
	return snap, nil
}

// GetSnapshot 查询对局状态，不会把对局加载进内存
func (s *GameService) GetSnapshot(ctx context.Context, roomID string) (*core.GameState, error) {
	if g, ok := s.manager.Get(roomID); ok {
		return g.Snapshot(), nil
	}
	snap, err := s.lookup(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrGameNotFound
	}
	return snap, nil
}

// lookup 依次查缓存、数据库
func (s *GameService) lookup(ctx context.Context, roomID string) (*core.GameState, error) {
	snap, err := s.store.LoadSnapshot(ctx, roomID)
	if err != nil {
		s.logger.Warn("Failed to load cached snapshot", "roomId", roomID, "error", err)
	}
	if snap != nil {
		return snap, nil
	}
	snap, err = s.repo.LoadGame(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", roomID, err)
	}
	return snap, nil
}

func (s *GameService) loadGame(ctx context.Context, roomID string) (*Game, error) {
	if g, ok := s.manager.Get(roomID); ok {
		return g, nil
	}
	snap, err := s.lookup(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrGameNotFound
	}

	engine, err := s.engines.RestoreEngine(snap)
	if err != nil {
		return nil, err
	}
	g, created, err := s.manager.Add(NewGame(roomID, engine))
	if err != nil {
		return nil, err
	}
	if created {
		s.resumeTimeouts(snap)
		s.logger.Info("Game restored", "roomId", roomID, "version", snap.Version)
	}
	return g, nil
}

// afterApply 引擎锁外的副作用；失败只记录日志，不影响已提交的状态
// 调用方持有 g.commitMu，同一房间的版本 N 总是先于 N+1 下发
func (s *GameService) afterApply(ctx context.Context, g *Game, snap *core.GameState, events []core.Event) {
	if err := s.publisher.PublishEvents(ctx, snap.RoomID, snap.Version, events); err != nil {
		s.logger.Warn("Failed to publish events", "roomId", snap.RoomID, "version", snap.Version, "error", err)
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Warn("Failed to cache snapshot", "roomId", snap.RoomID, "error", err)
	}
	if err := s.repo.AppendEvents(ctx, snap.RoomID, snap.Version, events); err != nil {
		s.logger.Warn("Failed to append events", "roomId", snap.RoomID, "error", err)
	}
	if err := s.repo.SaveGame(ctx, snap); err != nil {
		s.logger.Warn("Failed to save game", "roomId", snap.RoomID, "error", err)
	} else {
		g.MarkClean(snap.Version)
	}

	s.scheduleTimeouts(snap, events)

	if snap.Phase == core.PhaseFinished {
		s.finish(ctx, snap)
	}
}

func (s *GameService) finish(ctx context.Context, snap *core.GameState) {
	for key := range snap.Trades {
		s.scheduler.Cancel(tradeTaskID(snap.RoomID, key))
	}
	s.scheduler.Cancel(discardTaskID(snap.RoomID))
	if s.cfg.FinishedRoomTTL > 0 {
		if err := s.store.ExpireRoom(ctx, snap.RoomID, s.cfg.FinishedRoomTTL); err != nil {
			s.logger.Warn("Failed to expire room cache", "roomId", snap.RoomID, "error", err)
		}
	}
	s.logger.Info("Game finished", "roomId", snap.RoomID, "winner", snap.WinnerID)
}

// persistGame 淘汰或关闭时保存
func (s *GameService) persistGame(ctx context.Context, g *Game) error {
	snap := g.Snapshot()
	if err := s.repo.SaveGame(ctx, snap); err != nil {
		return err
	}
	g.MarkClean(snap.Version)
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Warn("Failed to cache snapshot", "roomId", snap.RoomID, "error", err)
	}
	return nil
}

// ============== 超时策略 ==============

func tradeTaskID(roomID, pair string) string {
	return "trade:" + roomID + ":" + pair
}

func discardTaskID(roomID string) string {
	return "discard:" + roomID
}

// resumeMinDelay 恢复时已经超时的任务最短延迟
const resumeMinDelay = time.Second

func (s *GameService) scheduleTimeouts(snap *core.GameState, events []core.Event) {
	for _, ev := range events {
		switch ev.Type {
		case core.EventTradeUpdated, core.EventTradeAccepted:
			p, ok := ev.Payload.(core.TradePayload)
			if !ok || s.cfg.TradeTimeout <= 0 {
				continue
			}
			s.scheduleTrade(snap.RoomID, core.PairKey(p.Trade.FromPlayerID, p.Trade.ToPlayerID), p.Trade.UpdatedAt, s.cfg.TradeTimeout)
		case core.EventTradeCompleted, core.EventTradeCancelled:
			if p, ok := ev.Payload.(core.TradePayload); ok {
				s.scheduler.Cancel(tradeTaskID(snap.RoomID, core.PairKey(p.Trade.FromPlayerID, p.Trade.ToPlayerID)))
			}
		case core.EventDiscardRequired:
			if s.cfg.DiscardTimeout <= 0 {
				continue
			}
			s.scheduleDiscard(snap.RoomID, snap.TurnNumber, s.cfg.DiscardTimeout)
		}
	}
}

// resumeTimeouts 从存储恢复的对局按快照重新登记超时任务
func (s *GameService) resumeTimeouts(snap *core.GameState) {
	if snap.Phase == core.PhaseFinished {
		return
	}
	now := s.now()
	if s.cfg.TradeTimeout > 0 {
		for pair, trade := range snap.Trades {
			delay := s.cfg.TradeTimeout - now.Sub(trade.UpdatedAt)
			s.scheduleTrade(snap.RoomID, pair, trade.UpdatedAt, max(delay, resumeMinDelay))
		}
	}
	// 弃牌开始的时间没有单独记录，按状态最后修改时间计
	if s.cfg.DiscardTimeout > 0 && snap.Stage == core.StageAwaitingDiscards && len(snap.PendingDiscards) > 0 {
		delay := s.cfg.DiscardTimeout - now.Sub(snap.UpdatedAt)
		s.scheduleDiscard(snap.RoomID, snap.TurnNumber, max(delay, resumeMinDelay))
	}
}

func (s *GameService) scheduleTrade(roomID, pair string, updatedAt time.Time, delay time.Duration) {
	t := task.NewTask(tradeTaskID(roomID, pair), task.KindTradeExpiry, roomID, delay, s.onTradeExpired).
		WithMetadata("pair", pair).
		WithMetadata("updatedAt", updatedAt.UnixNano())
	if err := s.scheduler.Schedule(t); err != nil {
		s.logger.Warn("Failed to schedule trade timeout", "roomId", roomID, "pair", pair, "error", err)
	}
}

func (s *GameService) scheduleDiscard(roomID string, turnNumber int, delay time.Duration) {
	t := task.NewTask(discardTaskID(roomID), task.KindDiscardExpiry, roomID, delay, s.onDiscardExpired).
		WithMetadata("turn", turnNumber)
	if err := s.scheduler.Schedule(t); err != nil {
		s.logger.Warn("Failed to schedule discard timeout", "roomId", roomID, "error", err)
	}
}

// onTradeExpired 协商在超时时间内没有变化则由系统取消
func (s *GameService) onTradeExpired(ctx context.Context, roomID string, md map[string]any) error {
	g, ok := s.manager.Get(roomID)
	if !ok {
		return nil
	}
	pair, _ := md["pair"].(string)
	stamp, _ := md["updatedAt"].(int64)

	g.commitMu.Lock()
	defer g.commitMu.Unlock()
	events, snap, applied, err := g.ApplyIf(func(state *core.GameState) (turn.Intent, bool) {
		trade := state.Trades[pair]
		if trade == nil || trade.UpdatedAt.UnixNano() != stamp || state.Phase == core.PhaseFinished {
			return turn.Intent{}, false
		}
		return turn.Intent{
			Type:           turn.IntentCancelTrade,
			PlayerID:       trade.FromPlayerID,
			TargetPlayerID: trade.ToPlayerID,
			Automatic:      true,
			Reason:         "timeout",
		}, true
	})
	if err != nil || !applied {
		return err
	}
	s.logger.Info("Trade negotiation expired", "roomId", roomID, "pair", pair)
	s.afterApply(ctx, g, snap, events)
	return nil
}

// onDiscardExpired 超时未弃牌的玩家按最多的资源优先自动弃牌
func (s *GameService) onDiscardExpired(ctx context.Context, roomID string, md map[string]any) error {
	g, ok := s.manager.Get(roomID)
	if !ok {
		return nil
	}
	turnNumber, _ := md["turn"].(int)

	g.commitMu.Lock()
	defer g.commitMu.Unlock()
	for {
		events, snap, applied, err := g.ApplyIf(func(state *core.GameState) (turn.Intent, bool) {
			if state.Phase != core.PhaseNormalTurn ||
				state.Stage != core.StageAwaitingDiscards ||
				state.TurnNumber != turnNumber {
				return turn.Intent{}, false
			}
			ids := make([]string, 0, len(state.PendingDiscards))
			for id := range state.PendingDiscards {
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				return turn.Intent{}, false
			}
			sort.Strings(ids)
			player := state.GetPlayer(ids[0])
			return turn.Intent{
				Type:      turn.IntentSubmitDiscard,
				PlayerID:  player.ID,
				Resources: rules.AutoDiscard(player.Resources, state.PendingDiscards[player.ID]),
				Automatic: true,
				Reason:    "timeout",
			}, true
		})
		if err != nil || !applied {
			return err
		}
		s.logger.Info("Discard applied automatically", "roomId", roomID, "turn", turnNumber)
		s.afterApply(ctx, g, snap, events)
	}
}

// ============== 查询 ==============

// TradeAge 协商计时
type TradeAge struct {
	Trade       *core.TradeOffer `json:"trade"`
	Counterpart string           `json:"counterpart,omitempty"` // 按玩家裁剪后填充
	Age         time.Duration    `json:"age"`                   // 自创建起
	Idle        time.Duration    `json:"idle"`                  // 自最后一次修改起
	ExpiresIn   time.Duration    `json:"expiresIn"`             // 0 表示不会自动取消
}

// PendingView 待处理的协商与弃牌
type PendingView struct {
	RoomID          string         `json:"roomId"`
	Version         int64          `json:"version"`
	Stage           core.Stage     `json:"stage"`
	Trades          []TradeAge     `json:"trades"`
	PendingDiscards map[string]int `json:"pendingDiscards"`
}

// Pending 查询进行中的交易协商（含时长）与待弃牌玩家
func (s *GameService) Pending(ctx context.Context, roomID string) (*PendingView, error) {
	snap, err := s.GetSnapshot(ctx, roomID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	view := &PendingView{
		RoomID:          snap.RoomID,
		Version:         snap.Version,
		Stage:           snap.Stage,
		Trades:          make([]TradeAge, 0, len(snap.Trades)),
		PendingDiscards: make(map[string]int, len(snap.PendingDiscards)),
	}
	keys := make([]string, 0, len(snap.Trades))
	for k := range snap.Trades {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t := snap.Trades[k]
		age := TradeAge{
			Trade: t,
			Age:   now.Sub(t.CreatedAt),
			Idle:  now.Sub(t.UpdatedAt),
		}
		if s.cfg.TradeTimeout > 0 {
			age.ExpiresIn = max(s.cfg.TradeTimeout-age.Idle, 0)
		}
		view.Trades = append(view.Trades, age)
	}
	for id, n := range snap.PendingDiscards {
		view.PendingDiscards[id] = n
	}
	return view, nil
}

// For 只保留某玩家参与的协商，playerID 为空时不含任何协商
func (v *PendingView) For(playerID string) *PendingView {
	out := &PendingView{
		RoomID:          v.RoomID,
		Version:         v.Version,
		Stage:           v.Stage,
		Trades:          make([]TradeAge, 0),
		PendingDiscards: v.PendingDiscards,
	}
	if playerID == "" {
		return out
	}
	for _, t := range v.Trades {
		if t.Trade.Involves(playerID) {
			t.Counterpart = t.Trade.Counterpart(playerID)
			out.Trades = append(out.Trades, t)
		}
	}
	return out
}
