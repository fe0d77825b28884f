// Package game 对局的内存管理与服务编排
package game

import (
	"sync"
	"time"

	"sudooom.settlers/internal/game/settlers"
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
)

// Game 房间对局
// 意图的串行化由 SafeEngine 负责，这里只维护活跃时间与持久化标记
type Game struct {
	mu sync.RWMutex

	// commitMu 覆盖“提交 + 下发/缓存/持久化”，同一房间的副作用按版本顺序执行
	commitMu sync.Mutex

	roomID       string
	engine       *settlers.SafeEngine
	lastActive   time.Time
	dirtyVersion int64 // 最新未持久化的版本，0 表示已保存
}

// NewGame 创建对局
func NewGame(roomID string, engine *settlers.SafeEngine) *Game {
	return &Game{
		roomID:     roomID,
		engine:     engine,
		lastActive: time.Now(),
	}
}

// RoomID 房间 ID
func (g *Game) RoomID() string {
	return g.roomID
}

// Apply 处理玩家意图
func (g *Game) Apply(intent turn.Intent) ([]core.Event, *core.GameState, error) {
	events, snap, err := g.engine.Apply(intent)
	g.touch(snap)
	return events, snap, err
}

// ApplyIf 按当前状态有条件地提交意图（超时策略使用）
func (g *Game) ApplyIf(build func(state *core.GameState) (turn.Intent, bool)) ([]core.Event, *core.GameState, bool, error) {
	events, snap, applied, err := g.engine.ApplyIf(build)
	g.touch(snap)
	return events, snap, applied, err
}

func (g *Game) touch(snap *core.GameState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastActive = time.Now()
	if snap != nil && snap.Version > g.dirtyVersion {
		g.dirtyVersion = snap.Version
	}
}

// Snapshot 状态快照
func (g *Game) Snapshot() *core.GameState {
	return g.engine.State()
}

// StartedEvent 对局开始事件
func (g *Game) StartedEvent() core.Event {
	return g.engine.StartedEvent()
}

// IsFinished 是否已结束
func (g *Game) IsFinished() bool {
	return g.engine.IsFinished()
}

// MarkDirty 标记需要持久化（新建对局）
func (g *Game) MarkDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dirtyVersion = g.engine.Version()
}

// IsDirty 是否有未保存的修改
func (g *Game) IsDirty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dirtyVersion != 0
}

// MarkClean 标记指定版本已保存；之后又有新版本时保持未保存状态
func (g *Game) MarkClean(version int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if version >= g.dirtyVersion {
		g.dirtyVersion = 0
	}
}

// LastActiveTime 获取最后活跃时间
func (g *Game) LastActiveTime() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastActive
}
