package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// PersistFunc 淘汰或关闭前保存对局
type PersistFunc func(ctx context.Context, g *Game) error

// ManagerConfig 管理器配置
type ManagerConfig struct {
	MaxGames      int           // 0 表示不限制
	EvictTimeout  time.Duration // 超过该时长未活跃的对局被淘汰
	CheckInterval time.Duration // 淘汰检查间隔
}

// GameManager 对局管理器，按房间索引
type GameManager struct {
	games  sync.Map // roomID -> *Game
	count  atomic.Int64
	closed atomic.Bool

	cfg     ManagerConfig
	persist atomic.Pointer[PersistFunc]

	evictTicker *time.Ticker
	stopChan    chan struct{}
	stopOnce    sync.Once

	logger *slog.Logger
}

// NewGameManager 创建对局管理器并启动淘汰循环
func NewGameManager(cfg ManagerConfig, persist PersistFunc) *GameManager {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 60 * time.Second
	}
	m := &GameManager{
		cfg:         cfg,
		evictTicker: time.NewTicker(cfg.CheckInterval),
		stopChan:    make(chan struct{}),
		logger:      slog.Default().With("component", "GameManager"),
	}

	m.SetPersist(persist)
	go m.evictLoop()

	return m
}

// SetPersist 设置保存回调
func (m *GameManager) SetPersist(persist PersistFunc) {
	if persist == nil {
		m.persist.Store(nil)
		return
	}
	m.persist.Store(&persist)
}

// Add 加入对局；房间已有对局时返回已存在的对局和 false
func (m *GameManager) Add(g *Game) (*Game, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrManagerClosed
	}
	if val, ok := m.games.Load(g.RoomID()); ok {
		return val.(*Game), false, nil
	}
	if m.cfg.MaxGames > 0 && m.count.Load() >= int64(m.cfg.MaxGames) {
		return nil, false, ErrTooManyGames
	}

	actual, loaded := m.games.LoadOrStore(g.RoomID(), g)
	if loaded {
		return actual.(*Game), false, nil
	}
	m.count.Add(1)
	return g, true, nil
}

// Get 获取对局
func (m *GameManager) Get(roomID string) (*Game, bool) {
	val, ok := m.games.Load(roomID)
	if !ok {
		return nil, false
	}
	return val.(*Game), true
}

// Remove 移除对局
func (m *GameManager) Remove(roomID string) {
	if _, loaded := m.games.LoadAndDelete(roomID); loaded {
		m.count.Add(-1)
		m.logger.Info("Removed game", "roomId", roomID)
	}
}

// Count 返回当前对局数
func (m *GameManager) Count() int {
	return int(m.count.Load())
}

// Range 遍历对局
func (m *GameManager) Range(fn func(g *Game) bool) {
	m.games.Range(func(_, value any) bool {
		return fn(value.(*Game))
	})
}

// evictLoop 淘汰循环
func (m *GameManager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictInactive(context.Background())
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictInactive 淘汰不活跃的对局，未保存的先持久化；保存失败的留到下一轮
func (m *GameManager) evictInactive(ctx context.Context) int {
	if m.cfg.EvictTimeout <= 0 {
		return 0
	}
	now := time.Now()
	var toEvict []*Game

	m.Range(func(g *Game) bool {
		if now.Sub(g.LastActiveTime()) > m.cfg.EvictTimeout {
			toEvict = append(toEvict, g)
		}
		return true
	})

	evicted := 0
	for _, g := range toEvict {
		if err := m.save(ctx, g); err != nil {
			m.logger.Warn("Failed to save game before eviction", "roomId", g.RoomID(), "error", err)
			continue
		}
		m.Remove(g.RoomID())
		evicted++
		m.logger.Info("Evicted inactive game", "roomId", g.RoomID())
	}
	return evicted
}

func (m *GameManager) save(ctx context.Context, g *Game) error {
	persist := m.persist.Load()
	if !g.IsDirty() || persist == nil {
		return nil
	}
	return (*persist)(ctx, g)
}

// Shutdown 关闭管理器，保存所有未保存的对局
func (m *GameManager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	m.closed.Store(true)
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.evictTicker.Stop()
	})

	var firstErr error
	m.Range(func(g *Game) bool {
		if err := m.save(ctx, g); err != nil {
			m.logger.Error("Failed to save game on shutdown", "roomId", g.RoomID(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		return ctx.Err() == nil
	})

	m.logger.Info("GameManager shutdown complete", "games", m.Count())
	return firstErr
}
