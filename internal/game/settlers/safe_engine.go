package settlers

import (
	"sync"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
)

// SafeEngine 线程安全的回合引擎包装
// 同一房间的意图在锁内串行执行，锁内不做任何 I/O
type SafeEngine struct {
	mu     sync.RWMutex
	engine *turn.Engine
}

// NewSafeEngine 包装回合引擎
func NewSafeEngine(engine *turn.Engine) *SafeEngine {
	return &SafeEngine{engine: engine}
}

// Apply 处理意图，返回事件和处理后的状态快照
func (e *SafeEngine) Apply(intent turn.Intent) ([]core.Event, *core.GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.engine.Apply(intent)
	if err != nil {
		return nil, nil, err
	}
	return events, e.engine.State(), nil
}

// ApplyIf 在锁内根据当前状态决定是否提交意图
// build 返回 false 时不做任何处理，applied 为 false
func (e *SafeEngine) ApplyIf(build func(state *core.GameState) (turn.Intent, bool)) (events []core.Event, snap *core.GameState, applied bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	intent, ok := build(e.engine.State())
	if !ok {
		return nil, nil, false, nil
	}
	events, err = e.engine.Apply(intent)
	if err != nil {
		return nil, nil, false, err
	}
	return events, e.engine.State(), true, nil
}

// State 当前状态快照
func (e *SafeEngine) State() *core.GameState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.State()
}

// Version 当前版本号
func (e *SafeEngine) Version() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.Version()
}

// IsFinished 对局是否结束
func (e *SafeEngine) IsFinished() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.IsFinished()
}

// StartedEvent 对局开始事件
func (e *SafeEngine) StartedEvent() core.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.StartedEvent()
}
