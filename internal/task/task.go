package task

import (
	"context"
	"time"
)

// Kind 任务类型
type Kind string

const (
	KindTradeExpiry   Kind = "trade_expiry"   // 交易协商超时
	KindDiscardExpiry Kind = "discard_expiry" // 弃牌超时
)

// TaskFunc 任务执行函数类型
type TaskFunc func(ctx context.Context, roomID string, metadata map[string]any) error

// Task 延时任务
// 同一个 ID 重复添加时替换旧任务，用于协商更新后重新计时
type Task struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	RoomID    string         `json:"roomId"`
	Delay     time.Duration  `json:"delay"`
	Fn        TaskFunc       `json:"-"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`

	rounds int // 还需经过的整圈数
	slot   int
}

// NewTask 创建新任务
func NewTask(id string, kind Kind, roomID string, delay time.Duration, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Kind:      kind,
		RoomID:    roomID,
		Delay:     delay,
		Fn:        fn,
		Metadata:  make(map[string]any),
		CreatedAt: time.Now(),
	}
}

// WithMetadata 添加元数据
func (t *Task) WithMetadata(key string, value any) *Task {
	t.Metadata[key] = value
	return t
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.RoomID, t.Metadata)
}
