package task

import (
	"sync"
	"time"
)

// SlotCount 时间轮槽位数量
const SlotCount = 60

// TimeWheel 单层时间轮
// 延迟超过一圈的任务记录剩余圈数，每次经过所在槽位时减一
type TimeWheel struct {
	mu       sync.Mutex
	interval time.Duration
	slots    [SlotCount]map[string]*Task
	index    map[string]*Task // taskID -> task
	current  int
}

// NewTimeWheel 创建时间轮，interval 为每个槽位代表的时长
func NewTimeWheel(interval time.Duration) *TimeWheel {
	if interval <= 0 {
		interval = time.Second
	}
	tw := &TimeWheel{
		interval: interval,
		index:    make(map[string]*Task),
	}
	for i := range tw.slots {
		tw.slots[i] = make(map[string]*Task)
	}
	return tw
}

// Interval 槽位时长
func (tw *TimeWheel) Interval() time.Duration {
	return tw.interval
}

// AddTask 添加任务，同 ID 的旧任务被替换
func (tw *TimeWheel) AddTask(task *Task) {
	ticks := int((task.Delay + tw.interval - 1) / tw.interval)
	if ticks < 1 {
		ticks = 1
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.removeLocked(task.ID)

	task.slot = (tw.current + ticks) % SlotCount
	task.rounds = (ticks - 1) / SlotCount
	tw.slots[task.slot][task.ID] = task
	tw.index[task.ID] = task
}

// RemoveTask 删除任务
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.removeLocked(taskID)
}

func (tw *TimeWheel) removeLocked(taskID string) bool {
	old, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.slots[old.slot], taskID)
	delete(tw.index, taskID)
	return true
}

// Tick 推进一个槽位，返回到期的任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.current = (tw.current + 1) % SlotCount
	slot := tw.slots[tw.current]
	if len(slot) == 0 {
		return nil
	}

	var due []*Task
	for id, task := range slot {
		if task.rounds > 0 {
			task.rounds--
			continue
		}
		due = append(due, task)
		delete(slot, id)
		delete(tw.index, id)
	}
	return due
}

// Has 任务是否仍在等待
func (tw *TimeWheel) Has(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	_, ok := tw.index[taskID]
	return ok
}

// CurrentSlot 当前槽位索引
func (tw *TimeWheel) CurrentSlot() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.current
}

// Count 等待中的任务总数
func (tw *TimeWheel) Count() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return len(tw.index)
}
