package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler not running")
	ErrSchedulerRunning    = errors.New("scheduler already running")
	ErrInvalidTask         = errors.New("invalid task")
)

// Scheduler 延时任务调度器：时间轮 + 工作协程池
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

// NewScheduler 创建调度器，tick 为时间轮精度
func NewScheduler(workerCount int, tick time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		wheel:      NewTimeWheel(tick),
		workerPool: NewWorkerPool(workerCount),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default().With("component", "Scheduler"),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	s.running = true

	s.workerPool.Start()
	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("任务调度器已启动", "tick", s.wheel.Interval())
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.wheel.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			for _, task := range s.wheel.Tick() {
				s.workerPool.Submit(task)
			}
		}
	}
}

// Stop 停止调度器，未到期的任务被丢弃
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.workerPool.Stop()

	s.logger.Info("任务调度器已停止", "pending", s.wheel.Count())
}

// Schedule 添加或替换任务
func (s *Scheduler) Schedule(task *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if task == nil || task.ID == "" {
		return ErrInvalidTask
	}

	s.wheel.AddTask(task)
	s.logger.Debug("添加任务",
		"taskID", task.ID,
		"kind", task.Kind,
		"roomId", task.RoomID,
		"delay", task.Delay)
	return nil
}

// Cancel 取消任务，返回任务是否存在
func (s *Scheduler) Cancel(taskID string) bool {
	return s.wheel.RemoveTask(taskID)
}

// IsRunning 是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()
	return s.running
}

// Pending 等待中的任务数
func (s *Scheduler) Pending() int {
	return s.wheel.Count()
}

// GetStats 调度器统计信息
func (s *Scheduler) GetStats() map[string]any {
	return map[string]any{
		"running":     s.IsRunning(),
		"currentSlot": s.wheel.CurrentSlot(),
		"pending":     s.wheel.Count(),
		"workerCount": s.workerPool.workerCount,
	}
}
