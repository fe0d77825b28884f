package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go"

	"sudooom.settlers/pkg/proto"
)

// RequestHandler 意图请求处理器
type RequestHandler interface {
	HandleGameRequest(ctx context.Context, req *proto.GameRequest)
}

// SubscriberConfig Worker 配置
type SubscriberConfig struct {
	WorkerCount  int           // Worker 数量
	BufferSize   int           // 每个 Worker 的缓冲区大小
	DrainTimeout time.Duration // 停止时等待订阅排空的上限
}

// RequestSubscriber 上行意图订阅器
// 按房间 ID 哈希到固定的 Worker，同一房间的请求严格按到达顺序处理
type RequestSubscriber struct {
	nc           *nats.Conn
	handler      RequestHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	shards       []chan *proto.GameRequest
	wg           sync.WaitGroup
	workerCtx    context.Context
	cancelFunc   context.CancelFunc
}

// NewRequestSubscriber 创建订阅器
func NewRequestSubscriber(nc *nats.Conn, handler RequestHandler, config SubscriberConfig) *RequestSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 64
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 256
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = 5 * time.Second
	}

	return &RequestSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "RequestSubscriber"),
		config:  config,
	}
}

// Start 启动 Worker 并订阅
func (s *RequestSubscriber) Start(ctx context.Context) error {
	s.startWorkers(ctx)

	// 队列组实现多个逻辑节点之间的负载均衡
	sub, err := s.nc.QueueSubscribe(SubjectLogicUpstream, QueueGroupLogic, func(msg *nats.Msg) {
		s.dispatch(msg.Data)
	})
	if err != nil {
		s.cancelFunc()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS subscriber started",
		"subject", SubjectLogicUpstream,
		"queue", QueueGroupLogic,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

func (s *RequestSubscriber) startWorkers(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	s.workerCtx = workerCtx
	s.cancelFunc = cancel

	s.shards = make([]chan *proto.GameRequest, s.config.WorkerCount)
	for i := range s.shards {
		s.shards[i] = make(chan *proto.GameRequest, s.config.BufferSize)
		s.wg.Add(1)
		go s.worker(workerCtx, s.shards[i])
	}
}

// shardOf 房间对应的 Worker
func (s *RequestSubscriber) shardOf(roomID string) int {
	return int(xxhash.Sum64String(roomID) % uint64(len(s.shards)))
}

// dispatch 解码并投递到房间对应的 Worker；缓冲区满时阻塞，保持同一房间的顺序
// Worker 已停止时丢弃请求返回，不会阻塞订阅回调
func (s *RequestSubscriber) dispatch(data []byte) {
	var req proto.GameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("Failed to unmarshal game request", "error", err)
		return
	}
	if req.RoomId == "" {
		s.logger.Warn("Game request without room id", "reqId", req.ReqId)
		return
	}
	select {
	case s.shards[s.shardOf(req.RoomId)] <- &req:
	case <-s.workerCtx.Done():
		s.logger.Warn("Subscriber stopped, game request dropped",
			"roomId", req.RoomId,
			"reqId", req.ReqId)
	}
}

// worker 工作协程
func (s *RequestSubscriber) worker(ctx context.Context, ch <-chan *proto.GameRequest) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-ch:
			s.handle(ctx, req)
		}
	}
}

func (s *RequestSubscriber) handle(ctx context.Context, req *proto.GameRequest) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Game request handler panic",
				"roomId", req.RoomId,
				"reqId", req.ReqId,
				"panic", r)
		}
	}()
	s.handler.HandleGameRequest(ctx, req)
}

// Stop 停止订阅
// 先排空订阅，Worker 在排空期间继续消费；超时后直接停止 Worker
func (s *RequestSubscriber) Stop() error {
	if s.subscription != nil {
		if err := s.subscription.Drain(); err != nil {
			s.logger.Error("Failed to drain subscription", "error", err)
		} else if !s.waitDrained(s.subscription, s.config.DrainTimeout) {
			s.logger.Warn("Subscription drain timed out", "timeout", s.config.DrainTimeout)
		}
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()

	s.logger.Info("NATS subscriber stopped")
	return nil
}

type drainable interface {
	IsValid() bool
}

// waitDrained Drain 是异步的，订阅失效即表示已排空
func (s *RequestSubscriber) waitDrained(sub drainable, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for sub.IsValid() {
		select {
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
	return true
}

// GetBufferUsage 获取缓冲区使用情况（用于监控）
func (s *RequestSubscriber) GetBufferUsage() (current int, capacity int) {
	for _, ch := range s.shards {
		current += len(ch)
		capacity += cap(ch)
	}
	return current, capacity
}
