// Package health 依赖健康检查
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"sudooom.settlers/pkg/response"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Status 健康状态
type Status struct {
	NATS        string `json:"nats"`
	Redis       string `json:"redis"`
	Database    string `json:"database"`
	ActiveGames int64  `json:"activeGames"`
}

// Healthy 全部依赖可用
func (s *Status) Healthy() bool {
	return s.NATS == StatusConnected &&
		s.Redis == StatusConnected &&
		s.Database == StatusConnected
}

type natsConn interface {
	IsConnected() bool
}

type pinger func(ctx context.Context) error

// Checker 健康检查器
type Checker struct {
	nc        natsConn
	pingRedis pinger
	pingDB    pinger
	games     func() int64
	timeout   time.Duration
}

// NewChecker 创建健康检查器
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool, games func() int64) *Checker {
	h := &Checker{
		games:   games,
		timeout: 2 * time.Second,
	}
	if nc != nil {
		h.nc = nc
	}
	if redisClient != nil {
		h.pingRedis = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if db != nil {
		h.pingDB = db.Ping
	}
	return h
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		NATS:     StatusDisconnected,
		Redis:    StatusDisconnected,
		Database: StatusDisconnected,
	}

	if h.nc != nil && h.nc.IsConnected() {
		status.NATS = StatusConnected
	}
	if h.ping(ctx, h.pingRedis) {
		status.Redis = StatusConnected
	}
	if h.ping(ctx, h.pingDB) {
		status.Database = StatusConnected
	}
	if h.games != nil {
		status.ActiveGames = h.games()
	}
	return status
}

func (h *Checker) ping(ctx context.Context, fn pinger) bool {
	if fn == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return fn(pingCtx) == nil
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// Live 存活探针，进程在即可
func (h *Checker) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready 就绪探针，任一依赖不可用时返回 503
func (h *Checker) Ready(c *gin.Context) {
	status := h.Check(c.Request.Context())
	if !status.Healthy() {
		response.Unavailable(c, status)
		return
	}
	response.Success(c, status)
}
