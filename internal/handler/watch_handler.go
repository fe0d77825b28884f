package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sudooom.settlers/internal/middleware"
	"sudooom.settlers/pkg/proto"
	"sudooom.settlers/pkg/response"
)

const (
	watchSendBuffer = 128
	watchWriteWait  = 10 * time.Second
	watchPongWait   = 60 * time.Second
	watchPingPeriod = watchPongWait * 9 / 10
)

// RoomFeed 房间公共事件订阅
type RoomFeed interface {
	Watch(roomID string, fn func(data []byte)) (stop func(), err error)
}

// WatchHandler 观战：推送快照后转发房间公共事件，只读
type WatchHandler struct {
	reader   StateReader
	feed     RoomFeed
	upgrader websocket.Upgrader
	now      func() time.Time
	logger   *slog.Logger
}

// NewWatchHandler 创建观战处理器
func NewWatchHandler(reader StateReader, feed RoomFeed, allowedOrigins []string) *WatchHandler {
	return &WatchHandler{
		reader: reader,
		feed:   feed,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" ||
					slices.Contains(allowedOrigins, "*") ||
					slices.Contains(allowedOrigins, origin)
			},
		},
		now:    time.Now,
		logger: slog.Default().With("component", "WatchHandler"),
	}
}

// Watch 观战连接
// GET /api/v1/games/:roomId/watch
func (h *WatchHandler) Watch(c *gin.Context) {
	roomID := c.Param("roomId")

	// 先订阅再取快照，快照之后的事件不会丢
	send := make(chan []byte, watchSendBuffer)
	overflow := make(chan struct{})
	var overflowed bool
	stop, err := h.feed.Watch(roomID, func(data []byte) {
		if overflowed {
			return
		}
		select {
		case send <- data:
		default:
			overflowed = true
			close(overflow)
		}
	})
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	defer stop()

	snap, err := h.reader.GetSnapshot(c.Request.Context(), roomID)
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	payload, err := json.Marshal(viewOf(snap, middleware.GetIdentity(c)))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", "roomId", roomID, "error", err)
		return
	}
	defer conn.Close()

	first, _ := json.Marshal(proto.GameEvent{
		RoomId:    roomID,
		Version:   snap.Version,
		Type:      proto.EventTypeSnapshot,
		Payload:   payload,
		Timestamp: h.now().UnixMilli(),
	})
	if err := h.write(conn, websocket.TextMessage, first); err != nil {
		return
	}

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	h.logger.Debug("Spectator joined", "roomId", roomID, "version", snap.Version)
	h.writeLoop(conn, snap.Version, send, overflow, closed)
	h.logger.Debug("Spectator left", "roomId", roomID)
}

// readLoop 观战端不上行，只处理 pong 与关闭
func (h *WatchHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WatchHandler) writeLoop(conn *websocket.Conn, since int64, send <-chan []byte, overflow, closed <-chan struct{}) {
	ticker := time.NewTicker(watchPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-send:
			var head struct {
				Version int64 `json:"Version"`
			}
			if json.Unmarshal(data, &head) == nil && head.Version <= since {
				continue
			}
			if err := h.write(conn, websocket.TextMessage, data); err != nil {
				return
			}
		case <-overflow:
			// 消费过慢，断开让客户端重连拿新快照
			_ = h.write(conn, websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "slow consumer"))
			return
		case <-ticker.C:
			if err := h.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (h *WatchHandler) write(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
	return conn.WriteMessage(messageType, data)
}
