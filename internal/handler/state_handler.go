package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.settlers/internal/game"
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/middleware"
	"sudooom.settlers/internal/repository"
	appErrors "sudooom.settlers/pkg/errors"
	"sudooom.settlers/pkg/response"
)

// StateReader 对局状态查询
type StateReader interface {
	GetSnapshot(ctx context.Context, roomID string) (*core.GameState, error)
	Pending(ctx context.Context, roomID string) (*game.PendingView, error)
}

// EventLog 事件日志查询
type EventLog interface {
	ListEvents(ctx context.Context, roomID string, filter repository.EventFilter) ([]repository.EventRecord, error)
}

// StateHandler 对局状态只读接口
type StateHandler struct {
	reader StateReader
	events EventLog
}

// NewStateHandler 创建状态处理器
func NewStateHandler(reader StateReader, events EventLog) *StateHandler {
	return &StateHandler{reader: reader, events: events}
}

// viewOf 按调用方身份裁剪状态：运维看完整状态，玩家看自己的手牌与协商，其余只看公开信息
func viewOf(snap *core.GameState, id middleware.Identity) any {
	if id.Operator {
		return snap
	}
	return snap.ViewFor(id.PlayerID)
}

// GetSnapshot 对局快照
// GET /api/v1/games/:roomId
func (h *StateHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.reader.GetSnapshot(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	response.Success(c, viewOf(snap, middleware.GetIdentity(c)))
}

// GetPending 进行中的协商与待弃牌
// GET /api/v1/games/:roomId/pending
func (h *StateHandler) GetPending(c *gin.Context) {
	view, err := h.reader.Pending(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	if id := middleware.GetIdentity(c); !id.Operator {
		view = view.For(id.PlayerID)
	}
	response.Success(c, view)
}

// ListEvents 事件日志，私有事件只返回给相关玩家
// GET /api/v1/games/:roomId/events?since=0&limit=100
func (h *StateHandler) ListEvents(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		response.ErrorFromAppError(c, appErrors.ErrInvalidParams)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		response.ErrorFromAppError(c, appErrors.ErrInvalidParams)
		return
	}

	id := middleware.GetIdentity(c)
	records, err := h.events.ListEvents(c.Request.Context(), c.Param("roomId"), repository.EventFilter{
		SinceVersion: since,
		Limit:        limit,
		PlayerID:     id.PlayerID,
		All:          id.Operator,
	})
	if err != nil {
		response.ErrorFromAppError(c, appErrors.ErrDBError.Wrap(err))
		return
	}
	if records == nil {
		records = []repository.EventRecord{}
	}
	response.Success(c, records)
}
