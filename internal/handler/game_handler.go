package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
	appErrors "sudooom.settlers/pkg/errors"
	"sudooom.settlers/pkg/proto"
)

// IntentStartGame 开局请求，不属于引擎意图
const IntentStartGame = "startGame"

// GameService 对局服务
type GameService interface {
	StartGame(ctx context.Context, roomID string, players []turn.PlayerInfo) (*core.GameState, error)
	HandleIntent(ctx context.Context, roomID string, intent turn.Intent) (*core.GameState, error)
}

// ReplyPublisher 请求结果回执
type ReplyPublisher interface {
	PublishReply(reply *proto.GameReply, userID string) error
}

// GameHandler 上行意图处理器
type GameHandler struct {
	gameService GameService
	replies     ReplyPublisher
	logger      *slog.Logger
}

// NewGameHandler 创建意图处理器
func NewGameHandler(gameService GameService, replies ReplyPublisher) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		replies:     replies,
		logger:      slog.Default().With("component", "GameHandler"),
	}
}

// HandleGameRequest 处理一条请求并回执给请求者
// 状态变化通过房间事件广播，回执只携带结果码与版本
func (h *GameHandler) HandleGameRequest(ctx context.Context, req *proto.GameRequest) {
	h.logger.Debug("Game request received",
		"reqId", req.ReqId,
		"roomId", req.RoomId,
		"userId", req.UserId,
		"intent", req.Intent)

	state, err := h.dispatch(ctx, req)

	reply := &proto.GameReply{
		ReqId:   req.ReqId,
		RoomId:  req.RoomId,
		Code:    appErrors.GetCode(err),
		Message: "success",
	}
	if err != nil {
		reply.Message = appErrors.GetMessage(err)
		if reply.Code == appErrors.CodeServerError {
			h.logger.Error("Game request failed",
				"reqId", req.ReqId,
				"roomId", req.RoomId,
				"intent", req.Intent,
				"error", err)
		} else {
			h.logger.Info("Game request rejected",
				"reqId", req.ReqId,
				"roomId", req.RoomId,
				"userId", req.UserId,
				"intent", req.Intent,
				"code", reply.Code,
				"error", err)
		}
	}
	if state != nil {
		reply.Version = state.Version
	}

	if req.UserId == "" {
		return
	}
	if err := h.replies.PublishReply(reply, req.UserId); err != nil {
		h.logger.Warn("Failed to publish reply", "reqId", req.ReqId, "userId", req.UserId, "error", err)
	}
}

func (h *GameHandler) dispatch(ctx context.Context, req *proto.GameRequest) (*core.GameState, error) {
	if req.UserId == "" || req.Intent == "" {
		return nil, appErrors.ErrInvalidParams.Wrapf("userId and intent are required")
	}

	if req.Intent == IntentStartGame {
		players, err := decodeStartGame(req.Payload)
		if err != nil {
			return nil, err
		}
		return h.gameService.StartGame(ctx, req.RoomId, players)
	}

	intent, err := decodeIntent(req)
	if err != nil {
		return nil, err
	}
	return h.gameService.HandleIntent(ctx, req.RoomId, intent)
}

func decodeStartGame(payload json.RawMessage) ([]turn.PlayerInfo, error) {
	if len(payload) == 0 {
		return nil, appErrors.ErrInvalidParams.Wrapf("startGame requires players")
	}
	var p proto.StartGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, appErrors.ErrInvalidParams.Wrap(err)
	}
	players := make([]turn.PlayerInfo, 0, len(p.Players))
	for _, seat := range p.Players {
		players = append(players, turn.PlayerInfo{
			ID:    seat.UserId,
			Name:  seat.Name,
			Color: seat.Color,
		})
	}
	return players, nil
}

// decodeIntent 意图类型与玩家以信封为准，payload 中的同名字段被覆盖
func decodeIntent(req *proto.GameRequest) (turn.Intent, error) {
	var intent turn.Intent
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &intent); err != nil {
			return turn.Intent{}, core.ErrInvalidIntent.Wrap(err)
		}
	}
	intent.Type = turn.IntentType(req.Intent)
	intent.PlayerID = req.UserId
	// 自动提交只能由服务端超时策略发起
	intent.Automatic = false
	intent.Reason = ""
	return intent, nil
}
