package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/pkg/proto"
)

// Conn 发布所需的连接能力，*nats.Conn 满足该接口
type Conn interface {
	Publish(subject string, data []byte) error
}

// EventPublisher 对局事件发布器
type EventPublisher struct {
	nc     Conn
	now    func() time.Time
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(nc Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		now:    time.Now,
		logger: slog.Default().With("component", "EventPublisher"),
	}
}

// PublishEvents 按顺序发布同一版本产生的事件
// 公共事件发到房间 Subject，私有事件只发给相关玩家
func (p *EventPublisher) PublishEvents(_ context.Context, roomID string, version int64, events []core.Event) error {
	ts := p.now().UnixMilli()
	var errs []error
	for i, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			p.logger.Error("Failed to marshal event payload", "type", ev.Type, "error", err)
			errs = append(errs, err)
			continue
		}
		msg := proto.GameEvent{
			RoomId:    roomID,
			Version:   version,
			Seq:       i,
			Type:      string(ev.Type),
			Private:   ev.IsPrivate(),
			Payload:   payload,
			Timestamp: ts,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if !ev.IsPrivate() {
			if err := p.nc.Publish(BuildRoomEventsSubject(roomID), data); err != nil {
				errs = append(errs, fmt.Errorf("publish %s: %w", ev.Type, err))
			}
			continue
		}
		for _, playerID := range ev.PlayerIDs {
			if err := p.nc.Publish(BuildPlayerSubject(roomID, playerID), data); err != nil {
				errs = append(errs, fmt.Errorf("publish %s to %s: %w", ev.Type, playerID, err))
			}
		}
	}

	p.logger.Debug("Published game events", "roomId", roomID, "version", version, "count", len(events))
	return errors.Join(errs...)
}

// PublishReply 请求结果只发给请求者
func (p *EventPublisher) PublishReply(reply *proto.GameReply, userID string) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(BuildReplySubject(reply.RoomId, userID), data); err != nil {
		p.logger.Error("Failed to publish reply", "roomId", reply.RoomId, "userId", userID, "error", err)
		return err
	}
	return nil
}
