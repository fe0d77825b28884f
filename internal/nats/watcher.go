package nats

import (
	"github.com/nats-io/nats.go"
)

// RoomWatcher 订阅房间公共事件，供观战连接转发
// 私有事件不经过这里
type RoomWatcher struct {
	nc *nats.Conn
}

// NewRoomWatcher 创建观战订阅器
func NewRoomWatcher(nc *nats.Conn) *RoomWatcher {
	return &RoomWatcher{nc: nc}
}

// Watch 订阅房间公共事件，返回取消订阅函数
func (w *RoomWatcher) Watch(roomID string, fn func(data []byte)) (func(), error) {
	sub, err := w.nc.Subscribe(BuildRoomEventsSubject(roomID), func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
