// Package proto 逻辑节点与网关之间的 JSON 消息
package proto

import "encoding/json"

// ============== 上行消息 (Gateway -> Logic) ==============

// GameRequest 玩家意图请求
type GameRequest struct {
	ReqId   string          `json:"ReqId"`
	RoomId  string          `json:"RoomId"`
	UserId  string          `json:"UserId"`
	Intent  string          `json:"Intent"`            // startGame / proposePlacement / rollDice ...
	Payload json.RawMessage `json:"Payload,omitempty"` // 意图参数
}

// StartGamePayload startGame 的参数
type StartGamePayload struct {
	Players []SeatInfo `json:"Players"`
}

// SeatInfo 入座玩家
type SeatInfo struct {
	UserId string `json:"UserId"`
	Name   string `json:"Name"`
	Color  string `json:"Color"`
}

// ============== 下行消息 (Logic -> Gateway) ==============

// GameReply 请求结果，只发给请求者
type GameReply struct {
	ReqId   string `json:"ReqId"`
	RoomId  string `json:"RoomId"`
	Code    int    `json:"Code"`
	Message string `json:"Message"`
	Version int64  `json:"Version"`
}

// GameEvent 对局事件
type GameEvent struct {
	RoomId    string          `json:"RoomId"`
	Version   int64           `json:"Version"` // 产生该事件的状态版本
	Seq       int             `json:"Seq"`     // 同一版本内的顺序
	Type      string          `json:"Type"`
	Private   bool            `json:"Private,omitempty"`
	Payload   json.RawMessage `json:"Payload"`
	Timestamp int64           `json:"Timestamp"`
}

// EventTypeSnapshot 观战连接建立后的首帧，Payload 为完整快照
const EventTypeSnapshot = "snapshot"
