package nats

// NATS Subject 常量定义
const (
	// SubjectLogicUpstream Gateway -> Logic 玩家意图
	SubjectLogicUpstream = "settlers.logic.upstream"

	// QueueGroupLogic Logic 服务队列组名称
	QueueGroupLogic = "settlers-logic"

	// SubjectRoomPrefix 房间下行前缀
	// 公共事件: settlers.room.{roomId}.events
	// 私有事件: settlers.room.{roomId}.player.{playerId}
	// 请求结果: settlers.room.{roomId}.reply.{userId}
	SubjectRoomPrefix = "settlers.room."
)

// BuildRoomEventsSubject 房间公共事件 Subject
func BuildRoomEventsSubject(roomID string) string {
	return SubjectRoomPrefix + roomID + ".events"
}

// BuildPlayerSubject 玩家私有事件 Subject
func BuildPlayerSubject(roomID, playerID string) string {
	return SubjectRoomPrefix + roomID + ".player." + playerID
}

// BuildReplySubject 请求结果 Subject
func BuildReplySubject(roomID, userID string) string {
	return SubjectRoomPrefix + roomID + ".reply." + userID
}
