// Package store 房间成员与对局快照的 Redis 缓存
package store

import "time"

const (
	// RoomKeyPrefix 房间相关 Redis Key 前缀
	RoomKeyPrefix = "settlers:room:"

	// DefaultMembersTTL 房间成员列表 TTL
	DefaultMembersTTL = 48 * time.Hour
)

// BuildRoomMembersKey 房间成员集合
// Key: settlers:room:{roomId}:members
func BuildRoomMembersKey(roomID string) string {
	return RoomKeyPrefix + roomID + ":members"
}

// BuildSnapshotKey 对局快照
// Key: settlers:room:{roomId}:snapshot
func BuildSnapshotKey(roomID string) string {
	return RoomKeyPrefix + roomID + ":snapshot"
}
