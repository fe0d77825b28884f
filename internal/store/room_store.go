package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.settlers/internal/game/settlers/core"
)

// RoomStore 房间成员与快照缓存
type RoomStore struct {
	redisClient *redis.Client
	snapshotTTL time.Duration
	membersTTL  time.Duration
	logger      *slog.Logger
}

// NewRoomStore 创建缓存，snapshotTTL 为 0 时快照不过期
func NewRoomStore(redisClient *redis.Client, snapshotTTL time.Duration) *RoomStore {
	return &RoomStore{
		redisClient: redisClient,
		snapshotTTL: snapshotTTL,
		membersTTL:  DefaultMembersTTL,
		logger:      slog.Default().With("component", "RoomStore"),
	}
}

// SetMembers 覆盖房间成员列表
func (s *RoomStore) SetMembers(ctx context.Context, roomID string, playerIDs []string) error {
	key := BuildRoomMembersKey(roomID)
	members := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		members[i] = id
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.SAdd(ctx, key, members...)
	}
	pipe.Expire(ctx, key, s.membersTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set room members: %w", err)
	}
	return nil
}

// Members 房间成员
func (s *RoomStore) Members(ctx context.Context, roomID string) ([]string, error) {
	return s.redisClient.SMembers(ctx, BuildRoomMembersKey(roomID)).Result()
}

// IsMember 用户是否在房间中
func (s *RoomStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	return s.redisClient.SIsMember(ctx, BuildRoomMembersKey(roomID), userID).Result()
}

// ExpireRoom 对局结束后房间缓存只保留 ttl
func (s *RoomStore) ExpireRoom(ctx context.Context, roomID string, ttl time.Duration) error {
	pipe := s.redisClient.Pipeline()
	pipe.Expire(ctx, BuildRoomMembersKey(roomID), ttl)
	pipe.Expire(ctx, BuildSnapshotKey(roomID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// SaveSnapshot 缓存快照；只在版本更新时覆盖，避免乱序写入回退状态
func (s *RoomStore) SaveSnapshot(ctx context.Context, state *core.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	ttlMs := s.snapshotTTL.Milliseconds()
	return saveIfNewer.Run(ctx, s.redisClient,
		[]string{BuildSnapshotKey(state.RoomID)},
		data, state.Version, ttlMs,
	).Err()
}

// LoadSnapshot 读取快照，不存在时返回 nil, nil
func (s *RoomStore) LoadSnapshot(ctx context.Context, roomID string) (*core.GameState, error) {
	data, err := s.redisClient.Get(ctx, BuildSnapshotKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state core.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Corrupted snapshot in cache", "roomId", roomID, "error", err)
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &state, nil
}

// DeleteSnapshot 删除快照
func (s *RoomStore) DeleteSnapshot(ctx context.Context, roomID string) error {
	return s.redisClient.Del(ctx, BuildSnapshotKey(roomID)).Err()
}

// saveIfNewer 比较快照中的 version 字段，只接受更新的版本
var saveIfNewer = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and decoded['version'] and tonumber(decoded['version']) >= tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)
