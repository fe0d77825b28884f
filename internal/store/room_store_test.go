package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
)

// newTestClient 连接测试 Redis，不可用时跳过
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("SETTLERS_TEST_REDIS")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "settlers:room:r1:members", BuildRoomMembersKey("r1"))
	assert.Equal(t, "settlers:room:r1:snapshot", BuildSnapshotKey("r1"))
}

func TestMembers(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	s := NewRoomStore(client, time.Hour)
	room := "test-members-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { client.Del(ctx, BuildRoomMembersKey(room)) })

	require.NoError(t, s.SetMembers(ctx, room, []string{"A", "B"}))
	require.NoError(t, s.SetMembers(ctx, room, []string{"A", "C"}))

	members, err := s.Members(ctx, room)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "C"}, members)

	ok, err := s.IsMember(ctx, room, "B")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ExpireRoom(ctx, room, time.Minute))
	ttl, err := client.TTL(ctx, BuildRoomMembersKey(room)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestSnapshotRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	s := NewRoomStore(client, time.Hour)
	room := "test-snapshot-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = s.DeleteSnapshot(ctx, room) })

	missing, err := s.LoadSnapshot(ctx, room)
	require.NoError(t, err)
	assert.Nil(t, missing)

	e, err := turn.New(room, []turn.PlayerInfo{{ID: "A", Color: "red"}, {ID: "B", Color: "blue"}}, core.NewDefaultBoard())
	require.NoError(t, err)
	v, _ := e.State().Board.HexVertices(core.HexCoord{Q: -2, R: 0})
	_, err = e.Apply(turn.Intent{Type: turn.IntentProposePlacement, PlayerID: "A", Kind: turn.PlaceSettlement, Location: v[3].String()})
	require.NoError(t, err)
	newer := e.State()

	require.NoError(t, s.SaveSnapshot(ctx, newer))

	got, err := s.LoadSnapshot(ctx, room)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.Version, got.Version)
	assert.Equal(t, newer.Buildings, got.Buildings)
	assert.Len(t, got.Board.Vertices(), 54)

	// 旧版本不能覆盖新版本
	older := newer.Clone()
	older.Version = 1
	require.NoError(t, s.SaveSnapshot(ctx, older))
	got, err = s.LoadSnapshot(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, newer.Version, got.Version)
}
