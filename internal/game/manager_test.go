package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers"
)

func newTestGame(t *testing.T, roomID string) *Game {
	t.Helper()
	engines, err := settlers.NewService(settlers.Options{Seed: 1})
	require.NoError(t, err)
	engine, err := engines.CreateEngine(roomID, trio)
	require.NoError(t, err)
	return NewGame(roomID, engine)
}

func TestManagerAddGet(t *testing.T) {
	m := NewGameManager(ManagerConfig{MaxGames: 2, CheckInterval: time.Hour}, nil)
	defer m.Shutdown(context.Background())

	g1 := newTestGame(t, "room-1")
	got, created, err := m.Add(g1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Same(t, g1, got)

	got, created, err = m.Add(newTestGame(t, "room-1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, g1, got)

	_, _, err = m.Add(newTestGame(t, "room-2"))
	require.NoError(t, err)
	_, _, err = m.Add(newTestGame(t, "room-3"))
	assert.ErrorIs(t, err, ErrTooManyGames)
	assert.Equal(t, 2, m.Count())

	m.Remove("room-2")
	m.Remove("room-2")
	assert.Equal(t, 1, m.Count())
	_, ok := m.Get("room-2")
	assert.False(t, ok)
}

func TestManagerConcurrentAdd(t *testing.T) {
	m := NewGameManager(ManagerConfig{CheckInterval: time.Hour}, nil)
	defer m.Shutdown(context.Background())

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 10; i++ {
		g := newTestGame(t, "room-1")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := m.Add(g)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, createdCount)
	assert.Equal(t, 1, m.Count())
}

func TestEvictInactive(t *testing.T) {
	var saved []string
	fail := map[string]bool{"room-2": true}
	persist := func(_ context.Context, g *Game) error {
		if fail[g.RoomID()] {
			return errors.New("db down")
		}
		saved = append(saved, g.RoomID())
		g.MarkClean(g.Snapshot().Version)
		return nil
	}
	m := NewGameManager(ManagerConfig{EvictTimeout: time.Nanosecond, CheckInterval: time.Hour}, persist)
	defer m.Shutdown(context.Background())

	for i := 1; i <= 3; i++ {
		g := newTestGame(t, fmt.Sprintf("room-%d", i))
		if i < 3 {
			g.MarkDirty()
		}
		_, _, err := m.Add(g)
		require.NoError(t, err)
	}
	time.Sleep(time.Millisecond)

	evicted := m.evictInactive(context.Background())
	assert.Equal(t, 2, evicted)
	assert.Equal(t, []string{"room-1"}, saved, "只有未保存的对局需要持久化")

	_, ok := m.Get("room-2")
	assert.True(t, ok, "保存失败的对局保留到下一轮")
	assert.Equal(t, 1, m.Count())
}

func TestShutdownPersistsDirtyGames(t *testing.T) {
	var saved []string
	m := NewGameManager(ManagerConfig{CheckInterval: time.Hour}, func(_ context.Context, g *Game) error {
		saved = append(saved, g.RoomID())
		return nil
	})

	g := newTestGame(t, "room-1")
	g.MarkDirty()
	_, _, err := m.Add(g)
	require.NoError(t, err)
	_, _, err = m.Add(newTestGame(t, "room-2"))
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"room-1"}, saved)

	_, _, err = m.Add(newTestGame(t, "room-3"))
	assert.ErrorIs(t, err, ErrManagerClosed)
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestGameDirtyTracking(t *testing.T) {
	g := newTestGame(t, "room-1")
	assert.False(t, g.IsDirty())

	g.MarkDirty()
	assert.True(t, g.IsDirty())
	g.MarkClean(0)
	assert.True(t, g.IsDirty(), "旧版本的保存结果不清除标记")
	g.MarkClean(1)
	assert.False(t, g.IsDirty())
	assert.False(t, g.LastActiveTime().IsZero())
}
