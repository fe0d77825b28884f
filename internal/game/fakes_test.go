package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers"
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
	"sudooom.settlers/internal/task"
)

type publishedBatch struct {
	roomID  string
	version int64
	events  []core.Event
}

type fakePublisher struct {
	mu      sync.Mutex
	batches []publishedBatch
	delay   time.Duration
}

func (p *fakePublisher) PublishEvents(_ context.Context, roomID string, version int64, events []core.Event) error {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, publishedBatch{roomID, version, events})
	return nil
}

func (p *fakePublisher) types() []core.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []core.EventType
	for _, b := range p.batches {
		for _, ev := range b.events {
			out = append(out, ev.Type)
		}
	}
	return out
}

func (p *fakePublisher) versions() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, len(p.batches))
	for i, b := range p.batches {
		out[i] = b.version
	}
	return out
}

func (p *fakePublisher) last() publishedBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batches[len(p.batches)-1]
}

type fakeStore struct {
	mu        sync.Mutex
	members   map[string][]string
	snapshots map[string]*core.GameState
	expired   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   make(map[string][]string),
		snapshots: make(map[string]*core.GameState),
		expired:   make(map[string]time.Duration),
	}
}

func (s *fakeStore) SetMembers(_ context.Context, roomID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[roomID] = ids
	return nil
}

func (s *fakeStore) ExpireRoom(_ context.Context, roomID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired[roomID] = ttl
	return nil
}

func (s *fakeStore) SaveSnapshot(_ context.Context, state *core.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[state.RoomID] = state.Clone()
	return nil
}

func (s *fakeStore) LoadSnapshot(_ context.Context, roomID string) (*core.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.snapshots[roomID]; ok {
		return st.Clone(), nil
	}
	return nil, nil
}

type fakeRepo struct {
	mu     sync.Mutex
	games  map[string]*core.GameState
	events map[string]int
	fail   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{games: make(map[string]*core.GameState), events: make(map[string]int)}
}

func (r *fakeRepo) SaveGame(_ context.Context, state *core.GameState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("db down")
	}
	r.games[state.RoomID] = state.Clone()
	return nil
}

func (r *fakeRepo) AppendEvents(_ context.Context, roomID string, _ int64, events []core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("db down")
	}
	r.events[roomID] += len(events)
	return nil
}

func (r *fakeRepo) LoadGame(_ context.Context, roomID string) (*core.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.games[roomID]; ok {
		return st.Clone(), nil
	}
	return nil, nil
}

// fakeScheduler 只记录任务，由测试手动触发
type fakeScheduler struct {
	mu       sync.Mutex
	tasks    map[string]*task.Task
	canceled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[string]*task.Task)}
}

func (s *fakeScheduler) Schedule(t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

func (s *fakeScheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = append(s.canceled, id)
	_, ok := s.tasks[id]
	delete(s.tasks, id)
	return ok
}

func (s *fakeScheduler) get(id string) *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

type harness struct {
	svc       *GameService
	manager   *GameManager
	publisher *fakePublisher
	store     *fakeStore
	repo      *fakeRepo
	scheduler *fakeScheduler
}

var trio = []turn.PlayerInfo{
	{ID: "A", Name: "Alice", Color: "red"},
	{ID: "B", Name: "Bob", Color: "blue"},
	{ID: "C", Name: "Carol", Color: "white"},
}

func newHarness(t *testing.T, cfg ServiceConfig) *harness {
	t.Helper()
	return newHarnessWith(t, cfg, newFakeStore(), newFakeRepo())
}

func newHarnessWith(t *testing.T, cfg ServiceConfig, store *fakeStore, repo *fakeRepo) *harness {
	t.Helper()
	engines, err := settlers.NewService(settlers.Options{VictoryPoints: 10, Seed: 1})
	require.NoError(t, err)

	manager := NewGameManager(ManagerConfig{CheckInterval: time.Hour}, nil)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	h := &harness{
		manager:   manager,
		publisher: &fakePublisher{},
		store:     store,
		repo:      repo,
		scheduler: newFakeScheduler(),
	}
	h.svc = NewGameService(manager, engines, h.publisher, h.store, h.repo, h.scheduler, cfg)
	return h
}

// seedState 构造一个指定阶段的对局并写入缓存，服务会从缓存恢复
func seedState(t *testing.T, store *fakeStore, mutate func(s *core.GameState)) *core.GameState {
	t.Helper()
	e, err := turn.New("room-1", trio, core.NewDefaultBoard())
	require.NoError(t, err)
	s := e.State()
	s.Phase = core.PhaseNormalTurn
	s.Stage = core.StageMain
	s.TurnNumber = 1
	s.CurrentTurnPlayerID = "A"
	s.LastDiceRoll = 6
	mutate(s)
	require.NoError(t, store.SaveSnapshot(context.Background(), s))
	return s
}

func give(s *core.GameState, player string, res core.Resources) {
	s.GetPlayer(player).Resources.Add(res)
}
