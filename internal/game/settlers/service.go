// Package settlers 对局引擎的创建与恢复
package settlers

import (
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
)

// Options 引擎创建参数
type Options struct {
	ShuffleBoard     bool   // 随机地形与点数
	ShuffleTurnOrder bool   // 随机行动顺序
	BoardFile        string // 自定义布局文件（YAML），优先于 ShuffleBoard
	VictoryPoints    int    // 胜利分数，0 表示不判定
	Seed             uint64 // 非 0 时同一房间得到固定随机序列
}

// Service 对局引擎工厂
type Service struct {
	opts   Options
	layout *core.Layout
	logger *slog.Logger
}

// NewService 创建引擎工厂，配置了布局文件时立即加载并校验
func NewService(opts Options) (*Service, error) {
	s := &Service{
		opts:   opts,
		logger: slog.Default().With("component", "SettlersService"),
	}
	if opts.BoardFile != "" {
		layout, err := core.LoadLayoutFile(opts.BoardFile)
		if err != nil {
			return nil, err
		}
		if _, err := core.NewBoard(layout, core.DefaultGeometry()); err != nil {
			return nil, err
		}
		s.layout = &layout
		s.logger.Info("加载自定义棋盘", "file", opts.BoardFile, "tiles", len(layout.Tiles))
	}
	return s, nil
}

// seed 房间随机种子
func (s *Service) seed(roomID string) uint64 {
	h := xxhash.Sum64String(roomID)
	if s.opts.Seed != 0 {
		return s.opts.Seed ^ h
	}
	return uint64(time.Now().UnixNano()) ^ h
}

// CreateEngine 为房间创建新对局
func (s *Service) CreateEngine(roomID string, players []turn.PlayerInfo) (*SafeEngine, error) {
	rng := core.NewRandomizer(s.seed(roomID))

	var layout core.Layout
	switch {
	case s.layout != nil:
		layout = *s.layout
	case s.opts.ShuffleBoard:
		layout = core.ShuffledLayout(rng)
	default:
		layout = core.DefaultLayout()
	}
	board, err := core.NewBoard(layout, core.DefaultGeometry())
	if err != nil {
		return nil, err
	}

	seated := players
	if s.opts.ShuffleTurnOrder {
		seated = shufflePlayers(rng, players)
	}

	engine, err := turn.New(roomID, seated, board,
		turn.WithRandomizer(rng),
		turn.WithVictoryPoints(s.opts.VictoryPoints),
		turn.WithLogger(s.logger.With("roomId", roomID)),
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("创建对局引擎",
		"roomId", roomID,
		"players", len(seated),
		"shuffleBoard", s.opts.ShuffleBoard,
		"shuffleTurnOrder", s.opts.ShuffleTurnOrder)
	return NewSafeEngine(engine), nil
}

// RestoreEngine 从快照恢复对局
func (s *Service) RestoreEngine(state *core.GameState) (*SafeEngine, error) {
	engine, err := turn.Restore(state,
		turn.WithRandomizer(core.NewRandomizer(s.seed(state.RoomID)^uint64(state.Version))),
		turn.WithLogger(s.logger.With("roomId", state.RoomID)),
	)
	if err != nil {
		return nil, err
	}
	s.logger.Info("恢复对局引擎", "roomId", state.RoomID, "version", state.Version)
	return NewSafeEngine(engine), nil
}

func shufflePlayers(rng core.Randomizer, players []turn.PlayerInfo) []turn.PlayerInfo {
	byID := make(map[string]turn.PlayerInfo, len(players))
	ids := make([]string, len(players))
	for i, p := range players {
		byID[p.ID] = p
		ids[i] = p.ID
	}
	core.Shuffle(rng, ids)

	out := make([]turn.PlayerInfo, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}
