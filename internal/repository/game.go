// Package repository 对局记录与事件日志（PostgreSQL）
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.settlers/internal/game/settlers/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

// EventRecord 事件日志
type EventRecord struct {
	RoomID    string          `json:"roomId"`
	Version   int64           `json:"version"`
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Audience  string          `json:"audience"`
	PlayerIDs []string        `json:"playerIds,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GameRepository 对局仓库
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository 创建对局仓库
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// Migrate 按文件名顺序执行建表脚本
func (r *GameRepository) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, name := range files {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := r.db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

// SaveGame 保存对局快照，只接受更新的版本
func (r *GameRepository) SaveGame(ctx context.Context, state *core.GameState) error {
	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	players, err := json.Marshal(state.PlayerOrder)
	if err != nil {
		return err
	}

	var winner *string
	var finishedAt *time.Time
	if state.Phase == core.PhaseFinished {
		winner = &state.WinnerID
		finishedAt = &state.UpdatedAt
	}

	query := `
		INSERT INTO game_records (room_id, phase, version, winner_id, players, snapshot, updated_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_id) DO UPDATE SET
			phase = EXCLUDED.phase,
			version = EXCLUDED.version,
			winner_id = EXCLUDED.winner_id,
			players = EXCLUDED.players,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at,
			finished_at = EXCLUDED.finished_at
		WHERE game_records.version < EXCLUDED.version
	`
	_, err = r.db.Exec(ctx, query,
		state.RoomID,
		string(state.Phase),
		state.Version,
		winner,
		players,
		snapshot,
		state.UpdatedAt,
		finishedAt,
	)
	return err
}

// LoadGame 读取对局快照，不存在时返回 nil, nil
func (r *GameRepository) LoadGame(ctx context.Context, roomID string) (*core.GameState, error) {
	query := `SELECT snapshot FROM game_records WHERE room_id = $1`

	var data []byte
	err := r.db.QueryRow(ctx, query, roomID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state core.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &state, nil
}

// AppendEvents 批量写入同一版本产生的事件，重复写入被忽略
func (r *GameRepository) AppendEvents(ctx context.Context, roomID string, version int64, events []core.Event) error {
	if len(events) == 0 {
		return nil
	}
	query := `
		INSERT INTO game_events (room_id, version, seq, event_type, audience, player_ids, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (room_id, version, seq) DO NOTHING
	`

	batch := &pgx.Batch{}
	for i, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", ev.Type, err)
		}
		batch.Queue(query, roomID, version, i, string(ev.Type), string(ev.Audience), ev.PlayerIDs, payload)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// EventFilter 事件日志查询条件
// 默认只返回公开事件
type EventFilter struct {
	SinceVersion int64
	Limit        int
	PlayerID     string // 附带该玩家收到的私有事件
	All          bool   // 附带全部私有事件
}

// ListEvents 按版本顺序读取事件日志
func (r *GameRepository) ListEvents(ctx context.Context, roomID string, filter EventFilter) ([]EventRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	query := `
		SELECT room_id, version, seq, event_type, audience, player_ids, payload, created_at
		FROM game_events
		WHERE room_id = $1 AND version > $2
		  AND (audience = $4 OR $5 OR ($6 <> '' AND $6 = ANY(player_ids)))
		ORDER BY version, seq
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, roomID, filter.SinceVersion, limit,
		string(core.AudiencePublic), filter.All, filter.PlayerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(
			&rec.RoomID,
			&rec.Version,
			&rec.Seq,
			&rec.Type,
			&rec.Audience,
			&rec.PlayerIDs,
			&rec.Payload,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
