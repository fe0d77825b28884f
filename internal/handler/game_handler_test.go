package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/turn"
	appErrors "sudooom.settlers/pkg/errors"
	"sudooom.settlers/pkg/proto"
)

// mockGameService 模拟对局服务
type mockGameService struct {
	StartGameFunc    func(ctx context.Context, roomID string, players []turn.PlayerInfo) (*core.GameState, error)
	HandleIntentFunc func(ctx context.Context, roomID string, intent turn.Intent) (*core.GameState, error)
}

func (m *mockGameService) StartGame(ctx context.Context, roomID string, players []turn.PlayerInfo) (*core.GameState, error) {
	return m.StartGameFunc(ctx, roomID, players)
}

func (m *mockGameService) HandleIntent(ctx context.Context, roomID string, intent turn.Intent) (*core.GameState, error) {
	return m.HandleIntentFunc(ctx, roomID, intent)
}

type sentReply struct {
	reply  *proto.GameReply
	userID string
}

type mockReplies struct {
	sent []sentReply
	err  error
}

func (m *mockReplies) PublishReply(reply *proto.GameReply, userID string) error {
	m.sent = append(m.sent, sentReply{reply: reply, userID: userID})
	return m.err
}

func TestHandleStartGame(t *testing.T) {
	var got []turn.PlayerInfo
	svc := &mockGameService{
		StartGameFunc: func(_ context.Context, roomID string, players []turn.PlayerInfo) (*core.GameState, error) {
			assert.Equal(t, "room-1", roomID)
			got = players
			return &core.GameState{RoomID: roomID, Version: 1}, nil
		},
	}
	replies := &mockReplies{}
	h := NewGameHandler(svc, replies)

	payload, _ := json.Marshal(proto.StartGamePayload{Players: []proto.SeatInfo{
		{UserId: "A", Name: "Alice", Color: "red"},
		{UserId: "B", Name: "Bob", Color: "blue"},
	}})
	h.HandleGameRequest(context.Background(), &proto.GameRequest{
		ReqId: "r1", RoomId: "room-1", UserId: "A", Intent: IntentStartGame, Payload: payload,
	})

	require.Len(t, got, 2)
	assert.Equal(t, turn.PlayerInfo{ID: "B", Name: "Bob", Color: "blue"}, got[1])

	require.Len(t, replies.sent, 1)
	assert.Equal(t, "A", replies.sent[0].userID)
	assert.Equal(t, appErrors.CodeSuccess, replies.sent[0].reply.Code)
	assert.Equal(t, int64(1), replies.sent[0].reply.Version)
	assert.Equal(t, "r1", replies.sent[0].reply.ReqId)
}

func TestHandleIntentEnvelopeWins(t *testing.T) {
	var got turn.Intent
	svc := &mockGameService{
		HandleIntentFunc: func(_ context.Context, _ string, intent turn.Intent) (*core.GameState, error) {
			got = intent
			return &core.GameState{Version: 9}, nil
		},
	}
	replies := &mockReplies{}
	h := NewGameHandler(svc, replies)

	h.HandleGameRequest(context.Background(), &proto.GameRequest{
		ReqId:  "r2",
		RoomId: "room-1",
		UserId: "A",
		Intent: string(turn.IntentProposePlacement),
		Payload: json.RawMessage(`{"type":"endTurn","playerId":"B","kind":"road",` +
			`"location":"1,2-3,4","automatic":true,"reason":"timeout"}`),
	})

	assert.Equal(t, turn.IntentProposePlacement, got.Type)
	assert.Equal(t, "A", got.PlayerID)
	assert.Equal(t, turn.PlaceRoad, got.Kind)
	assert.Equal(t, "1,2-3,4", got.Location)
	assert.False(t, got.Automatic)
	assert.Empty(t, got.Reason)
	assert.Equal(t, int64(9), replies.sent[0].reply.Version)
}

func TestHandleRejections(t *testing.T) {
	tests := []struct {
		name string
		req  *proto.GameRequest
		err  error
		code int
	}{
		{
			name: "rule violation",
			req:  &proto.GameRequest{RoomId: "room-1", UserId: "B", Intent: "endTurn"},
			err:  core.ErrNotYourTurn,
			code: appErrors.CodeNotYourTurn,
		},
		{
			name: "malformed payload",
			req:  &proto.GameRequest{RoomId: "room-1", UserId: "A", Intent: "rollDice", Payload: json.RawMessage(`{`)},
			code: appErrors.CodeInvalidIntent,
		},
		{
			name: "start without players",
			req:  &proto.GameRequest{RoomId: "room-1", UserId: "A", Intent: IntentStartGame},
			code: appErrors.CodeInvalidParams,
		},
		{
			name: "infrastructure failure",
			req:  &proto.GameRequest{RoomId: "room-1", UserId: "A", Intent: "endTurn"},
			err:  errors.New("connection reset"),
			code: appErrors.CodeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockGameService{
				HandleIntentFunc: func(context.Context, string, turn.Intent) (*core.GameState, error) {
					return nil, tt.err
				},
			}
			replies := &mockReplies{}
			NewGameHandler(svc, replies).HandleGameRequest(context.Background(), tt.req)

			require.Len(t, replies.sent, 1)
			assert.Equal(t, tt.code, replies.sent[0].reply.Code)
			assert.NotEmpty(t, replies.sent[0].reply.Message)
			assert.Zero(t, replies.sent[0].reply.Version)
		})
	}
}

func TestHandleWithoutUserIsNotReplied(t *testing.T) {
	svc := &mockGameService{
		HandleIntentFunc: func(context.Context, string, turn.Intent) (*core.GameState, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	replies := &mockReplies{}
	NewGameHandler(svc, replies).HandleGameRequest(context.Background(),
		&proto.GameRequest{RoomId: "room-1", Intent: "endTurn"})
	assert.Empty(t, replies.sent)
}
