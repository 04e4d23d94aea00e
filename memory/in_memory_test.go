package memory

import (
	"context"
	"testing"

	"github.com/hupe1980/taskmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_LoadUnknownReturnsFreshState(t *testing.T) {
	s := NewInMemoryStore()

	state, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, state.Messages)
	assert.Equal(t, core.TaskKindUnknown, state.TaskKind)
}

func TestInMemoryStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	state := core.NewConversationState().
		AppendMessage(core.NewUserMessage("hi")).
		AppendMessage(core.NewAssistantMessage("general", "hello")).
		MergeContext(map[string]any{"general.last_result": "hello"})
	require.NoError(t, s.Save(ctx, "t1", state))

	loaded, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, state.Messages, loaded.Messages)
	assert.Equal(t, state.Context, loaded.Context)
}

func TestInMemoryStore_LoadedStateIsIsolated(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	saved := core.NewConversationState().
		AppendMessage(core.NewUserMessage("hi")).
		MergeContext(map[string]any{"general.last_result": "hello"})
	require.NoError(t, s.Save(ctx, "t1", saved))

	loaded, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	loaded.Context["mutated"] = true
	loaded.Messages[0] = core.NewUserMessage("tampered")

	again, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.NotContains(t, again.Context, "mutated")
	assert.Equal(t, "hi", again.Messages[0].Text())
}

func TestInMemoryStore_ResetIdempotent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "t3", core.NewConversationState().AppendMessage(core.NewUserMessage("hi"))))

	require.NoError(t, s.Reset(ctx, "t3"))
	require.NoError(t, s.Reset(ctx, "t3")) // second reset: same observable effect

	state, err := s.Load(ctx, "t3")
	require.NoError(t, err)
	assert.Empty(t, state.Messages)
	assert.Zero(t, s.Len())
}
