package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/taskmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTripPreservesOrderAndContext(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	state := core.NewConversationState().
		AppendMessage(core.NewUserMessage("extract text from invoice.png")).
		AppendMessage(core.NewAssistantContentMessage("doc", []core.Part{
			core.TextPart{Text: "Extracted: INVOICE #42"},
			core.DataPart{Data: map[string]any{"total": "42.00", "currency": "USD"}},
		})).
		WithRouting("doc", core.TaskKindDocument).
		MergeContext(map[string]any{"doc.last_result": "INVOICE #42"})
	require.NoError(t, s.Save(ctx, "t1", state))

	loaded, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, core.RoleUser, loaded.Messages[0].Role)
	assert.Equal(t, "doc", loaded.Messages[1].Author)
	assert.Equal(t, "Extracted: INVOICE #42", loaded.Messages[1].Text())
	assert.Equal(t, core.TaskKindDocument, loaded.TaskKind)
	assert.Equal(t, "INVOICE #42", loaded.Context["doc.last_result"])

	data, ok := loaded.Messages[1].Parts[1].(core.DataPart)
	require.True(t, ok)
	assert.Equal(t, "42.00", data.Data["total"])
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	first := core.NewConversationState().AppendMessage(core.NewUserMessage("one"))
	require.NoError(t, s.Save(ctx, "t1", first))

	second := first.AppendMessage(core.NewAssistantMessage("general", "two"))
	require.NoError(t, s.Save(ctx, "t1", second))

	loaded, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 2)
}

func TestSQLiteStore_LoadUnknownReturnsFreshState(t *testing.T) {
	s := newSQLiteStore(t)

	state, err := s.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, state.Messages)
}

func TestSQLiteStore_ResetIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "t3", core.NewConversationState().AppendMessage(core.NewUserMessage("hi"))))
	require.NoError(t, s.Reset(ctx, "t3"))
	require.NoError(t, s.Reset(ctx, "t3"))

	state, err := s.Load(ctx, "t3")
	require.NoError(t, err)
	assert.Empty(t, state.Messages)
}
