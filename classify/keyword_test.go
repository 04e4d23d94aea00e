package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Classifier = (*Keyword)(nil)
	_ core.Classifier = (*ModelClassifier)(nil)
)

type nopExecutor struct{ tag string }

func (e *nopExecutor) Tag() string            { return e.tag }
func (e *nopExecutor) Kind() string           { return core.TaskKindGeneral }
func (e *nopExecutor) Capabilities() []string { return nil }
func (e *nopExecutor) Run(_ context.Context, st core.ConversationState) (core.ConversationState, error) {
	return st, nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	specs := []registry.Registration{
		{Tag: "doc", Kind: core.TaskKindDocument, Capabilities: []string{"invoice", "ocr", "pdf", "extract text"}},
		{Tag: "video", Kind: core.TaskKindVideo, Capabilities: []string{"video", "faces", "emotion"}},
		{Tag: "general", Kind: core.TaskKindGeneral, Capabilities: []string{}},
	}
	for _, s := range specs {
		s := s
		s.New = func() (core.TaskExecutor, error) { return &nopExecutor{tag: s.Tag}, nil }
		require.NoError(t, reg.Register(s))
	}
	return reg
}

func stateWithUserText(text string) core.ConversationState {
	return core.NewConversationState().AppendMessage(core.NewUserMessage(text))
}

func TestKeyword_MatchesCapability(t *testing.T) {
	k := NewKeyword(newTestRegistry(t), "general")

	d, err := k.Classify(context.Background(), stateWithUserText("extract text from invoice.png"))
	require.NoError(t, err)
	assert.Equal(t, "doc", d.Tag())
	assert.False(t, d.IsFallback())
}

func TestKeyword_FallbackToDefault(t *testing.T) {
	k := NewKeyword(newTestRegistry(t), "general")

	d, err := k.Classify(context.Background(), stateWithUserText("hello there"))
	require.NoError(t, err)
	assert.False(t, d.IsFinish())
	assert.Equal(t, "general", d.Tag())
	assert.True(t, d.IsFallback())
}

func TestKeyword_TieBreakFirstRegistered(t *testing.T) {
	reg := registry.New()
	for _, tag := range []string{"first", "second"} {
		tag := tag
		require.NoError(t, reg.Register(registry.Registration{
			Tag:          tag,
			Kind:         core.TaskKindGeneral,
			Capabilities: []string{"report"},
			New:          func() (core.TaskExecutor, error) { return &nopExecutor{tag: tag}, nil },
		}))
	}
	k := NewKeyword(reg, "first")

	d, err := k.Classify(context.Background(), stateWithUserText("summarize this report"))
	require.NoError(t, err)
	assert.Equal(t, "first", d.Tag())
}

func TestKeyword_EmptyTranscriptFailsFast(t *testing.T) {
	k := NewKeyword(newTestRegistry(t), "general")

	_, err := k.Classify(context.Background(), core.NewConversationState())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInvalidInput))
}

func TestKeyword_CustomScorer(t *testing.T) {
	k := NewKeyword(newTestRegistry(t), "general", func(o *KeywordOptions) {
		o.Scorer = func(message string, capabilities []string) int {
			for _, c := range capabilities {
				if c == "video" {
					return 10
				}
			}
			return 0
		}
	})

	d, err := k.Classify(context.Background(), stateWithUserText("anything at all"))
	require.NoError(t, err)
	assert.Equal(t, "video", d.Tag())
}

func TestSubstringScorer(t *testing.T) {
	assert.Equal(t, 2, SubstringScorer("Run OCR over this invoice", []string{"invoice", "ocr", "pdf"}))
	assert.Equal(t, 0, SubstringScorer("hello", []string{"invoice"}))
	assert.Equal(t, 0, SubstringScorer("hello", []string{"", "  "}))
}

func TestModelClassifier_RoutesByReply(t *testing.T) {
	reg := newTestRegistry(t)

	for _, tc := range []struct {
		reply        string
		want         string
		wantFallback bool
	}{
		{"doc", "doc", false},
		{"  VIDEO\n", "video", false},
		{"FINISH", core.Finish, false},
		{"I think the weather is nice", "general", true}, // unparseable → default
	} {
		m := newScriptedModel(tc.reply)
		c := NewModelClassifier(m, reg, "general")

		d, err := c.Classify(context.Background(), stateWithUserText("do something"))
		require.NoError(t, err)
		assert.Equal(t, tc.want, d.Tag(), "reply %q", tc.reply)
		assert.Equal(t, tc.wantFallback, d.IsFallback(), "reply %q", tc.reply)
	}
}

func TestModelClassifier_ProviderErrorPropagates(t *testing.T) {
	reg := newTestRegistry(t)
	m := newScriptedModel("")
	m.FailWith(errors.New("gateway timeout"))
	c := NewModelClassifier(m, reg, "general")

	_, err := c.Classify(context.Background(), stateWithUserText("extract text"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), core.Finish)
}

func TestModelClassifier_EmptyTranscriptFailsFast(t *testing.T) {
	c := NewModelClassifier(newScriptedModel("doc"), newTestRegistry(t), "general")

	_, err := c.Classify(context.Background(), core.NewConversationState())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInvalidInput))
}
