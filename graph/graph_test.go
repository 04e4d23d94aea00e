package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/taskmesh/classify"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoExecutor struct {
	tag  string
	kind string
	err  error
}

func (e *echoExecutor) Tag() string            { return e.tag }
func (e *echoExecutor) Kind() string           { return e.kind }
func (e *echoExecutor) Capabilities() []string { return nil }
func (e *echoExecutor) Run(_ context.Context, st core.ConversationState) (core.ConversationState, error) {
	if e.err != nil {
		return st, e.err
	}
	return st.AppendMessage(core.NewAssistantMessage(e.tag, "handled by "+e.tag)), nil
}

type fixedClassifier struct {
	decision core.RoutingDecision
	err      error
}

func (c *fixedClassifier) Classify(context.Context, core.ConversationState) (core.RoutingDecision, error) {
	return c.decision, c.err
}

func register(t *testing.T, reg *registry.Registry, tag, kind string, caps []string, runErr error) {
	t.Helper()
	require.NoError(t, reg.Register(registry.Registration{
		Tag:          tag,
		Kind:         kind,
		Capabilities: caps,
		New: func() (core.TaskExecutor, error) {
			return &echoExecutor{tag: tag, kind: kind, err: runErr}, nil
		},
	}))
}

func userTurn(text string) core.ConversationState {
	return core.NewConversationState().AppendMessage(core.NewUserMessage(text))
}

func TestGraph_SingleDispatch(t *testing.T) {
	reg := registry.New()
	register(t, reg, "doc", core.TaskKindDocument, []string{"invoice", "ocr"}, nil)
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(classify.NewKeyword(reg, "general"), reg, Config{DefaultSpecialist: "general"})

	var events []core.StreamEvent
	state, err := g.RunWithEvents(context.Background(), "t1", userTurn("run ocr on this invoice"),
		func(ev core.StreamEvent) { events = append(events, ev) })
	require.NoError(t, err)

	assert.Equal(t, "doc", state.CurrentSpecialist)
	assert.Equal(t, core.Finish, state.NextSpecialist)
	assert.Equal(t, core.TaskKindDocument, state.TaskKind)
	assert.Equal(t, "handled by doc", state.LastAssistantText())

	require.Len(t, events, 2)
	assert.Equal(t, core.EventRouting, events[0].Type)
	assert.Equal(t, "doc", events[0].Specialist)
	assert.Equal(t, core.EventMessage, events[1].Type)
	assert.Equal(t, "handled by doc", events[1].Content)
}

func TestGraph_FinishDecisionSkipsDispatch(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(&fixedClassifier{decision: core.FinishDecision()}, reg, Config{DefaultSpecialist: "general"})

	in := userTurn("bye")
	state, err := g.Run(context.Background(), "t1", in)
	require.NoError(t, err)
	assert.Equal(t, core.Finish, state.NextSpecialist)
	assert.Len(t, state.Messages, len(in.Messages)) // no specialist ran
}

func TestGraph_ClassifierUnavailableDoesNotAdvance(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(&fixedClassifier{err: errors.New("provider down")}, reg, Config{DefaultSpecialist: "general"})

	in := userTurn("hi")
	state, err := g.Run(context.Background(), "t4", in)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindClassifierUnavailable))

	var engineErr *core.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, core.PhaseClassifying, engineErr.Phase)
	assert.Equal(t, "t4", engineErr.ConversationID)

	assert.Equal(t, in.Messages, state.Messages)
	assert.Empty(t, state.CurrentSpecialist)
}

func TestGraph_InvalidInputPassesThrough(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(classify.NewKeyword(reg, "general"), reg, Config{DefaultSpecialist: "general"})

	_, err := g.Run(context.Background(), "t1", core.NewConversationState())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInvalidInput))
}

func TestGraph_UnregisteredTagNormalizedToDefault(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(&fixedClassifier{decision: core.RouteTo("ghost")}, reg, Config{DefaultSpecialist: "general"})

	state, err := g.Run(context.Background(), "t1", userTurn("hello"))
	require.NoError(t, err)
	assert.Equal(t, "general", state.CurrentSpecialist)
	assert.Equal(t, "ghost", state.Context[core.ContextKey(core.SupervisorName, "normalized_from")])
	assert.Equal(t, core.TaskKindUnknown, state.TaskKind) // routing never actually resolved
}

func TestGraph_FallbackDispatchKeepsKindUnknown(t *testing.T) {
	reg := registry.New()
	register(t, reg, "doc", core.TaskKindDocument, []string{"invoice"}, nil)
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(classify.NewKeyword(reg, "general"), reg, Config{DefaultSpecialist: "general"})

	var events []core.StreamEvent
	state, err := g.RunWithEvents(context.Background(), "t1", userTurn("completely unrelated request"),
		func(ev core.StreamEvent) { events = append(events, ev) })
	require.NoError(t, err)

	assert.Equal(t, "general", state.CurrentSpecialist)
	assert.Equal(t, core.TaskKindUnknown, state.TaskKind)
	require.NotEmpty(t, events)
	assert.Equal(t, core.TaskKindUnknown, events[0].TaskKind)
}

func TestGraph_UnknownDefaultTerminatesDefensively(t *testing.T) {
	reg := registry.New()

	g := New(&fixedClassifier{decision: core.RouteTo("ghost")}, reg, Config{DefaultSpecialist: "also-ghost"})

	in := userTurn("hello")
	state, err := g.Run(context.Background(), "t1", in)
	require.NoError(t, err)
	assert.Equal(t, core.Finish, state.NextSpecialist)
	assert.Len(t, state.Messages, len(in.Messages))
}

type blockingClassifier struct{}

func (*blockingClassifier) Classify(ctx context.Context, _ core.ConversationState) (core.RoutingDecision, error) {
	<-ctx.Done()
	return core.RoutingDecision{}, ctx.Err()
}

func TestGraph_ClassifyTimeoutIsClassifierUnavailable(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, nil)

	g := New(&blockingClassifier{}, reg, Config{
		ClassifyTimeout:   10 * time.Millisecond,
		DefaultSpecialist: "general",
	})

	in := userTurn("hello")
	state, err := g.Run(context.Background(), "t1", in)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindClassifierUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, in.Messages, state.Messages) // state not advanced
}

type hangingExecutor struct{ tag string }

func (e *hangingExecutor) Tag() string            { return e.tag }
func (e *hangingExecutor) Kind() string           { return core.TaskKindGeneral }
func (e *hangingExecutor) Capabilities() []string { return nil }
func (e *hangingExecutor) Run(ctx context.Context, st core.ConversationState) (core.ConversationState, error) {
	<-ctx.Done()
	return st, ctx.Err()
}

func TestGraph_ExecuteTimeoutDegradesIntoTranscript(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(registry.Registration{
		Tag:  "general",
		Kind: core.TaskKindGeneral,
		New:  func() (core.TaskExecutor, error) { return &hangingExecutor{tag: "general"}, nil },
	}))

	g := New(classify.NewKeyword(reg, "general"), reg, Config{
		ExecuteTimeout:    10 * time.Millisecond,
		DefaultSpecialist: "general",
	})

	state, err := g.Run(context.Background(), "t1", userTurn("hello"))
	require.NoError(t, err) // timeout degrades, never hangs or fails the turn
	assert.Contains(t, state.LastAssistantText(), "problem handling that request")
	assert.Equal(t, "general", state.CurrentSpecialist)
}

func TestGraph_ExecutorErrorDegradesIntoTranscript(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, errors.New("boom"))

	g := New(classify.NewKeyword(reg, "general"), reg, Config{DefaultSpecialist: "general"})

	state, err := g.Run(context.Background(), "t1", userTurn("hello"))
	require.NoError(t, err)
	assert.Contains(t, state.LastAssistantText(), "problem handling that request")
	assert.Equal(t, "general", state.CurrentSpecialist)
}

func TestGraph_ConfigErrorPropagatesAsExecutorFailure(t *testing.T) {
	reg := registry.New()
	register(t, reg, "general", core.TaskKindGeneral, nil, core.NewConfigError("no model configured"))

	g := New(classify.NewKeyword(reg, "general"), reg, Config{DefaultSpecialist: "general"})

	_, err := g.Run(context.Background(), "t1", userTurn("hello"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindExecutorFailure))

	var engineErr *core.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, core.PhaseExecuting, engineErr.Phase)
}

func TestGraph_ConstructorErrorPropagates(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(registry.Registration{
		Tag:  "general",
		Kind: core.TaskKindGeneral,
		New:  func() (core.TaskExecutor, error) { return nil, errors.New("client init failed") },
	}))

	g := New(classify.NewKeyword(reg, "general"), reg, Config{DefaultSpecialist: "general"})

	_, err := g.Run(context.Background(), "t1", userTurn("hello"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindExecutorFailure))
}
