// Package graph implements the dispatch state machine that ties the
// classifier and the task executors together. One run is a single hop:
// classify once, execute once, terminate. Re-routing after a specialist has
// produced output requires a new external invocation, which bounds the
// worst-case work per call.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/registry"
)

// Default provider-call budgets. Classification is one short completion;
// execution may involve several tool rounds.
const (
	DefaultClassifyTimeout = 30 * time.Second
	DefaultExecuteTimeout  = 120 * time.Second
)

// Config tunes one graph instance.
type Config struct {
	// ClassifyTimeout bounds the classifier's provider call.
	ClassifyTimeout time.Duration
	// ExecuteTimeout bounds a single specialist run, tool rounds included.
	ExecuteTimeout time.Duration
	// DefaultSpecialist receives turns whose routed tag is not registered.
	DefaultSpecialist string
	// Logger used for transition logging. Default NoOp.
	Logger logging.Logger
}

// Graph drives one conversation turn from entry to terminal.
type Graph struct {
	classifier core.Classifier
	registry   *registry.Registry
	cfg        Config
}

// New constructs a graph over the given classifier and registry.
func New(classifier core.Classifier, reg *registry.Registry, cfg Config) *Graph {
	if cfg.ClassifyTimeout <= 0 {
		cfg.ClassifyTimeout = DefaultClassifyTimeout
	}
	if cfg.ExecuteTimeout <= 0 {
		cfg.ExecuteTimeout = DefaultExecuteTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}
	return &Graph{classifier: classifier, registry: reg, cfg: cfg}
}

// Run executes one turn and returns the resulting state. The state is
// advanced only past successfully completed phases: a classify failure
// returns the input state untouched, an executor configuration failure
// returns the routed-but-unexecuted state alongside the error.
func (g *Graph) Run(ctx context.Context, conversationID string, state core.ConversationState) (core.ConversationState, error) {
	return g.RunWithEvents(ctx, conversationID, state, nil)
}

// RunWithEvents is Run with an event callback feeding the streaming facade.
// emit may be nil. Events are emitted in order: one routing event, then one
// message event per message the specialist appended. Terminal done/error
// events are the facade's responsibility since it owns persistence.
func (g *Graph) RunWithEvents(ctx context.Context, conversationID string, state core.ConversationState, emit func(core.StreamEvent)) (core.ConversationState, error) {
	if emit == nil {
		emit = func(core.StreamEvent) {}
	}

	decision, err := g.classify(ctx, state)
	if err != nil {
		if core.IsKind(err, core.KindInvalidInput) {
			return state, err
		}
		return state, core.NewError(core.KindClassifierUnavailable, core.PhaseClassifying, conversationID, err)
	}

	if decision.IsFinish() {
		g.cfg.Logger.Debug("graph finished without dispatch", "conversation_id", conversationID)
		emit(core.NewRoutingEvent(core.Finish, state.TaskKind))
		return state.WithRouting(core.Finish, state.TaskKind), nil
	}

	tag := decision.Tag()
	fallback := decision.IsFallback()
	if !g.registry.Has(tag) {
		// Classifier contract violation: normalize once to the default
		// specialist and record the ambiguity, then terminate defensively
		// if the default is unknown too.
		g.cfg.Logger.Warn("unregistered specialist tag, normalizing",
			"conversation_id", conversationID, "tag", tag, "default", g.cfg.DefaultSpecialist)
		state = state.MergeContext(map[string]any{
			core.ContextKey(core.SupervisorName, "normalized_from"): tag,
		})
		tag = g.cfg.DefaultSpecialist
		fallback = true
		if !g.registry.Has(tag) {
			g.cfg.Logger.Error("default specialist not registered, terminating",
				"conversation_id", conversationID, "default", tag)
			emit(core.NewRoutingEvent(core.Finish, state.TaskKind))
			return state.WithRouting(core.Finish, state.TaskKind), nil
		}
	}

	// Fallback dispatches keep the kind unknown: the classification did not
	// actually identify the task, the default specialist just absorbs it.
	kind := core.TaskKindUnknown
	if !fallback {
		if info, ok := g.registry.Info(tag); ok {
			kind = info.Kind
		}
	}

	state = state.WithRouting(tag, kind)
	g.cfg.Logger.Info("routing decided", "conversation_id", conversationID, "specialist", tag, "task_kind", kind)
	emit(core.NewRoutingEvent(tag, kind))

	executor, err := g.registry.Get(tag)
	if err != nil {
		return state, core.NewError(core.KindExecutorFailure, core.PhaseExecuting, conversationID,
			fmt.Errorf("construct specialist %q: %w", tag, err))
	}

	before := len(state.Messages)
	next, err := g.execute(ctx, executor, state)
	if err != nil {
		if core.IsConfigError(err) {
			return state, core.NewError(core.KindExecutorFailure, core.PhaseExecuting, conversationID, err)
		}
		// Execution-phase failures degrade into the transcript so the user
		// is never left with a hung call.
		g.cfg.Logger.Warn("specialist failed, degrading",
			"conversation_id", conversationID, "specialist", tag, "error", err)
		next = state.AppendMessage(core.NewAssistantMessage(tag,
			fmt.Sprintf("I'm sorry, I ran into a problem handling that request: %v", err)))
	}

	next = next.WithCurrentSpecialist(tag).WithNextSpecialist(core.Finish)

	if before > len(next.Messages) {
		before = len(next.Messages)
	}
	for _, msg := range next.Messages[before:] {
		emit(core.NewMessageEvent(msg))
	}
	return next, nil
}

func (g *Graph) classify(ctx context.Context, state core.ConversationState) (core.RoutingDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ClassifyTimeout)
	defer cancel()
	return g.classifier.Classify(ctx, state)
}

func (g *Graph) execute(ctx context.Context, executor core.TaskExecutor, state core.ConversationState) (core.ConversationState, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ExecuteTimeout)
	defer cancel()
	return executor.Run(ctx, state)
}
