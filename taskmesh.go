// Package taskmesh provides a high-level façade over the orchestration
// graph and its services (specialist registry, classifier, conversation
// store, logging). Most applications interact with this package by:
//  1. Creating a TaskMesh via New() (optionally overriding default in-memory services)
//  2. Registering one or more specialists (model-backed, placeholder, custom)
//  3. Invoking turns synchronously (Invoke) or as an event stream (InvokeStream)
//
// The façade delegates dispatch to graph.Graph while keeping setup and usage
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable store and a
// structured logger.
package taskmesh

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/taskmesh/classify"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/graph"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory"
	"github.com/hupe1980/taskmesh/registry"
)

// DefaultSpecialistTag is the fallback dispatch target when no registered
// capability matches a request.
const DefaultSpecialistTag = "general"

// Options configures the TaskMesh instance.
type Options struct {
	// Store persists conversation state between turns. Defaults to the
	// in-memory store.
	Store core.Store

	// Classifier decides which specialist handles a turn. Defaults to the
	// keyword classifier over the registered capability descriptions.
	Classifier core.Classifier

	// NewClassifier builds the classifier against the mesh's registry;
	// used when the classifier needs the registry (e.g. the model-backed
	// supervisor). Ignored when Classifier is set.
	NewClassifier func(reg *registry.Registry) core.Classifier

	// DefaultSpecialist receives turns no capability matches. It must be
	// registered before the first invocation.
	DefaultSpecialist string

	// ClassifyTimeout / ExecuteTimeout bound the provider calls of one
	// turn. Zero selects the graph defaults.
	ClassifyTimeout time.Duration
	ExecuteTimeout  time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// InvokeResult is the outcome of one synchronous conversation turn.
type InvokeResult struct {
	// Response is the text of the last assistant message.
	Response string `json:"response"`
	// ConversationID echoes (or newly assigns) the thread key.
	ConversationID string `json:"thread_id"`
	// RoutedTo names the specialist that produced the response.
	RoutedTo string `json:"routed_to"`
	// TaskKind is the coarse classification of the turn.
	TaskKind string `json:"task_type"`
}

// SpecialistStatus describes one registered specialist.
type SpecialistStatus struct {
	// Status is "registered" before first use, "active" once constructed.
	Status       string   `json:"status"`
	Kind         string   `json:"kind"`
	Capabilities []string `json:"capabilities"`
}

// SupervisorStatus describes the routing step.
type SupervisorStatus struct {
	Status            string `json:"status"`
	DefaultSpecialist string `json:"default_specialist"`
}

// SystemStatus is the full observable system state.
type SystemStatus struct {
	Supervisor  SupervisorStatus            `json:"supervisor"`
	Specialists map[string]SpecialistStatus `json:"specialists"`
}

// TaskMesh is the single entry point external callers use: it accepts a user
// message plus conversation id, drives the dispatch graph to completion and
// returns the final response or a lazy event sequence.
type TaskMesh struct {
	opts     Options
	registry *registry.Registry
	graph    *graph.Graph

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a TaskMesh with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *TaskMesh {
	opts := Options{
		Store:             memory.NewInMemoryStore(),
		DefaultSpecialist: DefaultSpecialistTag,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.New()

	classifier := opts.Classifier
	if classifier == nil && opts.NewClassifier != nil {
		classifier = opts.NewClassifier(reg)
	}
	if classifier == nil {
		classifier = classify.NewKeyword(reg, opts.DefaultSpecialist, func(o *classify.KeywordOptions) {
			o.Logger = opts.Logger
		})
	}

	g := graph.New(classifier, reg, graph.Config{
		ClassifyTimeout:   opts.ClassifyTimeout,
		ExecuteTimeout:    opts.ExecuteTimeout,
		DefaultSpecialist: opts.DefaultSpecialist,
		Logger:            opts.Logger,
	})

	return &TaskMesh{
		opts:     opts,
		registry: reg,
		graph:    g,
		locks:    make(map[string]*sync.Mutex),
	}
}

// RegisterSpecialist adds a specialist to the dispatch registry.
func (m *TaskMesh) RegisterSpecialist(reg registry.Registration) error {
	return m.registry.Register(reg)
}

// Registry exposes the underlying specialist registry, mainly for wiring
// custom classifiers.
func (m *TaskMesh) Registry() *registry.Registry { return m.registry }

// Invoke runs one conversation turn: load state, append the user message,
// dispatch, persist, and return the assistant's reply. An empty
// conversationID starts a new conversation under a fresh id.
//
// Turns on the same conversation id are serialized; distinct ids proceed
// concurrently.
func (m *TaskMesh) Invoke(ctx context.Context, conversationID, message string) (*InvokeResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, core.NewInvalidInput(conversationID, "message must not be empty")
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	unlock := m.lock(conversationID)
	defer unlock()

	state, err := m.run(ctx, conversationID, message, nil)
	if err != nil {
		return nil, err
	}

	return &InvokeResult{
		Response:       state.LastAssistantText(),
		ConversationID: conversationID,
		RoutedTo:       state.CurrentSpecialist,
		TaskKind:       state.TaskKind,
	}, nil
}

// InvokeStream runs one turn as a lazy, finite, non-restartable event
// sequence: one routing event, zero or more message events, then exactly one
// done or error event, after which the channel is closed. Input validation
// errors are returned immediately instead of through the channel.
func (m *TaskMesh) InvokeStream(ctx context.Context, conversationID, message string) (<-chan core.StreamEvent, error) {
	if strings.TrimSpace(message) == "" {
		return nil, core.NewInvalidInput(conversationID, "message must not be empty")
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	events := make(chan core.StreamEvent, 16)
	go func() {
		defer close(events)

		unlock := m.lock(conversationID)
		defer unlock()

		emit := func(ev core.StreamEvent) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		if _, err := m.run(ctx, conversationID, message, emit); err != nil {
			emit(core.NewErrorEvent(conversationID, err))
			return
		}
		emit(core.NewDoneEvent(conversationID))
	}()
	return events, nil
}

// run is the shared load → append → dispatch → persist pipeline. The caller
// holds the per-conversation lock.
func (m *TaskMesh) run(ctx context.Context, conversationID, message string, emit func(core.StreamEvent)) (core.ConversationState, error) {
	state, err := m.opts.Store.Load(ctx, conversationID)
	if err != nil {
		return core.ConversationState{}, core.NewError(core.KindStoreUnavailable, "", conversationID, err)
	}

	state = state.AppendMessage(core.NewUserMessage(message))

	next, err := m.graph.RunWithEvents(ctx, conversationID, state, emit)
	if err != nil {
		// Routing-phase failures never advance the conversation: nothing
		// is persisted, so a retry sees the pre-call transcript.
		return core.ConversationState{}, err
	}

	if err := m.opts.Store.Save(ctx, conversationID, next); err != nil {
		return core.ConversationState{}, core.NewError(core.KindStoreUnavailable, "", conversationID, err)
	}

	m.opts.Logger.Info("turn complete",
		"conversation_id", conversationID, "routed_to", next.CurrentSpecialist, "task_kind", next.TaskKind)
	return next, nil
}

// Reset deletes the conversation record; a subsequent turn starts fresh.
func (m *TaskMesh) Reset(ctx context.Context, conversationID string) error {
	unlock := m.lock(conversationID)
	defer unlock()

	if err := m.opts.Store.Reset(ctx, conversationID); err != nil {
		return core.NewError(core.KindStoreUnavailable, "", conversationID, err)
	}
	return nil
}

// Status reports the supervisor configuration and every registered
// specialist. Specialists constructed by a prior dispatch report "active".
func (m *TaskMesh) Status() SystemStatus {
	specialists := make(map[string]SpecialistStatus)
	for _, reg := range m.registry.List() {
		status := "registered"
		if m.registry.Constructed(reg.Tag) {
			status = "active"
		}
		specialists[reg.Tag] = SpecialistStatus{
			Status:       status,
			Kind:         reg.Kind,
			Capabilities: reg.Capabilities,
		}
	}
	return SystemStatus{
		Supervisor: SupervisorStatus{
			Status:            "ready",
			DefaultSpecialist: m.opts.DefaultSpecialist,
		},
		Specialists: specialists,
	}
}

// lock serializes turns per conversation id. Lock entries live for the
// process lifetime, matching the store's no-eviction policy.
func (m *TaskMesh) lock(conversationID string) func() {
	m.mu.Lock()
	l, ok := m.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[conversationID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
