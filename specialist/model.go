package specialist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/tool"
)

// DefaultMaxToolRounds bounds the model/tool back-and-forth within one run.
// Hitting the ceiling is not an error; the last text reply wins.
const DefaultMaxToolRounds = 3

// Options configures a provider-backed specialist.
type Options struct {
	// MaxToolRounds caps how many times the model may request tool
	// execution before the run is forced to a final answer. Default 3.
	MaxToolRounds int
	// Logger used for run and tool-call logging. Default NoOp.
	Logger logging.Logger
}

// ModelSpecialist executes a turn by delegating to an inference provider,
// optionally running tools the model requests. Each run appends exactly one
// assistant message to the transcript. Provider failures degrade into that
// message rather than failing the turn; only configuration faults (no model
// wired) propagate as errors.
type ModelSpecialist struct {
	Base
	model        model.Model
	instructions string
	tools        []tool.Tool
	opts         Options
}

var _ core.TaskExecutor = (*ModelSpecialist)(nil)

// NewModel constructs a provider-backed specialist.
func NewModel(tag, kind string, capabilities []string, m model.Model, instructions string, tools []tool.Tool, optFns ...func(o *Options)) *ModelSpecialist {
	opts := Options{
		MaxToolRounds: DefaultMaxToolRounds,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelSpecialist{
		Base:         NewBase(tag, kind, capabilities),
		model:        m,
		instructions: instructions,
		tools:        tools,
		opts:         opts,
	}
}

// Run implements core.TaskExecutor.
func (s *ModelSpecialist) Run(ctx context.Context, state core.ConversationState) (core.ConversationState, error) {
	if s.model == nil {
		return state, core.NewConfigError("specialist %q has no model", s.Tag())
	}

	text, err := s.generate(ctx, state)
	if err != nil {
		// The user still gets a response; the failure becomes part of the
		// transcript instead of aborting the turn.
		s.opts.Logger.Warn("specialist degraded", "specialist", s.Tag(), "error", err)
		text = fmt.Sprintf("I apologize, but I encountered an error while working on that: %v", err)
	}

	state = state.AppendMessage(core.NewAssistantMessage(s.Tag(), text))
	return state.MergeContext(map[string]any{
		core.ContextKey(s.Tag(), "last_result"): text,
	}), nil
}

// generate drives the bounded tool-call loop and returns the model's final
// text reply.
func (s *ModelSpecialist) generate(ctx context.Context, state core.ConversationState) (string, error) {
	req := model.Request{
		Instructions: s.instructions,
		Contents:     transcriptContents(state),
		Tools:        s.definitions(),
	}

	var resp model.Response
	for round := 0; ; round++ {
		var err error
		resp, err = s.model.Generate(ctx, req)
		if err != nil {
			return "", fmt.Errorf("inference: %w", err)
		}
		if len(resp.ToolCalls) == 0 || round >= s.opts.MaxToolRounds {
			break
		}

		req.Contents = append(req.Contents, model.Content{
			Role:      core.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		req.Contents = append(req.Contents, model.Content{
			Role:        "tool",
			ToolResults: s.callTools(ctx, resp.ToolCalls),
		})
	}

	if resp.Text == "" {
		return "", fmt.Errorf("model returned no text after %d rounds", s.opts.MaxToolRounds)
	}
	return resp.Text, nil
}

// callTools runs the requested tools sequentially. A failing or panicking
// tool is reported back to the model as an errored result; it never crosses
// the orchestration boundary.
func (s *ModelSpecialist) callTools(ctx context.Context, calls []model.ToolCall) []model.ToolResult {
	results := make([]model.ToolResult, 0, len(calls))
	for _, call := range calls {
		content, err := s.callTool(ctx, call)
		result := model.ToolResult{ID: call.ID, Name: call.Name}
		if err != nil {
			s.opts.Logger.Warn("tool call failed", "specialist", s.Tag(), "tool", call.Name, "error", err)
			result.Content = err.Error()
			result.IsError = true
		} else {
			result.Content = content
		}
		results = append(results, result)
	}
	return results
}

func (s *ModelSpecialist) callTool(ctx context.Context, call model.ToolCall) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %q panicked: %v", call.Name, r)
		}
	}()

	var target tool.Tool
	for _, t := range s.tools {
		if t.Name() == call.Name {
			target = t
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %q: %w", call.Name, err)
		}
	}

	s.opts.Logger.Debug("tool call", "specialist", s.Tag(), "tool", call.Name)
	out, err := target.Call(ctx, args)
	if err != nil {
		return "", err
	}
	switch v := out.(type) {
	case string:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode result of %q: %w", call.Name, err)
		}
		return string(data), nil
	}
}

func (s *ModelSpecialist) definitions() []model.ToolDefinition {
	if len(s.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// transcriptContents projects the text turns of the conversation into
// provider input. Tool rounds never reach the transcript, so only plain
// text needs mapping.
func transcriptContents(state core.ConversationState) []model.Content {
	contents := make([]model.Content, 0, len(state.Messages))
	for _, msg := range state.Messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		contents = append(contents, model.Content{Role: msg.Role, Text: text})
	}
	return contents
}
