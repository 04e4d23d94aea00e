package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/registry"
)

const routingInstructions = `You are a supervisor that routes user requests to specialist agents.

Available specialists:

%s

Respond with ONLY the specialist tag to route to, or "FINISH" if the task is
complete or needs no specialist. Do not explain your decision.`

// ModelOptions configures the model-backed classifier.
type ModelOptions struct {
	Logger logging.Logger
}

// ModelClassifier delegates the routing decision to an inference provider.
// The provider's free-text reply is parsed here, at the boundary: a reply
// containing a registered tag routes there, "finish" terminates, and anything
// else falls back to the default specialist. Provider failures surface as
// errors; they are never swallowed into a silent Finish.
type ModelClassifier struct {
	model      model.Model
	registry   *registry.Registry
	defaultTag string
	opts       ModelOptions
}

// NewModelClassifier constructs an LLM-backed supervisor.
func NewModelClassifier(m model.Model, reg *registry.Registry, defaultTag string, optFns ...func(o *ModelOptions)) *ModelClassifier {
	opts := ModelOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelClassifier{model: m, registry: reg, defaultTag: defaultTag, opts: opts}
}

// Classify implements core.Classifier.
func (c *ModelClassifier) Classify(ctx context.Context, state core.ConversationState) (core.RoutingDecision, error) {
	if len(state.Messages) == 0 {
		return core.RoutingDecision{}, core.NewInvalidInput("", "classify: conversation has no messages")
	}
	if c.model == nil {
		return core.RoutingDecision{}, core.NewConfigError("model classifier has no model")
	}

	req := model.Request{
		Instructions: fmt.Sprintf(routingInstructions, c.describeSpecialists()),
		Contents: []model.Content{
			{Role: core.RoleUser, Text: "Route this request: " + state.LastUserText()},
		},
	}

	resp, err := c.model.Generate(ctx, req)
	if err != nil {
		return core.RoutingDecision{}, fmt.Errorf("routing inference: %w", err)
	}

	return c.parse(resp.Text), nil
}

// describeSpecialists renders the registered capability descriptions for the
// routing prompt, in registration order.
func (c *ModelClassifier) describeSpecialists() string {
	var b strings.Builder
	for _, reg := range c.registry.List() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", reg.Tag, reg.Kind, strings.Join(reg.Capabilities, ", "))
	}
	return b.String()
}

// parse normalizes the provider's free-text reply into a typed decision.
func (c *ModelClassifier) parse(reply string) core.RoutingDecision {
	normalized := strings.ToLower(strings.TrimSpace(reply))

	for _, tag := range c.registry.Tags() {
		if strings.Contains(normalized, strings.ToLower(tag)) {
			return core.RouteTo(tag)
		}
	}
	if strings.Contains(normalized, "finish") {
		return core.FinishDecision()
	}

	// Unclear reply: fall back to the default specialist so the user still
	// receives a substantive response.
	c.opts.Logger.Warn("unparseable routing reply, using default", "reply", reply, "specialist", c.defaultTag)
	return core.RouteToFallback(c.defaultTag)
}
