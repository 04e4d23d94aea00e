// Package classify contains supervisor implementations that decide which
// specialist handles the current turn. The reference policy is capability
// keyword matching (Keyword); ModelClassifier delegates the decision to an
// inference provider. Both normalize their output into core.RoutingDecision
// at this boundary, so raw routing strings never reach the engine.
package classify

import (
	"context"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/registry"
)

// Scorer rates how well a user message matches one specialist's capability
// descriptions. Higher is better; scores below the classifier threshold do
// not count as a match.
type Scorer func(message string, capabilities []string) int

// SubstringScorer is the reference scorer: it counts capability phrases that
// occur in the message, case-insensitive.
func SubstringScorer(message string, capabilities []string) int {
	msg := strings.ToLower(message)
	score := 0
	for _, cap := range capabilities {
		cap = strings.ToLower(strings.TrimSpace(cap))
		if cap == "" {
			continue
		}
		if strings.Contains(msg, cap) {
			score++
		}
	}
	return score
}

// KeywordOptions configures the keyword classifier.
type KeywordOptions struct {
	// Threshold is the minimum score required for a dispatch; below it the
	// turn falls back to the default specialist. Default 1.
	Threshold int
	// Scorer rates message/capability matches. Default SubstringScorer.
	Scorer Scorer
	// Logger used for routing decisions. Default NoOp.
	Logger logging.Logger
}

// Keyword routes by matching the most recent user message against each
// registered specialist's capability descriptions. Ties go to the
// first-registered specialist; a message matching nothing routes to the
// configured default specialist rather than Finish, so the user always gets
// a substantive response.
type Keyword struct {
	registry   *registry.Registry
	defaultTag string
	opts       KeywordOptions
}

// NewKeyword constructs the reference classifier. defaultTag names the
// fallback specialist; it must be registered by the time Classify runs.
func NewKeyword(reg *registry.Registry, defaultTag string, optFns ...func(o *KeywordOptions)) *Keyword {
	opts := KeywordOptions{
		Threshold: 1,
		Scorer:    SubstringScorer,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Keyword{registry: reg, defaultTag: defaultTag, opts: opts}
}

// Classify implements core.Classifier.
func (k *Keyword) Classify(_ context.Context, state core.ConversationState) (core.RoutingDecision, error) {
	if len(state.Messages) == 0 {
		return core.RoutingDecision{}, core.NewInvalidInput("", "classify: conversation has no messages")
	}

	message := state.LastUserText()

	bestTag := ""
	bestScore := 0
	for _, reg := range k.registry.List() {
		score := k.opts.Scorer(message, reg.Capabilities)
		if score > bestScore { // strict: first-registered wins ties
			bestTag, bestScore = reg.Tag, score
		}
	}

	if bestScore < k.opts.Threshold {
		k.opts.Logger.Debug("classify fallback", "specialist", k.defaultTag)
		return core.RouteToFallback(k.defaultTag), nil
	}

	k.opts.Logger.Debug("classify matched", "specialist", bestTag, "score", bestScore)
	return core.RouteTo(bestTag), nil
}
