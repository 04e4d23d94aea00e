package core

// RoutingDecision is the tagged outcome of a classification step: either a
// dispatch to a named specialist or Finish. The zero value is Finish, so a
// decision can never carry an empty tag by accident. Free-text provider
// output is parsed into this type at the classifier boundary; the rest of the
// engine never sees raw routing strings.
type RoutingDecision struct {
	tag      string
	fallback bool
}

// RouteTo returns a decision dispatching to the given specialist tag.
// An empty tag collapses to Finish.
func RouteTo(tag string) RoutingDecision {
	if tag == Finish {
		return RoutingDecision{}
	}
	return RoutingDecision{tag: tag}
}

// RouteToFallback returns a dispatch decision marked as a fallback: no
// capability actually matched and tag is only the configured default. The
// task kind stays unknown for fallback dispatches.
func RouteToFallback(tag string) RoutingDecision {
	if tag == Finish {
		return RoutingDecision{}
	}
	return RoutingDecision{tag: tag, fallback: true}
}

// FinishDecision returns the terminal decision.
func FinishDecision() RoutingDecision { return RoutingDecision{} }

// IsFallback reports whether the dispatch target was chosen by fallback
// rather than a capability match.
func (d RoutingDecision) IsFallback() bool { return d.fallback }

// IsFinish reports whether the decision terminates the turn without dispatch.
func (d RoutingDecision) IsFinish() bool { return d.tag == "" }

// Tag returns the specialist tag for a dispatch decision, or Finish.
func (d RoutingDecision) Tag() string {
	if d.tag == "" {
		return Finish
	}
	return d.tag
}

// String implements fmt.Stringer.
func (d RoutingDecision) String() string { return d.Tag() }
