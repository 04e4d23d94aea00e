// Package specialist provides the task executor implementations dispatched
// by the orchestration graph: a provider-backed executor with tool calling
// and a placeholder for capabilities that are announced but not yet built.
package specialist

// Base carries the static identity every executor exposes to the registry
// and the classifier. Embed it and implement Run.
type Base struct {
	tag          string
	kind         string
	capabilities []string
}

// NewBase constructs the shared identity fields.
func NewBase(tag, kind string, capabilities []string) Base {
	return Base{tag: tag, kind: kind, capabilities: capabilities}
}

// Tag implements part of core.TaskExecutor.
func (b Base) Tag() string { return b.tag }

// Kind implements part of core.TaskExecutor.
func (b Base) Kind() string { return b.kind }

// Capabilities implements part of core.TaskExecutor.
func (b Base) Capabilities() []string { return b.capabilities }
