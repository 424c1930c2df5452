package code

import "sort"

// Namespace is the mutable binding environment shared by every code block of
// one document run. It is created once per run and never reset mid-run.
//
// A Namespace is not safe for concurrent use; blocks of a document run one
// after another.
type Namespace struct {
	vars     map[string]any
	attached map[any]any
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{vars: make(map[string]any)}
}

// Attachment returns the value attached under key, creating it with init on
// first use. Engines keep per-run state here. Attachments are not bindings:
// they never appear in Keys or Snapshot.
func (n *Namespace) Attachment(key any, init func() any) any {
	if v, ok := n.attached[key]; ok {
		return v
	}
	if n.attached == nil {
		n.attached = make(map[any]any)
	}
	v := init()
	n.attached[key] = v
	return v
}

// Get returns the value bound to name.
func (n *Namespace) Get(name string) (any, bool) {
	v, ok := n.vars[name]
	return v, ok
}

// Set binds name to value, replacing any previous binding.
func (n *Namespace) Set(name string, value any) {
	n.vars[name] = value
}

// Delete removes the binding for name, if any.
func (n *Namespace) Delete(name string) {
	delete(n.vars, name)
}

// Has reports whether name is bound.
func (n *Namespace) Has(name string) bool {
	_, ok := n.vars[name]
	return ok
}

// Len returns the number of bindings.
func (n *Namespace) Len() int {
	return len(n.vars)
}

// Keys returns the bound names in sorted order.
func (n *Namespace) Keys() []string {
	keys := make([]string, 0, len(n.vars))
	for k := range n.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns the set of names bound right now.
func (n *Namespace) Snapshot() map[string]struct{} {
	snap := make(map[string]struct{}, len(n.vars))
	for k := range n.vars {
		snap[k] = struct{}{}
	}
	return snap
}
