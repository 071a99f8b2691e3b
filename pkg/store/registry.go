package store

import (
	"github.com/rafters-design/tokengraph/pkg/rules"
)

// Registry is the single handle over a token store and its dependency
// graph. Analysis code reads through it; every mutation goes through one of
// the methods below so the store and the graph can never drift apart.
//
// The registry is not internally synchronized. Mutations must come from one
// goroutine at a time; concurrent reads between mutations are fine.
type Registry struct {
	store *TokenStore
	graph *DependencyGraph
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		store: NewTokenStore(),
		graph: NewDependencyGraph(),
	}
}

// Tokens exposes the underlying token store for read access.
func (r *Registry) Tokens() *TokenStore {
	return r.store
}

// Graph exposes the underlying dependency graph for read access.
func (r *Registry) Graph() *DependencyGraph {
	return r.graph
}

// AddToken creates a token. Fails with ErrDuplicateToken when the name is
// already taken. An empty category defaults to CategoryOther.
func (r *Registry) AddToken(name, value, category string) (*Token, error) {
	if category == "" {
		category = CategoryOther
	}
	t := &Token{Name: name, Value: value, Category: category}
	if err := r.store.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetTokenValue replaces a token's raw value.
func (r *Registry) SetTokenValue(name, value string) error {
	return r.store.SetValue(name, value)
}

// RemoveToken deletes a token. Fails with ErrTokenInUse while other tokens'
// rules still read it; callers detach those rules first. The token's own
// rule, if any, is removed with it.
func (r *Registry) RemoveToken(name string) error {
	if !r.store.Has(name) {
		return TokenNotFoundError("RemoveToken", name)
	}
	if dependents := r.graph.Dependents(name); len(dependents) > 0 {
		return TokenInUseError(name, dependents)
	}
	r.graph.RemoveRule(name)
	return r.store.Remove(name)
}

// AddDependency declares how target derives its value: the rule text is
// parsed once, the edge set is built from the declared sources plus any
// {token} references the rule itself names, and the declaration is
// cycle-checked before committing. Re-declaring replaces the previous rule
// atomically.
//
// Sources that name absent tokens are returned in missing; the edge still
// commits, since collections are routinely authored top-down with forward
// references. Only cycles and an absent target are hard failures.
func (r *Registry) AddDependency(target, ruleText string, sources ...string) (RuleEdge, []string, error) {
	if !r.store.Has(target) {
		return RuleEdge{}, nil, TokenNotFoundError("AddDependency", target)
	}

	desc := rules.Parse(ruleText)

	edgeSources := make([]string, 0, len(sources)+len(desc.References))
	seen := make(map[string]bool)
	for _, src := range sources {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		edgeSources = append(edgeSources, src)
	}
	for _, ref := range desc.References {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		edgeSources = append(edgeSources, ref)
	}

	if len(edgeSources) == 0 && desc.RequiredDependencies() > 0 {
		return RuleEdge{}, nil, &GraphError{
			Op:      "AddDependency",
			Token:   target,
			Context: "rule requires a base dependency",
			Cause:   ErrMissingDependency,
		}
	}

	if err := r.graph.SetRule(target, edgeSources, ruleText, desc); err != nil {
		return RuleEdge{}, nil, err
	}

	var missing []string
	for _, src := range edgeSources {
		if !r.store.Has(src) {
			missing = append(missing, src)
		}
	}

	edge, _ := r.graph.Rule(target)
	return edge, missing, nil
}

// RemoveDependency detaches target's rule, making it a manually managed
// token again. This is how callers unblock RemoveToken for a source.
func (r *Registry) RemoveDependency(target string) error {
	if !r.graph.RemoveRule(target) {
		return &GraphError{Op: "RemoveDependency", Token: target, Cause: ErrRuleNotFound}
	}
	return nil
}

// ResolveValue returns the stored raw value for a token name.
func (r *Registry) ResolveValue(name string) (string, bool) {
	t, ok := r.store.Get(name)
	if !ok {
		return "", false
	}
	return t.Value, true
}

// Stats summarizes registry size.
type Stats struct {
	Tokens int `json:"tokens"`
	Rules  int `json:"rules"`
	Edges  int `json:"edges"`
}

// Stats returns current counts.
func (r *Registry) Stats() Stats {
	return Stats{
		Tokens: r.store.Len(),
		Rules:  r.graph.RuleCount(),
		Edges:  r.graph.EdgeCount(),
	}
}
