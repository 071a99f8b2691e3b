package store

import (
	"github.com/rafters-design/tokengraph/pkg/rules"
)

// DefaultMaxDepth bounds transitive traversals when the caller does not ask
// for a specific depth.
const DefaultMaxDepth = 5

// RuleEdge is the public view of a token's derivation declaration: the rule
// text, its parsed descriptor, and the source tokens it reads.
type RuleEdge struct {
	Target     string
	Sources    []string
	Text       string
	Descriptor rules.Descriptor
}

type ruleEdge struct {
	target  uint64
	sources []uint64
	text    string
	desc    rules.Descriptor
}

// DependencyGraph holds directed derivation edges between token names.
// Names are interned to dense uint64 ids; adjacency is kept as id slices in
// declaration order so traversals stay deterministic.
//
// A token has at most one rule (single producer). Sources may name tokens
// that do not exist yet; absence is the caller's finding to report, not an
// edge error. The one structural guarantee the graph enforces is
// acyclicity: a declaration that would close a cycle is rejected before
// anything is mutated.
//
// The graph performs no locking; the Registry documents the single-writer
// discipline callers must follow.
type DependencyGraph struct {
	ids        map[string]uint64
	names      []string
	rules      map[uint64]*ruleEdge
	dependents map[uint64][]uint64
	ruleOrder  []uint64
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		ids:        make(map[string]uint64),
		rules:      make(map[uint64]*ruleEdge),
		dependents: make(map[uint64][]uint64),
	}
}

func (g *DependencyGraph) intern(name string) uint64 {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := uint64(len(g.names))
	g.ids[name] = id
	g.names = append(g.names, name)
	return id
}

// rollbackInterning drops names interned after mark. Only safe when nothing
// references the dropped ids, which holds for a rejected declaration.
func (g *DependencyGraph) rollbackInterning(mark int) {
	for i := mark; i < len(g.names); i++ {
		delete(g.ids, g.names[i])
	}
	g.names = g.names[:mark]
}

func (g *DependencyGraph) idNames(ids []uint64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.names[id]
	}
	return out
}

// SetRule declares how target derives its value. If target already has a
// rule, the declaration replaces it as one atomic step. The candidate edge
// set is simulated first; a declaration that would close a cycle is
// rejected with a CycleError carrying the full path, and the graph is left
// exactly as it was.
func (g *DependencyGraph) SetRule(target string, sources []string, text string, desc rules.Descriptor) error {
	mark := len(g.names)
	tid := g.intern(target)

	sids := make([]uint64, 0, len(sources))
	seen := make(map[uint64]bool, len(sources))
	for _, src := range sources {
		sid := g.intern(src)
		if seen[sid] {
			continue
		}
		seen[sid] = true
		sids = append(sids, sid)
	}

	if cycle := g.findCycle(tid, sids); cycle != nil {
		path := g.idNames(cycle)
		g.rollbackInterning(mark)
		return &CycleError{Target: target, Path: path}
	}

	if old, exists := g.rules[tid]; exists {
		for _, sid := range old.sources {
			g.dependents[sid] = removeID(g.dependents[sid], tid)
		}
	} else {
		g.ruleOrder = append(g.ruleOrder, tid)
	}

	g.rules[tid] = &ruleEdge{target: tid, sources: sids, text: text, desc: desc}
	for _, sid := range sids {
		g.dependents[sid] = append(g.dependents[sid], tid)
	}
	return nil
}

// RemoveRule detaches target's rule and returns whether one existed.
func (g *DependencyGraph) RemoveRule(target string) bool {
	tid, ok := g.ids[target]
	if !ok {
		return false
	}
	edge, ok := g.rules[tid]
	if !ok {
		return false
	}
	for _, sid := range edge.sources {
		g.dependents[sid] = removeID(g.dependents[sid], tid)
	}
	delete(g.rules, tid)
	g.ruleOrder = removeID(g.ruleOrder, tid)
	return true
}

func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Rule returns the declaration for target, if any.
func (g *DependencyGraph) Rule(target string) (RuleEdge, bool) {
	tid, ok := g.ids[target]
	if !ok {
		return RuleEdge{}, false
	}
	edge, ok := g.rules[tid]
	if !ok {
		return RuleEdge{}, false
	}
	return RuleEdge{
		Target:     target,
		Sources:    g.idNames(edge.sources),
		Text:       edge.text,
		Descriptor: edge.desc,
	}, true
}

// HasRule reports whether target has a declared rule.
func (g *DependencyGraph) HasRule(target string) bool {
	tid, ok := g.ids[target]
	if !ok {
		return false
	}
	_, ok = g.rules[tid]
	return ok
}

// DirectDependencies returns the sources target's rule reads, in
// declaration order.
func (g *DependencyGraph) DirectDependencies(target string) []string {
	tid, ok := g.ids[target]
	if !ok {
		return nil
	}
	edge, ok := g.rules[tid]
	if !ok {
		return nil
	}
	return g.idNames(edge.sources)
}

// Dependents returns the tokens whose rules read source, in declaration
// order.
func (g *DependencyGraph) Dependents(source string) []string {
	sid, ok := g.ids[source]
	if !ok {
		return nil
	}
	return g.idNames(g.dependents[sid])
}

// Targets returns every token with a declared rule, in declaration order.
func (g *DependencyGraph) Targets() []string {
	return g.idNames(g.ruleOrder)
}

// RuleCount returns the number of declared rules.
func (g *DependencyGraph) RuleCount() int {
	return len(g.rules)
}

// EdgeCount returns the total number of source links across all rules.
func (g *DependencyGraph) EdgeCount() int {
	n := 0
	for _, edge := range g.rules {
		n += len(edge.sources)
	}
	return n
}

type bfsEntry struct {
	id  uint64
	hop int
}

// CascadeScope returns every token whose value could change when name
// changes: the transitive closure over dependents, in BFS order, bounded by
// maxDepth hops (DefaultMaxDepth when maxDepth <= 0). The starting token is
// not included.
func (g *DependencyGraph) CascadeScope(name string, maxDepth int) []string {
	return g.traverse(name, maxDepth, func(id uint64) []uint64 {
		return g.dependents[id]
	}, 1)
}

// IndirectDependencies returns the tokens name reads through at least one
// intermediate, in BFS order, bounded by maxDepth hops. Direct sources are
// excluded.
func (g *DependencyGraph) IndirectDependencies(name string, maxDepth int) []string {
	return g.traverse(name, maxDepth, func(id uint64) []uint64 {
		if edge, ok := g.rules[id]; ok {
			return edge.sources
		}
		return nil
	}, 2)
}

// traverse is a bounded BFS from name. Nodes at distance < minHop are
// walked through but not collected.
func (g *DependencyGraph) traverse(name string, maxDepth int, neighbors func(uint64) []uint64, minHop int) []string {
	start, ok := g.ids[name]
	if !ok {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	visited := map[uint64]bool{start: true}
	var collected []uint64

	queue := []bfsEntry{{id: start, hop: 0}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.hop >= maxDepth {
			continue
		}
		nextHop := current.hop + 1

		for _, nb := range neighbors(current.id) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			if nextHop >= minHop {
				collected = append(collected, nb)
			}
			queue = append(queue, bfsEntry{id: nb, hop: nextHop})
		}
	}
	return g.idNames(collected)
}

// DependencyDepth returns the longest source chain below name: 0 for tokens
// without a rule, 1 + the deepest source otherwise. Exact because the graph
// is acyclic by construction.
func (g *DependencyGraph) DependencyDepth(name string) int {
	start, ok := g.ids[name]
	if !ok {
		return 0
	}

	memo := make(map[uint64]int)
	var depth func(uint64) int
	depth = func(id uint64) int {
		if d, ok := memo[id]; ok {
			return d
		}
		edge, ok := g.rules[id]
		if !ok {
			memo[id] = 0
			return 0
		}
		deepest := 0
		for _, sid := range edge.sources {
			if d := depth(sid); d > deepest {
				deepest = d
			}
		}
		memo[id] = deepest + 1
		return deepest + 1
	}
	return depth(start)
}

// findCycle simulates target's candidate sources over the current graph and
// returns the cycle path the declaration would create, or nil. DFS follows
// depends-on edges starting at target; reaching target again closes the
// cycle. The candidate sources shadow target's existing rule, which is what
// gives replacement its atomic semantics.
func (g *DependencyGraph) findCycle(target uint64, candidate []uint64) []uint64 {
	sourcesOf := func(id uint64) []uint64 {
		if id == target {
			return candidate
		}
		if edge, ok := g.rules[id]; ok {
			return edge.sources
		}
		return nil
	}

	visited := map[uint64]bool{target: true}
	path := []uint64{target}

	var dfs func(id uint64) bool
	dfs = func(id uint64) bool {
		for _, src := range sourcesOf(id) {
			if src == target {
				path = append(path, target)
				return true
			}
			if visited[src] {
				continue
			}
			visited[src] = true
			path = append(path, src)
			if dfs(src) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}

	if dfs(target) {
		return path
	}
	return nil
}

// WouldCycle simulates declaring target with the candidate sources and
// returns the cycle path the declaration would close, without mutating the
// graph. Names the graph has never seen cannot sit on a cycle and are
// skipped rather than interned.
func (g *DependencyGraph) WouldCycle(target string, sources []string) ([]string, bool) {
	tid, ok := g.ids[target]
	if !ok {
		return nil, false
	}

	sids := make([]uint64, 0, len(sources))
	seen := make(map[uint64]bool, len(sources))
	for _, src := range sources {
		sid, known := g.ids[src]
		if !known || seen[sid] {
			continue
		}
		seen[sid] = true
		sids = append(sids, sid)
	}

	if cycle := g.findCycle(tid, sids); cycle != nil {
		return g.idNames(cycle), true
	}
	return nil, false
}

// DetectCycles scans the whole graph with three-color DFS and returns every
// cycle found as a closed name path. Declarations are pre-checked, so a
// non-empty result means an internal invariant broke.
func (g *DependencyGraph) DetectCycles() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[uint64]int)
	parent := make(map[uint64]uint64)
	var cycles [][]string

	var dfs func(id uint64)
	dfs = func(id uint64) {
		color[id] = gray
		if edge, ok := g.rules[id]; ok {
			for _, src := range edge.sources {
				switch color[src] {
				case white:
					parent[src] = id
					dfs(src)
				case gray:
					// Back edge: src is an ancestor on the current path.
					cycles = append(cycles, g.extractCycle(src, id, parent))
				}
			}
		}
		color[id] = black
	}

	for _, id := range g.ruleOrder {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// extractCycle walks parent pointers from end up to start and renders the
// closed path start -> ... -> end -> start in depends-on order.
func (g *DependencyGraph) extractCycle(start, end uint64, parent map[uint64]uint64) []string {
	var reversed []uint64
	current := end
	for current != start {
		reversed = append(reversed, current)
		p, ok := parent[current]
		if !ok {
			break
		}
		current = p
	}
	reversed = append(reversed, start)

	path := make([]uint64, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	path = append(path, start)
	return g.idNames(path)
}
