// Package graph implements a file-to-file import graph built from
// persisted "imports" and "re-exports" relations, serving reachability,
// reverse reachability, and all-elementary-cycle queries. It uses an iterative
// (explicit call-stack) Tarjan pass for strongly connected components, with
// Johnson's elementary-circuit enumeration run within each non-trivial SCC.
package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/marmos91/codeindex/pkg/index/model"
)

// FileKey identifies a file across project boundaries as "project::relPath".
type FileKey string

// NewFileKey builds the key for (project, relPath).
func NewFileKey(project, relPath string) FileKey {
	return FileKey(project + "::" + relPath)
}

// RelationSource is the relation-query handle the graph is built from.
// store.Store satisfies this directly.
type RelationSource interface {
	GetByType(ctx context.Context, project string, relType model.RelationType) ([]*model.Relation, error)
}

// Graph is an immutable snapshot of the file-to-file import graph for one
// scope (a single project or a set of cross-project boundaries). Callers
// must treat returned adjacency views as read-only.
type Graph struct {
	adjacency map[FileKey][]FileKey
	reverse   map[FileKey][]FileKey
}

// edgeRelationTypes are the relation kinds that constitute a file-to-file
// dependency edge: a direct import, and a re-export, which makes the
// re-exporting file depend on whatever it re-exports from just as surely
// as an import would.
var edgeRelationTypes = []model.RelationType{model.RelationImports, model.RelationReExport}

// Build loads every file-to-file dependency relation for projects and
// populates a file-to-file adjacency list. A file that appears only as a
// relation destination still gets a key in the adjacency list, with an
// empty edge list, so reachability queries see it.
func Build(ctx context.Context, src RelationSource, projects []string) (*Graph, error) {
	adjacency := make(map[FileKey]map[FileKey]struct{})
	ensure := func(k FileKey) {
		if _, ok := adjacency[k]; !ok {
			adjacency[k] = make(map[FileKey]struct{})
		}
	}

	for _, project := range projects {
		for _, relType := range edgeRelationTypes {
			rels, err := src.GetByType(ctx, project, relType)
			if err != nil {
				return nil, err
			}
			for _, rel := range rels {
				srcKey := NewFileKey(rel.Project, rel.SrcFile)
				dstKey := NewFileKey(rel.DstProject, rel.DstFile)
				ensure(srcKey)
				ensure(dstKey)
				adjacency[srcKey][dstKey] = struct{}{}
			}
		}
	}

	g := &Graph{
		adjacency: make(map[FileKey][]FileKey, len(adjacency)),
		reverse:   make(map[FileKey][]FileKey, len(adjacency)),
	}
	for k := range adjacency {
		g.reverse[k] = nil
	}
	for from, tos := range adjacency {
		list := make([]FileKey, 0, len(tos))
		for to := range tos {
			list = append(list, to)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		g.adjacency[from] = list
		for _, to := range list {
			g.reverse[to] = append(g.reverse[to], from)
		}
	}
	for k, list := range g.reverse {
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		g.reverse[k] = list
	}
	return g, nil
}

// NodeCount returns the number of files known to the graph.
func (g *Graph) NodeCount() int { return len(g.adjacency) }

// GetAdjacencyList returns a defensive copy of the full forward adjacency
// list; callers may mutate the returned map freely.
func (g *Graph) GetAdjacencyList() map[FileKey][]FileKey {
	out := make(map[FileKey][]FileKey, len(g.adjacency))
	for k, v := range g.adjacency {
		cp := make([]FileKey, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// GetDependencies returns the direct outbound edges of file.
func (g *Graph) GetDependencies(file FileKey) []FileKey {
	return copyKeys(g.adjacency[file])
}

// GetDependents returns the direct inbound edges of file.
func (g *Graph) GetDependents(file FileKey) []FileKey {
	return copyKeys(g.reverse[file])
}

// GetTransitiveDependencies returns every file forward-reachable from file,
// excluding file itself, sorted for deterministic output.
func (g *Graph) GetTransitiveDependencies(file FileKey) []FileKey {
	visited := map[FileKey]bool{file: true}
	queue := []FileKey{file}
	var result []FileKey
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.adjacency[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			result = append(result, next)
			queue = append(queue, next)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// GetAffectedByChange runs a reverse BFS from each seed and returns the
// union of every file reachable backwards, excluding the seeds themselves.
// De-duplicated, order-insensitive (returned sorted).
func (g *Graph) GetAffectedByChange(files []FileKey) []FileKey {
	seeds := make(map[FileKey]bool, len(files))
	for _, f := range files {
		seeds[f] = true
	}
	seen := make(map[FileKey]bool, len(files))
	var queue []FileKey
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			queue = append(queue, f)
		}
	}
	affected := make(map[FileKey]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.reverse[cur] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if !seeds[dep] {
				affected[dep] = true
			}
			queue = append(queue, dep)
		}
	}
	result := make([]FileKey, 0, len(affected))
	for k := range affected {
		result = append(result, k)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

type color int

const (
	white color = iota
	grey
	black
)

// HasCycle runs an iterative DFS with three-colouring and returns true on
// the first back-edge found (grey node revisited).
func (g *Graph) HasCycle() bool {
	colors := make(map[FileKey]color, len(g.adjacency))

	type frame struct {
		node FileKey
		idx  int
	}

	starts := g.sortedNodes()
	for _, start := range starts {
		if colors[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		colors[start] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.adjacency[top.node]
			if top.idx >= len(edges) {
				colors[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := edges[top.idx]
			top.idx++
			switch colors[next] {
			case white:
				colors[next] = grey
				stack = append(stack, frame{node: next})
			case grey:
				return true
			case black:
				// already fully explored, no back-edge
			}
		}
	}
	return false
}

func (g *Graph) sortedNodes() []FileKey {
	nodes := make([]FileKey, 0, len(g.adjacency))
	for k := range g.adjacency {
		nodes = append(nodes, k)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

func copyKeys(in []FileKey) []FileKey {
	if len(in) == 0 {
		return nil
	}
	out := make([]FileKey, len(in))
	copy(out, in)
	return out
}

// CycleOptions configures GetCyclePaths.
type CycleOptions struct {
	// MaxCycles stops enumeration once this many cycles have been found.
	// Zero means unbounded.
	MaxCycles int
}

// GetCyclePaths locates non-trivial strongly-connected components with an
// iterative Tarjan pass, then enumerates every elementary cycle within each
// component with Johnson's algorithm. Each cycle is rotated so its
// lexicographically smallest node is first (canonical form) and
// de-duplicated under that rotation. Honours opts.MaxCycles by early
// termination.
func (g *Graph) GetCyclePaths(opts CycleOptions) [][]FileKey {
	sccs := g.tarjanSCCs()

	var all [][]FileKey
	seen := make(map[string]bool)

	for _, scc := range sccs {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}

		remaining := 0
		if opts.MaxCycles > 0 {
			remaining = opts.MaxCycles - len(all)
			if remaining <= 0 {
				break
			}
		}

		sub := g.inducedSubgraph(scc)
		for _, cycle := range johnsonCycles(scc, sub, remaining) {
			canon := canonicalize(cycle)
			key := joinKeys(canon)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, canon)
			if opts.MaxCycles > 0 && len(all) >= opts.MaxCycles {
				return all
			}
		}
	}
	return all
}

func (g *Graph) hasSelfLoop(n FileKey) bool {
	for _, d := range g.adjacency[n] {
		if d == n {
			return true
		}
	}
	return false
}

func (g *Graph) inducedSubgraph(nodes []FileKey) map[FileKey][]FileKey {
	set := make(map[FileKey]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	sub := make(map[FileKey][]FileKey, len(nodes))
	for _, n := range nodes {
		for _, d := range g.adjacency[n] {
			if set[d] {
				sub[n] = append(sub[n], d)
			}
		}
	}
	return sub
}

// tarjanSCCs runs Tarjan's strongly-connected-components algorithm with an
// explicit call stack in place of recursion, so deep graphs never overflow
// the goroutine stack.
func (g *Graph) tarjanSCCs() [][]FileKey {
	index := 0
	idx := make(map[FileKey]int)
	low := make(map[FileKey]int)
	onStack := make(map[FileKey]bool)
	var nodeStack []FileKey
	var sccs [][]FileKey

	type callFrame struct {
		node    FileKey
		edgeIdx int
		phase   int // 0=init, 1=process edges, 2=post-child, 3=finalize
		child   FileKey
	}

	strongConnect := func(start FileKey) {
		callStack := []callFrame{{node: start}}
		for len(callStack) > 0 {
			f := &callStack[len(callStack)-1]
			switch f.phase {
			case 0:
				idx[f.node] = index
				low[f.node] = index
				index++
				nodeStack = append(nodeStack, f.node)
				onStack[f.node] = true
				f.phase = 1

			case 1:
				edges := g.adjacency[f.node]
				pushed := false
				for f.edgeIdx < len(edges) {
					next := edges[f.edgeIdx]
					f.edgeIdx++
					if _, visited := idx[next]; !visited {
						f.phase = 2
						f.child = next
						callStack = append(callStack, callFrame{node: next})
						pushed = true
						break
					} else if onStack[next] {
						if idx[next] < low[f.node] {
							low[f.node] = idx[next]
						}
					}
				}
				if pushed {
					continue
				}
				f.phase = 3

			case 2:
				if low[f.child] < low[f.node] {
					low[f.node] = low[f.child]
				}
				f.phase = 1

			case 3:
				if low[f.node] == idx[f.node] {
					var scc []FileKey
					for {
						w := nodeStack[len(nodeStack)-1]
						nodeStack = nodeStack[:len(nodeStack)-1]
						onStack[w] = false
						scc = append(scc, w)
						if w == f.node {
							break
						}
					}
					sccs = append(sccs, scc)
				}
				callStack = callStack[:len(callStack)-1]
			}
		}
	}

	for _, n := range g.sortedNodes() {
		if _, visited := idx[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// johnsonCycles enumerates every elementary cycle in the subgraph induced by
// nodes, using Johnson's algorithm. remaining <= 0 means unbounded.
func johnsonCycles(nodes []FileKey, adj map[FileKey][]FileKey, remaining int) [][]FileKey {
	ordered := make([]FileKey, len(nodes))
	copy(ordered, nodes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	position := make(map[FileKey]int, len(ordered))
	for i, n := range ordered {
		position[n] = i
	}

	n := len(ordered)
	blocked := make([]bool, n)
	blockMap := make([][]int, n)
	var stack []FileKey
	var cycles [][]FileKey

	unblock := func(u int) {
		blocked[u] = false
		for _, w := range blockMap[u] {
			if blocked[w] {
				unblock(w)
			}
		}
		blockMap[u] = nil
	}

	var circuit func(v, s int) bool
	circuit = func(v, s int) bool {
		found := false
		stack = append(stack, ordered[v])
		blocked[v] = true

		for _, w := range adj[ordered[v]] {
			wi := position[w]
			if wi < s {
				continue
			}
			if remaining > 0 && len(cycles) >= remaining {
				break
			}
			if wi == s {
				cycle := make([]FileKey, len(stack))
				copy(cycle, stack)
				cycles = append(cycles, cycle)
				found = true
			} else if !blocked[wi] {
				if circuit(wi, s) {
					found = true
				}
			}
		}

		if found {
			unblock(v)
		} else {
			for _, w := range adj[ordered[v]] {
				wi := position[w]
				if wi < s {
					continue
				}
				already := false
				for _, x := range blockMap[wi] {
					if x == v {
						already = true
						break
					}
				}
				if !already {
					blockMap[wi] = append(blockMap[wi], v)
				}
			}
		}

		stack = stack[:len(stack)-1]
		return found
	}

	for s := 0; s < n; s++ {
		if remaining > 0 && len(cycles) >= remaining {
			break
		}
		for i := range blocked {
			blocked[i] = false
			blockMap[i] = nil
		}
		circuit(s, s)
	}
	return cycles
}

func canonicalize(cycle []FileKey) []FileKey {
	minIdx := 0
	for i, k := range cycle {
		if k < cycle[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]FileKey, len(cycle))
	for i := range cycle {
		rotated[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return rotated
}

func joinKeys(keys []FileKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, "\x00")
}
