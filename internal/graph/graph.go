// Package graph analyses the children edges between tags: cycle detection
// and lifecycle chain-order checks. It works on plain adjacency functions so
// both the store and the agent can reuse it.
package graph

import (
	"sort"
	"strings"

	"github.com/steveyegge/tagtrace/internal/types"
)

// ChildrenFunc returns the outgoing (children) edges of a node. Unknown
// nodes return nil.
type ChildrenFunc func(id string) []string

// HasCycle reports whether a depth-first walk from start over children edges
// revisits a node that is still on the recursion stack.
func HasCycle(start string, children ChildrenFunc) bool {
	return FindCycle(start, children) != nil
}

// FindCycle returns the first cycle reachable from start, as the ordered
// node path from the repeated node back to itself (exclusive), or nil.
func FindCycle(start string, children ChildrenFunc) []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var found []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range children(node) {
			if onStack[next] {
				for i, n := range path {
					if n == next {
						found = append([]string(nil), path[i:]...)
						break
					}
				}
				return true
			}
			if !visited[next] && dfs(next) {
				return true
			}
		}

		onStack[node] = false
		path = path[:len(path)-1]
		return false
	}

	if dfs(start) {
		return found
	}
	return nil
}

// DetectCycles finds every distinct cycle among nodes. Cycles are rotated to
// start at their smallest id and de-duplicated, then sorted.
func DetectCycles(nodes []string, children ChildrenFunc) [][]string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var all [][]string

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range children(node) {
			if !visited[next] {
				dfs(next, path)
			} else if onStack[next] {
				for i, n := range path {
					if n == next {
						all = append(all, append([]string(nil), path[i:]...))
						break
					}
				}
			}
		}
		onStack[node] = false
	}

	sorted := append([]string(nil), nodes...)
	sort.Strings(sorted)
	for _, n := range sorted {
		if !visited[n] {
			dfs(n, nil)
		}
	}

	seen := make(map[string]bool)
	var out [][]string
	for _, c := range all {
		c = normalizeCycle(c)
		key := cycleKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return cycleKey(out[i]) < cycleKey(out[j]) })
	return out
}

// WouldCreateCycle reports whether adding the edge parent -> child closes a
// loop, i.e. whether parent is already reachable from child.
func WouldCreateCycle(parent, child string, children ChildrenFunc) bool {
	if parent == child {
		return true
	}
	seen := map[string]bool{child: true}
	stack := []string{child}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range children(n) {
			if next == parent {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// OrderViolation is one inversion of the lifecycle order in a chain.
type OrderViolation struct {
	Index    int           // position in the input list
	Type     types.TagType // offending type
	Previous types.TagType // lifecycle type seen before it
}

// CheckChainOrder filters ts to lifecycle types and reports every entry that
// sits earlier in REQ < DESIGN < TASK < TEST than its predecessor. Repeats of
// the same type are allowed. Other types are ignored, so implementation tags
// may interleave freely.
func CheckChainOrder(ts []types.TagType) []OrderViolation {
	var out []OrderViolation
	last := -1
	var lastType types.TagType
	for i, t := range ts {
		idx := t.LifecycleIndex()
		if idx < 0 {
			continue
		}
		if idx < last {
			out = append(out, OrderViolation{Index: i, Type: t, Previous: lastType})
			continue
		}
		last = idx
		lastType = t
	}
	return out
}

func normalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	result := make([]string, len(cycle))
	for i := range cycle {
		result[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return result
}

func cycleKey(c []string) string {
	return strings.Join(c, "->")
}
