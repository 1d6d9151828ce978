package validation

import (
	"fmt"
	"sort"

	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// validateIntegrity re-checks the edge invariants the Graph Model enforces
// structurally. A graph built through Graph operations can never violate
// them; the re-check guards externally constructed graphs. It also runs
// graph analysis that only warns: unreachable nodes and cycles. Cycles are
// permitted by the model (a branch may loop back to an earlier action), so
// they never block a save.
func validateIntegrity(g *graph.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	edges := g.Edges()
	seenPairs := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if e.Source == e.Target {
			result.AddEdgeError(e.ID, schema.IssueSelfLoop,
				fmt.Sprintf("edge %s loops node %q onto itself", e.ID, e.Source))
			continue
		}
		if _, ok := g.Node(e.Source); !ok {
			result.AddEdgeError(e.ID, schema.IssueDanglingEdge,
				fmt.Sprintf("edge %s references missing source node %q", e.ID, e.Source))
		}
		if _, ok := g.Node(e.Target); !ok {
			result.AddEdgeError(e.ID, schema.IssueDanglingEdge,
				fmt.Sprintf("edge %s references missing target node %q", e.ID, e.Target))
		}
		p := [2]string{e.Source, e.Target}
		if seenPairs[p] {
			result.AddEdgeError(e.ID, schema.IssueDuplicateEdge,
				fmt.Sprintf("duplicate edge %s -> %s", e.Source, e.Target))
		}
		seenPairs[p] = true
	}
	if !result.Valid() {
		// Dangling or duplicate edges make graph analysis meaningless.
		return result
	}

	analyzeReachability(g, result)
	analyzeCycles(g, result)
	return result
}

// analyzeReachability warns about nodes no trigger can reach (BFS over
// outgoing edges from every trigger). Skipped when there is no trigger;
// the missing_trigger error already covers that graph.
func analyzeReachability(g *graph.Graph, result *schema.ValidationResult) {
	nodes := g.Nodes()

	out := make(map[string][]string)
	for _, e := range g.Edges() {
		out[e.Source] = append(out[e.Source], e.Target)
	}

	reachable := make(map[string]bool, len(nodes))
	var queue []string
	for _, n := range nodes {
		if n.Kind == schema.KindTrigger {
			reachable[n.ID] = true
			queue = append(queue, n.ID)
		}
	}
	if len(queue) == 0 {
		return
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range out[id] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, n := range nodes {
		if !reachable[n.ID] {
			result.AddWarning(n.ID, schema.IssueUnreachableNode,
				fmt.Sprintf("node %q is not reachable from any trigger", n.Subtype))
		}
	}
}

// analyzeCycles runs Kahn's algorithm; any node left with a positive
// in-degree sits on a cycle. One warning is emitted per cycle member so the
// editor can highlight the loop.
func analyzeCycles(g *graph.Graph, result *schema.ValidationResult) {
	nodes := g.Nodes()

	out := make(map[string][]string)
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range g.Edges() {
		out[e.Source] = append(out[e.Source], e.Target)
		inDegree[e.Target]++
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range out[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited == len(nodes) {
		return
	}

	var members []string
	for _, n := range nodes {
		if inDegree[n.ID] > 0 {
			members = append(members, n.ID)
		}
	}
	for _, id := range members {
		result.AddWarning(id, schema.IssueCycleDetected,
			"node is part of a loop; contacts may traverse it repeatedly")
	}
}
