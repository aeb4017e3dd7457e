package tor

// AlignIfLatencies walks every BeginIf node in g, computes each
// branch's shortest-path latency to the if's end node, and pads the
// shorter branch's first edge with the difference so both arrive at
// the end node on the same cycle regardless of which one is taken.
func AlignIfLatencies(g *Graph) {
	for nodeID := range g.Nodes {
		node := &g.Nodes[nodeID]
		if node.Kind != NodeBeginIf || node.If == nil {
			continue
		}
		edges := g.Edges[nodeID]
		if len(edges) != 2 {
			continue
		}
		lat := [2]int{
			edges[0].Latency() + shortestPath(g, edges[0].To, node.If.EndNode),
			edges[1].Latency() + shortestPath(g, edges[1].To, node.If.EndNode),
		}
		aligned := lat[0]
		if lat[1] > aligned {
			aligned = lat[1]
		}
		node.If.AlignedLatency = aligned

		for i := range edges {
			if lat[i] < aligned {
				edges[i].Kind = EdgeStaticN
				edges[i].Cycles = edges[i].Latency() + (aligned - lat[i])
			}
		}
		g.Edges[nodeID] = edges
	}
}

// shortestPath returns the minimum total edge latency from `from` to
// `target`, or -1 if target is unreachable. Branch bodies are
// straight-line (no cycles back into themselves before the if-end
// node), so a plain Dijkstra over the small per-function graph is
// more than enough.
func shortestPath(g *Graph, from, target int) int {
	if from == target {
		return 0
	}
	dist := map[int]int{from: 0}
	visited := map[int]bool{}
	for {
		u, ud, found := -1, 0, false
		for n, d := range dist {
			if visited[n] {
				continue
			}
			if !found || d < ud {
				u, ud, found = n, d, true
			}
		}
		if !found {
			break
		}
		if u == target {
			return ud
		}
		visited[u] = true
		for _, e := range g.Edges[u] {
			nd := ud + e.Latency()
			if cur, ok := dist[e.To]; !ok || nd < cur {
				dist[e.To] = nd
			}
		}
	}
	if d, ok := dist[target]; ok {
		return d
	}
	return -1
}
