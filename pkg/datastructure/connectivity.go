package datastructure

// ConnectedComponents labels every node of the road network with a component
// root id and returns the number of components. A delivery dataset is
// expected to be one component, fragments mean unreachable restaurants or
// customers, so the loader warns on count > 1.
func (g *RoadGraph) ConnectedComponents() (map[Index]Index, int) {
	ids := g.NodeIDs()

	labels := make(map[Index]Index, len(ids))
	visited := make(map[Index]bool, len(ids))
	count := 0

	for _, start := range ids {
		if visited[start] {
			continue
		}
		count++

		// ids are visited in ascending order, so the first unvisited node
		// of a component is also its smallest id. use it as the root label.
		component := make([]Index, 0, 10)
		stack := []Index{start}
		visited[start] = true

		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, v)

			neighbors, err := g.Neighbors(v)
			if err != nil {
				continue
			}
			for _, e := range neighbors {
				if !visited[e.GetHead()] {
					visited[e.GetHead()] = true
					stack = append(stack, e.GetHead())
				}
			}
		}

		for _, v := range component {
			labels[v] = start
		}
	}

	return labels, count
}

// SameComponent reports whether u and v can possibly reach each other. It
// is a cheap pre-check, not a substitute for a search.
func (g *RoadGraph) SameComponent(u, v Index) bool {
	labels, _ := g.ConnectedComponents()
	lu, oku := labels[u]
	lv, okv := labels[v]
	return oku && okv && lu == lv
}
