package datastructure

import "math"

// PathResult is the outcome of one search. route holds node ids from source
// to destination, cost is in the unit of the cost function that produced it
// (km for plain shortest path, composite cost otherwise), dist is always the
// raw km sum along the route. explored is the finalize order of the search,
// kept for diagnostics only and never consulted for routing decisions.
//
// "no path" is a real value of this type: found=false, empty route and
// +Inf cost. It is never encoded as zero or any other numeric sentinel.
type PathResult struct {
	route         []Index
	explored      []Index
	cost          float64
	dist          float64
	edgesExamined int
	found         bool
}

func NewPathResult(route []Index, cost, dist float64, explored []Index, edgesExamined int) PathResult {
	return PathResult{
		route:         route,
		cost:          cost,
		dist:          dist,
		explored:      explored,
		edgesExamined: edgesExamined,
		found:         true,
	}
}

// NoPathResult carries the exploration that proved disconnection.
func NoPathResult(explored []Index, edgesExamined int) PathResult {
	return PathResult{
		route:         []Index{},
		cost:          math.Inf(1),
		dist:          math.Inf(1),
		explored:      explored,
		edgesExamined: edgesExamined,
		found:         false,
	}
}

func (p PathResult) Found() bool {
	return p.found
}

func (p PathResult) GetRoute() []Index {
	return p.route
}

func (p PathResult) GetCost() float64 {
	return p.cost
}

func (p PathResult) GetDist() float64 {
	return p.dist
}

func (p PathResult) GetExplored() []Index {
	return p.explored
}

func (p PathResult) NodesExplored() int {
	return len(p.explored)
}

func (p PathResult) GetEdgesExamined() int {
	return p.edgesExamined
}

// EdgeSequence returns the route as (tail, head) pairs. Two paths are
// distinct exactly when their edge sequences differ.
func (p PathResult) EdgeSequence() [][2]Index {
	if len(p.route) < 2 {
		return nil
	}
	seq := make([][2]Index, 0, len(p.route)-1)
	for i := 0; i+1 < len(p.route); i++ {
		seq = append(seq, [2]Index{p.route[i], p.route[i+1]})
	}
	return seq
}

// SameEdgeSequence reports whether two results traverse exactly the same
// directed edge sequence.
func (p PathResult) SameEdgeSequence(o PathResult) bool {
	a, b := p.EdgeSequence(), o.EdgeSequence()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
