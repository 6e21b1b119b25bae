package routing

import (
	"sort"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
)

// AlternativeRoutes carries up to k pairwise-distinct routes ordered by
// non-decreasing cost, plus how many were asked for. Fewer delivered than
// requested means the graph ran out of genuinely distinct options.
type AlternativeRoutes struct {
	requested int
	routes    []da.PathResult
}

func NewAlternativeRoutes(requested int, routes []da.PathResult) AlternativeRoutes {
	return AlternativeRoutes{requested: requested, routes: routes}
}

func (ar AlternativeRoutes) GetRequested() int {
	return ar.requested
}

func (ar AlternativeRoutes) GetDelivered() int {
	return len(ar.routes)
}

func (ar AlternativeRoutes) GetRoutes() []da.PathResult {
	return ar.routes
}

// AlternativeRouteSearch enumerates k-shortest routes by repeated search
// under a penalized metric: after each accepted route, every edge on it gets
// a heavy synthetic multiplier so the next search is steered elsewhere.
// Penalization instead of edge removal keeps connectivity intact, so a
// graph with a single corridor still yields its one route.
type AlternativeRouteSearch struct {
	graph        Graph
	costFunction CostFunction

	penaltyFactor float64
	maxIterations int
}

func NewAlternativeRouteSearch(graph Graph, costFunction CostFunction) *AlternativeRouteSearch {
	return &AlternativeRouteSearch{
		graph:         graph,
		costFunction:  costFunction,
		penaltyFactor: pkg.ALTERNATIVE_EDGE_PENALTY,
		maxIterations: pkg.ALTERNATIVE_MAX_ITERATIONS,
	}
}

func (ars *AlternativeRouteSearch) FindAlternativeRoutes(source, target da.Index, k int) (AlternativeRoutes, error) {
	if k <= 0 {
		return AlternativeRoutes{}, util.WrapErrorf(nil, util.ErrBadParamInput,
			"alternative routes: k must be positive, got %d", k)
	}

	best, err := NewDijkstra(ars.graph, ars.costFunction).Search(source, target)
	if err != nil {
		return AlternativeRoutes{}, err
	}
	if !best.Found() {
		return NewAlternativeRoutes(k, []da.PathResult{}), nil
	}

	routes := []da.PathResult{best}

	penalized := costfunction.NewPenalizedCostFunction(ars.costFunction, ars.penaltyFactor)
	penalized.PenalizeRoute(best.GetRoute())

	for iteration := 0; iteration < ars.maxIterations && len(routes) < k; iteration++ {
		candidate, err := NewDijkstra(ars.graph, penalized).Search(source, target)
		if err != nil {
			return AlternativeRoutes{}, err
		}
		if !candidate.Found() {
			break
		}

		// The candidate cost includes synthetic penalties. Report the real
		// cost under the caller's metric instead.
		trueCost, err := ars.routeCost(candidate.GetRoute())
		if err != nil {
			return AlternativeRoutes{}, err
		}
		candidate = da.NewPathResult(candidate.GetRoute(), trueCost, candidate.GetDist(),
			candidate.GetExplored(), candidate.GetEdgesExamined())

		if ars.duplicateOf(routes, candidate) {
			// Every edge of the repeat is already penalized, so the metric
			// has reached a fixed point and further iterations would keep
			// returning this same route.
			break
		}

		routes = append(routes, candidate)
		penalized.PenalizeRoute(candidate.GetRoute())
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].GetCost() < routes[j].GetCost()
	})

	return NewAlternativeRoutes(k, routes), nil
}

func (ars *AlternativeRouteSearch) duplicateOf(routes []da.PathResult, candidate da.PathResult) bool {
	for _, accepted := range routes {
		if accepted.SameEdgeSequence(candidate) {
			return true
		}
	}
	return false
}

// routeCost sums the unpenalized edge weights along a concrete route.
func (ars *AlternativeRouteSearch) routeCost(route []da.Index) (float64, error) {
	cost := 0.0
	for i := 0; i+1 < len(route); i++ {
		outEdge, ok, err := ars.graph.EdgeBetween(route[i], route[i+1])
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, util.WrapErrorf(nil, util.ErrInternalServerError,
				"route cost: route references missing edge %d-%d", route[i], route[i+1])
		}
		cost += ars.costFunction.GetWeight(route[i], outEdge)
	}
	return cost, nil
}
