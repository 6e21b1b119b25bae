package routing

import (
	"github.com/lintang-b-s/courierx/pkg"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/util"
)

// AStar runs a goal-directed single-pair search. The lower bound for a
// vertex v is the haversine distance from v to the target scaled by the
// cheapest cost-per-km any edge achieves under the active cost function.
// Scaling by the minimum keeps the bound admissible for composite metrics
// whose multipliers only ever inflate the base distance.
type AStar struct {
	engine *AStarHeuristic

	info *queryInfo
	pq   *da.MinHeap[da.Index]
}

// AStarHeuristic precomputes the heuristic scale for one (graph, cost
// function) pair so repeated queries skip the edge scan.
type AStarHeuristic struct {
	graph             Graph
	costFunction      CostFunction
	minCostMultiplier float64
}

func NewAStarHeuristic(graph Graph, costFunction CostFunction) *AStarHeuristic {
	return &AStarHeuristic{
		graph:             graph,
		costFunction:      costFunction,
		minCostMultiplier: minCostMultiplier(graph, costFunction),
	}
}

// minCostMultiplier scans every directed edge and returns the smallest
// weight/dist ratio among passable edges with positive length. When the
// graph has no such edge the scale is zero and the search degenerates to
// plain Dijkstra, which stays correct.
func minCostMultiplier(graph Graph, costFunction CostFunction) float64 {
	minMult := pkg.INF_WEIGHT
	graph.ForEachOutEdge(func(tail da.Index, e *da.OutEdge) {
		if !costFunction.Passable(tail, e) || e.GetDist() <= 0 {
			return
		}
		mult := costFunction.GetWeight(tail, e) / e.GetDist()
		if mult < minMult {
			minMult = mult
		}
	})
	if da.Ge(minMult, pkg.INF_WEIGHT) {
		return 0
	}
	return minMult
}

// lowerBound estimates the remaining cost from v to the target. Never
// overestimates: every route from v to target covers at least the geodesic
// distance, and every km of it costs at least minCostMultiplier.
func (h *AStarHeuristic) lowerBound(v *da.Node, targetLat, targetLon float64) float64 {
	return geo.CalculateHaversineDistance(v.GetLat(), v.GetLon(), targetLat, targetLon) *
		h.minCostMultiplier
}

func NewAStar(engine *AStarHeuristic) *AStar {
	return &AStar{
		engine: engine,
	}
}

func (us *AStar) Search(source, target da.Index) (da.PathResult, error) {
	if !us.engine.graph.HasNode(source) {
		return da.PathResult{}, util.WrapErrorf(nil, util.ErrInvalidNode,
			"astar: source %d not in graph", source)
	}
	targetNode, err := us.engine.graph.GetNode(target)
	if err != nil {
		return da.PathResult{}, err
	}

	us.preallocate()
	targetLat, targetLon := targetNode.GetLat(), targetNode.GetLon()

	shNode := da.NewPriorityQueueNode(0, source)
	us.pq.Insert(shNode)
	us.info.setLabel(source, newVertexInfo(0, 0, noParent, shNode))

	for !us.pq.IsEmpty() {
		finish := us.graphSearch(target, targetLat, targetLon)
		if finish {
			break
		}
	}

	tInfo, ok := us.info.labelOf(target)
	if !ok || !tInfo.isScanned() {
		return da.NoPathResult(us.info.explored, us.info.edgesExamined), nil
	}

	route := us.info.reconstructRoute(source, target)
	return da.NewPathResult(route, tInfo.getCost(), tInfo.getDist(),
		us.info.explored, us.info.edgesExamined), nil
}

// graphSearch settles the vertex with the smallest cost-so-far plus lower
// bound. Labels hold the plain cost; only heap ranks carry the estimate.
func (us *AStar) graphSearch(target da.Index, targetLat, targetLon float64) bool {
	minNode, err := us.pq.ExtractMin()
	if err != nil {
		return true
	}
	uId := minNode.GetItem()

	uInfo, _ := us.info.labelOf(uId)
	us.info.settle(uId)

	if uId == target {
		return true
	}

	outEdges, err := us.engine.graph.Neighbors(uId)
	if err != nil {
		return true
	}

	for _, outEdge := range outEdges {
		us.info.examineEdge()

		if !us.engine.costFunction.Passable(uId, outEdge) {
			continue
		}

		edgeWeight := us.engine.costFunction.GetWeight(uId, outEdge)
		newCost := uInfo.getCost() + edgeWeight
		if da.Ge(newCost, pkg.INF_WEIGHT) {
			continue
		}

		vId := outEdge.GetHead()
		vInfo, vAlreadyLabelled := us.info.labelOf(vId)
		if vAlreadyLabelled && (vInfo.isScanned() || newCost >= vInfo.getCost()) {
			continue
		}

		vNode, err := us.engine.graph.GetNode(vId)
		if err != nil {
			continue
		}
		priority := newCost + us.engine.lowerBound(vNode, targetLat, targetLon)

		newDist := uInfo.getDist() + outEdge.GetDist()
		if vAlreadyLabelled {
			vInfo.update(newCost, newDist, uId)
			us.pq.DecreaseKey(vInfo.getHeapNode(), priority)
		} else {
			vhNode := da.NewPriorityQueueNode(priority, vId)
			us.info.setLabel(vId, newVertexInfo(newCost, newDist, uId, vhNode))
			us.pq.Insert(vhNode)
		}
	}

	return false
}

func (us *AStar) preallocate() {
	sizeHint := us.engine.graph.NumberOfNodes()
	us.info = newQueryInfo(sizeHint)
	us.pq = da.NewFourAryHeap[da.Index]()
	us.pq.Preallocate(sizeHint)
}
