package routing

import (
	"github.com/lintang-b-s/courierx/pkg"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
)

// Dijkstra runs a single-pair shortest path search over the road graph.
// The metric is whatever the injected cost function computes per edge, so
// the same search serves plain distance queries and composite weighted
// queries. Weights must be non-negative.
type Dijkstra struct {
	graph        Graph
	costFunction CostFunction

	info *queryInfo
	pq   *da.MinHeap[da.Index]
}

func NewDijkstra(graph Graph, costFunction CostFunction) *Dijkstra {
	return &Dijkstra{
		graph:        graph,
		costFunction: costFunction,
	}
}

func (us *Dijkstra) Search(source, target da.Index) (da.PathResult, error) {
	if !us.graph.HasNode(source) {
		return da.PathResult{}, util.WrapErrorf(nil, util.ErrInvalidNode,
			"dijkstra: source %d not in graph", source)
	}
	if !us.graph.HasNode(target) {
		return da.PathResult{}, util.WrapErrorf(nil, util.ErrInvalidNode,
			"dijkstra: target %d not in graph", target)
	}

	us.preallocate()

	shNode := da.NewPriorityQueueNode(0, source)
	us.pq.Insert(shNode)
	us.info.setLabel(source, newVertexInfo(0, 0, noParent, shNode))

	for !us.pq.IsEmpty() {
		finish := us.graphSearch(target)
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

// graphSearch settles the current minimum label and relaxes its out edges.
// Returns true once the target is settled, at which point its label cost is
// final and the search can stop early.
func (us *Dijkstra) graphSearch(target da.Index) bool {
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

	outEdges, err := us.graph.Neighbors(uId)
	if err != nil {
		// uId came off the frontier, so it was reachable a moment ago; a
		// concurrent removal of the node itself cannot happen mid-query.
		return true
	}

	for _, outEdge := range outEdges {
		us.info.examineEdge()

		if !us.costFunction.Passable(uId, outEdge) {
			continue
		}

		edgeWeight := us.costFunction.GetWeight(uId, outEdge)
		newCost := uInfo.getCost() + edgeWeight
		if da.Ge(newCost, pkg.INF_WEIGHT) {
			continue
		}

		vId := outEdge.GetHead()
		vInfo, vAlreadyLabelled := us.info.labelOf(vId)
		if vAlreadyLabelled && newCost >= vInfo.getCost() {
			continue
		}

		newDist := uInfo.getDist() + outEdge.GetDist()
		if vAlreadyLabelled {
			vInfo.update(newCost, newDist, uId)
			us.pq.DecreaseKey(vInfo.getHeapNode(), newCost)
		} else {
			vhNode := da.NewPriorityQueueNode(newCost, vId)
			us.info.setLabel(vId, newVertexInfo(newCost, newDist, uId, vhNode))
			us.pq.Insert(vhNode)
		}
	}

	return false
}

func (us *Dijkstra) preallocate() {
	sizeHint := us.graph.NumberOfNodes()
	us.info = newQueryInfo(sizeHint)
	us.pq = da.NewFourAryHeap[da.Index]()
	us.pq.Preallocate(sizeHint)
}
