package routing

import (
	"github.com/lintang-b-s/courierx/pkg"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
)

const noParent = da.Index(^uint32(0))

type vertexInfo struct {
	cost     float64
	dist     float64
	parent   da.Index
	scanned  bool // cost from source to this vertex is final and part of the shortest path tree
	heapNode *da.PriorityQueueNode[da.Index]
}

func newVertexInfo(cost, dist float64, parent da.Index, hnode *da.PriorityQueueNode[da.Index]) *vertexInfo {
	return &vertexInfo{
		cost:     cost,
		dist:     dist,
		parent:   parent,
		heapNode: hnode,
	}
}

func (vi *vertexInfo) getCost() float64 {
	return vi.cost
}

func (vi *vertexInfo) getDist() float64 {
	return vi.dist
}

func (vi *vertexInfo) getParent() da.Index {
	return vi.parent
}

func (vi *vertexInfo) update(cost, dist float64, parent da.Index) {
	vi.cost = cost
	vi.dist = dist
	vi.parent = parent
}

func (vi *vertexInfo) scan() {
	vi.scanned = true
}

func (vi *vertexInfo) isScanned() bool {
	return vi.scanned
}

func (vi *vertexInfo) getHeapNode() *da.PriorityQueueNode[da.Index] {
	return vi.heapNode
}

// queryInfo holds per-query vertex labels. Node ids are arbitrary uint32
// values (not compact), so labels live in a map created lazily as the
// search touches vertices.
type queryInfo struct {
	labels map[da.Index]*vertexInfo

	explored      []da.Index
	edgesExamined int
}

func newQueryInfo(sizeHint int) *queryInfo {
	return &queryInfo{
		labels:   make(map[da.Index]*vertexInfo, sizeHint),
		explored: make([]da.Index, 0, sizeHint),
	}
}

func (qi *queryInfo) labelOf(v da.Index) (*vertexInfo, bool) {
	info, ok := qi.labels[v]
	return info, ok
}

func (qi *queryInfo) setLabel(v da.Index, info *vertexInfo) {
	qi.labels[v] = info
}

func (qi *queryInfo) costOf(v da.Index) float64 {
	if info, ok := qi.labels[v]; ok {
		return info.getCost()
	}
	return pkg.INF_WEIGHT
}

func (qi *queryInfo) settle(v da.Index) {
	qi.labels[v].scan()
	qi.explored = append(qi.explored, v)
}

func (qi *queryInfo) examineEdge() {
	qi.edgesExamined++
}

// reconstructRoute walks parent pointers from target back to source and
// reverses the walk into source-to-target order.
func (qi *queryInfo) reconstructRoute(source, target da.Index) []da.Index {
	route := make([]da.Index, 0)
	for at := target; ; {
		route = append(route, at)
		if at == source {
			break
		}
		at = qi.labels[at].getParent()
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}
