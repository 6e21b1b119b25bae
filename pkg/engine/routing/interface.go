package routing

import (
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
)

type Graph interface {
	GetNode(nodeId datastructure.Index) (*datastructure.Node, error)
	HasNode(nodeId datastructure.Index) bool
	Neighbors(nodeId datastructure.Index) ([]*datastructure.OutEdge, error)
	EdgeBetween(a, b datastructure.Index) (*datastructure.OutEdge, bool, error)
	ForEachOutEdge(fn func(tail datastructure.Index, e *datastructure.OutEdge))
	NumberOfNodes() int
}

type Router interface {
	Search(source, target datastructure.Index) (datastructure.PathResult, error)
}

type CostFunction = costfunction.CostFunction
