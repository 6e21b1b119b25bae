package guidance

import "github.com/lintang-b-s/courierx/pkg/datastructure"

type Graph interface {
	GetNode(id datastructure.Index) (*datastructure.Node, error)
	EdgeBetween(a, b datastructure.Index) (*datastructure.OutEdge, bool, error)
}
