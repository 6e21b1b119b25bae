package costfunction

import (
	"github.com/lintang-b-s/courierx/pkg/datastructure"
)

type EdgeAttributes interface {
	GetHead() datastructure.Index
	GetDist() float64
	GetTraffic() float64
	GetQuality() float64
	GetRoadName() string
}

// CostFunction turns one adjacency entry into a relaxation weight. It is a
// pure function of the entry and the context it was built with (vehicle
// profile, traffic snapshot), so every search strategy can take it as a
// parameter and the shared graph never needs to change per request.
type CostFunction interface {
	GetWeight(tail datastructure.Index, e EdgeAttributes) float64
	Passable(tail datastructure.Index, e EdgeAttributes) bool
}

func normalizedPair(a, b datastructure.Index) [2]datastructure.Index {
	if a > b {
		a, b = b, a
	}
	return [2]datastructure.Index{a, b}
}
