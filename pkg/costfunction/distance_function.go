package costfunction

import (
	"github.com/lintang-b-s/courierx/pkg/datastructure"
)

// DistanceFunction weighs every entry by its raw base distance in km. The
// plain shortest path metric.
type DistanceFunction struct {
}

func NewDistanceCostFunction() *DistanceFunction {
	return &DistanceFunction{}
}

func (df *DistanceFunction) GetWeight(tail datastructure.Index, e EdgeAttributes) float64 {
	return e.GetDist()
}

func (df *DistanceFunction) Passable(tail datastructure.Index, e EdgeAttributes) bool {
	return true
}
