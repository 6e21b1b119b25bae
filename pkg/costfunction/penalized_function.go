package costfunction

import (
	"github.com/lintang-b-s/courierx/pkg/datastructure"
)

// PenalizedFunction wraps another cost function and inflates the weight of
// marked segments. The alternative-path search marks every segment of each
// path it has already found, the graph keeps all of its edges, so
// connectivity is preserved where outright removal would cut it.
type PenalizedFunction struct {
	base      CostFunction
	penalized map[[2]datastructure.Index]bool
	factor    float64
}

func NewPenalizedCostFunction(base CostFunction, factor float64) *PenalizedFunction {
	return &PenalizedFunction{
		base:      base,
		penalized: make(map[[2]datastructure.Index]bool),
		factor:    factor,
	}
}

// PenalizeRoute marks every segment along route.
func (pf *PenalizedFunction) PenalizeRoute(route []datastructure.Index) {
	for i := 0; i+1 < len(route); i++ {
		pf.penalized[normalizedPair(route[i], route[i+1])] = true
	}
}

func (pf *PenalizedFunction) GetWeight(tail datastructure.Index, e EdgeAttributes) float64 {
	w := pf.base.GetWeight(tail, e)
	if pf.penalized[normalizedPair(tail, e.GetHead())] {
		return w * pf.factor
	}
	return w
}

func (pf *PenalizedFunction) Passable(tail datastructure.Index, e EdgeAttributes) bool {
	return pf.base.Passable(tail, e)
}
