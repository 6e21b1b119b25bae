package costfunction

import (
	"github.com/lintang-b-s/courierx/pkg/datastructure"
)

// TrafficSnapshot carries per-request congestion overrides keyed by
// undirected segment. Edges without an override keep their stored
// multiplier. The snapshot never touches the graph, two concurrent
// requests can disagree about traffic freely.
type TrafficSnapshot struct {
	overrides map[[2]datastructure.Index]float64
}

func NewTrafficSnapshot() *TrafficSnapshot {
	return &TrafficSnapshot{
		overrides: make(map[[2]datastructure.Index]float64),
	}
}

// Set records a congestion multiplier for segment (a,b). Values below 1.0
// are clamped, congestion never speeds a road up.
func (ts *TrafficSnapshot) Set(a, b datastructure.Index, multiplier float64) {
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	ts.overrides[normalizedPair(a, b)] = multiplier
}

func (ts *TrafficSnapshot) MultiplierFor(tail, head datastructure.Index, fallback float64) float64 {
	if ts == nil {
		return fallback
	}
	if m, ok := ts.overrides[normalizedPair(tail, head)]; ok {
		return m
	}
	return fallback
}

func (ts *TrafficSnapshot) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.overrides)
}
