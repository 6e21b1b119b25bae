package metrics

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
)

const (
	STRATEGY_SHORTEST     = "shortest"
	STRATEGY_WEIGHTED     = "weighted"
	STRATEGY_HEURISTIC    = "heuristic"
	STRATEGY_ALTERNATIVES = "alternatives"
)

type strategyStats struct {
	queries       int64
	noRoute       int64
	nodesExplored int64
	edgesExamined int64
}

// QueryMetrics aggregates per-strategy search counters. Safe for use from
// concurrent queries.
type QueryMetrics struct {
	mu    sync.Mutex
	stats map[string]*strategyStats
}

func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		stats: make(map[string]*strategyStats),
	}
}

func (qm *QueryMetrics) Observe(strategy string, result da.PathResult) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	st, ok := qm.stats[strategy]
	if !ok {
		st = &strategyStats{}
		qm.stats[strategy] = st
	}
	st.queries++
	if !result.Found() {
		st.noRoute++
	}
	st.nodesExplored += int64(result.NodesExplored())
	st.edgesExamined += int64(result.GetEdgesExamined())
}

// StrategySummary is one strategy's aggregate, shaped for the API layer.
type StrategySummary struct {
	Strategy      string  `json:"strategy"`
	Queries       int64   `json:"queries"`
	NoRoute       int64   `json:"no_route"`
	NodesExplored int64   `json:"nodes_explored"`
	EdgesExamined int64   `json:"edges_examined"`
	AvgExplored   float64 `json:"avg_explored"`
}

// Snapshot returns the aggregates ordered by strategy name.
func (qm *QueryMetrics) Snapshot() []StrategySummary {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	summaries := make([]StrategySummary, 0, len(qm.stats))
	for strategy, st := range qm.stats {
		avg := 0.0
		if st.queries > 0 {
			avg = float64(st.nodesExplored) / float64(st.queries)
		}
		summaries = append(summaries, StrategySummary{
			Strategy:      strategy,
			Queries:       st.queries,
			NoRoute:       st.noRoute,
			NodesExplored: st.nodesExplored,
			EdgesExamined: st.edgesExamined,
			AvgExplored:   avg,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Strategy < summaries[j].Strategy
	})
	return summaries
}

func (qm *QueryMetrics) WriteToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	summaries := qm.Snapshot()
	fmt.Fprintf(w, "%d\n", len(summaries))
	for _, s := range summaries {
		_, err := fmt.Fprintf(w, "%s %d %d %d %d\n", s.Strategy, s.Queries, s.NoRoute,
			s.NodesExplored, s.EdgesExamined)
		if err != nil {
			return err
		}
	}

	return nil
}

func ReadFromFile(filename string) (*QueryMetrics, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := util.ReadLine(r)
	if err != nil {
		return nil, err
	}

	numStrategies := 0
	if _, err := fmt.Sscanf(line, "%d", &numStrategies); err != nil {
		return nil, err
	}

	qm := NewQueryMetrics()
	for i := 0; i < numStrategies; i++ {
		line, err = util.ReadLine(r)
		if err != nil {
			return nil, err
		}
		parts := fields(line)
		if len(parts) != 5 {
			return nil, fmt.Errorf("invalid format")
		}

		st := &strategyStats{}
		if _, err := fmt.Sscanf(parts[1], "%d", &st.queries); err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(parts[2], "%d", &st.noRoute); err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(parts[3], "%d", &st.nodesExplored); err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(parts[4], "%d", &st.edgesExamined); err != nil {
			return nil, err
		}
		qm.stats[parts[0]] = st
	}

	return qm, nil
}

func fields(s string) []string {
	return strings.Fields(s)
}
