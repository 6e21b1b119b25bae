package main

import (
	"flag"
	"math"
	"runtime"

	"net/http"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/concurrent"
	"github.com/lintang-b-s/courierx/pkg/dataset"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine"
	log "github.com/lintang-b-s/courierx/pkg/logger"
	"github.com/lintang-b-s/courierx/pkg/util"
	"golang.org/x/exp/rand"

	_ "net/http/pprof"
)

// Fires random query pairs at the engine and cross-checks the strategies:
// the geodesic bound never overestimates, so the heuristic search has to
// land on the same cost the weighted search finds. A mismatch means the
// heuristic cut a corner it was not allowed to cut.

var (
	roadsPath   = flag.String("roads", "./data/roads.json", "road network dataset")
	numQueries  = flag.Int("n", 10000, "number of random query pairs")
	seed        = flag.Uint64("seed", 42, "random source seed")
	vehicle     = flag.String("vehicle", "boda", "vehicle profile for weighted searches")
	metricsFile = flag.String("metrics", "./data/metrics.txt", "query metrics output")
)

const relTolerance = 1e-6

func main() {
	flag.Parse()
	logger, err := log.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	util.SetPolicyDefaults()

	graph, err := dataset.LoadRoadGraph(*roadsPath, logger)
	if err != nil {
		panic(err)
	}
	re, err := engine.NewEngine(graph, logger)
	if err != nil {
		panic(err)
	}

	vt := pkg.GetVehicleType(*vehicle)
	if vt == pkg.VEHICLE_UNKNOWN {
		logger.Sugar().Fatalf("unknown vehicle type %q", *vehicle)
	}

	nodes := make([]da.Index, 0, graph.NumberOfNodes())
	graph.ForEachNode(func(n *da.Node) {
		nodes = append(nodes, n.GetID())
	})

	type qParam struct {
		row int
		s   da.Index
		t   da.Index
	}
	type qResult struct {
		mismatch         bool
		noRoute          bool
		weightedExplored int
		astarExplored    int
	}

	rng := rand.New(rand.NewSource(*seed))
	queries := make([]qParam, 0, *numQueries)
	for i := 0; i < *numQueries; i++ {
		queries = append(queries, qParam{
			row: i,
			s:   nodes[rng.Intn(len(nodes))],
			t:   nodes[rng.Intn(len(nodes))],
		})
	}

	go func() {
		http.ListenAndServe("localhost:6060", nil)
	}()

	checkQuery := func(p qParam) qResult {
		weighted, err := re.WeightedPath(p.s, p.t, vt, nil)
		if err != nil {
			panic(err)
		}
		heuristic, err := re.HeuristicPath(p.s, p.t, vt, nil)
		if err != nil {
			panic(err)
		}

		if (p.row+1)%1000 == 0 {
			logger.Sugar().Infof("done query %v", p.row+1)
		}

		res := qResult{
			weightedExplored: weighted.NodesExplored(),
			astarExplored:    heuristic.NodesExplored(),
		}
		if weighted.Found() != heuristic.Found() {
			res.mismatch = true
			return res
		}
		if !weighted.Found() {
			res.noRoute = true
			return res
		}
		diff := math.Abs(weighted.GetCost() - heuristic.GetCost())
		if diff > relTolerance*math.Max(1.0, weighted.GetCost()) {
			res.mismatch = true
			logger.Sugar().Errorf("cost mismatch %d -> %d: weighted %f, heuristic %f",
				p.s, p.t, weighted.GetCost(), heuristic.GetCost())
		}
		return res
	}

	workers := concurrent.NewWorkerPool[qParam, qResult](runtime.NumCPU(), len(queries))
	for _, q := range queries {
		workers.AddJob(q)
	}
	workers.Close()
	workers.Start(checkQuery)
	workers.Wait()

	mismatches := 0
	noRoute := 0
	var weightedExplored, astarExplored int64
	for r := range workers.CollectResults() {
		if r.mismatch {
			mismatches++
		}
		if r.noRoute {
			noRoute++
		}
		weightedExplored += int64(r.weightedExplored)
		astarExplored += int64(r.astarExplored)
	}

	if err := re.GetQueryMetrics().WriteToFile(*metricsFile); err != nil {
		logger.Sugar().Errorf("writing metrics: %v", err)
	}

	logger.Sugar().Infof("checked %d query pairs: %d mismatches, %d unreachable", len(queries), mismatches, noRoute)
	logger.Sugar().Infof("nodes explored, weighted %d vs heuristic %d (%.1f%% saved)",
		weightedExplored, astarExplored,
		100*(1-float64(astarExplored)/math.Max(1, float64(weightedExplored))))
	if mismatches > 0 {
		logger.Sugar().Fatalf("%d of %d queries disagreed on cost", mismatches, len(queries))
	}
}
