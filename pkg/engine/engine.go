package engine

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
	"github.com/lintang-b-s/courierx/pkg/metrics"
	"github.com/lintang-b-s/courierx/pkg/spatialindex"
	"github.com/lintang-b-s/courierx/pkg/util"
	"go.uber.org/zap"
)

// QueryCacheKey identifies one weighted distance computation. The graph
// version is part of the key, so entries written before a mutation can never
// be served after it.
type QueryCacheKey struct {
	source  da.Index
	target  da.Index
	vehicle pkg.VehicleType
	version uint64
}

// Engine is the query facade over the road graph: snapping, the four search
// strategies and the two mutation operations. Queries hold the read side of
// the engine lock for their whole run and mutations hold the write side, so
// a search always sees one consistent graph snapshot. The spatial index is
// built once; node positions never change after construction, only edges do.
type Engine struct {
	mu sync.RWMutex

	graph     *da.RoadGraph
	snapIndex *spatialindex.Rtree
	profiles  map[pkg.VehicleType]*costfunction.VehicleProfile

	distCache    *lru.Cache[QueryCacheKey, float64]
	queryMetrics *metrics.QueryMetrics

	logger *zap.Logger
}

func NewEngine(graph *da.RoadGraph, logger *zap.Logger) (*Engine, error) {
	snapIndex := spatialindex.NewRtree()
	snapIndex.Build(graph, logger)

	distCache, err := lru.New[QueryCacheKey, float64](pkg.DISTANCE_CACHE_SIZE)
	if err != nil {
		return nil, err
	}

	return &Engine{
		graph:     graph,
		snapIndex: snapIndex,
		profiles: map[pkg.VehicleType]*costfunction.VehicleProfile{
			pkg.VEHICLE_BODA:   costfunction.VehicleProfileFromConfig(pkg.VEHICLE_BODA),
			pkg.VEHICLE_BAJAJI: costfunction.VehicleProfileFromConfig(pkg.VEHICLE_BAJAJI),
		},
		distCache:    distCache,
		queryMetrics: metrics.NewQueryMetrics(),
		logger:       logger,
	}, nil
}

func (e *Engine) GetGraph() *da.RoadGraph {
	return e.graph
}

func (e *Engine) GetQueryMetrics() *metrics.QueryMetrics {
	return e.queryMetrics
}

// SnapToNearestNode maps a raw coordinate to the closest graph node.
func (e *Engine) SnapToNearestNode(lat, lon float64) (da.Index, error) {
	return e.snapIndex.SnapToNearestNode(lat, lon)
}

// ShortestPath minimizes plain road distance.
func (e *Engine) ShortestPath(source, target da.Index) (da.PathResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result, err := routing.NewDijkstra(e.graph, costfunction.NewDistanceCostFunction()).
		Search(source, target)
	if err != nil {
		return da.PathResult{}, err
	}
	e.queryMetrics.Observe(metrics.STRATEGY_SHORTEST, result)
	return result, nil
}

// ShortestDistance is the cacheable fast path for callers that only need
// road kilometers, the ranking engine hammers this for every candidate.
// Cache entries share the weighted cache, keyed under VEHICLE_UNKNOWN which
// no weighted query can produce. Unreachable pairs return +Inf, not an error.
func (e *Engine) ShortestDistance(source, target da.Index) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	key := QueryCacheKey{source: source, target: target, vehicle: pkg.VEHICLE_UNKNOWN, version: e.graph.Version()}
	if dist, ok := e.distCache.Get(key); ok {
		return dist, nil
	}

	result, err := routing.NewDijkstra(e.graph, costfunction.NewDistanceCostFunction()).
		Search(source, target)
	if err != nil {
		return 0, err
	}
	e.queryMetrics.Observe(metrics.STRATEGY_SHORTEST, result)

	dist := math.Inf(1)
	if result.Found() {
		dist = result.GetDist()
	}
	e.distCache.Add(key, dist)
	return dist, nil
}

// WeightedPath minimizes the composite cost for the given vehicle, with
// optional per-request traffic overrides that never touch stored edges.
func (e *Engine) WeightedPath(source, target da.Index, vehicle pkg.VehicleType,
	traffic *costfunction.TrafficSnapshot) (da.PathResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	profile, err := e.profileOf(vehicle)
	if err != nil {
		return da.PathResult{}, err
	}

	result, err := routing.NewDijkstra(e.graph, costfunction.NewCompositeCostFunction(profile, traffic)).
		Search(source, target)
	if err != nil {
		return da.PathResult{}, err
	}
	e.queryMetrics.Observe(metrics.STRATEGY_WEIGHTED, result)
	return result, nil
}

// WeightedDistance is the cacheable fast path for callers that only need the
// composite cost. Entries are keyed by graph version; traffic overrides are
// request scoped, so overridden queries must go through WeightedPath instead.
func (e *Engine) WeightedDistance(source, target da.Index, vehicle pkg.VehicleType) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	key := QueryCacheKey{source: source, target: target, vehicle: vehicle, version: e.graph.Version()}
	if cost, ok := e.distCache.Get(key); ok {
		return cost, nil
	}

	profile, err := e.profileOf(vehicle)
	if err != nil {
		return 0, err
	}
	result, err := routing.NewDijkstra(e.graph, costfunction.NewCompositeCostFunction(profile, nil)).
		Search(source, target)
	if err != nil {
		return 0, err
	}
	e.queryMetrics.Observe(metrics.STRATEGY_WEIGHTED, result)

	e.distCache.Add(key, result.GetCost())
	return result.GetCost(), nil
}

// HeuristicPath runs the goal-directed search under the same composite
// metric as WeightedPath, traffic overrides included. Costs of the two must
// agree; only the amount of exploration differs. The heuristic scale is
// derived from the override-adjusted cost function, so the bound stays
// admissible for the request's own metric.
func (e *Engine) HeuristicPath(source, target da.Index, vehicle pkg.VehicleType,
	traffic *costfunction.TrafficSnapshot) (da.PathResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	profile, err := e.profileOf(vehicle)
	if err != nil {
		return da.PathResult{}, err
	}

	heuristic := routing.NewAStarHeuristic(e.graph, costfunction.NewCompositeCostFunction(profile, traffic))
	result, err := routing.NewAStar(heuristic).Search(source, target)
	if err != nil {
		return da.PathResult{}, err
	}
	e.queryMetrics.Observe(metrics.STRATEGY_HEURISTIC, result)
	return result, nil
}

// AlternativePaths enumerates up to k pairwise-distinct routes for the given
// vehicle, ordered by non-decreasing composite cost.
func (e *Engine) AlternativePaths(source, target da.Index, k int,
	vehicle pkg.VehicleType) (routing.AlternativeRoutes, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	profile, err := e.profileOf(vehicle)
	if err != nil {
		return routing.AlternativeRoutes{}, err
	}

	alternatives, err := routing.NewAlternativeRouteSearch(e.graph,
		costfunction.NewCompositeCostFunction(profile, nil)).FindAlternativeRoutes(source, target, k)
	if err != nil {
		return routing.AlternativeRoutes{}, err
	}
	for _, route := range alternatives.GetRoutes() {
		e.queryMetrics.Observe(metrics.STRATEGY_ALTERNATIVES, route)
	}
	return alternatives, nil
}

// AddEdge inserts or overwrites the undirected segment and drops every
// cached distance. A stale entry surviving a mutation is a correctness bug,
// not a performance problem.
func (e *Engine) AddEdge(a, b da.Index, dist, traffic, quality float64, roadName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.AddEdge(a, b, dist, traffic, quality, roadName); err != nil {
		return err
	}
	e.distCache.Purge()
	e.logger.Info("edge upserted",
		zap.Uint32("a", uint32(a)), zap.Uint32("b", uint32(b)),
		zap.Float64("dist", dist), zap.Uint64("version", e.graph.Version()))
	return nil
}

// RemoveEdge deletes the undirected segment when present. The cache is only
// purged when the graph actually changed.
func (e *Engine) RemoveEdge(a, b da.Index) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err := e.graph.RemoveEdge(a, b)
	if err != nil {
		return false, err
	}
	if removed {
		e.distCache.Purge()
		e.logger.Info("edge removed",
			zap.Uint32("a", uint32(a)), zap.Uint32("b", uint32(b)),
			zap.Uint64("version", e.graph.Version()))
	}
	return removed, nil
}

func (e *Engine) profileOf(vehicle pkg.VehicleType) (*costfunction.VehicleProfile, error) {
	profile, ok := e.profiles[vehicle]
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"engine: no vehicle profile for %q", vehicle.String())
	}
	return profile, nil
}
