package usecases

import (
	"sync"

	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
	"go.uber.org/zap"
)

// savedEdge keeps the attributes of a closed road so reopening restores the
// exact segment that was removed.
type savedEdge struct {
	dist     float64
	traffic  float64
	quality  float64
	roadName string
}

// GraphService owns road closures. It is the only mutation path of the
// running server, so its mutex is what keeps the lookup-then-remove and
// lookup-then-restore pairs atomic with respect to each other.
type GraphService struct {
	engine RouteEngine
	log    *zap.Logger

	mu     sync.Mutex
	closed map[[2]datastructure.Index]savedEdge
}

func NewGraphService(engine RouteEngine, log *zap.Logger) *GraphService {
	return &GraphService{
		engine: engine,
		log:    log,
		closed: make(map[[2]datastructure.Index]savedEdge),
	}
}

func (gs *GraphService) GetGraph() *datastructure.RoadGraph {
	return gs.engine.GetGraph()
}

// closureKey normalizes the endpoint order, a road closed as (a,b) must be
// reopenable as (b,a).
func closureKey(from, to datastructure.Index) [2]datastructure.Index {
	if from > to {
		from, to = to, from
	}
	return [2]datastructure.Index{from, to}
}

// CloseRoad removes the segment and remembers its attributes so ReopenRoad
// can put back exactly what was taken out.
func (gs *GraphService) CloseRoad(from, to datastructure.Index) (datastructure.OutEdge, uint64, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	edge, ok, err := gs.engine.GetGraph().EdgeBetween(from, to)
	if err != nil {
		return datastructure.OutEdge{}, 0, err
	}
	if !ok {
		return datastructure.OutEdge{}, 0, util.WrapErrorf(nil, util.ErrNotFound,
			"closure: no road between %d and %d", from, to)
	}

	saved := savedEdge{
		dist:     edge.GetDist(),
		traffic:  edge.GetTraffic(),
		quality:  edge.GetQuality(),
		roadName: edge.GetRoadName(),
	}
	// copy before RemoveEdge, the pointer aims into an adjacency slice that
	// the removal is about to rewrite
	snapshot := *edge

	if _, err := gs.engine.RemoveEdge(from, to); err != nil {
		return datastructure.OutEdge{}, 0, err
	}
	gs.closed[closureKey(from, to)] = saved

	gs.log.Info("road closed",
		zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)),
		zap.String("road", saved.roadName))
	return snapshot, gs.engine.GetGraph().Version(), nil
}

// ReopenRoad restores a previously closed segment with its saved attributes.
func (gs *GraphService) ReopenRoad(from, to datastructure.Index) (datastructure.OutEdge, uint64, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	key := closureKey(from, to)
	saved, ok := gs.closed[key]
	if !ok {
		return datastructure.OutEdge{}, 0, util.WrapErrorf(nil, util.ErrNotFound,
			"closure: road between %d and %d is not closed", from, to)
	}

	if err := gs.engine.AddEdge(from, to, saved.dist, saved.traffic, saved.quality, saved.roadName); err != nil {
		return datastructure.OutEdge{}, 0, err
	}
	delete(gs.closed, key)

	edge, ok, err := gs.engine.GetGraph().EdgeBetween(from, to)
	if err != nil {
		return datastructure.OutEdge{}, 0, err
	}
	if !ok {
		return datastructure.OutEdge{}, 0, util.WrapErrorf(nil, util.ErrInternalServerError,
			"closure: road %d-%d missing right after reopen", from, to)
	}

	gs.log.Info("road reopened",
		zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)),
		zap.String("road", saved.roadName))
	return *edge, gs.engine.GetGraph().Version(), nil
}
