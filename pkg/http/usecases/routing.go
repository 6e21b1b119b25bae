package usecases

import (
	"errors"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/guidance"
	"github.com/lintang-b-s/courierx/pkg/util"
	"go.uber.org/zap"
)

var errRouteNotFound = errors.New("no route between snapped nodes")

// RoutingService turns raw coordinate pairs into routes. Every request snaps
// both endpoints to graph nodes first, then runs one of the search strategies
// and decorates the result with a polyline and turn instructions.
type RoutingService struct {
	log    *zap.Logger
	engine RouteEngine
}

func NewRoutingService(log *zap.Logger, engine RouteEngine) *RoutingService {
	return &RoutingService{
		log:    log,
		engine: engine,
	}
}

func (rs *RoutingService) ShortestRoute(origLat, origLon, dstLat, dstLon float64) (
	datastructure.PathResult, string, []guidance.Instruction, error) {
	source, target, err := rs.snapEndpoints(origLat, origLon, dstLat, dstLon)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}

	result, err := rs.engine.ShortestPath(source, target)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}
	if !result.Found() {
		return datastructure.PathResult{}, "", nil, util.WrapErrorf(errRouteNotFound, util.ErrNotFound,
			"no route from %f,%f to %f,%f", origLat, origLon, dstLat, dstLon)
	}

	polyline, instructions, err := rs.describe(result)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}
	return result, polyline, instructions, nil
}

func (rs *RoutingService) WeightedRoute(origLat, origLon, dstLat, dstLon float64,
	vehicle pkg.VehicleType, traffic *costfunction.TrafficSnapshot) (
	datastructure.PathResult, string, []guidance.Instruction, error) {
	source, target, err := rs.snapEndpoints(origLat, origLon, dstLat, dstLon)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}

	result, err := rs.engine.WeightedPath(source, target, vehicle, traffic)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}
	if !result.Found() {
		return datastructure.PathResult{}, "", nil, util.WrapErrorf(errRouteNotFound, util.ErrNotFound,
			"no route from %f,%f to %f,%f", origLat, origLon, dstLat, dstLon)
	}

	polyline, instructions, err := rs.describe(result)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}
	return result, polyline, instructions, nil
}

func (rs *RoutingService) HeuristicRoute(origLat, origLon, dstLat, dstLon float64,
	vehicle pkg.VehicleType, traffic *costfunction.TrafficSnapshot) (
	datastructure.PathResult, string, []guidance.Instruction, error) {
	source, target, err := rs.snapEndpoints(origLat, origLon, dstLat, dstLon)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}

	result, err := rs.engine.HeuristicPath(source, target, vehicle, traffic)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}
	if !result.Found() {
		return datastructure.PathResult{}, "", nil, util.WrapErrorf(errRouteNotFound, util.ErrNotFound,
			"no route from %f,%f to %f,%f", origLat, origLon, dstLat, dstLon)
	}

	polyline, instructions, err := rs.describe(result)
	if err != nil {
		return datastructure.PathResult{}, "", nil, err
	}
	return result, polyline, instructions, nil
}

// AlternativeRouteSearch returns up to k distinct routes plus one encoded
// polyline per route, index aligned with the routes slice. Zero delivered
// routes is reported as not found rather than an empty set.
func (rs *RoutingService) AlternativeRouteSearch(origLat, origLon, dstLat, dstLon float64,
	k int, vehicle pkg.VehicleType) (routing.AlternativeRoutes, []string, error) {
	source, target, err := rs.snapEndpoints(origLat, origLon, dstLat, dstLon)
	if err != nil {
		return routing.AlternativeRoutes{}, nil, err
	}

	alternatives, err := rs.engine.AlternativePaths(source, target, k, vehicle)
	if err != nil {
		return routing.AlternativeRoutes{}, nil, err
	}
	if alternatives.GetDelivered() == 0 {
		return routing.AlternativeRoutes{}, nil, util.WrapErrorf(errRouteNotFound, util.ErrNotFound,
			"no route from %f,%f to %f,%f", origLat, origLon, dstLat, dstLon)
	}

	polylines := make([]string, 0, alternatives.GetDelivered())
	for _, route := range alternatives.GetRoutes() {
		polyline, err := rs.polylineOf(route.GetRoute())
		if err != nil {
			return routing.AlternativeRoutes{}, nil, err
		}
		polylines = append(polylines, polyline)
	}
	return alternatives, polylines, nil
}

func (rs *RoutingService) snapEndpoints(origLat, origLon, dstLat, dstLon float64) (
	datastructure.Index, datastructure.Index, error) {
	source, err := rs.engine.SnapToNearestNode(origLat, origLon)
	if err != nil {
		return 0, 0, err
	}
	target, err := rs.engine.SnapToNearestNode(dstLat, dstLon)
	if err != nil {
		return 0, 0, err
	}
	return source, target, nil
}

func (rs *RoutingService) describe(result datastructure.PathResult) (string, []guidance.Instruction, error) {
	polyline, err := rs.polylineOf(result.GetRoute())
	if err != nil {
		return "", nil, err
	}
	instructions, err := guidance.NewInstructionBuilder(rs.engine.GetGraph()).
		BuildInstructions(result.GetRoute())
	if err != nil {
		return "", nil, err
	}
	return polyline, instructions, nil
}

func (rs *RoutingService) polylineOf(route []datastructure.Index) (string, error) {
	coords := make([]geo.Coordinate, 0, len(route))
	for _, id := range route {
		node, err := rs.engine.GetGraph().GetNode(id)
		if err != nil {
			return "", err
		}
		coords = append(coords, node.ToCoordinate())
	}
	return geo.PolylineFromCoords(coords), nil
}
