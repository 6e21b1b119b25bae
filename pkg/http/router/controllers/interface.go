package controllers

import (
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	"github.com/lintang-b-s/courierx/pkg/dataset"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/dispatch"
	"github.com/lintang-b-s/courierx/pkg/engine/planner"
	"github.com/lintang-b-s/courierx/pkg/engine/ranking"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
	"github.com/lintang-b-s/courierx/pkg/guidance"
)

type RoutingService interface {
	ShortestRoute(origLat, origLon, dstLat, dstLon float64) (datastructure.PathResult, string, []guidance.Instruction, error)
	WeightedRoute(origLat, origLon, dstLat, dstLon float64, vehicle pkg.VehicleType,
		traffic *costfunction.TrafficSnapshot) (datastructure.PathResult, string, []guidance.Instruction, error)
	HeuristicRoute(origLat, origLon, dstLat, dstLon float64, vehicle pkg.VehicleType,
		traffic *costfunction.TrafficSnapshot) (datastructure.PathResult, string, []guidance.Instruction, error)
	AlternativeRouteSearch(origLat, origLon, dstLat, dstLon float64, k int,
		vehicle pkg.VehicleType) (routing.AlternativeRoutes, []string, error)
}

type DeliveryService interface {
	RankRestaurants(userLat, userLon float64, preferredCuisine []string,
		topK int) (datastructure.Index, []ranking.RankedRestaurant, error)
	AssignDriver(restaurantLat, restaurantLon float64, orderSize pkg.OrderSize,
		numBackups int) (dispatch.Assignment, error)
	PlanDelivery(driverLat, driverLon, restaurantLat, restaurantLon, userLat, userLon float64,
		vehicle pkg.VehicleType) (planner.DeliveryPlan, error)
	Users() []dataset.User
}

type GraphService interface {
	GetGraph() *datastructure.RoadGraph
	CloseRoad(from, to datastructure.Index) (datastructure.OutEdge, uint64, error)
	ReopenRoad(from, to datastructure.Index) (datastructure.OutEdge, uint64, error)
}
