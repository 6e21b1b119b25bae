package usecases

import (
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/dispatch"
	"github.com/lintang-b-s/courierx/pkg/engine/planner"
	"github.com/lintang-b-s/courierx/pkg/engine/ranking"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
)

type RouteEngine interface {
	GetGraph() *datastructure.RoadGraph
	SnapToNearestNode(lat, lon float64) (datastructure.Index, error)
	ShortestPath(source, target datastructure.Index) (datastructure.PathResult, error)
	WeightedPath(source, target datastructure.Index, vehicle pkg.VehicleType,
		traffic *costfunction.TrafficSnapshot) (datastructure.PathResult, error)
	HeuristicPath(source, target datastructure.Index, vehicle pkg.VehicleType,
		traffic *costfunction.TrafficSnapshot) (datastructure.PathResult, error)
	AlternativePaths(source, target datastructure.Index, k int,
		vehicle pkg.VehicleType) (routing.AlternativeRoutes, error)
	AddEdge(a, b datastructure.Index, dist, traffic, quality float64, roadName string) error
	RemoveEdge(a, b datastructure.Index) (bool, error)
}

type RestaurantRanker interface {
	Rank(userLat, userLon float64, preferredCuisine []string,
		topK int) (datastructure.Index, []ranking.RankedRestaurant, error)
}

type DriverDispatcher interface {
	Assign(restaurantLat, restaurantLon float64,
		orderSize pkg.OrderSize, numBackups int) (dispatch.Assignment, error)
}

type RoutePlanner interface {
	Plan(driverLat, driverLon, restaurantLat, restaurantLon,
		userLat, userLon float64, vehicle pkg.VehicleType) (planner.DeliveryPlan, error)
}
