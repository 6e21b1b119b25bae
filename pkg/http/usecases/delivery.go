package usecases

import (
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/dataset"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/dispatch"
	"github.com/lintang-b-s/courierx/pkg/engine/planner"
	"github.com/lintang-b-s/courierx/pkg/engine/ranking"
	"go.uber.org/zap"
)

// DeliveryService fronts the three decision engines for the API layer.
type DeliveryService struct {
	log        *zap.Logger
	ranker     RestaurantRanker
	dispatcher DriverDispatcher
	planner    RoutePlanner
	users      []dataset.User
}

func NewDeliveryService(log *zap.Logger, ranker RestaurantRanker,
	dispatcher DriverDispatcher, routePlanner RoutePlanner, users []dataset.User) *DeliveryService {
	return &DeliveryService{
		log:        log,
		ranker:     ranker,
		dispatcher: dispatcher,
		planner:    routePlanner,
		users:      users,
	}
}

func (ds *DeliveryService) RankRestaurants(userLat, userLon float64, preferredCuisine []string,
	topK int) (datastructure.Index, []ranking.RankedRestaurant, error) {
	return ds.ranker.Rank(userLat, userLon, preferredCuisine, topK)
}

func (ds *DeliveryService) AssignDriver(restaurantLat, restaurantLon float64,
	orderSize pkg.OrderSize, numBackups int) (dispatch.Assignment, error) {
	return ds.dispatcher.Assign(restaurantLat, restaurantLon, orderSize, numBackups)
}

func (ds *DeliveryService) PlanDelivery(driverLat, driverLon, restaurantLat, restaurantLon,
	userLat, userLon float64, vehicle pkg.VehicleType) (planner.DeliveryPlan, error) {
	return ds.planner.Plan(driverLat, driverLon, restaurantLat, restaurantLon, userLat, userLon, vehicle)
}

// Users returns the demo user roster loaded at startup.
func (ds *DeliveryService) Users() []dataset.User {
	return ds.users
}
