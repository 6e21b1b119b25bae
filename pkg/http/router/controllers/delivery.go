package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/courierx/pkg"
	helper "github.com/lintang-b-s/courierx/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

const (
	defaultTopK       = 5
	defaultNumBackups = 2
)

type deliveryAPI struct {
	baseHandler
	deliveryService DeliveryService
}

func NewDeliveryAPI(deliveryService DeliveryService, log *zap.Logger) *deliveryAPI {
	return &deliveryAPI{
		baseHandler:     baseHandler{log: log},
		deliveryService: deliveryService,
	}
}

func (api *deliveryAPI) Routes(group *helper.RouteGroup) {
	group.POST("/delivery/rank", api.rankRestaurants)
	group.POST("/delivery/assign", api.assignDriver)
	group.POST("/delivery/plan", api.planDelivery)
	group.GET("/delivery/users", api.listUsers)
}

func (api *deliveryAPI) rankRestaurants(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request rankRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	topK := request.TopK
	if topK == 0 {
		topK = defaultTopK
	}

	userNode, restaurants, err := api.deliveryService.RankRestaurants(
		request.UserLat, request.UserLon, request.PreferredCuisine, topK)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewRankResponse(userNode, restaurants)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *deliveryAPI) assignDriver(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request assignRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	numBackups := defaultNumBackups
	if request.NumBackups != nil {
		numBackups = *request.NumBackups
	}

	assignment, err := api.deliveryService.AssignDriver(
		request.RestaurantLat, request.RestaurantLon,
		pkg.GetOrderSize(request.OrderSize), numBackups)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": assignment}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// listUsers serves the user roster of the demo dataset, clients pick a user
// from it to simulate ranking and planning requests.
func (api *deliveryAPI) listUsers(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": api.deliveryService.Users()}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *deliveryAPI) planDelivery(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request planRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	vehicleParam := request.VehicleType
	if vehicleParam == "" {
		vehicleParam = "boda"
	}
	vehicle := pkg.GetVehicleType(vehicleParam)
	if vehicle == pkg.VEHICLE_UNKNOWN {
		api.BadRequestResponse(w, r, fmt.Errorf("unknown vehicle type %q", vehicleParam))
		return
	}

	plan, err := api.deliveryService.PlanDelivery(
		request.DriverLat, request.DriverLon,
		request.RestaurantLat, request.RestaurantLon,
		request.UserLat, request.UserLon, vehicle)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": plan}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
