package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	helper "github.com/lintang-b-s/courierx/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type routeAPI struct {
	baseHandler
	routingService RoutingService
}

func NewRouteAPI(routingService RoutingService, log *zap.Logger) *routeAPI {
	return &routeAPI{
		baseHandler:    baseHandler{log: log},
		routingService: routingService,
	}
}

func (api *routeAPI) Routes(group *helper.RouteGroup) {
	group.GET("/routes/shortest", api.shortestRoute)
	group.GET("/routes/weighted", api.weightedRoute)
	group.GET("/routes/heuristic", api.heuristicRoute)
	group.GET("/routes/alternatives", api.alternativeRoutes)
}

func (api *routeAPI) parseRouteRequest(w http.ResponseWriter, r *http.Request) (routeRequest, bool) {
	var (
		request routeRequest
		err     error
	)
	query := r.URL.Query()

	request.OriginLat, err = strconv.ParseFloat(query.Get("origin_lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("origin_lat is required and must be a valid float"))
		return request, false
	}
	request.OriginLon, err = strconv.ParseFloat(query.Get("origin_lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("origin_lon is required and must be a valid float"))
		return request, false
	}
	request.DestinationLat, err = strconv.ParseFloat(query.Get("destination_lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("destination_lat is required and must be a valid float"))
		return request, false
	}
	request.DestinationLon, err = strconv.ParseFloat(query.Get("destination_lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("destination_lon is required and must be a valid float"))
		return request, false
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return request, false
	}
	return request, true
}

// parseVehicle reads the vehicle query param, falling back to boda which is
// the fleet default.
func (api *routeAPI) parseVehicle(w http.ResponseWriter, r *http.Request) (pkg.VehicleType, bool) {
	raw := r.URL.Query().Get("vehicle")
	if raw == "" {
		raw = "boda"
	}
	vehicle := pkg.GetVehicleType(raw)
	if vehicle == pkg.VEHICLE_UNKNOWN {
		api.BadRequestResponse(w, r, fmt.Errorf("unknown vehicle type %q", raw))
		return vehicle, false
	}
	return vehicle, true
}

// parseTrafficOverrides reads the optional traffic param, a comma list of
// from-to:multiplier triples, e.g. traffic=3-7:1.8,7-9:2.5.
func parseTrafficOverrides(raw string) (*costfunction.TrafficSnapshot, error) {
	if raw == "" {
		return nil, nil
	}
	snapshot := costfunction.NewTrafficSnapshot()
	for _, part := range strings.Split(raw, ",") {
		seg, multStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("traffic override %q must look like from-to:multiplier", part)
		}
		fromStr, toStr, ok := strings.Cut(seg, "-")
		if !ok {
			return nil, fmt.Errorf("traffic override %q must look like from-to:multiplier", part)
		}
		from, err := strconv.ParseUint(strings.TrimSpace(fromStr), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("traffic override %q has an invalid from node", part)
		}
		to, err := strconv.ParseUint(strings.TrimSpace(toStr), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("traffic override %q has an invalid to node", part)
		}
		mult, err := strconv.ParseFloat(strings.TrimSpace(multStr), 64)
		if err != nil || mult < 1.0 {
			return nil, fmt.Errorf("traffic override %q needs a multiplier >= 1.0", part)
		}
		snapshot.Set(datastructure.Index(from), datastructure.Index(to), mult)
	}
	return snapshot, nil
}

func (api *routeAPI) shortestRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, ok := api.parseRouteRequest(w, r)
	if !ok {
		return
	}

	result, polyline, instructions, err := api.routingService.ShortestRoute(
		request.OriginLat, request.OriginLon, request.DestinationLat, request.DestinationLon)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewRouteResponse("shortest", result, polyline, instructions)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routeAPI) weightedRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, ok := api.parseRouteRequest(w, r)
	if !ok {
		return
	}
	vehicle, ok := api.parseVehicle(w, r)
	if !ok {
		return
	}
	traffic, err := parseTrafficOverrides(r.URL.Query().Get("traffic"))
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	result, polyline, instructions, err := api.routingService.WeightedRoute(
		request.OriginLat, request.OriginLon, request.DestinationLat, request.DestinationLon,
		vehicle, traffic)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewRouteResponse("weighted", result, polyline, instructions)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routeAPI) heuristicRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, ok := api.parseRouteRequest(w, r)
	if !ok {
		return
	}
	vehicle, ok := api.parseVehicle(w, r)
	if !ok {
		return
	}
	traffic, err := parseTrafficOverrides(r.URL.Query().Get("traffic"))
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	result, polyline, instructions, err := api.routingService.HeuristicRoute(
		request.OriginLat, request.OriginLon, request.DestinationLat, request.DestinationLon,
		vehicle, traffic)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewRouteResponse("heuristic", result, polyline, instructions)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routeAPI) alternativeRoutes(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request alternativeRoutesRequest
		err     error
	)
	query := r.URL.Query()

	request.OriginLat, err = strconv.ParseFloat(query.Get("origin_lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("origin_lat is required and must be a valid float"))
		return
	}
	request.OriginLon, err = strconv.ParseFloat(query.Get("origin_lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("origin_lon is required and must be a valid float"))
		return
	}
	request.DestinationLat, err = strconv.ParseFloat(query.Get("destination_lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("destination_lat is required and must be a valid float"))
		return
	}
	request.DestinationLon, err = strconv.ParseFloat(query.Get("destination_lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("destination_lon is required and must be a valid float"))
		return
	}
	request.K, err = strconv.ParseInt(query.Get("k"), 10, 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("number of alternatives k is required and must be a valid int"))
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	vehicle, ok := api.parseVehicle(w, r)
	if !ok {
		return
	}

	alternatives, polylines, err := api.routingService.AlternativeRouteSearch(
		request.OriginLat, request.OriginLon, request.DestinationLat, request.DestinationLon,
		int(request.K), vehicle)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewAlternativeRoutesResponse(alternatives, polylines)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
