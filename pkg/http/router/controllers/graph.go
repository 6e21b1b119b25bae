package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/courierx/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type graphAPI struct {
	baseHandler
	graphService GraphService
	hub          *Hub
}

func NewGraphAPI(graphService GraphService, hub *Hub, log *zap.Logger) *graphAPI {
	return &graphAPI{
		baseHandler:  baseHandler{log: log},
		graphService: graphService,
		hub:          hub,
	}
}

func (api *graphAPI) Routes(group *helper.RouteGroup) {
	group.GET("/graph/info", api.graphInfo)
	group.POST("/graph/closure", api.closeRoad)
	group.DELETE("/graph/closure", api.reopenRoad)
}

func (api *graphAPI) graphInfo(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewGraphInfoResponse(api.graphService.GetGraph())}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *graphAPI) parseClosureRequest(w http.ResponseWriter, r *http.Request) (closureRequest, bool) {
	var request closureRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return request, false
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return request, false
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return request, false
	}
	if *request.From == *request.To {
		api.BadRequestResponse(w, r, errors.New("from and to must name two different nodes"))
		return request, false
	}
	return request, true
}

func (api *graphAPI) closeRoad(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, ok := api.parseClosureRequest(w, r)
	if !ok {
		return
	}

	edge, version, err := api.graphService.CloseRoad(*request.From, *request.To)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	event := NewClosureResponse("closed", *request.From, edge, version)
	api.hub.Broadcast(event)

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": event}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *graphAPI) reopenRoad(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, ok := api.parseClosureRequest(w, r)
	if !ok {
		return
	}

	edge, version, err := api.graphService.ReopenRoad(*request.From, *request.To)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	event := NewClosureResponse("reopened", *request.From, edge, version)
	api.hub.Broadcast(event)

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": event}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
