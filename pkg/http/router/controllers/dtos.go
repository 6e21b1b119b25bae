package controllers

import (
	"sort"

	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/ranking"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
	"github.com/lintang-b-s/courierx/pkg/guidance"
	"github.com/lintang-b-s/courierx/pkg/util"
)

type routeRequest struct {
	OriginLat      float64 `json:"origin_lat" validate:"required,min=-90,max=90"`
	OriginLon      float64 `json:"origin_lon" validate:"required,min=-180,max=180"`
	DestinationLat float64 `json:"destination_lat" validate:"required,min=-90,max=90"`
	DestinationLon float64 `json:"destination_lon" validate:"required,min=-180,max=180"`
}

type alternativeRoutesRequest struct {
	OriginLat      float64 `json:"origin_lat" validate:"required,min=-90,max=90"`
	OriginLon      float64 `json:"origin_lon" validate:"required,min=-180,max=180"`
	DestinationLat float64 `json:"destination_lat" validate:"required,min=-90,max=90"`
	DestinationLon float64 `json:"destination_lon" validate:"required,min=-180,max=180"`
	K              int64   `json:"k" validate:"required,min=1,max=8"`
}

type routeResponse struct {
	Strategy      string                 `json:"strategy"`
	Route         []datastructure.Index  `json:"route"`
	Polyline      string                 `json:"polyline,omitempty"`
	DistanceKm    float64                `json:"distance_km"`
	Cost          float64                `json:"cost"`
	NodesExplored int                    `json:"nodes_explored"`
	Instructions  []guidance.Instruction `json:"instructions,omitempty"`
}

func NewRouteResponse(strategy string, result datastructure.PathResult, polyline string,
	instructions []guidance.Instruction) routeResponse {
	return routeResponse{
		Strategy:      strategy,
		Route:         result.GetRoute(),
		Polyline:      polyline,
		DistanceKm:    util.RoundFloat(result.GetDist(), 3),
		Cost:          util.RoundFloat(result.GetCost(), 3),
		NodesExplored: result.NodesExplored(),
		Instructions:  instructions,
	}
}

type alternativeRoutesResponse struct {
	Requested int             `json:"requested"`
	Delivered int             `json:"delivered"`
	Routes    []routeResponse `json:"routes"`
}

func NewAlternativeRoutesResponse(alternatives routing.AlternativeRoutes,
	polylines []string) alternativeRoutesResponse {
	routes := make([]routeResponse, 0, alternatives.GetDelivered())
	for i, route := range alternatives.GetRoutes() {
		polyline := ""
		if i < len(polylines) {
			polyline = polylines[i]
		}
		routes = append(routes, NewRouteResponse("alternative", route, polyline, nil))
	}
	return alternativeRoutesResponse{
		Requested: alternatives.GetRequested(),
		Delivered: alternatives.GetDelivered(),
		Routes:    routes,
	}
}

type nodeInfo struct {
	ID   datastructure.Index `json:"id"`
	Lat  float64             `json:"lat"`
	Lon  float64             `json:"lon"`
	Name string              `json:"name,omitempty"`
}

type edgeInfo struct {
	From          datastructure.Index `json:"from"`
	To            datastructure.Index `json:"to"`
	DistanceKm    float64             `json:"distance_km"`
	RoadName      string              `json:"road_name,omitempty"`
	TrafficFactor float64             `json:"traffic_factor"`
	Quality       float64             `json:"quality"`
}

type graphInfoResponse struct {
	TotalNodes int        `json:"total_nodes"`
	TotalEdges int        `json:"total_edges"`
	Components int        `json:"components"`
	Version    uint64     `json:"version"`
	Nodes      []nodeInfo `json:"nodes"`
	Edges      []edgeInfo `json:"edges"`
}

// NewGraphInfoResponse dumps the full graph. Each undirected segment is
// stored as two directed entries; only the from < to one is reported.
func NewGraphInfoResponse(g *datastructure.RoadGraph) graphInfoResponse {
	nodes := make([]nodeInfo, 0, g.NumberOfNodes())
	for _, id := range g.NodeIDs() {
		node, err := g.GetNode(id)
		if err != nil {
			continue
		}
		nodes = append(nodes, nodeInfo{
			ID:   node.GetID(),
			Lat:  node.GetLat(),
			Lon:  node.GetLon(),
			Name: node.GetName(),
		})
	}

	edges := make([]edgeInfo, 0, g.NumberOfEdges())
	g.ForEachOutEdge(func(tail datastructure.Index, edge *datastructure.OutEdge) {
		if tail >= edge.GetHead() {
			return
		}
		edges = append(edges, edgeInfo{
			From:          tail,
			To:            edge.GetHead(),
			DistanceKm:    edge.GetDist(),
			RoadName:      edge.GetRoadName(),
			TrafficFactor: edge.GetTraffic(),
			Quality:       edge.GetQuality(),
		})
	})
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	_, components := g.ConnectedComponents()

	return graphInfoResponse{
		TotalNodes: g.NumberOfNodes(),
		TotalEdges: g.NumberOfEdges(),
		Components: components,
		Version:    g.Version(),
		Nodes:      nodes,
		Edges:      edges,
	}
}

type closureRequest struct {
	From *datastructure.Index `json:"from" validate:"required"`
	To   *datastructure.Index `json:"to" validate:"required"`
}

type closureResponse struct {
	Action     string              `json:"action"`
	From       datastructure.Index `json:"from"`
	To         datastructure.Index `json:"to"`
	RoadName   string              `json:"road_name,omitempty"`
	DistanceKm float64             `json:"distance_km"`
	Version    uint64              `json:"version"`
}

func NewClosureResponse(action string, from datastructure.Index,
	edge datastructure.OutEdge, version uint64) closureResponse {
	return closureResponse{
		Action:     action,
		From:       from,
		To:         edge.GetHead(),
		RoadName:   edge.GetRoadName(),
		DistanceKm: edge.GetDist(),
		Version:    version,
	}
}

type rankRequest struct {
	UserLat          float64  `json:"user_lat" validate:"required,min=-90,max=90"`
	UserLon          float64  `json:"user_lon" validate:"required,min=-180,max=180"`
	PreferredCuisine []string `json:"preferred_cuisine"`
	TopK             int      `json:"top_k" validate:"min=0,max=50"`
}

type rankResponse struct {
	UserNode    datastructure.Index        `json:"user_node"`
	Count       int                        `json:"count"`
	Restaurants []ranking.RankedRestaurant `json:"restaurants"`
}

func NewRankResponse(userNode datastructure.Index, restaurants []ranking.RankedRestaurant) rankResponse {
	return rankResponse{
		UserNode:    userNode,
		Count:       len(restaurants),
		Restaurants: restaurants,
	}
}

type assignRequest struct {
	RestaurantLat float64 `json:"restaurant_lat" validate:"required,min=-90,max=90"`
	RestaurantLon float64 `json:"restaurant_lon" validate:"required,min=-180,max=180"`
	OrderSize     string  `json:"order_size"`
	NumBackups    *int    `json:"num_backups" validate:"omitempty,min=0,max=10"`
}

type planRequest struct {
	DriverLat     float64 `json:"driver_lat" validate:"required,min=-90,max=90"`
	DriverLon     float64 `json:"driver_lon" validate:"required,min=-180,max=180"`
	RestaurantLat float64 `json:"restaurant_lat" validate:"required,min=-90,max=90"`
	RestaurantLon float64 `json:"restaurant_lon" validate:"required,min=-180,max=180"`
	UserLat       float64 `json:"user_lat" validate:"required,min=-90,max=90"`
	UserLon       float64 `json:"user_lon" validate:"required,min=-180,max=180"`
	VehicleType   string  `json:"vehicle_type"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
