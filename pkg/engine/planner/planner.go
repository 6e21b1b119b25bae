package planner

import (
	"fmt"
	"math"
	"strings"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine/routing"
	"github.com/lintang-b-s/courierx/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// costAgreement is the tolerance under which two strategies are judged to
// have found routes of the same quality.
const costAgreement = 0.01

// Router is the slice of the routing engine the planner composes routes
// from. All strategies run against the same graph snapshot per call.
type Router interface {
	SnapToNearestNode(lat, lon float64) (da.Index, error)
	ShortestPath(source, target da.Index) (da.PathResult, error)
	WeightedPath(source, target da.Index, vehicle pkg.VehicleType,
		traffic *costfunction.TrafficSnapshot) (da.PathResult, error)
	HeuristicPath(source, target da.Index, vehicle pkg.VehicleType,
		traffic *costfunction.TrafficSnapshot) (da.PathResult, error)
	AlternativePaths(source, target da.Index, k int,
		vehicle pkg.VehicleType) (routing.AlternativeRoutes, error)
}

type Policy struct {
	penaltyRatioThreshold float64
	alternativesK         int
}

func PolicyFromConfig() Policy {
	return Policy{
		penaltyRatioThreshold: viper.GetFloat64("PLANNER_PENALTY_RATIO_THRESHOLD"),
		alternativesK:         viper.GetInt("PLANNER_ALTERNATIVES_K"),
	}
}

// RouteCandidate is one strategy's answer for a segment.
type RouteCandidate struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Route       []da.Index `json:"path"`
	DistanceKm  float64    `json:"distance_km"`
	Cost        float64    `json:"cost"`
	// PenaltyRatio is cost over distance, how much traffic, road quality
	// and the vehicle inflate this route beyond its raw kilometers.
	PenaltyRatio float64 `json:"penalty_ratio,omitempty"`
	Explored     int     `json:"nodes_explored"`
}

// Segment is one leg of the delivery with every strategy's answer, the
// selected one and the alternatives.
type Segment struct {
	Name         string           `json:"name"`
	StartNode    da.Index         `json:"start_node"`
	EndNode      da.Index         `json:"end_node"`
	Candidates   []RouteCandidate `json:"algorithms"`
	Selected     RouteCandidate   `json:"selected"`
	Alternatives []RouteCandidate `json:"alternatives"`
}

// DeliveryPlan is the full driver to restaurant to customer composition.
type DeliveryPlan struct {
	Pickup        Segment `json:"pickup"`
	Delivery      Segment `json:"delivery"`
	TotalDistance float64 `json:"total_distance"`
	TotalNodes    int     `json:"total_nodes"`
	VehicleType   string  `json:"vehicle_type"`
	Explanation   string  `json:"explanation"`
}

// Planner composes delivery routes by racing the routing strategies per
// segment and keeping the one the selection rules favor.
type Planner struct {
	router Router
	policy Policy
	logger *zap.Logger
}

func NewPlanner(router Router, policy Policy, logger *zap.Logger) *Planner {
	return &Planner{
		router: router,
		policy: policy,
		logger: logger,
	}
}

// Plan builds the two delivery legs for the given vehicle. Every strategy
// runs on both legs; the weighted route wins a leg when its penalty ratio
// says plain distance misjudges the real conditions, otherwise the
// goal-directed search wins when it matched the weighted cost with less
// exploration, otherwise the distance baseline stands. A leg without any
// route fails the whole plan.
func (p *Planner) Plan(driverLat, driverLon, restaurantLat, restaurantLon,
	userLat, userLon float64, vehicle pkg.VehicleType) (DeliveryPlan, error) {
	driverNode, err := p.router.SnapToNearestNode(driverLat, driverLon)
	if err != nil {
		return DeliveryPlan{}, err
	}
	restaurantNode, err := p.router.SnapToNearestNode(restaurantLat, restaurantLon)
	if err != nil {
		return DeliveryPlan{}, err
	}
	userNode, err := p.router.SnapToNearestNode(userLat, userLon)
	if err != nil {
		return DeliveryPlan{}, err
	}

	pickup, err := p.planSegment("pickup", driverNode, restaurantNode, vehicle)
	if err != nil {
		return DeliveryPlan{}, err
	}
	delivery, err := p.planSegment("delivery", restaurantNode, userNode, vehicle)
	if err != nil {
		return DeliveryPlan{}, err
	}

	plan := DeliveryPlan{
		Pickup:        pickup,
		Delivery:      delivery,
		TotalDistance: pickup.Selected.DistanceKm + delivery.Selected.DistanceKm,
		TotalNodes:    len(pickup.Selected.Route) + len(delivery.Selected.Route) - 1,
		VehicleType:   vehicle.String(),
	}
	plan.Explanation = p.explain(&plan)

	p.logger.Debug("delivery plan composed",
		zap.String("vehicle", plan.VehicleType),
		zap.String("pickup_strategy", pickup.Selected.Name),
		zap.String("delivery_strategy", delivery.Selected.Name),
		zap.Float64("total_distance", plan.TotalDistance))
	return plan, nil
}

func (p *Planner) planSegment(name string, source, target da.Index,
	vehicle pkg.VehicleType) (Segment, error) {
	shortest, err := p.router.ShortestPath(source, target)
	if err != nil {
		return Segment{}, err
	}
	if !shortest.Found() {
		return Segment{}, util.WrapErrorf(nil, util.ErrNotFound,
			"planner: no route from node %d to node %d", source, target)
	}
	weighted, err := p.router.WeightedPath(source, target, vehicle, nil)
	if err != nil {
		return Segment{}, err
	}
	if !weighted.Found() {
		// the vehicle cannot pass roads the distance baseline can
		return Segment{}, util.WrapErrorf(nil, util.ErrNotFound,
			"planner: no route from node %d to node %d for %s", source, target, vehicle.String())
	}
	heuristic, err := p.router.HeuristicPath(source, target, vehicle, nil)
	if err != nil {
		return Segment{}, err
	}

	shortestCand := RouteCandidate{
		Name:        "Standard Dijkstra",
		Description: "Shortest path by distance only",
		Route:       shortest.GetRoute(),
		DistanceKm:  shortest.GetDist(),
		Cost:        shortest.GetCost(),
		Explored:    shortest.NodesExplored(),
	}
	weightedCand := RouteCandidate{
		Name:         "Weighted Dijkstra",
		Description:  "Traffic, road quality and vehicle aware",
		Route:        weighted.GetRoute(),
		DistanceKm:   weighted.GetDist(),
		Cost:         weighted.GetCost(),
		PenaltyRatio: penaltyRatio(weighted),
		Explored:     weighted.NodesExplored(),
	}
	heuristicCand := RouteCandidate{
		Name:        "A* Search",
		Description: "Heuristic-guided pathfinding",
		Route:       heuristic.GetRoute(),
		DistanceKm:  heuristic.GetDist(),
		Cost:        heuristic.GetCost(),
		Explored:    heuristic.NodesExplored(),
	}

	selected := shortestCand
	switch {
	case weightedCand.PenaltyRatio > p.policy.penaltyRatioThreshold:
		selected = weightedCand
	case math.Abs(weightedCand.Cost-heuristicCand.Cost) < costAgreement &&
		heuristicCand.Explored < weightedCand.Explored:
		selected = heuristicCand
	}

	alternatives, err := p.router.AlternativePaths(source, target, p.policy.alternativesK, vehicle)
	if err != nil {
		return Segment{}, err
	}
	altCands := make([]RouteCandidate, 0, alternatives.GetDelivered())
	for i, route := range alternatives.GetRoutes() {
		altCands = append(altCands, RouteCandidate{
			Name:       fmt.Sprintf("Alternative %d", i+1),
			Route:      route.GetRoute(),
			DistanceKm: route.GetDist(),
			Cost:       route.GetCost(),
			Explored:   route.NodesExplored(),
		})
	}

	return Segment{
		Name:         name,
		StartNode:    source,
		EndNode:      target,
		Candidates:   []RouteCandidate{shortestCand, weightedCand, heuristicCand},
		Selected:     selected,
		Alternatives: altCands,
	}, nil
}

// penaltyRatio reports how far the composite cost drifts from raw
// kilometers. A zero length route carries no penalty.
func penaltyRatio(result da.PathResult) float64 {
	if result.GetDist() == 0 {
		return 1.0
	}
	return result.GetCost() / result.GetDist()
}

func (p *Planner) explain(plan *DeliveryPlan) string {
	var b strings.Builder

	b.WriteString("=== OPTIMAL ROUTE ANALYSIS ===\n\n")

	b.WriteString("PICKUP ROUTE (Driver → Restaurant):\n")
	writeLeg(&b, &plan.Pickup.Selected)
	b.WriteString("\nDELIVERY ROUTE (Restaurant → Customer):\n")
	writeLeg(&b, &plan.Delivery.Selected)

	fmt.Fprintf(&b, "\nTOTAL JOURNEY: %.3fkm", plan.TotalDistance)

	if len(plan.Pickup.Alternatives) > 1 {
		alt := plan.Pickup.Alternatives[1]
		fmt.Fprintf(&b, "\nAlternative pickup route available: %.3fkm (+%.3fkm)",
			alt.DistanceKm, alt.DistanceKm-plan.Pickup.Selected.DistanceKm)
	}
	if len(plan.Delivery.Alternatives) > 1 {
		alt := plan.Delivery.Alternatives[1]
		fmt.Fprintf(&b, "\nAlternative delivery route available: %.3fkm (+%.3fkm)",
			alt.DistanceKm, alt.DistanceKm-plan.Delivery.Selected.DistanceKm)
	}

	return b.String()
}

func writeLeg(b *strings.Builder, leg *RouteCandidate) {
	fmt.Fprintf(b, "  Algorithm: %s\n", leg.Name)
	fmt.Fprintf(b, "  Distance: %.3fkm\n", leg.DistanceKm)
	fmt.Fprintf(b, "  Nodes: %d\n", len(leg.Route))
	fmt.Fprintf(b, "  Path: %s\n", joinRoute(leg.Route))
}

func joinRoute(route []da.Index) string {
	parts := make([]string, len(route))
	for i, id := range route {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " → ")
}
