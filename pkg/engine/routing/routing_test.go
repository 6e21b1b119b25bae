package routing

import (
	"errors"
	"math"
	"testing"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/costfunction"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
)

const testEPS = 1e-9

func eq(a, b float64) bool {
	return math.Abs(a-b) <= testEPS
}

func sameRoute(a, b []da.Index) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildDeliveryGraph builds the canonical four node fixture: a cheap two hop
// corridor 0-1-2 next to a direct but longer segment 0-2, with a spur 2-3.
func buildDeliveryGraph(t *testing.T) *da.RoadGraph {
	t.Helper()
	g := da.NewRoadGraph()

	coords := [][2]float64{
		{-6.1750, 106.8270},
		{-6.1760, 106.8280},
		{-6.1770, 106.8290},
		{-6.1780, 106.8300},
	}
	names := []string{"Pasar Baru", "Juanda", "Gambir", "Monas"}
	for i, c := range coords {
		if err := g.AddNode(da.NewNode(da.Index(i), c[0], c[1], names[i])); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	edges := []struct {
		a, b da.Index
		dist float64
	}{
		{0, 1, 1.0},
		{1, 2, 1.0},
		{0, 2, 3.0},
		{2, 3, 1.0},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.a, e.b, e.dist, 1.0, 1.0, "Jalan Veteran"); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	return g
}

// buildCorridorGraph has three pairwise edge-disjoint corridors from 0 to 5
// with total distances 2.0, 2.4 and 3.0.
func buildCorridorGraph(t *testing.T) *da.RoadGraph {
	t.Helper()
	g := da.NewRoadGraph()

	coords := [][2]float64{
		{-6.1750, 106.8270},
		{-6.1745, 106.8280},
		{-6.1750, 106.8280},
		{-6.1755, 106.8280},
		{-6.1755, 106.8285},
		{-6.1750, 106.8290},
	}
	for i, c := range coords {
		if err := g.AddNode(da.NewNode(da.Index(i), c[0], c[1], "")); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	edges := []struct {
		a, b da.Index
		dist float64
	}{
		{0, 1, 1.0}, {1, 5, 1.0},
		{0, 2, 1.2}, {2, 5, 1.2},
		{0, 3, 1.0}, {3, 4, 1.0}, {4, 5, 1.0},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.a, e.b, e.dist, 1.0, 1.0, ""); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	return g
}

// buildChainGraph is a west-to-east chain 3-4-0-1-2 with the query running
// eastward from node 0, so a goal-directed search has no reason to expand
// the western branch.
func buildChainGraph(t *testing.T) *da.RoadGraph {
	t.Helper()
	g := da.NewRoadGraph()

	coords := [][2]float64{
		{-6.2000, 106.8200},
		{-6.2000, 106.8290},
		{-6.2000, 106.8380},
		{-6.2000, 106.8020},
		{-6.2000, 106.8110},
	}
	for i, c := range coords {
		if err := g.AddNode(da.NewNode(da.Index(i), c[0], c[1], "")); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	edges := [][2]da.Index{{3, 4}, {4, 0}, {0, 1}, {1, 2}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], 1.0, 1.0, 1.0, ""); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	return g
}

// buildRoughRoadGraph has a short direct segment of bad surface quality next
// to a long smooth detour through node 1.
func buildRoughRoadGraph(t *testing.T) *da.RoadGraph {
	t.Helper()
	g := da.NewRoadGraph()

	coords := [][2]float64{
		{-6.1750, 106.8270},
		{-6.1800, 106.8275},
		{-6.1750, 106.8280},
	}
	for i, c := range coords {
		if err := g.AddNode(da.NewNode(da.Index(i), c[0], c[1], "")); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	if err := g.AddEdge(0, 2, 0.2, 1.0, 0.3, "Jalan Tanah"); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := g.AddEdge(0, 1, 1.0, 1.0, 0.9, ""); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := g.AddEdge(1, 2, 1.0, 1.0, 0.9, ""); err != nil {
		t.Fatalf("err: %v", err)
	}
	return g
}

func vehicleProfile(t *testing.T, vehicle pkg.VehicleType) *costfunction.VehicleProfile {
	t.Helper()
	util.SetPolicyDefaults()
	return costfunction.VehicleProfileFromConfig(vehicle)
}

func TestShortestPathPrefersCheaperTwoHop(t *testing.T) {
	g := buildDeliveryGraph(t)
	dijkstra := NewDijkstra(g, costfunction.NewDistanceCostFunction())

	result, err := dijkstra.Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !result.Found() {
		t.Fatal("expected a route")
	}
	if !sameRoute(result.GetRoute(), []da.Index{0, 1, 2}) {
		t.Errorf("want route [0 1 2] got %v", result.GetRoute())
	}
	if !eq(result.GetCost(), 2.0) {
		t.Errorf("want cost 2.0 got %f", result.GetCost())
	}
	if !eq(result.GetDist(), 2.0) {
		t.Errorf("want dist 2.0 got %f", result.GetDist())
	}
}

func TestShortestPathAfterEdgeRemoval(t *testing.T) {
	g := buildDeliveryGraph(t)
	if _, err := g.RemoveEdge(1, 2); err != nil {
		t.Fatalf("err: %v", err)
	}

	result, err := NewDijkstra(g, costfunction.NewDistanceCostFunction()).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(result.GetRoute(), []da.Index{0, 2}) {
		t.Errorf("want route [0 2] got %v", result.GetRoute())
	}
	if !eq(result.GetCost(), 3.0) {
		t.Errorf("want cost 3.0 got %f", result.GetCost())
	}
}

func TestShortestPathNoRouteAfterClosures(t *testing.T) {
	g := buildDeliveryGraph(t)
	if _, err := g.RemoveEdge(1, 2); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := g.RemoveEdge(2, 3); err != nil {
		t.Fatalf("err: %v", err)
	}

	result, err := NewDijkstra(g, costfunction.NewDistanceCostFunction()).Search(0, 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if result.Found() {
		t.Fatalf("expected no route, got %v", result.GetRoute())
	}
	if len(result.GetRoute()) != 0 {
		t.Errorf("no-route result must carry an empty route, got %v", result.GetRoute())
	}
	if !math.IsInf(result.GetCost(), 1) {
		t.Errorf("no-route cost must be +Inf, got %f", result.GetCost())
	}
}

func TestShortestPathSourceEqualsTarget(t *testing.T) {
	g := buildDeliveryGraph(t)

	result, err := NewDijkstra(g, costfunction.NewDistanceCostFunction()).Search(2, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(result.GetRoute(), []da.Index{2}) {
		t.Errorf("want route [2] got %v", result.GetRoute())
	}
	if !eq(result.GetCost(), 0) {
		t.Errorf("want cost 0 got %f", result.GetCost())
	}
}

func TestSearchRejectsUnknownNode(t *testing.T) {
	g := buildDeliveryGraph(t)
	dijkstra := NewDijkstra(g, costfunction.NewDistanceCostFunction())

	if _, err := dijkstra.Search(0, 99); !errors.Is(util.CodeOf(err), util.ErrInvalidNode) {
		t.Errorf("unknown target must surface ErrInvalidNode, got %v", err)
	}
	if _, err := dijkstra.Search(99, 0); !errors.Is(util.CodeOf(err), util.ErrInvalidNode) {
		t.Errorf("unknown source must surface ErrInvalidNode, got %v", err)
	}
}

func TestCostEqualsIndependentEdgeSum(t *testing.T) {
	g := buildCorridorGraph(t)
	profile := vehicleProfile(t, pkg.VEHICLE_BODA)
	costFn := costfunction.NewCompositeCostFunction(profile, nil)

	result, err := NewDijkstra(g, costFn).Search(0, 5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !result.Found() {
		t.Fatal("expected a route")
	}

	route := result.GetRoute()
	sum := 0.0
	distSum := 0.0
	for i := 0; i+1 < len(route); i++ {
		outEdge, ok, err := g.EdgeBetween(route[i], route[i+1])
		if err != nil || !ok {
			t.Fatalf("route edge %d-%d missing: %v", route[i], route[i+1], err)
		}
		sum += costFn.GetWeight(route[i], outEdge)
		distSum += outEdge.GetDist()
	}
	if !eq(result.GetCost(), sum) {
		t.Errorf("reported cost %f disagrees with edge sum %f", result.GetCost(), sum)
	}
	if !eq(result.GetDist(), distSum) {
		t.Errorf("reported dist %f disagrees with edge sum %f", result.GetDist(), distSum)
	}
}

func TestWeightedPathAvoidsCongestedRoad(t *testing.T) {
	g := buildDeliveryGraph(t)
	// congestion on 0-1 makes the two hop corridor cost 2.5 + 1.0, worse
	// than the direct 3.0 segment
	if err := g.AddEdge(0, 1, 1.0, 2.5, 1.0, "Jalan Veteran"); err != nil {
		t.Fatalf("err: %v", err)
	}

	profile := vehicleProfile(t, pkg.VEHICLE_BODA)
	result, err := NewDijkstra(g, costfunction.NewCompositeCostFunction(profile, nil)).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(result.GetRoute(), []da.Index{0, 2}) {
		t.Errorf("want route [0 2] got %v", result.GetRoute())
	}
	if !eq(result.GetCost(), 3.0) {
		t.Errorf("want cost 3.0 got %f", result.GetCost())
	}
	if !eq(result.GetDist(), 3.0) {
		t.Errorf("want dist 3.0 got %f", result.GetDist())
	}
}

func TestHeuristicSearchMatchesDijkstraCost(t *testing.T) {
	graphs := map[string]*da.RoadGraph{
		"delivery": buildDeliveryGraph(t),
		"corridor": buildCorridorGraph(t),
		"chain":    buildChainGraph(t),
	}
	costFns := map[string]CostFunction{
		"distance": costfunction.NewDistanceCostFunction(),
		"boda":     costfunction.NewCompositeCostFunction(vehicleProfile(t, pkg.VEHICLE_BODA), nil),
		"bajaji":   costfunction.NewCompositeCostFunction(vehicleProfile(t, pkg.VEHICLE_BAJAJI), nil),
	}

	for gName, g := range graphs {
		for cfName, costFn := range costFns {
			heuristic := NewAStarHeuristic(g, costFn)
			for _, src := range g.NodeIDs() {
				for _, dst := range g.NodeIDs() {
					want, err := NewDijkstra(g, costFn).Search(src, dst)
					if err != nil {
						t.Fatalf("err: %v", err)
					}
					got, err := NewAStar(heuristic).Search(src, dst)
					if err != nil {
						t.Fatalf("err: %v", err)
					}
					if want.Found() != got.Found() {
						t.Fatalf("%s/%s %d->%d: found mismatch", gName, cfName, src, dst)
					}
					if want.Found() && !eq(want.GetCost(), got.GetCost()) {
						t.Errorf("%s/%s %d->%d: dijkstra cost %f, astar cost %f",
							gName, cfName, src, dst, want.GetCost(), got.GetCost())
					}
				}
			}
		}
	}
}

func TestHeuristicSearchExploresFewerNodes(t *testing.T) {
	g := buildChainGraph(t)
	costFn := costfunction.NewDistanceCostFunction()

	dijkstraResult, err := NewDijkstra(g, costFn).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	astarResult, err := NewAStar(NewAStarHeuristic(g, costFn)).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if astarResult.NodesExplored() >= dijkstraResult.NodesExplored() {
		t.Errorf("goal-directed search must skip the western branch: astar %d, dijkstra %d",
			astarResult.NodesExplored(), dijkstraResult.NodesExplored())
	}
}

func TestAlternativeRoutesDistinctAndSorted(t *testing.T) {
	g := buildCorridorGraph(t)
	costFn := costfunction.NewDistanceCostFunction()

	alternatives, err := NewAlternativeRouteSearch(g, costFn).FindAlternativeRoutes(0, 5, 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	routes := alternatives.GetRoutes()
	if alternatives.GetDelivered() != 3 {
		t.Fatalf("want 3 routes got %d", alternatives.GetDelivered())
	}

	best, err := NewDijkstra(g, costFn).Search(0, 5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(routes[0].GetRoute(), best.GetRoute()) {
		t.Errorf("first alternative must be the optimum: want %v got %v",
			best.GetRoute(), routes[0].GetRoute())
	}

	for i := 1; i < len(routes); i++ {
		if routes[i].GetCost() < routes[i-1].GetCost() {
			t.Errorf("costs must be non-decreasing: %f before %f",
				routes[i-1].GetCost(), routes[i].GetCost())
		}
	}
	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			if routes[i].SameEdgeSequence(routes[j]) {
				t.Errorf("routes %d and %d share the same edge sequence: %v",
					i, j, routes[i].GetRoute())
			}
		}
	}

	wantCosts := []float64{2.0, 2.4, 3.0}
	for i, want := range wantCosts {
		if !eq(routes[i].GetCost(), want) {
			t.Errorf("route %d: want cost %f got %f", i, want, routes[i].GetCost())
		}
	}
}

func TestAlternativeRoutesKOneMatchesBest(t *testing.T) {
	g := buildCorridorGraph(t)
	profile := vehicleProfile(t, pkg.VEHICLE_BODA)
	costFn := costfunction.NewCompositeCostFunction(profile, nil)

	alternatives, err := NewAlternativeRouteSearch(g, costFn).FindAlternativeRoutes(0, 5, 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if alternatives.GetDelivered() != 1 {
		t.Fatalf("want 1 route got %d", alternatives.GetDelivered())
	}

	best, err := NewDijkstra(g, costFn).Search(0, 5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	got := alternatives.GetRoutes()[0]
	if !sameRoute(got.GetRoute(), best.GetRoute()) {
		t.Errorf("want %v got %v", best.GetRoute(), got.GetRoute())
	}
	if !eq(got.GetCost(), best.GetCost()) {
		t.Errorf("want cost %f got %f", best.GetCost(), got.GetCost())
	}
}

func TestAlternativeRoutesNeverPadsWithDuplicates(t *testing.T) {
	g := buildDeliveryGraph(t)
	costFn := costfunction.NewDistanceCostFunction()

	// only two distinct simple routes exist between 0 and 2
	alternatives, err := NewAlternativeRouteSearch(g, costFn).FindAlternativeRoutes(0, 2, 5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if alternatives.GetRequested() != 5 {
		t.Errorf("want requested 5 got %d", alternatives.GetRequested())
	}
	if alternatives.GetDelivered() != 2 {
		t.Fatalf("want 2 distinct routes got %d", alternatives.GetDelivered())
	}

	routes := alternatives.GetRoutes()
	if !eq(routes[0].GetCost(), 2.0) || !eq(routes[1].GetCost(), 3.0) {
		t.Errorf("want costs [2.0 3.0] got [%f %f]", routes[0].GetCost(), routes[1].GetCost())
	}
	if routes[0].SameEdgeSequence(routes[1]) {
		t.Error("delivered routes must be distinct")
	}
}

func TestAlternativeRoutesDisconnectedPair(t *testing.T) {
	g := buildDeliveryGraph(t)
	if _, err := g.RemoveEdge(1, 2); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := g.RemoveEdge(0, 2); err != nil {
		t.Fatalf("err: %v", err)
	}

	alternatives, err := NewAlternativeRouteSearch(g, costfunction.NewDistanceCostFunction()).
		FindAlternativeRoutes(0, 3, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if alternatives.GetDelivered() != 0 {
		t.Errorf("want 0 routes got %d", alternatives.GetDelivered())
	}
	if alternatives.GetRequested() != 2 {
		t.Errorf("want requested 2 got %d", alternatives.GetRequested())
	}
}

func TestAlternativeRoutesRejectsNonPositiveK(t *testing.T) {
	g := buildDeliveryGraph(t)
	search := NewAlternativeRouteSearch(g, costfunction.NewDistanceCostFunction())

	if _, err := search.FindAlternativeRoutes(0, 2, 0); !errors.Is(util.CodeOf(err), util.ErrBadParamInput) {
		t.Errorf("k=0 must surface ErrBadParamInput, got %v", err)
	}
}

func TestBajajiRoutesAroundRoughRoad(t *testing.T) {
	g := buildRoughRoadGraph(t)

	boda := costfunction.NewCompositeCostFunction(vehicleProfile(t, pkg.VEHICLE_BODA), nil)
	bodaResult, err := NewDijkstra(g, boda).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(bodaResult.GetRoute(), []da.Index{0, 2}) {
		t.Errorf("boda must take the short rough segment, got %v", bodaResult.GetRoute())
	}

	bajaji := costfunction.NewCompositeCostFunction(vehicleProfile(t, pkg.VEHICLE_BAJAJI), nil)
	bajajiResult, err := NewDijkstra(g, bajaji).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(bajajiResult.GetRoute(), []da.Index{0, 1, 2}) {
		t.Errorf("bajaji must detour around the rough segment, got %v", bajajiResult.GetRoute())
	}

	// closing the detour leaves the bajaji stranded while the boda still
	// gets through
	if _, err := g.RemoveEdge(0, 1); err != nil {
		t.Fatalf("err: %v", err)
	}
	bajajiResult, err = NewDijkstra(g, bajaji).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if bajajiResult.Found() {
		t.Errorf("expected no feasible bajaji route, got %v", bajajiResult.GetRoute())
	}
	bodaResult, err = NewDijkstra(g, boda).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !bodaResult.Found() {
		t.Error("boda route must survive the detour closure")
	}
}

func TestTrafficSnapshotDoesNotMutateGraph(t *testing.T) {
	g := buildDeliveryGraph(t)
	profile := vehicleProfile(t, pkg.VEHICLE_BODA)
	versionBefore := g.Version()

	snapshot := costfunction.NewTrafficSnapshot()
	snapshot.Set(0, 1, 5.0)

	congested, err := NewDijkstra(g, costfunction.NewCompositeCostFunction(profile, snapshot)).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(congested.GetRoute(), []da.Index{0, 2}) {
		t.Errorf("override must push the route onto the direct segment, got %v", congested.GetRoute())
	}

	if g.Version() != versionBefore {
		t.Errorf("traffic snapshot must not touch the graph: version %d -> %d",
			versionBefore, g.Version())
	}

	freeFlow, err := NewDijkstra(g, costfunction.NewCompositeCostFunction(profile, nil)).Search(0, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !sameRoute(freeFlow.GetRoute(), []da.Index{0, 1, 2}) {
		t.Errorf("without the override the two hop corridor must win again, got %v", freeFlow.GetRoute())
	}
}
