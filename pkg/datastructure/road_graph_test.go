package datastructure

import (
	"errors"
	"math"
	"testing"

	"github.com/lintang-b-s/courierx/pkg/util"
)

const testEPS = 1e-9

func eq(a, b float64) bool {
	return math.Abs(a-b) < testEPS
}

func buildDeliveryGraph(t *testing.T) *RoadGraph {
	t.Helper()

	g := NewRoadGraph()
	coords := [][2]float64{
		{-6.175000, 106.827000},
		{-6.176000, 106.828000},
		{-6.177000, 106.829000},
		{-6.178000, 106.830000},
	}
	names := []string{"Pasar Baru", "Juanda", "Gambir", "Monas"}
	for i, c := range coords {
		if err := g.AddNode(NewNode(Index(i), c[0], c[1], names[i])); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	type seg struct {
		a, b Index
		dist float64
	}
	for _, s := range []seg{
		{0, 1, 1.0}, {1, 2, 1.0}, {0, 2, 3.0}, {2, 3, 1.0},
	} {
		if err := g.AddEdge(s.a, s.b, s.dist, 1.0, 1.0, "Jalan Veteran"); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	return g
}

func TestAddEdgeBothDirections(t *testing.T) {
	g := buildDeliveryGraph(t)

	forth, ok, err := g.EdgeBetween(0, 1)
	if err != nil || !ok {
		t.Fatalf("edge (0,1) should exist, err: %v", err)
	}
	back, ok, err := g.EdgeBetween(1, 0)
	if err != nil || !ok {
		t.Fatalf("edge (1,0) should exist, err: %v", err)
	}
	if !eq(forth.GetDist(), back.GetDist()) || forth.GetRoadName() != back.GetRoadName() ||
		!eq(forth.GetTraffic(), back.GetTraffic()) || !eq(forth.GetQuality(), back.GetQuality()) {
		t.Errorf("directions of one segment must share base distance and metadata")
	}

	if g.NumberOfEdges() != 4 {
		t.Errorf("want 4 undirected segments, got %d", g.NumberOfEdges())
	}
}

func TestAddEdgeUpsertOverwritesAttributes(t *testing.T) {
	g := buildDeliveryGraph(t)
	before := g.NumberOfEdges()

	if err := g.AddEdge(0, 1, 1.5, 2.0, 0.8, "Jalan Veteran Raya"); err != nil {
		t.Fatalf("err: %v", err)
	}

	if g.NumberOfEdges() != before {
		t.Errorf("upsert must not change segment count: want %d got %d", before, g.NumberOfEdges())
	}
	for _, pair := range [][2]Index{{0, 1}, {1, 0}} {
		e, ok, err := g.EdgeBetween(pair[0], pair[1])
		if err != nil || !ok {
			t.Fatalf("edge %v should exist, err: %v", pair, err)
		}
		if !eq(e.GetDist(), 1.5) || !eq(e.GetTraffic(), 2.0) || !eq(e.GetQuality(), 0.8) {
			t.Errorf("direction %v kept stale attributes", pair)
		}
		if e.GetRoadName() != "Jalan Veteran Raya" {
			t.Errorf("direction %v kept stale road name %q", pair, e.GetRoadName())
		}
	}
}

func TestAddEdgeValidation(t *testing.T) {
	g := buildDeliveryGraph(t)

	testCases := []struct {
		name     string
		a, b     Index
		dist     float64
		traffic  float64
		quality  float64
		wantCode error
	}{
		{name: "unknown tail", a: 99, b: 1, dist: 1.0, traffic: 1.0, quality: 1.0, wantCode: util.ErrInvalidMutation},
		{name: "unknown head", a: 0, b: 99, dist: 1.0, traffic: 1.0, quality: 1.0, wantCode: util.ErrInvalidMutation},
		{name: "negative distance", a: 0, b: 1, dist: -2.0, traffic: 1.0, quality: 1.0, wantCode: util.ErrBadParamInput},
		{name: "traffic below one", a: 0, b: 1, dist: 1.0, traffic: 0.5, quality: 1.0, wantCode: util.ErrBadParamInput},
		{name: "quality above one", a: 0, b: 1, dist: 1.0, traffic: 1.0, quality: 1.5, wantCode: util.ErrBadParamInput},
		{name: "quality zero", a: 0, b: 1, dist: 1.0, traffic: 1.0, quality: 0.0, wantCode: util.ErrBadParamInput},
		{name: "self loop", a: 2, b: 2, dist: 1.0, traffic: 1.0, quality: 1.0, wantCode: util.ErrBadParamInput},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddEdge(tt.a, tt.b, tt.dist, tt.traffic, tt.quality, "jalan")
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if !errors.Is(util.CodeOf(err), tt.wantCode) {
				t.Errorf("want code %v, got %v", tt.wantCode, util.CodeOf(err))
			}
		})
	}
}

func TestRemoveEdgeAtomicBothDirections(t *testing.T) {
	g := buildDeliveryGraph(t)

	removed, err := g.RemoveEdge(1, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !removed {
		t.Fatal("segment (1,2) existed, removal must report true")
	}

	for _, pair := range [][2]Index{{1, 2}, {2, 1}} {
		_, ok, err := g.EdgeBetween(pair[0], pair[1])
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if ok {
			t.Errorf("direction %v survived removal", pair)
		}
	}
	if g.NumberOfEdges() != 3 {
		t.Errorf("want 3 segments after removal, got %d", g.NumberOfEdges())
	}
}

func TestRemoveEdgeAbsentIsNoop(t *testing.T) {
	g := buildDeliveryGraph(t)
	version := g.Version()

	removed, err := g.RemoveEdge(0, 3)
	if err != nil {
		t.Fatalf("removing an absent segment must not fail: %v", err)
	}
	if removed {
		t.Error("absent segment reported as removed")
	}
	if g.Version() != version {
		t.Error("no-op removal must not bump the version")
	}

	_, err = g.RemoveEdge(0, 99)
	if err == nil {
		t.Fatal("unknown endpoint must fail")
	}
	if !errors.Is(util.CodeOf(err), util.ErrInvalidMutation) {
		t.Errorf("want ErrInvalidMutation, got %v", util.CodeOf(err))
	}
}

func TestNeighborsIsolatedVersusUnknown(t *testing.T) {
	g := buildDeliveryGraph(t)
	if err := g.AddNode(NewNode(7, -6.180000, 106.832000, "Kebon Sirih")); err != nil {
		t.Fatalf("err: %v", err)
	}

	neighbors, err := g.Neighbors(7)
	if err != nil {
		t.Fatalf("isolated node lookup must succeed: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("isolated node must have no neighbors, got %d", len(neighbors))
	}

	_, err = g.Neighbors(99)
	if err == nil {
		t.Fatal("unknown node lookup must fail")
	}
	if !errors.Is(util.CodeOf(err), util.ErrInvalidNode) {
		t.Errorf("want ErrInvalidNode, got %v", util.CodeOf(err))
	}
}

func TestAddNodeRejectsReusedID(t *testing.T) {
	g := buildDeliveryGraph(t)

	err := g.AddNode(NewNode(0, -6.0, 106.0, "duplicate"))
	if err == nil {
		t.Fatal("reusing a node id must fail")
	}
	if !errors.Is(util.CodeOf(err), util.ErrConflict) {
		t.Errorf("want ErrConflict, got %v", util.CodeOf(err))
	}
}

func TestVersionBumpsOnEveryMutation(t *testing.T) {
	g := buildDeliveryGraph(t)

	v0 := g.Version()
	if err := g.AddEdge(0, 3, 2.5, 1.0, 0.9, "Jalan Merdeka"); err != nil {
		t.Fatalf("err: %v", err)
	}
	v1 := g.Version()
	if v1 <= v0 {
		t.Error("AddEdge must bump the version")
	}

	if _, err := g.RemoveEdge(0, 3); err != nil {
		t.Fatalf("err: %v", err)
	}
	if g.Version() <= v1 {
		t.Error("RemoveEdge must bump the version")
	}
}

func TestNeighborsSnapshotSurvivesMutation(t *testing.T) {
	g := buildDeliveryGraph(t)

	snapshot, err := g.Neighbors(0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	wantLen := len(snapshot)

	if _, err := g.RemoveEdge(0, 1); err != nil {
		t.Fatalf("err: %v", err)
	}

	// a slice handed out before the mutation keeps describing the old state
	if len(snapshot) != wantLen {
		t.Errorf("published snapshot mutated in place")
	}

	fresh, err := g.Neighbors(0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(fresh) != wantLen-1 {
		t.Errorf("fresh lookup must see the removal: want %d got %d", wantLen-1, len(fresh))
	}
}

func TestEdgeSequenceDistinctness(t *testing.T) {
	p1 := NewPathResult([]Index{0, 1, 2}, 2.0, 2.0, nil, 0)
	p2 := NewPathResult([]Index{0, 2}, 3.0, 3.0, nil, 0)
	p3 := NewPathResult([]Index{0, 1, 2}, 9.0, 2.0, nil, 0)

	if p1.SameEdgeSequence(p2) {
		t.Error("different routes reported as same edge sequence")
	}
	if !p1.SameEdgeSequence(p3) {
		t.Error("identical routes with different costs are still the same sequence")
	}
}

func TestNoPathResultShape(t *testing.T) {
	r := NoPathResult([]Index{0, 1}, 3)

	if r.Found() {
		t.Error("no-path result must not report found")
	}
	if len(r.GetRoute()) != 0 {
		t.Error("no-path route must be empty")
	}
	if !math.IsInf(r.GetCost(), 1) {
		t.Errorf("no-path cost must be +Inf, got %f", r.GetCost())
	}
	if r.NodesExplored() != 2 || r.GetEdgesExamined() != 3 {
		t.Error("exploration trace must survive on no-path results")
	}
}
