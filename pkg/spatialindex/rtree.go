package spatialindex

import (
	"math"

	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/util"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

const (
	initialSnapRadiusKM = 1.0
	maxSnapRadiusKM     = 10000.0

	// two candidates closer than this (km) count as equidistant and the
	// lower node id wins, keeping snapping deterministic
	snapTieEpsilonKM = 1e-12
)

type Rtree struct {
	tr   *rtree.RTreeG[NodePoint]
	size int
}

// NodePoint is one graph node as an r-tree leaf. Node coordinates never
// move after load, so the index is built once and stays valid across edge
// mutations.
type NodePoint struct {
	id  datastructure.Index
	lat float64
	lon float64
}

func (np NodePoint) GetID() datastructure.Index {
	return np.id
}

func (np NodePoint) GetLat() float64 {
	return np.lat
}

func (np NodePoint) GetLon() float64 {
	return np.lon
}

func newNodePoint(id datastructure.Index, lat, lon float64) NodePoint {
	return NodePoint{
		id:  id,
		lat: lat,
		lon: lon,
	}
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[NodePoint]
	return &Rtree{
		tr: &tr,
	}
}

// Build. build r-tree over every node of the road graph
func (rt *Rtree) Build(graph *datastructure.RoadGraph, log *zap.Logger) {
	log.Info("Building R-tree spatial index...")
	graph.ForEachNode(func(node *datastructure.Node) {
		point := [2]float64{node.GetLon(), node.GetLat()}
		rt.tr.Insert(point, point, newNodePoint(node.GetID(), node.GetLat(), node.GetLon()))
		rt.size++
	})

	log.Info("R-tree spatial index built.", zap.Int("nodes", rt.size))
}

// SearchWithinRadius search for all nodes inside the query box spanned by
// radius (in km) around (qLat, qLon)
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []NodePoint {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	results := make([]NodePoint, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data NodePoint) bool {
			results = append(results, data)
			return true
		})
	return results
}

// SnapToNearestNode returns the node id with minimum geodesic distance to
// the query coordinate over ALL nodes in the graph, equal distances
// resolving to the lowest id. Fails only when the graph holds zero nodes.
//
// The search widens a query box until candidates appear. A radius-r box is
// inscribed in the radius-r circle, so one extra widening to 1.5r covers
// every node that could still undercut the candidates found.
func (rt *Rtree) SnapToNearestNode(qLat, qLon float64) (datastructure.Index, error) {
	if rt.size == 0 {
		return 0, util.WrapErrorf(nil, util.ErrInvalidNode, "snap (%f,%f): graph has zero nodes", qLat, qLon)
	}

	for radius := initialSnapRadiusKM; radius <= maxSnapRadiusKM; radius *= 4 {
		candidates := rt.SearchWithinRadius(qLat, qLon, radius)
		if len(candidates) == 0 {
			continue
		}
		candidates = rt.SearchWithinRadius(qLat, qLon, 1.5*radius)
		return nearestOf(candidates, qLat, qLon), nil
	}

	// sparse far-away graph: fall back to scanning every leaf
	all := make([]NodePoint, 0, rt.size)
	rt.tr.Scan(func(min, max [2]float64, data NodePoint) bool {
		all = append(all, data)
		return true
	})
	return nearestOf(all, qLat, qLon), nil
}

func nearestOf(candidates []NodePoint, qLat, qLon float64) datastructure.Index {
	best := candidates[0]
	bestDist := geo.CalculateHaversineDistance(qLat, qLon, best.GetLat(), best.GetLon())

	for _, cand := range candidates[1:] {
		dist := geo.CalculateHaversineDistance(qLat, qLon, cand.GetLat(), cand.GetLon())
		if dist < bestDist-snapTieEpsilonKM {
			best, bestDist = cand, dist
			continue
		}
		if math.Abs(dist-bestDist) <= snapTieEpsilonKM && cand.GetID() < best.GetID() {
			best = cand
		}
	}
	return best.GetID()
}
