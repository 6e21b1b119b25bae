package dataset

import (
	"encoding/json"
	"math"
	"os"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/util"
	"go.uber.org/zap"
)

type nodeRecord struct {
	ID   int64   `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

type edgeRecord struct {
	From          int64    `json:"from"`
	To            int64    `json:"to"`
	Distance      float64  `json:"distance"`
	RoadName      string   `json:"road_name"`
	TrafficFactor *float64 `json:"traffic_factor"`
	Quality       *float64 `json:"quality"`
}

type roadsFile struct {
	Nodes []nodeRecord `json:"nodes"`
	Edges []edgeRecord `json:"edges"`
}

const (
	defaultRoadName      = "Unknown"
	defaultTrafficFactor = 1.0
	defaultRoadQuality   = 1.0
	maxNodeID            = int64(^uint32(0))
)

// LoadRoadGraph builds the road network from a JSON dataset. The whole
// file is validated before a single node is inserted, a malformed record
// fails the load and leaves no partially constructed graph behind.
// Suspicious but legal data (an edge shorter than the geodesic distance
// between its endpoints, coincident nodes, a fragmented network) is
// reported through the logger and does not fail the load.
func LoadRoadGraph(filename string, logger *zap.Logger) (*datastructure.RoadGraph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file roadsFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "road dataset %s: %v", filename, err)
	}

	if err := validateRoads(&file); err != nil {
		return nil, err
	}

	graph := datastructure.NewRoadGraph()
	for _, n := range file.Nodes {
		node := datastructure.NewNode(datastructure.Index(n.ID), n.Lat, n.Lon, n.Name)
		if err := graph.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, e := range file.Edges {
		traffic := defaultTrafficFactor
		if e.TrafficFactor != nil {
			traffic = *e.TrafficFactor
		}
		quality := defaultRoadQuality
		if e.Quality != nil {
			quality = *e.Quality
		}
		roadName := e.RoadName
		if roadName == "" {
			roadName = defaultRoadName
		}
		if err := graph.AddEdge(datastructure.Index(e.From), datastructure.Index(e.To),
			e.Distance, traffic, quality, roadName); err != nil {
			return nil, err
		}
	}

	reportAnomalies(graph, logger)
	return graph, nil
}

// validateRoads walks every record so the caller learns about the first
// broken one before graph construction starts.
func validateRoads(file *roadsFile) error {
	if len(file.Nodes) == 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: no nodes")
	}

	seen := make(map[int64]struct{}, len(file.Nodes))
	for _, n := range file.Nodes {
		if n.ID < 0 || n.ID > maxNodeID {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: node id %d out of range", n.ID)
		}
		if _, ok := seen[n.ID]; ok {
			return util.WrapErrorf(nil, util.ErrConflict, "road dataset: duplicate node id %d", n.ID)
		}
		seen[n.ID] = struct{}{}
		if err := validateCoordinate(n.Lat, n.Lon); err != nil {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: node %d: %v", n.ID, err)
		}
	}

	for _, e := range file.Edges {
		if _, ok := seen[e.From]; !ok {
			return util.WrapErrorf(nil, util.ErrInvalidMutation, "road dataset: edge (%d,%d) references unknown node %d", e.From, e.To, e.From)
		}
		if _, ok := seen[e.To]; !ok {
			return util.WrapErrorf(nil, util.ErrInvalidMutation, "road dataset: edge (%d,%d) references unknown node %d", e.From, e.To, e.To)
		}
		if e.From == e.To {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: edge (%d,%d) is a self loop", e.From, e.To)
		}
		if e.Distance < 0 || math.IsNaN(e.Distance) || math.IsInf(e.Distance, 0) {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: edge (%d,%d): invalid distance %f", e.From, e.To, e.Distance)
		}
		if e.TrafficFactor != nil && *e.TrafficFactor < 1.0 {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: edge (%d,%d): traffic factor %f below 1.0", e.From, e.To, *e.TrafficFactor)
		}
		if e.Quality != nil && (*e.Quality <= 0.0 || *e.Quality > 1.0) {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "road dataset: edge (%d,%d): quality %f outside (0.0, 1.0]", e.From, e.To, *e.Quality)
		}
	}
	return nil
}

func validateCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 || math.IsNaN(lat) {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "latitude %f out of range", lat)
	}
	if lon < -180 || lon > 180 || math.IsNaN(lon) {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "longitude %f out of range", lon)
	}
	return nil
}

func reportAnomalies(graph *datastructure.RoadGraph, logger *zap.Logger) {
	bbox := datastructure.EmptyBoundingBox()
	cellOwner := make(map[uint64]datastructure.Index, graph.NumberOfNodes())
	graph.ForEachNode(func(node *datastructure.Node) {
		bbox.Extend(node.GetLat(), node.GetLon())

		cell := geo.CellIDOf(node.GetLat(), node.GetLon())
		if other, ok := cellOwner[cell]; ok {
			logger.Warn("coincident nodes, snapping between them is arbitrary",
				zap.Uint32("node", uint32(node.GetID())), zap.Uint32("other", uint32(other)))
			return
		}
		cellOwner[cell] = node.GetID()
	})

	shortEdges := 0
	graph.ForEachOutEdge(func(tail datastructure.Index, e *datastructure.OutEdge) {
		if tail > e.GetHead() {
			return
		}
		tailNode, err := graph.GetNode(tail)
		if err != nil {
			return
		}
		headNode, err := graph.GetNode(e.GetHead())
		if err != nil {
			return
		}
		geodesic := geo.CalculateHaversineDistance(tailNode.GetLat(), tailNode.GetLon(),
			headNode.GetLat(), headNode.GetLon())
		if e.GetDist() < geodesic {
			shortEdges++
			logger.Warn("edge base distance shorter than geodesic",
				zap.Uint32("from", uint32(tail)), zap.Uint32("to", uint32(e.GetHead())),
				zap.Float64("distance_km", e.GetDist()), zap.Float64("geodesic_km", geodesic))
		}
	})

	_, components := graph.ConnectedComponents()
	if components > 1 {
		logger.Warn("road network is fragmented, some node pairs have no route",
			zap.Int("components", components))
	}

	minLat, minLon := bbox.GetMinCoord()
	maxLat, maxLon := bbox.GetMaxCoord()
	logger.Info("road dataset loaded",
		zap.Int("nodes", graph.NumberOfNodes()),
		zap.Int("edges", graph.NumberOfEdges()),
		zap.Int("components", components),
		zap.Int("edges_shorter_than_geodesic", shortEdges),
		zap.Float64("min_lat", minLat), zap.Float64("min_lon", minLon),
		zap.Float64("max_lat", maxLat), zap.Float64("max_lon", maxLon))
}

type restaurantsFile struct {
	Restaurants []Restaurant `json:"restaurants"`
}

type driversFile struct {
	Drivers []Driver `json:"drivers"`
}

type usersFile struct {
	Users []User `json:"users"`
}

func LoadRestaurants(filename string) ([]Restaurant, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file restaurantsFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "restaurant dataset %s: %v", filename, err)
	}

	for _, r := range file.Restaurants {
		if err := validateCoordinate(r.Lat, r.Lon); err != nil {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "restaurant %d: %v", r.ID, err)
		}
		if r.Rating < 0 || r.Rating > 5 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "restaurant %d: rating %f outside [0, 5]", r.ID, r.Rating)
		}
		if r.Popularity < 0 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "restaurant %d: negative popularity %d", r.ID, r.Popularity)
		}
		if r.AvgPrepTime < 0 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "restaurant %d: negative prep time %f", r.ID, r.AvgPrepTime)
		}
	}
	return file.Restaurants, nil
}

func LoadDrivers(filename string) ([]Driver, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file driversFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "driver dataset %s: %v", filename, err)
	}

	for _, d := range file.Drivers {
		if err := validateCoordinate(d.Lat, d.Lon); err != nil {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "driver %d: %v", d.ID, err)
		}
		if pkg.GetVehicleType(d.VehicleType) == pkg.VEHICLE_UNKNOWN {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "driver %d: unknown vehicle type %q", d.ID, d.VehicleType)
		}
		if d.Availability != DriverAvailable && d.Availability != DriverBusy {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "driver %d: unknown availability %q", d.ID, d.Availability)
		}
		if d.Rating < 0 || d.Rating > 5 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "driver %d: rating %f outside [0, 5]", d.ID, d.Rating)
		}
		if d.ReliabilityScore < 0 || d.ReliabilityScore > 1 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "driver %d: reliability %f outside [0, 1]", d.ID, d.ReliabilityScore)
		}
		if d.CostPerKm < 0 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "driver %d: negative cost per km %f", d.ID, d.CostPerKm)
		}
	}
	return file.Drivers, nil
}

func LoadUsers(filename string) ([]User, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file usersFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "user dataset %s: %v", filename, err)
	}

	for _, u := range file.Users {
		if err := validateCoordinate(u.Lat, u.Lon); err != nil {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "user %d: %v", u.ID, err)
		}
	}
	return file.Users, nil
}
