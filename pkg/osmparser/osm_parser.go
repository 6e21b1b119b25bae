package osmparser

import (
	"context"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/lintang-b-s/courierx/pkg/concurrent"
	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

// chainJob is one contracted chain between two kept nodes. A worker sums the
// haversine length over the interior geometry.
type chainJob struct {
	from    int64
	to      int64
	name    string
	quality float64
	coords  []NodeCoord
}

type OsmParser struct {
	wayNodeMap      map[int64]NodeType
	acceptedNodeMap map[int64]NodeCoord
	barrierNodes    map[int64]bool
	nodeNames       map[int64]string
	nodeIDMap       map[int64]int64
	cellOwner       map[uint64]int64
	nodes           []ParsedNode
	chains          []chainJob
}

func NewOSMParser() *OsmParser {
	return &OsmParser{
		wayNodeMap:      make(map[int64]NodeType),
		acceptedNodeMap: make(map[int64]NodeCoord),
		barrierNodes:    make(map[int64]bool),
		nodeNames:       make(map[int64]string),
		nodeIDMap:       make(map[int64]int64),
		cellOwner:       make(map[uint64]int64),
	}
}

// Parse reads an openstreetmap pbf extract and contracts it into the road
// dataset the engine loads. Interior shape nodes of a way collapse into the
// chain between two kept nodes (junctions, way endpoints, barrier gates),
// the chain length is the haversine sum over the collapsed geometry.
func (p *OsmParser) Parse(mapFile string, logger *zap.Logger) (*ParsedRoads, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	countWays := 0
	for scanner.Scan() {
		o := scanner.Object()

		if o.ObjectID().Type() != osm.TypeWay {
			continue
		}
		way := o.(*osm.Way)
		if len(way.Nodes) < 2 {
			continue
		}
		if !acceptOsmWay(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			logger.Sugar().Infof("scanning openstreetmap ways: %d...", countWays+1)
		}
		countWays++

		p.markWayNodes(way)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, err
	}
	scanner.Close()

	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	// must not be parallel, node coordinates land before the ways that
	// reference them
	defer scanner.Close()

	countWays = 0
	countNodes := 0
	for scanner.Scan() {
		o := scanner.Object()

		switch o.ObjectID().Type() {
		case osm.TypeNode:
			if (countNodes+1)%500000 == 0 {
				logger.Sugar().Infof("processing openstreetmap nodes: %d...", countNodes+1)
			}
			countNodes++
			osmNode := o.(*osm.Node)

			id := int64(osmNode.ID)
			if _, ok := p.wayNodeMap[id]; !ok {
				continue
			}
			p.acceptedNodeMap[id] = NewNodeCoord(osmNode.Lat, osmNode.Lon)
			if name := osmNode.Tags.Find(STREET_NAME); name != "" {
				p.nodeNames[id] = name
			}
			barrierType := osmNode.Tags.Find("barrier")
			if _, ok := acceptedBarrierType[barrierType]; ok && osmNode.Tags.Find("access") == "no" {
				p.barrierNodes[id] = true
			}
		case osm.TypeWay:
			way := o.(*osm.Way)
			if len(way.Nodes) < 2 {
				continue
			}
			if !acceptOsmWay(way) {
				continue
			}
			if (countWays+1)%100000 == 0 {
				logger.Sugar().Infof("processing openstreetmap ways: %d...", countWays+1)
			}
			countWays++

			p.processWay(way)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.chains) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"openstreetmap extract %s: no routable roads", mapFile)
	}

	edges := p.measureChains()
	logger.Info("openstreetmap extract contracted",
		zap.Int("accepted_ways", countWays),
		zap.Int("kept_nodes", len(p.nodes)),
		zap.Int("edges", len(edges)))

	return &ParsedRoads{Nodes: p.nodes, Edges: edges}, nil
}

// markWayNodes classifies every node of an accepted way. A node already
// marked by an earlier way (or an earlier position in this one) is shared,
// so it becomes a junction.
func (p *OsmParser) markWayNodes(way *osm.Way) {
	for i, wayNode := range way.Nodes {
		if _, ok := p.wayNodeMap[int64(wayNode.ID)]; !ok {
			if i == 0 || i == len(way.Nodes)-1 {
				p.wayNodeMap[int64(wayNode.ID)] = END_NODE
			} else {
				p.wayNodeMap[int64(wayNode.ID)] = BETWEEN_NODE
			}
		} else {
			p.wayNodeMap[int64(wayNode.ID)] = JUNCTION_NODE
		}
	}
}

// processWay cuts one accepted way into chains. Cuts happen at junctions,
// barrier gates and nodes clipped out of the extract, so every chain runs
// between two nodes the dataset keeps.
func (p *OsmParser) processWay(way *osm.Way) {
	name := way.Tags.Find(STREET_NAME)
	if name == "" {
		name = way.Tags.Find(STREET_REF)
	}
	quality := roadQualityOf(way)

	segment := make([]node, 0, len(way.Nodes))
	for i, wayNode := range way.Nodes {
		id := int64(wayNode.ID)
		coord, ok := p.acceptedNodeMap[id]
		if !ok {
			// clipped out of the extract
			p.processSegment(segment, name, quality)
			segment = []node{}
			continue
		}
		segment = append(segment, node{id: id, coord: coord})
		if i != 0 && i != len(way.Nodes)-1 &&
			(p.wayNodeMap[id] == JUNCTION_NODE || p.barrierNodes[id]) {
			p.processSegment(segment, name, quality)
			segment = []node{{id: id, coord: coord}}
		}
	}
	p.processSegment(segment, name, quality)
}

func (p *OsmParser) processSegment(segment []node, name string, quality float64) {
	if len(segment) < 2 {
		return
	}
	if len(segment) == 2 && segment[0].id == segment[1].id {
		// skip
		return
	}
	if segment[0].id == segment[len(segment)-1].id {
		// loop, split so both arcs keep distinct endpoints
		p.emitChain(segment[0:len(segment)-1], name, quality)
		p.emitChain(segment[len(segment)-2:], name, quality)
		return
	}
	p.emitChain(segment, name, quality)
}

func (p *OsmParser) emitChain(segment []node, name string, quality float64) {
	if len(segment) < 2 {
		return
	}
	from := p.datasetID(segment[0])
	to := p.datasetID(segment[len(segment)-1])
	if from == to {
		// distinct osm nodes merged by the duplicate cell check
		return
	}
	coords := make([]NodeCoord, len(segment))
	for i := range segment {
		coords[i] = segment[i].coord
	}
	if from > to {
		from, to = to, from
	}
	p.chains = append(p.chains, chainJob{
		from:    from,
		to:      to,
		name:    name,
		quality: quality,
		coords:  coords,
	})
}

// datasetID hands out dense ids in first-seen order. Distinct osm nodes
// inside the same level 30 cell collapse into one dataset node, the loader
// would otherwise warn that snapping between them is arbitrary.
func (p *OsmParser) datasetID(n node) int64 {
	if id, ok := p.nodeIDMap[n.id]; ok {
		return id
	}
	cell := geo.CellIDOf(n.coord.lat, n.coord.lon)
	if id, ok := p.cellOwner[cell]; ok {
		p.nodeIDMap[n.id] = id
		return id
	}
	id := int64(len(p.nodes))
	p.nodeIDMap[n.id] = id
	p.cellOwner[cell] = id
	p.nodes = append(p.nodes, ParsedNode{
		ID:   id,
		Lat:  n.coord.lat,
		Lon:  n.coord.lon,
		Name: p.nodeNames[n.id],
	})
	return id
}

// measureChains fans the haversine summation over the worker pool, one job
// per chain, then keeps the shortest edge of every node pair. The road graph
// holds at most one edge per pair, parallel chains collapse onto their
// shortest representative.
func (p *OsmParser) measureChains() []ParsedEdge {
	pool := concurrent.NewWorkerPool[chainJob, ParsedEdge](runtime.NumCPU(), len(p.chains))
	for _, chain := range p.chains {
		pool.AddJob(chain)
	}
	pool.Close()
	pool.Start(measureChain)
	pool.Wait()

	edges := make([]ParsedEdge, 0, len(p.chains))
	for e := range pool.CollectResults() {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		if edges[i].Distance != edges[j].Distance {
			return edges[i].Distance < edges[j].Distance
		}
		return edges[i].RoadName < edges[j].RoadName
	})

	deduped := edges[:0]
	for _, e := range edges {
		n := len(deduped)
		if n > 0 && deduped[n-1].From == e.From && deduped[n-1].To == e.To {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped
}

func measureChain(chain chainJob) ParsedEdge {
	dist := 0.0
	for i := 1; i < len(chain.coords); i++ {
		dist += geo.CalculateHaversineDistance(
			chain.coords[i-1].lat, chain.coords[i-1].lon,
			chain.coords[i].lat, chain.coords[i].lon)
	}
	return ParsedEdge{
		From:     chain.from,
		To:       chain.to,
		Distance: dist,
		RoadName: chain.name,
		Quality:  chain.quality,
	}
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")
	if highway != "" {
		if _, ok := acceptedHighway[highway]; ok {
			return true
		}
	} else if junction != "" {
		return true
	}
	return false
}

// roadQualityOf derives the edge quality factor from the most specific tag
// present: smoothness, then surface, then the road class itself.
func roadQualityOf(way *osm.Way) float64 {
	if q, ok := smoothnessQuality[way.Tags.Find("smoothness")]; ok {
		return q
	}
	if q, ok := surfaceQuality[way.Tags.Find("surface")]; ok {
		return q
	}
	if q, ok := highwayQuality[way.Tags.Find("highway")]; ok {
		return q
	}
	return defaultQuality
}
