package osmparser

// enum of way node roles, assigned on the first scan pass. A node seen by
// more than one accepted way becomes a junction and later cuts the chain.
type NodeType uint8

const (
	BETWEEN_NODE NodeType = iota
	END_NODE
	JUNCTION_NODE
)

const (
	STREET_NAME    = "name"
	STREET_REF     = "ref"
	defaultQuality = 0.6
)

type NodeCoord struct {
	lat float64
	lon float64
}

func NewNodeCoord(lat, lon float64) NodeCoord {
	return NodeCoord{lat, lon}
}

type node struct {
	id    int64
	coord NodeCoord
}

// acceptedHighway keeps the way types a delivery vehicle can use. Footways,
// cycleways, paths and the like never make it into the road dataset.
var acceptedHighway = map[string]struct{}{
	"motorway":         {},
	"motorway_link":    {},
	"trunk":            {},
	"trunk_link":       {},
	"primary":          {},
	"primary_link":     {},
	"secondary":        {},
	"secondary_link":   {},
	"tertiary":         {},
	"tertiary_link":    {},
	"residential":      {},
	"residential_link": {},
	"living_street":    {},
	"unclassified":     {},
	"service":          {},
	"road":             {},
	"track":            {},
}

// acceptedBarrierType lists barriers that block through travel when tagged
// access=no. The importer keeps such nodes addressable so a closure issued
// through the api severs the network exactly at the gate.
var acceptedBarrierType = map[string]struct{}{
	"bollard":        {},
	"swing_gate":     {},
	"jersey_barrier": {},
	"lift_gate":      {},
	"block":          {},
	"gate":           {},
}

// highwayQuality approximates surface quality from the road class when the
// way carries no surface tag. Values live in (0.0, 1.0], the range the road
// graph accepts.
var highwayQuality = map[string]float64{
	"motorway":         1.0,
	"motorway_link":    1.0,
	"trunk":            1.0,
	"trunk_link":       1.0,
	"primary":          0.95,
	"primary_link":     0.95,
	"secondary":        0.9,
	"secondary_link":   0.9,
	"tertiary":         0.85,
	"tertiary_link":    0.85,
	"residential":      0.8,
	"residential_link": 0.8,
	"living_street":    0.7,
	"unclassified":     0.65,
	"service":          0.65,
	"road":             0.6,
	"track":            0.4,
}

var surfaceQuality = map[string]float64{
	"asphalt":         1.0,
	"paved":           1.0,
	"concrete":        0.95,
	"concrete:plates": 0.85,
	"paving_stones":   0.9,
	"sett":            0.8,
	"compacted":       0.75,
	"cobblestone":     0.7,
	"fine_gravel":     0.7,
	"gravel":          0.6,
	"unpaved":         0.5,
	"ground":          0.45,
	"dirt":            0.4,
	"earth":           0.4,
	"grass":           0.35,
	"sand":            0.3,
	"mud":             0.25,
}

var smoothnessQuality = map[string]float64{
	"excellent":     1.0,
	"good":          0.9,
	"intermediate":  0.7,
	"bad":           0.5,
	"very_bad":      0.35,
	"horrible":      0.25,
	"very_horrible": 0.2,
	"impassable":    0.1,
}
