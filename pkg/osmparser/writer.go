package osmparser

import (
	"encoding/json"
	"os"

	"github.com/lintang-b-s/courierx/pkg/util"
)

// ParsedRoads is the road dataset in the exact shape LoadRoadGraph reads.
// Traffic factors are not emitted, a fresh import carries no live traffic
// and the loader defaults the multiplier to 1.0.
type ParsedRoads struct {
	Nodes []ParsedNode `json:"nodes"`
	Edges []ParsedEdge `json:"edges"`
}

type ParsedNode struct {
	ID   int64   `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

type ParsedEdge struct {
	From     int64   `json:"from"`
	To       int64   `json:"to"`
	Distance float64 `json:"distance"`
	RoadName string  `json:"road_name,omitempty"`
	Quality  float64 `json:"quality"`
}

func (pr *ParsedRoads) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pr); err != nil {
		f.Close()
		return util.WrapErrorf(err, util.ErrInternalServerError, "road dataset %s: %v", path, err)
	}
	return f.Close()
}
