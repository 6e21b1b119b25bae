package geo

import (
	gopolyline "github.com/twpayne/go-polyline"
)

// PolylineFromCoords encodes route geometry with the google polyline5 codec.
func PolylineFromCoords(coords []Coordinate) string {
	flat := make([][]float64, len(coords))
	for i, c := range coords {
		flat[i] = []float64{c.GetLat(), c.GetLon()}
	}
	return string(gopolyline.EncodeCoords(flat))
}

func CoordsFromPolyline(encoded string) ([]Coordinate, error) {
	flat, _, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, len(flat))
	for i, c := range flat {
		coords[i] = NewCoordinate(c[0], c[1])
	}
	return coords, nil
}
