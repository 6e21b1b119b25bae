package geo

import (
	"github.com/golang/geo/s2"
)

// s2 cells at this level are roughly centimeter sized, fine enough to treat
// two coordinates in the same cell as the same physical point.
const duplicateCellLevel = 30

// CellIDOf returns the level 30 s2 cell containing the coordinate. Used to
// dedup nodes that carry the same physical location under different ids.
func CellIDOf(lat, lon float64) uint64 {
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return uint64(cell.Parent(duplicateCellLevel))
}

// SameCell reports whether two coordinates fall into the same level 30 cell.
func SameCell(latOne, lonOne, latTwo, lonTwo float64) bool {
	return CellIDOf(latOne, lonOne) == CellIDOf(latTwo, lonTwo)
}
