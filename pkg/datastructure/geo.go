package datastructure

import "math"

type BoundingBox struct {
	minLat, minLon float64
	maxLat, maxLon float64
}

func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) *BoundingBox {
	return &BoundingBox{minLat: minLat,
		minLon: minLon,
		maxLat: maxLat,
		maxLon: maxLon}
}

// EmptyBoundingBox starts inverted so the first Extend sets all four sides.
func EmptyBoundingBox() *BoundingBox {
	return &BoundingBox{
		minLat: math.Inf(1), minLon: math.Inf(1),
		maxLat: math.Inf(-1), maxLon: math.Inf(-1),
	}
}

func (b *BoundingBox) Extend(lat, lon float64) {
	b.minLat = math.Min(b.minLat, lat)
	b.minLon = math.Min(b.minLon, lon)
	b.maxLat = math.Max(b.maxLat, lat)
	b.maxLon = math.Max(b.maxLon, lon)
}

func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat &&
		lon >= b.minLon && lon <= b.maxLon
}

func (b *BoundingBox) GetMinCoord() (float64, float64) {
	return b.minLat, b.minLon
}

func (b *BoundingBox) GetMaxCoord() (float64, float64) {
	return b.maxLat, b.maxLon
}

func (b *BoundingBox) GetMinLat() float64 {
	return b.minLat
}

func (b *BoundingBox) GetMinLon() float64 {
	return b.minLon
}

func (b *BoundingBox) GetMaxLat() float64 {
	return b.maxLat
}

func (b *BoundingBox) GetMaxLon() float64 {
	return b.maxLon
}
