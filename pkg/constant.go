package pkg

// enum of vehicle_type
type VehicleType uint8

const (
	VEHICLE_BODA VehicleType = iota
	VEHICLE_BAJAJI
	VEHICLE_UNKNOWN
)

func GetVehicleType(vehicle string) VehicleType {
	switch vehicle {
	case "boda":
		return VEHICLE_BODA
	case "bajaji":
		return VEHICLE_BAJAJI
	default:
		return VEHICLE_UNKNOWN
	}
}

func (v VehicleType) String() string {
	switch v {
	case VEHICLE_BODA:
		return "boda"
	case VEHICLE_BAJAJI:
		return "bajaji"
	default:
		return "unknown"
	}
}

// enum of road quality tier. tier derived from the edge quality factor,
// see QualityTierOf.
type QualityTier uint8

const (
	QUALITY_HIGH QualityTier = iota
	QUALITY_MEDIUM
	QUALITY_LOW
)

const (
	HIGH_QUALITY_THRESHOLD   = 0.85
	MEDIUM_QUALITY_THRESHOLD = 0.75
)

func QualityTierOf(quality float64) QualityTier {
	switch {
	case quality >= HIGH_QUALITY_THRESHOLD:
		return QUALITY_HIGH
	case quality >= MEDIUM_QUALITY_THRESHOLD:
		return QUALITY_MEDIUM
	default:
		return QUALITY_LOW
	}
}

func (q QualityTier) String() string {
	switch q {
	case QUALITY_HIGH:
		return "high"
	case QUALITY_MEDIUM:
		return "medium"
	default:
		return "low"
	}
}

// enum of order_size
type OrderSize uint8

const (
	ORDER_SMALL OrderSize = iota
	ORDER_MEDIUM
	ORDER_LARGE
)

func GetOrderSize(size string) OrderSize {
	switch size {
	case "small":
		return ORDER_SMALL
	case "large":
		return ORDER_LARGE
	default:
		return ORDER_MEDIUM
	}
}

const (
	INF_WEIGHT float64 = 1e15

	MIN_ROAD_QUALITY           = 1e-3
	DEFAULT_TRAFFIC_MULTIPLIER = 1.0
	ALTERNATIVE_EDGE_PENALTY   = 5.0
	ALTERNATIVE_MAX_ITERATIONS = 25

	DISTANCE_CACHE_SIZE = 8192
)

const (
	DEBUG = false
)
