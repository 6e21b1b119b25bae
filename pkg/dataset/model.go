package dataset

// Entity tables of the delivery dataset. Field tags follow the JSON files
// the importer emits, coordinates are WGS84 degrees and distances are in
// kilometers.

type Restaurant struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Cuisine     []string `json:"cuisine"`
	Rating      float64  `json:"rating"`
	Popularity  int      `json:"popularity"`
	AvgPrepTime float64  `json:"avg_prep_time"`
	PriceRange  string   `json:"price_range"`
}

type Driver struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	VehicleType      string  `json:"vehicle_type"`
	CostPerKm        float64 `json:"cost_per_km"`
	Rating           float64 `json:"rating"`
	TotalTrips       int     `json:"total_trips"`
	Availability     string  `json:"availability"`
	ReliabilityScore float64 `json:"reliability_score"`
}

type User struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

const (
	DriverAvailable = "available"
	DriverBusy      = "busy"
)
