package dispatch

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/concurrent"
	"github.com/lintang-b-s/courierx/pkg/dataset"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const distanceWorkers = 4

type RoadNetwork interface {
	SnapToNearestNode(lat, lon float64) (da.Index, error)
	ShortestDistance(source, target da.Index) (float64, error)
}

// Policy holds the dispatch cost weights, penalty multipliers and hard
// feasibility constraints.
type Policy struct {
	weightDistance         float64
	weightCostRate         float64
	weightReliability      float64
	weightRating           float64
	availabilityPenalty    float64
	vehicleMismatchPenalty float64
	maxDistanceKm          float64
	minRating              float64
}

func PolicyFromConfig() Policy {
	return Policy{
		weightDistance:         viper.GetFloat64("DISPATCH_WEIGHT_DISTANCE"),
		weightCostRate:         viper.GetFloat64("DISPATCH_WEIGHT_COST_RATE"),
		weightReliability:      viper.GetFloat64("DISPATCH_WEIGHT_RELIABILITY"),
		weightRating:           viper.GetFloat64("DISPATCH_WEIGHT_RATING"),
		availabilityPenalty:    viper.GetFloat64("DISPATCH_AVAILABILITY_PENALTY"),
		vehicleMismatchPenalty: viper.GetFloat64("DISPATCH_VEHICLE_MISMATCH_PENALTY"),
		maxDistanceKm:          viper.GetFloat64("DISPATCH_MAX_DISTANCE_KM"),
		minRating:              viper.GetFloat64("DISPATCH_MIN_RATING"),
	}
}

// ScoredDriver is a dataset driver with the query scoped assignment
// outputs attached. Cost is a penalty, lower wins.
type ScoredDriver struct {
	dataset.Driver
	RoadNode       da.Index `json:"road_node"`
	CostScore      float64  `json:"cost_score"`
	DistanceKm     float64  `json:"distance_km"`
	Explanation    string   `json:"explanation,omitempty"`
	RejectedReason string   `json:"rejected_reason,omitempty"`
}

// Assignment is the outcome of one dispatch decision. Best is nil when no
// driver passed the hard constraints, which is an answer, not a fault.
type Assignment struct {
	RestaurantNode da.Index       `json:"restaurant_node"`
	Best           *ScoredDriver  `json:"selected_driver"`
	Backups        []ScoredDriver `json:"backup_drivers"`
	Rejected       []ScoredDriver `json:"rejected_drivers"`
}

// Dispatcher assigns the cheapest feasible driver to a restaurant pickup.
// Drivers are snapped to their road nodes once at construction.
type Dispatcher struct {
	network RoadNetwork
	policy  Policy
	drivers []ScoredDriver
	logger  *zap.Logger
}

func NewDispatcher(network RoadNetwork, drivers []dataset.Driver,
	policy Policy, logger *zap.Logger) (*Dispatcher, error) {
	entries := make([]ScoredDriver, 0, len(drivers))
	for _, d := range drivers {
		node, err := network.SnapToNearestNode(d.Lat, d.Lon)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput,
				"dispatch: snapping driver %d: %v", d.ID, err)
		}
		entries = append(entries, ScoredDriver{Driver: d, RoadNode: node})
	}
	logger.Info("dispatch engine ready", zap.Int("drivers", len(entries)))

	return &Dispatcher{
		network: network,
		policy:  policy,
		drivers: entries,
		logger:  logger,
	}, nil
}

// Assign picks the best driver for a pickup at (restaurantLat,
// restaurantLon) plus up to numBackups runners-up, and reports every driver
// that failed a hard constraint with its reason. Hard constraints run in
// dataset order so the rejected list is reproducible, the soft cost then
// orders the feasible set ascending with ties keeping dataset order.
func (dp *Dispatcher) Assign(restaurantLat, restaurantLon float64,
	orderSize pkg.OrderSize, numBackups int) (Assignment, error) {
	if numBackups < 0 {
		return Assignment{}, util.WrapErrorf(nil, util.ErrBadParamInput,
			"dispatch: backup count must not be negative, got %d", numBackups)
	}

	restaurantNode, err := dp.network.SnapToNearestNode(restaurantLat, restaurantLon)
	if err != nil {
		return Assignment{}, err
	}

	candidates := make([]ScoredDriver, len(dp.drivers))
	copy(candidates, dp.drivers)

	workers := concurrent.NewWorkerPool[*ScoredDriver, error](distanceWorkers, len(candidates))
	for i := range candidates {
		workers.AddJob(&candidates[i])
	}
	workers.Close()
	workers.Start(func(d *ScoredDriver) error {
		dist, err := dp.network.ShortestDistance(d.RoadNode, restaurantNode)
		if err != nil {
			return err
		}
		d.DistanceKm = dist
		return nil
	})
	workers.Wait()
	for err := range workers.CollectResults() {
		if err != nil {
			return Assignment{}, err
		}
	}

	feasible := make([]ScoredDriver, 0, len(candidates))
	rejected := make([]ScoredDriver, 0)
	for _, d := range candidates {
		switch {
		case math.IsInf(d.DistanceKm, 1):
			d.RejectedReason = "Unreachable by road"
			rejected = append(rejected, d)
		case d.DistanceKm > dp.policy.maxDistanceKm:
			d.RejectedReason = fmt.Sprintf("Too far (%.2fkm > %.1fkm)", d.DistanceKm, dp.policy.maxDistanceKm)
			rejected = append(rejected, d)
		case d.Rating < dp.policy.minRating:
			d.RejectedReason = fmt.Sprintf("Rating too low (%.1f < %.1f)", d.Rating, dp.policy.minRating)
			rejected = append(rejected, d)
		default:
			feasible = append(feasible, d)
		}
	}

	if len(feasible) == 0 {
		dp.logger.Warn("no feasible driver",
			zap.Uint32("restaurant_node", uint32(restaurantNode)),
			zap.Int("rejected", len(rejected)))
		return Assignment{RestaurantNode: restaurantNode, Backups: []ScoredDriver{}, Rejected: rejected}, nil
	}

	for i := range feasible {
		feasible[i].CostScore = dp.cost(&feasible[i], orderSize)
		feasible[i].Explanation = dp.explain(&feasible[i])
	}
	sort.SliceStable(feasible, func(i, j int) bool {
		return feasible[i].CostScore < feasible[j].CostScore
	})

	best := feasible[0]
	backups := feasible[1:util.MinInt(1+numBackups, len(feasible))]

	dp.logger.Debug("driver assigned",
		zap.Int("driver", best.ID),
		zap.String("vehicle", best.VehicleType),
		zap.Float64("cost_score", best.CostScore))
	return Assignment{
		RestaurantNode: restaurantNode,
		Best:           &best,
		Backups:        backups,
		Rejected:       rejected,
	}, nil
}

// cost blends road distance, the driver's rate, unreliability and inverse
// rating, then multiplies the soft penalties on top. Busy drivers and
// unsuitable vehicles stay selectable, just expensive.
func (dp *Dispatcher) cost(d *ScoredDriver, orderSize pkg.OrderSize) float64 {
	baseCost := dp.policy.weightDistance*d.DistanceKm +
		dp.policy.weightCostRate*d.CostPerKm +
		dp.policy.weightReliability*(1.0-d.ReliabilityScore) +
		dp.policy.weightRating*(1.0-d.Rating/5.0)

	penalty := 1.0
	if d.Availability == dataset.DriverBusy {
		penalty *= dp.policy.availabilityPenalty
	}
	if !vehicleSuitable(pkg.GetVehicleType(d.VehicleType), orderSize) {
		penalty *= dp.policy.vehicleMismatchPenalty
	}
	return baseCost * penalty
}

func vehicleSuitable(vehicle pkg.VehicleType, orderSize pkg.OrderSize) bool {
	switch orderSize {
	case pkg.ORDER_LARGE:
		return vehicle == pkg.VEHICLE_BAJAJI
	case pkg.ORDER_SMALL:
		return vehicle == pkg.VEHICLE_BODA
	default:
		return true
	}
}

func (dp *Dispatcher) explain(d *ScoredDriver) string {
	var reasons []string

	if d.DistanceKm < 1.0 {
		reasons = append(reasons, fmt.Sprintf("Very close (%.2fkm)", d.DistanceKm))
	} else if d.DistanceKm < 2.0 {
		reasons = append(reasons, fmt.Sprintf("Nearby (%.2fkm)", d.DistanceKm))
	}
	if d.Rating >= 4.7 {
		reasons = append(reasons, fmt.Sprintf("Excellent rating (%.1f★)", d.Rating))
	}
	if d.ReliabilityScore >= 0.95 {
		reasons = append(reasons, fmt.Sprintf("Highly reliable (%.0f%%)", d.ReliabilityScore*100))
	}
	if d.CostPerKm <= 1.2 {
		reasons = append(reasons, "Economical")
	}
	if d.Availability == dataset.DriverAvailable {
		reasons = append(reasons, "Ready now")
	} else {
		reasons = append(reasons, "Finishing current delivery")
	}
	if d.TotalTrips > 500 {
		reasons = append(reasons, fmt.Sprintf("Experienced (%d trips)", d.TotalTrips))
	}

	if len(reasons) == 0 {
		return "Qualified driver"
	}
	return strings.Join(reasons, " | ")
}
