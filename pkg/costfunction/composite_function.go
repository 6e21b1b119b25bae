package costfunction

import (
	"math"

	"github.com/lintang-b-s/courierx/pkg"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
)

// CompositeFunction is the delivery metric:
//
//	cost = base distance x traffic multiplier x quality penalty x vehicle penalty
//
// with quality penalty = 1 / max(quality, epsilon) so broken surfaces
// inflate the weight, and the vehicle penalty taken from the profile's
// quality tier table. Roads below the profile's impassable floor are not
// weighted at all, Passable excludes them from the search.
type CompositeFunction struct {
	profile *VehicleProfile
	traffic *TrafficSnapshot
}

func NewCompositeCostFunction(profile *VehicleProfile, traffic *TrafficSnapshot) *CompositeFunction {
	return &CompositeFunction{
		profile: profile,
		traffic: traffic,
	}
}

func (cf *CompositeFunction) GetWeight(tail datastructure.Index, e EdgeAttributes) float64 {
	trafficMult := cf.traffic.MultiplierFor(tail, e.GetHead(), e.GetTraffic())
	qualityPenalty := 1.0 / math.Max(e.GetQuality(), pkg.MIN_ROAD_QUALITY)
	vehiclePenalty := cf.profile.PenaltyFor(pkg.QualityTierOf(e.GetQuality()))

	return e.GetDist() * trafficMult * qualityPenalty * vehiclePenalty
}

func (cf *CompositeFunction) Passable(tail datastructure.Index, e EdgeAttributes) bool {
	return !cf.profile.Impassable(e.GetQuality())
}

// CostBreakdown itemizes one traversal for explanations and responses.
type CostBreakdown struct {
	BaseDist       float64 `json:"base_distance_km"`
	TrafficMult    float64 `json:"traffic_multiplier"`
	QualityPenalty float64 `json:"quality_penalty"`
	VehiclePenalty float64 `json:"vehicle_penalty"`
	Total          float64 `json:"total_cost"`
}

func (cf *CompositeFunction) Breakdown(tail datastructure.Index, e EdgeAttributes) CostBreakdown {
	trafficMult := cf.traffic.MultiplierFor(tail, e.GetHead(), e.GetTraffic())
	qualityPenalty := 1.0 / math.Max(e.GetQuality(), pkg.MIN_ROAD_QUALITY)
	vehiclePenalty := cf.profile.PenaltyFor(pkg.QualityTierOf(e.GetQuality()))

	return CostBreakdown{
		BaseDist:       e.GetDist(),
		TrafficMult:    trafficMult,
		QualityPenalty: qualityPenalty,
		VehiclePenalty: vehiclePenalty,
		Total:          e.GetDist() * trafficMult * qualityPenalty * vehiclePenalty,
	}
}
