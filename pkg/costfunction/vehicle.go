package costfunction

import (
	"github.com/lintang-b-s/courierx/pkg"
	"github.com/spf13/viper"
)

// VehicleProfile maps road quality tiers to cost multipliers for one
// vehicle type, plus the quality floor below which a road is categorically
// impassable for it (0 disables the floor). Multipliers are policy, they
// come from config, not from code.
type VehicleProfile struct {
	vehicle         pkg.VehicleType
	penalty         map[pkg.QualityTier]float64
	impassableBelow float64
}

func NewVehicleProfile(vehicle pkg.VehicleType, penalty map[pkg.QualityTier]float64,
	impassableBelow float64) *VehicleProfile {
	return &VehicleProfile{
		vehicle:         vehicle,
		penalty:         penalty,
		impassableBelow: impassableBelow,
	}
}

// VehicleProfileFromConfig reads the penalty table of one vehicle type.
// util.SetPolicyDefaults seeds the shipped policy: boda {1.0, 1.1, 1.3},
// bajaji {1.0, 1.3, 1.8} with roads below 0.4 quality closed to bajaji.
func VehicleProfileFromConfig(vehicle pkg.VehicleType) *VehicleProfile {
	switch vehicle {
	case pkg.VEHICLE_BAJAJI:
		return NewVehicleProfile(vehicle, map[pkg.QualityTier]float64{
			pkg.QUALITY_HIGH:   viper.GetFloat64("VEHICLE_PENALTY_BAJAJI_HIGH"),
			pkg.QUALITY_MEDIUM: viper.GetFloat64("VEHICLE_PENALTY_BAJAJI_MEDIUM"),
			pkg.QUALITY_LOW:    viper.GetFloat64("VEHICLE_PENALTY_BAJAJI_LOW"),
		}, viper.GetFloat64("VEHICLE_BAJAJI_IMPASSABLE_QUALITY"))
	default:
		return NewVehicleProfile(pkg.VEHICLE_BODA, map[pkg.QualityTier]float64{
			pkg.QUALITY_HIGH:   viper.GetFloat64("VEHICLE_PENALTY_BODA_HIGH"),
			pkg.QUALITY_MEDIUM: viper.GetFloat64("VEHICLE_PENALTY_BODA_MEDIUM"),
			pkg.QUALITY_LOW:    viper.GetFloat64("VEHICLE_PENALTY_BODA_LOW"),
		}, 0)
	}
}

func (vp *VehicleProfile) GetVehicle() pkg.VehicleType {
	return vp.vehicle
}

// PenaltyFor never returns below 1.0, a vehicle can only make an edge more
// expensive, not cheaper.
func (vp *VehicleProfile) PenaltyFor(tier pkg.QualityTier) float64 {
	p, ok := vp.penalty[tier]
	if !ok || p < 1.0 {
		return 1.0
	}
	return p
}

func (vp *VehicleProfile) Impassable(quality float64) bool {
	return vp.impassableBelow > 0 && quality < vp.impassableBelow
}
