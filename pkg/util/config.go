package util

import (
	"fmt"

	"github.com/spf13/viper"
)

func ReadConfig() error {
	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

// SetPolicyDefaults registers the shipped delivery policy so a deployment
// without a config file still routes and ranks. Every value can be
// overridden from ./data/config.yaml or the environment.
func SetPolicyDefaults() {
	// vehicle penalty per road quality tier
	viper.SetDefault("VEHICLE_PENALTY_BODA_HIGH", 1.0)
	viper.SetDefault("VEHICLE_PENALTY_BODA_MEDIUM", 1.1)
	viper.SetDefault("VEHICLE_PENALTY_BODA_LOW", 1.3)
	viper.SetDefault("VEHICLE_PENALTY_BAJAJI_HIGH", 1.0)
	viper.SetDefault("VEHICLE_PENALTY_BAJAJI_MEDIUM", 1.3)
	viper.SetDefault("VEHICLE_PENALTY_BAJAJI_LOW", 1.8)
	viper.SetDefault("VEHICLE_BAJAJI_IMPASSABLE_QUALITY", 0.4)

	// restaurant ranking
	viper.SetDefault("RANKING_WEIGHT_RATING", 0.25)
	viper.SetDefault("RANKING_WEIGHT_POPULARITY", 0.20)
	viper.SetDefault("RANKING_WEIGHT_DISTANCE", 0.30)
	viper.SetDefault("RANKING_WEIGHT_PREP_TIME", 0.15)
	viper.SetDefault("RANKING_WEIGHT_CUISINE", 0.10)
	viper.SetDefault("RANKING_MAX_DISTANCE_KM", 3.0)
	viper.SetDefault("RANKING_MIN_RATING", 3.5)
	viper.SetDefault("RANKING_POPULARITY_NORM", 1500.0)
	viper.SetDefault("RANKING_PREP_TIME_NORM", 35.0)

	// driver dispatch
	viper.SetDefault("DISPATCH_WEIGHT_DISTANCE", 0.40)
	viper.SetDefault("DISPATCH_WEIGHT_COST_RATE", 0.25)
	viper.SetDefault("DISPATCH_WEIGHT_RELIABILITY", 0.20)
	viper.SetDefault("DISPATCH_WEIGHT_RATING", 0.15)
	viper.SetDefault("DISPATCH_AVAILABILITY_PENALTY", 2.0)
	viper.SetDefault("DISPATCH_VEHICLE_MISMATCH_PENALTY", 1.5)
	viper.SetDefault("DISPATCH_MAX_DISTANCE_KM", 5.0)
	viper.SetDefault("DISPATCH_MIN_RATING", 4.0)

	// route planner
	viper.SetDefault("PLANNER_PENALTY_RATIO_THRESHOLD", 1.1)
	viper.SetDefault("PLANNER_ALTERNATIVES_K", 2)
}
