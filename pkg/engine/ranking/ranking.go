package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lintang-b-s/courierx/pkg/concurrent"
	"github.com/lintang-b-s/courierx/pkg/dataset"
	da "github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const distanceWorkers = 4

// RoadNetwork is the slice of the routing engine the ranker needs: snapping
// restaurant coordinates once at startup and road kilometers per query.
type RoadNetwork interface {
	SnapToNearestNode(lat, lon float64) (da.Index, error)
	ShortestDistance(source, target da.Index) (float64, error)
}

// Policy holds the ranking weights and pruning thresholds. Weights should
// sum to 1.0 so scores stay comparable across config changes.
type Policy struct {
	weightRating     float64
	weightPopularity float64
	weightDistance   float64
	weightPrepTime   float64
	weightCuisine    float64
	maxDistanceKm    float64
	minRating        float64
	popularityNorm   float64
	prepTimeNorm     float64
}

func PolicyFromConfig() Policy {
	return Policy{
		weightRating:     viper.GetFloat64("RANKING_WEIGHT_RATING"),
		weightPopularity: viper.GetFloat64("RANKING_WEIGHT_POPULARITY"),
		weightDistance:   viper.GetFloat64("RANKING_WEIGHT_DISTANCE"),
		weightPrepTime:   viper.GetFloat64("RANKING_WEIGHT_PREP_TIME"),
		weightCuisine:    viper.GetFloat64("RANKING_WEIGHT_CUISINE"),
		maxDistanceKm:    viper.GetFloat64("RANKING_MAX_DISTANCE_KM"),
		minRating:        viper.GetFloat64("RANKING_MIN_RATING"),
		popularityNorm:   viper.GetFloat64("RANKING_POPULARITY_NORM"),
		prepTimeNorm:     viper.GetFloat64("RANKING_PREP_TIME_NORM"),
	}
}

// RankedRestaurant is a dataset restaurant with the query scoped ranking
// outputs attached.
type RankedRestaurant struct {
	dataset.Restaurant
	RoadNode    da.Index `json:"road_node"`
	Score       float64  `json:"score"`
	DistanceKm  float64  `json:"distance_km"`
	Explanation string   `json:"explanation"`
}

// Ranker scores restaurants for a customer location. Restaurants are
// snapped to their road nodes once at construction, nodes never move.
type Ranker struct {
	network     RoadNetwork
	policy      Policy
	restaurants []RankedRestaurant
	logger      *zap.Logger
}

func NewRanker(network RoadNetwork, restaurants []dataset.Restaurant,
	policy Policy, logger *zap.Logger) (*Ranker, error) {
	entries := make([]RankedRestaurant, 0, len(restaurants))
	for _, r := range restaurants {
		node, err := network.SnapToNearestNode(r.Lat, r.Lon)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput,
				"ranking: snapping restaurant %d: %v", r.ID, err)
		}
		entries = append(entries, RankedRestaurant{Restaurant: r, RoadNode: node})
	}
	logger.Info("ranking engine ready", zap.Int("restaurants", len(entries)))

	return &Ranker{
		network:     network,
		policy:      policy,
		restaurants: entries,
		logger:      logger,
	}, nil
}

// Rank returns the top k restaurants for the customer at (userLat, userLon),
// best first. Candidates below the rating floor are pruned before any road
// query runs, the survivors get their road distance in parallel and are
// pruned again by the distance ceiling. Ties keep dataset order.
func (rk *Ranker) Rank(userLat, userLon float64, preferredCuisine []string,
	topK int) (da.Index, []RankedRestaurant, error) {
	if topK <= 0 {
		return 0, nil, util.WrapErrorf(nil, util.ErrBadParamInput, "ranking: top k must be positive, got %d", topK)
	}

	userNode, err := rk.network.SnapToNearestNode(userLat, userLon)
	if err != nil {
		return 0, nil, err
	}

	candidates := make([]RankedRestaurant, 0, len(rk.restaurants))
	for _, r := range rk.restaurants {
		if r.Rating < rk.policy.minRating {
			continue
		}
		candidates = append(candidates, r)
	}

	workers := concurrent.NewWorkerPool[*RankedRestaurant, error](distanceWorkers, len(candidates))
	for i := range candidates {
		workers.AddJob(&candidates[i])
	}
	workers.Close()
	workers.Start(func(r *RankedRestaurant) error {
		dist, err := rk.network.ShortestDistance(userNode, r.RoadNode)
		if err != nil {
			return err
		}
		r.DistanceKm = dist
		return nil
	})
	workers.Wait()
	for err := range workers.CollectResults() {
		if err != nil {
			return 0, nil, err
		}
	}

	reachable := candidates[:0]
	for _, r := range candidates {
		// unreachable candidates carry +Inf and fall to the same branch
		if r.DistanceKm > rk.policy.maxDistanceKm {
			continue
		}
		r.Score = rk.score(&r, preferredCuisine)
		r.Explanation = rk.explain(&r, preferredCuisine)
		reachable = append(reachable, r)
	}

	sort.SliceStable(reachable, func(i, j int) bool {
		return reachable[i].Score > reachable[j].Score
	})
	if len(reachable) > topK {
		reachable = reachable[:topK]
	}

	rk.logger.Debug("restaurants ranked",
		zap.Uint32("user_node", uint32(userNode)),
		zap.Int("delivered", len(reachable)))
	return userNode, reachable, nil
}

func (rk *Ranker) score(r *RankedRestaurant, preferredCuisine []string) float64 {
	ratingScore := r.Rating / 5.0
	popularityScore := math.Min(float64(r.Popularity)/rk.policy.popularityNorm, 1.0)
	distanceScore := 1.0 / (1.0 + r.DistanceKm)
	prepScore := 1.0 - r.AvgPrepTime/rk.policy.prepTimeNorm

	cuisineScore := 0.0
	if len(matchingCuisines(r.Cuisine, preferredCuisine)) > 0 {
		cuisineScore = 1.0
	}

	return rk.policy.weightRating*ratingScore +
		rk.policy.weightPopularity*popularityScore +
		rk.policy.weightDistance*distanceScore +
		rk.policy.weightPrepTime*prepScore +
		rk.policy.weightCuisine*cuisineScore
}

func (rk *Ranker) explain(r *RankedRestaurant, preferredCuisine []string) string {
	var reasons []string

	if r.Rating >= 4.5 {
		reasons = append(reasons, fmt.Sprintf("Excellent rating (%.1f★)", r.Rating))
	}
	if r.DistanceKm < 0.5 {
		reasons = append(reasons, fmt.Sprintf("Very close (%.2fkm via roads)", r.DistanceKm))
	} else if r.DistanceKm < 1.0 {
		reasons = append(reasons, fmt.Sprintf("Nearby (%.2fkm via roads)", r.DistanceKm))
	}
	if r.AvgPrepTime <= 15 {
		reasons = append(reasons, fmt.Sprintf("Quick prep (%.0fmin)", r.AvgPrepTime))
	}
	if r.Popularity > 800 {
		reasons = append(reasons, "Popular choice")
	}
	if matches := matchingCuisines(r.Cuisine, preferredCuisine); len(matches) > 0 {
		reasons = append(reasons, "Matches preference: "+strings.Join(matches, ", "))
	}

	if len(reasons) == 0 {
		return "Solid option"
	}
	return strings.Join(reasons, " | ")
}

func matchingCuisines(cuisine, preferred []string) []string {
	var matches []string
	for _, c := range cuisine {
		for _, p := range preferred {
			if c == p {
				matches = append(matches, c)
				break
			}
		}
	}
	return matches
}
