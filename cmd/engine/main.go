package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/courierx/pkg/dataset"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/engine"
	"github.com/lintang-b-s/courierx/pkg/engine/dispatch"
	"github.com/lintang-b-s/courierx/pkg/engine/planner"
	"github.com/lintang-b-s/courierx/pkg/engine/ranking"
	"github.com/lintang-b-s/courierx/pkg/http"
	"github.com/lintang-b-s/courierx/pkg/http/usecases"
	"github.com/lintang-b-s/courierx/pkg/logger"
	"github.com/lintang-b-s/courierx/pkg/util"
	"go.uber.org/zap"
)

var (
	roadsPath       = flag.String("roads", "./data/roads.json", "road network dataset")
	snapshotPath    = flag.String("snapshot", "", "compressed graph snapshot, replaces the road dataset when set")
	restaurantsPath = flag.String("restaurants", "./data/restaurants.json", "restaurant dataset")
	driversPath     = flag.String("drivers", "./data/drivers.json", "driver dataset")
	usersPath       = flag.String("users", "./data/users.json", "user dataset")
	useRateLimit    = flag.Bool("rate_limit", false, "enable the per client rate limiter")
)

func main() {
	flag.Parse()
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	util.SetPolicyDefaults()
	if err := util.ReadConfig(); err != nil {
		log.Warn("no config file found, running on shipped policy defaults", zap.Error(err))
	}

	var graph *datastructure.RoadGraph
	if *snapshotPath != "" {
		// snapshots come out of the importer already validated
		graph, err = datastructure.ReadRoadGraph(*snapshotPath)
	} else {
		graph, err = dataset.LoadRoadGraph(*roadsPath, log)
	}
	if err != nil {
		log.Fatal("loading road network", zap.Error(err))
	}
	restaurants, err := dataset.LoadRestaurants(*restaurantsPath)
	if err != nil {
		log.Fatal("loading restaurants", zap.Error(err))
	}
	drivers, err := dataset.LoadDrivers(*driversPath)
	if err != nil {
		log.Fatal("loading drivers", zap.Error(err))
	}
	users, err := dataset.LoadUsers(*usersPath)
	if err != nil {
		log.Fatal("loading users", zap.Error(err))
	}

	routingEngine, err := engine.NewEngine(graph, log)
	if err != nil {
		log.Fatal("building routing engine", zap.Error(err))
	}
	ranker, err := ranking.NewRanker(routingEngine, restaurants, ranking.PolicyFromConfig(), log)
	if err != nil {
		log.Fatal("building restaurant ranker", zap.Error(err))
	}
	dispatcher, err := dispatch.NewDispatcher(routingEngine, drivers, dispatch.PolicyFromConfig(), log)
	if err != nil {
		log.Fatal("building driver dispatcher", zap.Error(err))
	}
	routePlanner := planner.NewPlanner(routingEngine, planner.PolicyFromConfig(), log)

	routingService := usecases.NewRoutingService(log, routingEngine)
	deliveryService := usecases.NewDeliveryService(log, ranker, dispatcher, routePlanner, users)
	graphService := usecases.NewGraphService(routingEngine, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := http.NewServer(log)
	if err := api.Use(ctx, log, *useRateLimit,
		routingService, deliveryService, graphService); err != nil && ctx.Err() == nil {
		log.Fatal("server stopped", zap.Error(err))
	}

	log.Info("CourierX delivery engine server stopped")
}
