package main

import (
	"flag"

	"github.com/lintang-b-s/courierx/pkg/dataset"
	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/logger"
	"github.com/lintang-b-s/courierx/pkg/osmparser"
	"go.uber.org/zap"
)

var (
	mapFile      = flag.String("map", "./data/jakarta.osm.pbf", "openstreetmap pbf extract to import")
	outFile      = flag.String("out", "./data/roads.json", "road dataset output path")
	snapshotFile = flag.String("snapshot", "./data/roads.graph.bz2", "compressed graph snapshot output path")
)

func main() {
	flag.Parse()
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	osmParser := osmparser.NewOSMParser()
	roads, err := osmParser.Parse(*mapFile, log)
	if err != nil {
		log.Fatal("importing openstreetmap extract", zap.Error(err))
	}
	if err := roads.WriteFile(*outFile); err != nil {
		log.Fatal("writing road dataset", zap.Error(err))
	}

	// read the dataset back through the loader so a broken import fails
	// here instead of at engine startup
	graph, err := dataset.LoadRoadGraph(*outFile, log)
	if err != nil {
		log.Fatal("verifying road dataset", zap.Error(err))
	}

	// the compressed snapshot skips dataset validation on engine restarts
	if err := graph.WriteRoadGraph(*snapshotFile); err != nil {
		log.Fatal("writing graph snapshot", zap.Error(err))
	}
	if _, err := datastructure.ReadRoadGraph(*snapshotFile); err != nil {
		log.Fatal("verifying graph snapshot", zap.Error(err))
	}
	log.Info("road dataset imported", zap.String("out", *outFile),
		zap.String("snapshot", *snapshotFile))
}
