// Command import loads pre-existing crawler JSON dumps from a data directory
// into MongoDB, one collection per platform.
package main

import (
	"context"
	"flag"
	"log"

	"mediacrawler/internal/importer"
	"mediacrawler/internal/platform/mongodb"
)

func main() {
	var (
		uri     = flag.String("uri", "mongodb://127.0.0.1:27017", "MongoDB connection URI")
		dbName  = flag.String("db", "media_crawler", "database name")
		dataDir = flag.String("data", "./data", "data directory holding {platform}/json dumps")
		drop    = flag.Bool("drop", false, "delete existing collection contents before importing")
	)
	flag.Parse()

	ctx := context.Background()
	mongoSvc, err := mongodb.New(ctx, mongodb.Options{URI: *uri, Database: *dbName})
	if err != nil {
		log.Fatal(err)
	}
	defer mongoSvc.Close(ctx)

	imp := importer.New(mongoSvc.Database())
	if err := imp.Stats(ctx, *dataDir); err != nil {
		log.Fatal(err)
	}
	if err := imp.Run(ctx, *dataDir, *drop); err != nil {
		log.Fatal(err)
	}
	if err := imp.Stats(ctx, *dataDir); err != nil {
		log.Fatal(err)
	}
}
