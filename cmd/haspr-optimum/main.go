package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bonesbb/HASPR/internal/log"
	"github.com/bonesbb/HASPR/internal/output"
	"github.com/bonesbb/HASPR/internal/sweep"
)

func main() {
	var (
		dir = flag.String("dir", "output", "Directory walked for fixed generation overviews")
		out = flag.String("out", "", "Output directory (default: -dir)")
	)
	flag.Parse()

	if err := log.Init(false); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	records, err := output.CollectRecords(*dir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(records) == 0 {
		log.Fatalf("no fixed generation overviews under %s", *dir)
	}

	optima := sweep.SelectOptimum(records)

	target := *out
	if target == "" {
		target = *dir
	}
	path := filepath.Join(target, "Optimal Positions.csv")
	if err := output.WriteOptima(path, optima); err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("Selected optimal orientations for %d sites from %d records: %s", len(optima), len(records), path)
}
