package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bonesbb/HASPR/internal/grid"
)

func main() {
	var (
		in     = flag.String("in", "", "CSV long table lat,lon,time,value (required)")
		out    = flag.String("out", "", "Parquet file to write (default: -in with .parquet)")
		bbox   = flag.String("bbox", "", "Optional crop box min_lat,max_lat,min_lon,max_lon")
		force  = flag.Bool("force", false, "Overwrite an existing output file")
		dryRun = flag.Bool("dry-run", false, "Read and report without writing")
	)
	flag.Parse()

	if *in == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -in <dataset.csv> [-out <dataset.parquet>] [-bbox a,b,c,d]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	target := *out
	if target == "" {
		target = strings.TrimSuffix(*in, ".csv") + ".parquet"
	}

	var bounds *grid.Bounds
	if *bbox != "" {
		b := &grid.Bounds{}
		if _, err := fmt.Sscanf(*bbox, "%g,%g,%g,%g", &b.MinLat, &b.MaxLat, &b.MinLon, &b.MaxLon); err != nil {
			fmt.Fprintf(os.Stderr, "Error: -bbox must be min_lat,max_lat,min_lon,max_lon: %v\n", err)
			os.Exit(1)
		}
		bounds = b
	}

	if _, err := os.Stat(target); err == nil && !*force && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: output file already exists: %s\n", target)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting CSV dataset to Parquet...\n")
	fmt.Printf("  Source: %s\n", *in)
	fmt.Printf("  Target: %s\n", target)

	records, err := grid.ReadCSVRecords(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading dataset: %v\n", err)
		os.Exit(1)
	}
	kept := grid.Crop(records, bounds)
	fmt.Printf("  Read %d records, kept %d\n", len(records), len(kept))

	if *dryRun {
		fmt.Println("DRY RUN complete - no file written")
		return
	}

	if err := grid.WriteParquetRecords(target, kept); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing Parquet: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Conversion completed successfully!")
}
