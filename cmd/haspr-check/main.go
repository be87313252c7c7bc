package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bonesbb/HASPR/internal/batch"
	"github.com/bonesbb/HASPR/internal/log"
)

func main() {
	var (
		dir      = flag.String("dir", "output", "Directory holding the B<index> batch output directories")
		planFile = flag.String("plan", "batches.csv", "Path to the batch plan CSV")
		out      = flag.String("out", "batches_resubmit.csv", "Path of the resubmission plan to write")
		accepted = flag.String("accepted", "41,5", "Comma-separated file counts of a complete batch directory")
	)
	flag.Parse()

	if err := log.Init(false); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	counts, err := parseCounts(*accepted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -accepted: %v\n", err)
		os.Exit(2)
	}

	incomplete, err := batch.FindIncomplete(*dir, counts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Println("Indices of incomplete directories:")
	for _, in := range incomplete {
		fmt.Printf("  %d\t(%d files in %s)\n", in.Index, in.Files, in.Dir)
	}
	fmt.Printf("%d incomplete dirs\n", len(incomplete))

	if len(incomplete) == 0 {
		return
	}

	plan, err := batch.ReadPlan(*planFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	rows := plan.Matching(batch.Indices(incomplete))
	if err := batch.WriteRows(*out, rows); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Wrote %d batches to %s\n", len(rows), *out)
}

func parseCounts(s string) ([]int, error) {
	var counts []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad file count %q", f)
		}
		counts = append(counts, n)
	}
	return counts, nil
}
