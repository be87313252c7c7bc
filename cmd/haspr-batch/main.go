package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bonesbb/HASPR/internal/batch"
	"github.com/bonesbb/HASPR/internal/log"
)

func main() {
	var (
		planFile = flag.String("plan", "batches.csv", "Path to the batch plan CSV")
		root     = flag.String("root", ".", "Working root holding coords/, datasets/ and output/")
		launcher = flag.String("launcher", "", "Command prefix for each job, e.g. 'bsub'")
		engine   = flag.String("engine", batch.DefaultTemplate.Engine, "Engine executable")
		ext      = flag.String("dataset-ext", batch.DefaultTemplate.DatasetExt, "Dataset file extension")
		dryRun   = flag.Bool("dry-run", false, "Print the commands without running them")
		debug    = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <first batch> <last batch>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	var first, last int
	if _, err := fmt.Sscan(flag.Arg(0), &first); err != nil || first < 1 {
		fmt.Fprintf(os.Stderr, "Error: batch indices out of range: %q\n", flag.Arg(0))
		os.Exit(2)
	}
	if _, err := fmt.Sscan(flag.Arg(1), &last); err != nil || last < first {
		fmt.Fprintf(os.Stderr, "Error: batch indices out of range: %q\n", flag.Arg(1))
		os.Exit(2)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	plan, err := batch.ReadPlan(*planFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	jobs, err := plan.Jobs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	jobs = batch.Select(jobs, first, last)
	if len(jobs) == 0 {
		log.Warnf("no batches between %d and %d in %s", first, last, *planFile)
		return
	}

	s := &batch.Submitter{
		Root:     *root,
		Template: batch.Template{Launcher: strings.Fields(*launcher), Engine: *engine, DatasetExt: *ext},
		Run:      batch.ExecRunner,
		Logger:   log.GetSugaredLogger(),
	}
	if *dryRun {
		s.Run = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Submit(ctx, jobs); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	log.Infof("All %d batches submitted", len(jobs))
}
