// Package batch reads the cluster batch plan, builds engine invocations
// from it, and finds batches whose output is incomplete.
package batch

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/bonesbb/HASPR/internal/csvio"
	"github.com/gocarina/gocsv"
)

// Row is one line of the batch plan sheet.
type Row struct {
	Number       string `csv:"Batch Number"`
	Type         string `csv:"Type"`
	SiteIDs      string `csv:"Site IDs"`
	Year         string `csv:"Year"`
	OutputFolder string `csv:"Output Folder"`
	SweepIndex   string `csv:"Sweep Index"`
	JobSub       string `csv:"Job Sub"`
	ResultCheck  string `csv:"Result Check"`
}

const planWidth = 8

// Plan is a decoded batch plan.
type Plan struct {
	Header []string
	Rows   []Row
}

// ReadPlan loads a batch plan.
func ReadPlan(filename string) (*Plan, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch plan: %w", err)
	}
	defer f.Close()

	var rows []Row
	header, err := csvio.Decode(f, &rows, planWidth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &Plan{Header: header, Rows: rows}, nil
}

// Job is a parsed plan row.
type Job struct {
	Index        int
	Optimisation int
	SiteList     int
	Year         string
	Folder       string
	SweepIndex   int
}

// Jobs parses every row of the plan.
func (p *Plan) Jobs() ([]Job, error) {
	jobs := make([]Job, 0, len(p.Rows))
	for i, r := range p.Rows {
		j, err := ParseJob(r)
		if err != nil {
			return nil, fmt.Errorf("batch plan row %d: %w", i+2, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ParseJob interprets one plan row.
func ParseJob(r Row) (Job, error) {
	var j Job
	var err error

	if j.Index, err = atoi(r.Number); err != nil {
		return j, fmt.Errorf("bad batch number %q", r.Number)
	}

	switch strings.TrimSpace(r.Type) {
	case "O1":
		j.Optimisation = 1
	case "O2":
		j.Optimisation = 2
	default:
		return j, fmt.Errorf("unrecognised batch type %q", r.Type)
	}

	ids := strings.Trim(strings.TrimSpace(r.SiteIDs), "[]")
	if j.SiteList, err = atoi(ids); err != nil {
		return j, fmt.Errorf("bad site list %q", r.SiteIDs)
	}

	if j.Year = strings.TrimSpace(r.Year); j.Year == "" {
		return j, fmt.Errorf("batch %d has no year", j.Index)
	}

	folder := r.OutputFolder
	if _, after, found := strings.Cut(folder, " -> "); found {
		folder = after
	}
	if j.Folder = strings.TrimSpace(folder); j.Folder == "" {
		return j, fmt.Errorf("batch %d has no output folder", j.Index)
	}

	if j.SweepIndex, err = atoi(r.SweepIndex); err != nil {
		return j, fmt.Errorf("bad sweep index %q", r.SweepIndex)
	}
	return j, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// Select keeps the jobs whose index is in [first, last].
func Select(jobs []Job, first, last int) []Job {
	var out []Job
	for _, j := range jobs {
		if j.Index >= first && j.Index <= last {
			out = append(out, j)
		}
	}
	return out
}

// Template builds the engine invocation of a job.
type Template struct {
	Launcher   []string // e.g. a cluster submit command; may be empty
	Engine     string
	DatasetExt string
}

// DefaultTemplate runs the engine directly on Parquet datasets.
var DefaultTemplate = Template{Engine: "haspr", DatasetExt: "parquet"}

// OutputDir is the job's output directory, relative to the working root.
func (j Job) OutputDir() string {
	return path.Join("output", j.Folder)
}

// Args returns the command line for j.
func (t Template) Args(j Job) []string {
	ext := t.DatasetExt
	if ext == "" {
		ext = DefaultTemplate.DatasetExt
	}
	engine := t.Engine
	if engine == "" {
		engine = DefaultTemplate.Engine
	}

	args := append([]string{}, t.Launcher...)
	return append(args,
		engine,
		fmt.Sprintf("coords/coords%d.csv", j.SiteList),
		j.OutputDir(),
		fmt.Sprintf("datasets/%s/00_%s_SIS_merged.%s", j.Year, j.Year, ext),
		fmt.Sprintf("datasets/%s/01_%s_SID_merged.%s", j.Year, j.Year, ext),
		strconv.Itoa(j.Optimisation),
		strconv.Itoa(j.SweepIndex),
	)
}

// WriteRows writes plan rows under the plan header, e.g. a resubmission list.
func WriteRows(filename string, rows []Row) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return f.Close()
}

// Matching returns the plan rows whose batch number is in indices.
func (p *Plan) Matching(indices []int) []Row {
	want := make(map[int]bool, len(indices))
	for _, i := range indices {
		want[i] = true
	}
	var out []Row
	for _, r := range p.Rows {
		if n, err := atoi(r.Number); err == nil && want[n] {
			out = append(out, r)
		}
	}
	return out
}
