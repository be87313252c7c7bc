// Package output writes generation results as the CSV files the analysis
// tooling reads, and reads overview files back for optimum selection.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/poa"
	"github.com/bonesbb/HASPR/internal/sites"
	"github.com/bonesbb/HASPR/internal/sweep"
	"github.com/gocarina/gocsv"
)

// TimeLayout is the timestamp format of generation files.
const TimeLayout = "2006-01-02 15:04:05"

// FixedOverviewSuffix ends the file name of every per-orientation overview.
const FixedOverviewSuffix = " Fixed Generation Overview.csv"

type profileRow struct {
	Time       string  `csv:"Time"`
	Generation float64 `csv:"Generation [Wh/m2]"`
}

type breakdownRow struct {
	Direct  float64 `csv:"Direct Component [W]"`
	Diffuse float64 `csv:"Diffuse Component [W]"`
	Ground  float64 `csv:"Ground Component [W]"`
}

type overviewRow struct {
	SiteID            string  `csv:"Site ID"`
	Latitude          float64 `csv:"Latitude"`
	Longitude         float64 `csv:"Longitude"`
	Total             float64 `csv:"Total Generation [Wh/m2]"`
	Winter            float64 `csv:"Winter Generation [Wh/m2]"`
	Summer            float64 `csv:"Summer Generation [Wh/m2]"`
	IrradianceMissing int     `csv:"# Irradiation NaNs"`
	AlbedoMissing     int     `csv:"# Surface Albedo NaNs"`
}

type optimumRow struct {
	SiteID     string  `csv:"Site ID"`
	AzTotal    float64 `csv:"Opt Az Total"`
	TiltTotal  float64 `csv:"Opt Tilt Total"`
	AzWinter   float64 `csv:"Opt Az Winter"`
	TiltWinter float64 `csv:"Opt Tilt Winter"`
}

// CSVSink writes run output into one directory.
type CSVSink struct {
	dir string
}

// NewCSVSink creates dir if needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

// Dir is the output directory.
func (s *CSVSink) Dir() string { return s.dir }

// ProfileName is the generation file name of a site under label.
func ProfileName(label, siteID string) string {
	return fmt.Sprintf("%s Site %s Generation.csv", label, siteID)
}

// BreakdownName is the POA breakdown file name of a site under label.
func BreakdownName(label, siteID string) string {
	return fmt.Sprintf("%s Site %s POA Breakdown.csv", label, siteID)
}

// WriteResult writes the generation profile and, for plane-of-array
// models, the positionally aligned breakdown.
func (s *CSVSink) WriteResult(label string, site sites.Site, r generation.Result) error {
	rows := make([]*profileRow, len(r.Profile))
	for i, p := range r.Profile {
		rows[i] = &profileRow{Time: p.Time.UTC().Format(TimeLayout), Generation: p.EnergyWh}
	}
	if err := s.write(ProfileName(label, site.ID), &rows); err != nil {
		return err
	}

	if r.Breakdown == nil {
		return nil
	}
	parts := make([]*breakdownRow, len(r.Breakdown))
	for i, c := range r.Breakdown {
		parts[i] = &breakdownRow{Direct: c.Beam, Diffuse: c.Diffuse, Ground: c.Ground}
	}
	return s.write(BreakdownName(label, site.ID), &parts)
}

// WriteOverview writes "<name>.csv".
func (s *CSVSink) WriteOverview(name string, records []generation.Overview) error {
	rows := make([]*overviewRow, len(records))
	for i, o := range records {
		rows[i] = &overviewRow{
			SiteID:            o.SiteID,
			Latitude:          o.Lat,
			Longitude:         o.Lon,
			Total:             o.Total,
			Winter:            o.Winter,
			Summer:            o.Summer,
			IrradianceMissing: o.IrradianceMissing,
			AlbedoMissing:     o.AlbedoMissing,
		}
	}
	return s.write(name+".csv", &rows)
}

func (s *CSVSink) write(name string, rows interface{}) error {
	return writeFile(filepath.Join(s.dir, name), rows)
}

func writeFile(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadProfile reads a generation file back.
func ReadProfile(path string) (generation.Profile, error) {
	var rows []*profileRow
	if err := readFile(path, &rows); err != nil {
		return nil, err
	}
	p := make(generation.Profile, len(rows))
	for i, r := range rows {
		t, err := time.Parse(TimeLayout, r.Time)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		p[i] = generation.Point{Time: t, EnergyWh: r.Generation}
	}
	return p, nil
}

// ReadOverview reads an overview file back.
func ReadOverview(path string) ([]generation.Overview, error) {
	var rows []*overviewRow
	if err := readFile(path, &rows); err != nil {
		return nil, err
	}
	out := make([]generation.Overview, len(rows))
	for i, r := range rows {
		out[i] = generation.Overview{
			SiteID:            r.SiteID,
			Lat:               r.Latitude,
			Lon:               r.Longitude,
			Total:             r.Total,
			Winter:            r.Winter,
			Summer:            r.Summer,
			IrradianceMissing: r.IrradianceMissing,
			AlbedoMissing:     r.AlbedoMissing,
		}
	}
	return out, nil
}

func readFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// OrientationOf extracts the orientation from a per-orientation overview
// file name such as "180-30 Fixed Generation Overview.csv".
func OrientationOf(name string) (poa.Orientation, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, FixedOverviewSuffix) {
		return poa.Orientation{}, false
	}
	o, err := poa.ParseOrientation(strings.TrimSuffix(base, FixedOverviewSuffix))
	if err != nil {
		return poa.Orientation{}, false
	}
	return o, true
}

// CollectRecords walks root for per-orientation overview files and returns
// their records in walk order.
func CollectRecords(root string) ([]sweep.Record, error) {
	var records []sweep.Record
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		o, ok := OrientationOf(path)
		if !ok {
			return nil
		}
		overviews, err := ReadOverview(path)
		if err != nil {
			return err
		}
		for _, ov := range overviews {
			records = append(records, sweep.Record{Orientation: o, Overview: ov})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// WriteOptima writes the optimal positions table.
func WriteOptima(path string, optima []sweep.Optimum) error {
	rows := make([]*optimumRow, len(optima))
	for i, o := range optima {
		rows[i] = &optimumRow{
			SiteID:     o.SiteID,
			AzTotal:    o.Total.Azimuth,
			TiltTotal:  o.Total.Tilt,
			AzWinter:   o.Winter.Azimuth,
			TiltWinter: o.Winter.Tilt,
		}
	}
	return writeFile(path, &rows)
}
