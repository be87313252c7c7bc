package grid

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// Record is one row of a long-table dataset file.
type Record struct {
	Lat   float64
	Lon   float64
	Time  time.Time
	Value float64
}

// parquetRecord is the on-disk row of a Parquet dataset.
type parquetRecord struct {
	Lat   float64 `parquet:"name=lat,type=DOUBLE"`
	Lon   float64 `parquet:"name=lon,type=DOUBLE"`
	Time  int64   `parquet:"name=time,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Value float64 `parquet:"name=value,type=DOUBLE"`
}

// csvRecord is the on-disk row of a CSV dataset. Value stays a string so an
// empty cell can read as missing.
type csvRecord struct {
	Lat   float64 `csv:"lat"`
	Lon   float64 `csv:"lon"`
	Time  string  `csv:"time"`
	Value string  `csv:"value"`
}

// Bounds is an inclusive lat/lon box.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Around returns the box covering every point plus margin degrees.
func Around(points [][2]float64, margin float64) *Bounds {
	if len(points) == 0 {
		return nil
	}
	b := &Bounds{MinLat: math.Inf(1), MaxLat: math.Inf(-1), MinLon: math.Inf(1), MaxLon: math.Inf(-1)}
	for _, p := range points {
		b.MinLat = math.Min(b.MinLat, p[0]-margin)
		b.MaxLat = math.Max(b.MaxLat, p[0]+margin)
		b.MinLon = math.Min(b.MinLon, p[1]-margin)
		b.MaxLon = math.Max(b.MaxLon, p[1]+margin)
	}
	return b
}

// Contains reports whether (lat, lon) is inside the box. A nil box contains everything.
func (b *Bounds) Contains(lat, lon float64) bool {
	if b == nil {
		return true
	}
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Load reads a dataset file, choosing the format by extension.
func Load(path string, meta Meta, bounds *Bounds) (*Dataset, error) {
	var records []Record
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		records, err = ReadParquetRecords(path)
	case ".csv":
		records, err = ReadCSVRecords(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", path)
	}
	if err != nil {
		return nil, err
	}

	if meta.Name == "" {
		meta.Name = filepath.Base(path)
	}
	return FromRecords(meta, Crop(records, bounds))
}

// Crop keeps the records inside bounds.
func Crop(records []Record, bounds *Bounds) []Record {
	if bounds == nil {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if bounds.Contains(r.Lat, r.Lon) {
			out = append(out, r)
		}
	}
	return out
}

// ReadParquetRecords reads every row of a Parquet long table.
func ReadParquetRecords(path string) ([]Record, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(parquetRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader for %s: %w", path, err)
	}
	defer pr.ReadStop()

	rows := make([]parquetRecord, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read parquet rows from %s: %w", path, err)
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{
			Lat:   r.Lat,
			Lon:   r.Lon,
			Time:  time.UnixMilli(r.Time).UTC(),
			Value: r.Value,
		}
	}
	return records, nil
}

// WriteParquetRecords writes records as a Snappy-compressed Parquet long table.
func WriteParquetRecords(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	pw, err := writer.NewParquetWriterFromWriter(f, new(parquetRecord), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range records {
		row := parquetRecord{Lat: r.Lat, Lon: r.Lon, Time: r.Time.UnixMilli(), Value: r.Value}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSVRecords reads a CSV long table with header lat,lon,time,value.
// Time is RFC 3339; an empty or NaN value reads as missing.
func ReadCSVRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*csvRecord
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	records := make([]Record, 0, len(rows))
	for i, r := range rows {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Time))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad time %q: %w", path, i+2, r.Time, err)
		}
		v := math.NaN()
		if s := strings.TrimSpace(r.Value); s != "" {
			if v, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%s row %d: bad value %q: %w", path, i+2, r.Value, err)
			}
		}
		records = append(records, Record{Lat: r.Lat, Lon: r.Lon, Time: t.UTC(), Value: v})
	}
	return records, nil
}

// FromRecords grids a long table. The spatial axes span the records at
// meta.Resolution; the time axis spans them at the cadence (pentad datasets
// use the distinct timestamps). Grid points without a record read as missing.
func FromRecords(meta Meta, records []Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no records", meta.Name)
	}
	res := meta.Resolution
	if res <= 0 {
		return nil, fmt.Errorf("%s: spatial resolution must be positive, got %v", meta.Name, res)
	}

	minLat, maxLat := records[0].Lat, records[0].Lat
	minLon, maxLon := records[0].Lon, records[0].Lon
	stamps := make([]int64, 0, len(records))
	for _, r := range records {
		minLat, maxLat = math.Min(minLat, r.Lat), math.Max(maxLat, r.Lat)
		minLon, maxLon = math.Min(minLon, r.Lon), math.Max(maxLon, r.Lon)
		stamps = append(stamps, r.Time.UnixMilli())
	}
	slices.Sort(stamps)
	stamps = slices.Compact(stamps)

	lats := regularAxis(minLat, maxLat, res)
	lons := regularAxis(minLon, maxLon, res)

	var times []time.Time
	if step := meta.Cadence.Step(); step > 0 {
		first, last := time.UnixMilli(stamps[0]).UTC(), time.UnixMilli(stamps[len(stamps)-1]).UTC()
		for t := first; !t.After(last); t = t.Add(step) {
			times = append(times, t)
		}
	} else {
		for _, ms := range stamps {
			times = append(times, time.UnixMilli(ms).UTC())
		}
	}
	timeIndex := make(map[int64]int, len(times))
	for i, t := range times {
		timeIndex[t.UnixMilli()] = i
	}

	values := make([]float32, len(times)*len(lats)*len(lons))
	nan := float32(math.NaN())
	for i := range values {
		values[i] = nan
	}

	for _, r := range records {
		i := gridIndex(lats, r.Lat, res)
		j := gridIndex(lons, r.Lon, res)
		if i < 0 || j < 0 {
			return nil, fmt.Errorf("%s: record at (%.6f, %.6f) is off the %.4f° grid", meta.Name, r.Lat, r.Lon, res)
		}
		ti, ok := timeIndex[r.Time.UnixMilli()]
		if !ok {
			return nil, fmt.Errorf("%s: record time %s is off the %s cadence", meta.Name, r.Time.Format(time.RFC3339), meta.Cadence)
		}
		values[(ti*len(lats)+i)*len(lons)+j] = float32(r.Value)
	}

	return New(meta, lats, lons, times, values)
}

func regularAxis(lo, hi, res float64) []float64 {
	n := int(math.Round((hi-lo)/res)) + 1
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = lo + float64(i)*res
	}
	return axis
}

// gridIndex maps a record coordinate onto an axis built by regularAxis.
func gridIndex(axis []float64, v, res float64) int {
	k := int(math.Round((v - axis[0]) / res))
	if k < 0 || k >= len(axis) || math.Abs(axis[k]-v) > res*1e-3 {
		return -1
	}
	return k
}
