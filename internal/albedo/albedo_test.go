package albedo

import (
	"math"
	"testing"
	"time"

	"github.com/bonesbb/HASPR/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testDataset(t *testing.T, starts []time.Time, values []float32) *grid.Dataset {
	t.Helper()
	ds, err := grid.New(grid.Meta{Name: "SAL", Resolution: 0.25, Cadence: grid.PentadCadence},
		[]float64{46.25}, []float64{7.0}, starts, values)
	require.NoError(t, err)
	return ds
}

func TestAverage(t *testing.T) {
	nan := float32(math.NaN())
	ds := testDataset(t,
		[]time.Time{date(2015, 1, 1), date(2015, 1, 6), date(2015, 6, 1), date(2016, 1, 1), date(2016, 6, 1), date(2016, 6, 3)},
		[]float32{20, 30, -1, 40, 0, nan},
	)
	cell := grid.Cell{}

	tests := []struct {
		name   string
		at     time.Time
		want   float64
		wantOK bool
	}{
		{"same pentad start across years", date(2017, 1, 3).Add(13 * time.Hour), 0.30, true},
		{"last day of the window is inclusive", date(2017, 1, 5), 0.30, true},
		{"next pentad", date(2017, 1, 7), 0.30, true},
		{"invalid values only", date(2017, 6, 2), 0, false},
		{"no pentad covers the date", date(2017, 3, 15), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Average(ds, cell, tt.at)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEstimatorCountsEveryMissingLookup(t *testing.T) {
	ds := testDataset(t, []time.Time{date(2015, 1, 1)}, []float32{25})

	e, err := NewEstimator(ds, 46.2, 7.1)
	require.NoError(t, err)

	missing := 0
	assert.InDelta(t, 0.25, e.Average(date(2017, 1, 2).Add(6*time.Hour), &missing), 1e-9)
	assert.InDelta(t, 0.25, e.Average(date(2017, 1, 2).Add(18*time.Hour), &missing), 1e-9)
	assert.Equal(t, 0, missing)

	assert.Zero(t, e.Average(date(2017, 8, 1), &missing))
	assert.Zero(t, e.Average(date(2017, 8, 1).Add(time.Hour), &missing))
	assert.Equal(t, 2, missing)
	assert.Len(t, e.cache, 2)
}

func TestNewEstimatorOutsideExtent(t *testing.T) {
	ds := testDataset(t, []time.Time{date(2015, 1, 1)}, []float32{25})
	var rangeErr *grid.DataRangeError
	_, err := NewEstimator(ds, 10, 10)
	assert.ErrorAs(t, err, &rangeErr)
}
