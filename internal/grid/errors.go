package grid

import (
	"fmt"
	"time"
)

// DataRangeError reports a lookup outside the extent a dataset covers.
// It is distinct from a missing value inside the extent, which is counted
// rather than returned.
type DataRangeError struct {
	Dataset string
	Lat     float64
	Lon     float64
	Time    time.Time // zero when the coordinate itself is out of range
}

func (e *DataRangeError) Error() string {
	if e.Time.IsZero() {
		return fmt.Sprintf("%s: coordinate (%.4f, %.4f) outside dataset extent", e.Dataset, e.Lat, e.Lon)
	}
	return fmt.Sprintf("%s: time %s outside dataset coverage at (%.4f, %.4f)",
		e.Dataset, e.Time.UTC().Format(time.RFC3339), e.Lat, e.Lon)
}
