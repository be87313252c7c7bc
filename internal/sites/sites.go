// Package sites reads the list of locations a run evaluates.
package sites

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bonesbb/HASPR/internal/csvio"
	"github.com/bonesbb/HASPR/internal/poa"
)

// ErrMixedOptimum is returned when only some sites carry a precomputed
// optimal orientation.
var ErrMixedOptimum = errors.New("either all sites or none must carry an optimal orientation")

// Site is one location of interest.
type Site struct {
	ID      string
	Lat     float64
	Lon     float64
	Optimum *poa.Orientation
}

// row is one line of a coordinates sheet:
// site id, "DD°MM'SS\"N DD°MM'SS\"E", optional optimal azimuth and tilt.
type row struct {
	ID          string
	Coordinates string
	OptAzimuth  string
	OptTilt     string
}

// Read loads a coordinates sheet from path.
func Read(path string) ([]Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coordinates file: %w", err)
	}
	defer f.Close()

	sites, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sites, nil
}

// Parse decodes a coordinates sheet. The header row is skipped.
func Parse(in io.Reader) ([]Site, error) {
	var rows []row
	if _, err := csvio.Decode(in, &rows, 4); err != nil {
		return nil, err
	}

	sites := make([]Site, 0, len(rows))
	for i, r := range rows {
		line := i + 2
		s := Site{ID: strings.TrimSpace(r.ID)}
		if s.ID == "" {
			s.ID = strconv.Itoa(i + 1)
		}

		var err error
		if s.Lat, s.Lon, err = ParseCoordinates(r.Coordinates); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		az, tilt := strings.TrimSpace(r.OptAzimuth), strings.TrimSpace(r.OptTilt)
		if az != "" || tilt != "" {
			o, err := poa.ParseOrientation(az + "-" + tilt)
			if err != nil {
				return nil, fmt.Errorf("line %d: optimal orientation: %w", line, err)
			}
			s.Optimum = &o
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// HaveOptimum reports whether the sites carry precomputed optima. Sites
// that disagree are an error.
func HaveOptimum(sites []Site) (bool, error) {
	with := 0
	for _, s := range sites {
		if s.Optimum != nil {
			with++
		}
	}
	if with > 0 && with < len(sites) {
		return false, ErrMixedOptimum
	}
	return with > 0, nil
}

// Points returns the (lat, lon) of every site.
func Points(sites []Site) [][2]float64 {
	out := make([][2]float64, len(sites))
	for i, s := range sites {
		out[i] = [2]float64{s.Lat, s.Lon}
	}
	return out
}

var mojibake = strings.NewReplacer(
	"Â°", "°",
	"â€²", "'",
	"â€³", "\"",
	"′", "'",
	"″", "\"",
)

// ParseCoordinates reads a "lat lon" pair, either in degrees-minutes-seconds
// with a hemisphere letter or as two decimal numbers.
func ParseCoordinates(s string) (lat, lon float64, err error) {
	fields := strings.Fields(mojibake.Replace(s))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("coordinates %q: expected latitude and longitude separated by a space", s)
	}
	if lat, err = ParseDMS(fields[0]); err != nil {
		return 0, 0, err
	}
	if lon, err = ParseDMS(fields[1]); err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude %v outside [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude %v outside [-180, 180]", lon)
	}
	return lat, lon, nil
}

// ParseDMS converts one coordinate such as 47°22'36.8"N to decimal degrees.
// S and W are negative. A plain decimal number is accepted as is.
func ParseDMS(s string) (float64, error) {
	s = strings.TrimSpace(mojibake.Replace(s))
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	if s == "" {
		return 0, fmt.Errorf("empty coordinate")
	}

	sign := 1.0
	switch s[len(s)-1] {
	case 'S', 'W':
		sign = -1
		s = s[:len(s)-1]
	case 'N', 'E':
		s = s[:len(s)-1]
	}

	deg, rest, ok := strings.Cut(s, "°")
	if !ok {
		return 0, fmt.Errorf("coordinate %q: missing degree sign", s)
	}
	mins, sec, ok := strings.Cut(rest, "'")
	if !ok {
		return 0, fmt.Errorf("coordinate %q: missing minute mark", s)
	}
	sec = strings.TrimSuffix(sec, "\"")

	var parts [3]float64
	for i, p := range []string{deg, mins, sec} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("coordinate %q: %w", s, err)
		}
		parts[i] = v
	}
	return sign * (parts[0] + parts[1]/60 + parts[2]/3600), nil
}
