package grid

import "math"

// gridTolerance is how close (in cells) a coordinate must be to a grid line to count as on it.
const gridTolerance = 1e-9

// Pixel is the grid-line coordinate a site snaps to.
type Pixel struct {
	Lat float64
	Lon float64
}

// PixelFor snaps a coordinate onto a grid of the given resolution (degrees).
//
// Latitude rounds up and longitude rounds down:
//
//	lat_pixel = lat + (res - (lat mod res))
//	lon_pixel = lon - (lon mod res)
//
// with mod taking the sign of the divisor. The asymmetry decides which
// satellite pixel a site samples and is kept as-is. Coordinates already on a
// grid line are returned unchanged, so PixelFor(PixelFor(p)) == PixelFor(p).
func PixelFor(lat, lon, res float64) Pixel {
	return Pixel{
		Lat: snap(lat, res, true),
		Lon: snap(lon, res, false),
	}
}

// snap expresses both rules in whole cells (k = v/res) so the result is always
// an exact multiple of res and a second snap is a no-op.
func snap(v, res float64, up bool) float64 {
	k := v / res
	n := math.Round(k)
	if math.Abs(k-n) < gridTolerance {
		return n * res
	}
	if up {
		return (math.Floor(k) + 1) * res
	}
	return math.Floor(k) * res
}
