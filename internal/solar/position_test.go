package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAt(t *testing.T) {
	tests := []struct {
		name        string
		lat         float64
		lon         float64
		at          time.Time
		minAltitude float64
		maxAltitude float64
		minAzimuth  float64
		maxAzimuth  float64
	}{
		{
			name: "equinox noon on the equator",
			lat:  0, lon: 0,
			at:          time.Date(2017, 3, 20, 12, 7, 0, 0, time.UTC),
			minAltitude: 88, maxAltitude: 90.5,
			minAzimuth: 0, maxAzimuth: 360,
		},
		{
			name: "solstice solar noon in zurich",
			lat:  47.3769, lon: 8.5417,
			at:          time.Date(2017, 6, 21, 11, 28, 0, 0, time.UTC),
			minAltitude: 65.5, maxAltitude: 66.6,
			minAzimuth: 175, maxAzimuth: 185,
		},
		{
			name: "solstice morning in zurich is east",
			lat:  47.3769, lon: 8.5417,
			at:          time.Date(2017, 6, 21, 5, 0, 0, 0, time.UTC),
			minAltitude: 10, maxAltitude: 30,
			minAzimuth: 60, maxAzimuth: 100,
		},
		{
			name: "solstice evening in zurich is west",
			lat:  47.3769, lon: 8.5417,
			at:          time.Date(2017, 6, 21, 18, 0, 0, 0, time.UTC),
			minAltitude: 5, maxAltitude: 25,
			minAzimuth: 260, maxAzimuth: 310,
		},
		{
			name: "midnight in zurich",
			lat:  47.3769, lon: 8.5417,
			at:          time.Date(2017, 6, 21, 23, 0, 0, 0, time.UTC),
			minAltitude: -90, maxAltitude: 0,
			minAzimuth: 0, maxAzimuth: 360,
		},
		{
			name: "southern winter noon in santiago faces north",
			lat:  -33.45, lon: -70.66,
			at:          time.Date(2017, 6, 21, 16, 45, 0, 0, time.UTC),
			minAltitude: 31, maxAltitude: 35,
			minAzimuth: 0, maxAzimuth: 360,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := At(tt.lat, tt.lon, tt.at)
			assert.GreaterOrEqual(t, p.AltitudeDeg, tt.minAltitude)
			assert.LessOrEqual(t, p.AltitudeDeg, tt.maxAltitude)
			assert.GreaterOrEqual(t, p.AzimuthDeg, tt.minAzimuth)
			assert.Less(t, p.AzimuthDeg, tt.maxAzimuth)
			assert.InDelta(t, 90-p.AltitudeDeg, p.ZenithDeg, 1e-12)
			assert.Equal(t, p.AltitudeDeg > 0, p.Up())
		})
	}
}

func TestAtIgnoresLocation(t *testing.T) {
	at := time.Date(2017, 6, 21, 12, 0, 0, 0, time.UTC)
	zurich := time.FixedZone("CEST", 2*3600)
	assert.Equal(t, At(47.3769, 8.5417, at), At(47.3769, 8.5417, at.In(zurich)))
}

func TestSantiagoNoonAzimuthIsNorth(t *testing.T) {
	p := At(-33.45, -70.66, time.Date(2017, 6, 21, 16, 45, 0, 0, time.UTC))
	assert.True(t, p.AzimuthDeg < 10 || p.AzimuthDeg > 350, "azimuth %v", p.AzimuthDeg)
}

func TestRefraction(t *testing.T) {
	assert.Zero(t, refraction(89))
	assert.InDelta(t, 0.57, refraction(0), 0.1)
	assert.Greater(t, refraction(10), refraction(45))
}
