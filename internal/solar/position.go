// Package solar computes the apparent position of the sun for a site and instant.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Position is the apparent solar position seen from a site.
type Position struct {
	AltitudeDeg float64 // above the horizon, refraction applied; negative at night
	AzimuthDeg  float64 // clockwise from north, [0, 360)
	ZenithDeg   float64 // 90 - AltitudeDeg
}

// Up reports whether the sun is above the horizon.
func (p Position) Up() bool { return p.AltitudeDeg > 0 }

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// At returns the sun's position over (lat, lon) at t using the NOAA solar
// position equations.
func At(lat, lon float64, t time.Time) Position {
	t = t.UTC()
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	Ω := 125.04 - 1934.136*T
	λ := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(Ω))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	eps := eps0 + 0.00256*math.Cos(degToRad(Ω))
	δRad := math.Asin(math.Sin(degToRad(eps)) * math.Sin(degToRad(λ)))

	y := math.Tan(degToRad(eps)/2) * math.Tan(degToRad(eps)/2)
	eqTimeMin := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0 + float64(t.Nanosecond())/6e10
	tst := math.Mod(utcMin+4*lon+eqTimeMin, 1440)
	ha := tst/4 - 180
	if ha < -180 {
		ha += 360
	}
	haRad := degToRad(ha)

	latRad := degToRad(lat)
	cosZen := math.Sin(latRad)*math.Sin(δRad) + math.Cos(latRad)*math.Cos(δRad)*math.Cos(haRad)
	cosZen = math.Max(-1, math.Min(1, cosZen))
	zenRad := math.Acos(cosZen)
	elDeg := 90 - radToDeg(zenRad)
	elDeg += refraction(elDeg)

	var azDeg float64
	if azDen := math.Cos(latRad) * math.Sin(zenRad); math.Abs(azDen) > 1e-12 {
		azNum := math.Sin(δRad) - math.Sin(latRad)*cosZen
		azDeg = radToDeg(math.Acos(math.Max(-1, math.Min(1, azNum/azDen))))
		if ha > 0 {
			azDeg = 360 - azDeg
		}
	} else if lat > 0 {
		azDeg = 180
	}

	return Position{
		AltitudeDeg: elDeg,
		AzimuthDeg:  fixAngle(azDeg),
		ZenithDeg:   90 - elDeg,
	}
}

// refraction is the NOAA approximation of atmospheric refraction, in
// degrees, for a geometric elevation in degrees.
func refraction(elDeg float64) float64 {
	if elDeg > 85 {
		return 0
	}
	te := math.Tan(degToRad(elDeg))
	var arcsec float64
	switch {
	case elDeg > 5:
		arcsec = 58.1/te - 0.07/math.Pow(te, 3) + 0.000086/math.Pow(te, 5)
	case elDeg > -0.575:
		arcsec = 1735 + elDeg*(-518.2+elDeg*(103.4+elDeg*(-12.79+elDeg*0.711)))
	default:
		arcsec = -20.772 / te
	}
	return arcsec / 3600
}
