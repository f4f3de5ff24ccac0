// Package orbit derives rough planetary and orbital parameters from a star's
// feature vector. The values are auxiliary output shown next to a prediction.
package orbit

import (
	"errors"
	"math"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Physical constants in SI units.
const (
	G             = 6.67430e-11
	SolarRadius   = 6.957e8
	SolarMass     = 1.98847e30
	EarthRadius   = 6.371e6
	SecondsPerDay = 24 * 3600
)

// ErrInsufficientData is returned when a required feature is undefined or out of range.
var ErrInsufficientData = errors.New("insufficient data for orbital estimate")

// Params are the estimated parameters. Lengths are in meters unless noted.
type Params struct {
	StellarRadius   float64    `json:"stellar_radius" yaml:"stellar_radius"`
	StellarMass     float64    `json:"stellar_mass" yaml:"stellar_mass"`
	TransitDepth    float64    `json:"transit_depth" yaml:"transit_depth"`
	OrbitalPeriod   float64    `json:"orbital_period" yaml:"orbital_period"` // days
	PlanetRadius    [2]float64 `json:"planetary_radius" yaml:"planetary_radius"` // meters, earth radii
	SemiMajorAxis   float64    `json:"semimajor_axis" yaml:"semimajor_axis"`
	OrbitalVelocity float64    `json:"orbital_velocity" yaml:"orbital_velocity"` // km/s
	ImpactParameter float64    `json:"impact_parameter" yaml:"impact_parameter"`
	Inclination     float64    `json:"inclination" yaml:"inclination"`             // degrees
	IngressEgress   float64    `json:"ingr_egr_duration" yaml:"ingr_egr_duration"` // hours
}

// Estimate treats depth_mean as the fractional transit depth and
// duration_mean (days) as both the transit duration and the period proxy.
func Estimate(fv *model.FeatureVector) (*Params, error) {
	radius, okR := fv.Get(model.Radius).Get()
	mass, okM := fv.Get(model.Mass).Get()
	depth, okD := fv.Get(model.DepthMean).Get()
	period, okP := fv.Get(model.DurationMean).Get()
	if !okR || !okM || !okD || !okP || radius <= 0 || mass <= 0 || depth < 0 || period <= 0 {
		return nil, ErrInsufficientData
	}

	rStar := radius * SolarRadius
	mStar := mass * SolarMass
	pSec := period * SecondsPerDay
	tSec := period * SecondsPerDay

	rp := rStar * math.Sqrt(depth)
	a := math.Cbrt(G * mStar * pSec * pSec / (4 * math.Pi * math.Pi))
	v := 2 * math.Pi * a / pSec

	k := rp / rStar
	x := a / rStar * math.Sin(math.Pi*tSec/pSec)
	b := math.Sqrt(math.Max(0, (1+k)*(1+k)-x*x))
	incl := math.Acos(clamp(b*rStar/a, -1, 1)) * 180 / math.Pi
	tau := rp * pSec / (math.Pi * a)

	return &Params{
		StellarRadius:   rStar,
		StellarMass:     mStar,
		TransitDepth:    depth,
		OrbitalPeriod:   period,
		PlanetRadius:    [2]float64{rp, rp / EarthRadius},
		SemiMajorAxis:   a,
		OrbitalVelocity: v / 1000,
		ImpactParameter: b,
		Inclination:     incl,
		IngressEgress:   tau / 3600,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
