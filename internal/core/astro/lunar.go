// Package astro provides pure point-in-time astronomical and solar
// calculators. Nothing here performs I/O or consults a cache; every function
// is deterministic and total, which is what lets snapshot assembly treat
// lunar and temporal data as fields that cannot fail.
package astro

import (
	"math"
	"time"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

const (
	// SynodicMonth is the mean length of a lunation in days.
	SynodicMonth = 29.53058867

	// anomalisticMonth is the mean perigee-to-perigee period in days.
	anomalisticMonth = 27.55454989

	// meanLunarDistanceKM is the mean Earth-Moon distance.
	meanLunarDistanceKM = 384400.0

	// lunarDistanceAmplitudeKM is the cosine-model swing around the mean.
	lunarDistanceAmplitudeKM = 20905.0
)

// referenceNewMoon is the new moon of 2000-01-06 18:14 UTC, a standard
// epoch for phase-age arithmetic.
var referenceNewMoon = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// referencePerigee anchors the anomalistic cycle for the distance model.
var referencePerigee = time.Date(2000, 1, 19, 1, 0, 0, 0, time.UTC)

// phaseNames in waxing-to-waning order. Bucket k covers fractions in
// [(2k-1)/16, (2k+1)/16), with New Moon wrapping around zero.
var phaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// PhaseFraction returns the lunar phase as a fraction of the synodic month,
// 0 at new moon, 0.5 at full moon, wrapping back to 0.
func PhaseFraction(t time.Time) float64 {
	days := t.Sub(referenceNewMoon).Hours() / 24.0
	frac := math.Mod(days/SynodicMonth, 1.0)

	if frac < 0 {
		frac += 1.0
	}

	return frac
}

// PhaseName buckets a phase fraction into one of the eight named phases.
// Boundaries sit at odd multiples of 1/16 so each principal phase (new,
// quarters, full) owns a symmetric 1/8 window around its exact instant.
func PhaseName(fraction float64) string {
	idx := int(math.Floor(fraction*16+1)) / 2 % 8

	if idx < 0 {
		idx += 8
	}

	return phaseNames[idx]
}

// Illumination returns the illuminated fraction of the lunar disc (0..1)
// for a phase fraction.
func Illumination(fraction float64) float64 {
	return (1 - math.Cos(2*math.Pi*fraction)) / 2
}

// Distance approximates the Earth-Moon distance in kilometers with a cosine
// model over the anomalistic month around the mean distance. Accuracy is a
// few thousand kilometers, which is plenty for trend correlation.
func Distance(t time.Time) float64 {
	days := t.Sub(referencePerigee).Hours() / 24.0
	anomaly := 2 * math.Pi * math.Mod(days/anomalisticMonth, 1.0)

	return meanLunarDistanceKM - lunarDistanceAmplitudeKM*math.Cos(anomaly)
}

// DistanceTrend classifies the moon as approaching or receding, split at
// phase 0.5.
func DistanceTrend(fraction float64) string {
	if fraction < 0.5 {
		return "approaching"
	}

	return "receding"
}

// LunarFor computes the full lunar record for an instant.
func LunarFor(t time.Time) domain.LunarData {
	fraction := PhaseFraction(t)

	return domain.LunarData{
		PhaseFraction: fraction,
		PhaseName:     PhaseName(fraction),
		Illumination:  Illumination(fraction),
		DistanceKM:    Distance(t),
		DistanceTrend: DistanceTrend(fraction),
	}
}
