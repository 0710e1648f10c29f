package astro

import (
	"math"
	"time"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

// sunAltitude is the solar altitude at geometric sunrise/sunset, accounting
// for atmospheric refraction and the solar disc radius.
const sunAltitude = -0.833

// toJulianDay converts a date to a Julian day number at 00:00 UT.
func toJulianDay(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5
}

// julianToTime converts a Julian day back to a UTC instant.
func julianToTime(jd float64) time.Time {
	unixTime := (jd - 2440587.5) * 86400.0

	return time.Unix(int64(unixTime), 0).UTC()
}

// solarEvent computes the UTC instant the sun crosses the given altitude on
// the date's UTC calendar day, rising or setting. The NOAA sunrise equation
// expects the Julian day at noon, hence the half-day offset.
func solarEvent(date time.Time, coords domain.Coordinates, altitude float64, rising bool) time.Time {
	jd := toJulianDay(date.UTC()) + 0.5

	n := jd - 2451545.0 + 0.0008
	jStar := n - coords.Longitude/360.0

	// Solar mean anomaly
	m := math.Mod(357.5291+0.98560028*jStar, 360.0)
	mRad := m * math.Pi / 180.0

	// Equation of center
	c := 1.9148*math.Sin(mRad) + 0.02*math.Sin(2*mRad) + 0.0003*math.Sin(3*mRad)

	// Ecliptic longitude
	lambda := math.Mod(m+c+180+102.9372, 360.0)
	lambdaRad := lambda * math.Pi / 180.0

	// Solar transit
	jTransit := 2451545.0 + jStar + 0.0053*math.Sin(mRad) - 0.0069*math.Sin(2*lambdaRad)

	// Declination of the sun
	sinDec := math.Sin(lambdaRad) * math.Sin(23.44*math.Pi/180.0)
	dec := math.Asin(sinDec)

	// Hour angle for the requested altitude
	latRad := coords.Latitude * math.Pi / 180.0
	altRad := altitude * math.Pi / 180.0

	cosOmega := (math.Sin(altRad) - math.Sin(latRad)*math.Sin(dec)) / (math.Cos(latRad) * math.Cos(dec))

	// Clamp for polar day and polar night; the event degenerates to the
	// transit itself (midnight sun) or to a zero-length day.
	if cosOmega > 1 {
		cosOmega = 1
	} else if cosOmega < -1 {
		cosOmega = -1
	}

	omega := math.Acos(cosOmega) * 180.0 / math.Pi

	if rising {
		return julianToTime(jTransit - omega/360.0)
	}

	return julianToTime(jTransit + omega/360.0)
}

// Sunrise returns the UTC sunrise instant for the date's calendar day.
func Sunrise(date time.Time, coords domain.Coordinates) time.Time {
	return solarEvent(date, coords, sunAltitude, true)
}

// Sunset returns the UTC sunset instant for the date's calendar day.
func Sunset(date time.Time, coords domain.Coordinates) time.Time {
	return solarEvent(date, coords, sunAltitude, false)
}

// DaysSinceSolstice returns the number of whole days elapsed since the most
// recent solstice before or on the given date, together with the solstice's
// seasonal name for the hemisphere of the latitude. A January date resolves
// to the prior December's solstice. The result is never negative and is 0
// on a solstice date itself.
func DaysSinceSolstice(date time.Time, latitude float64) (int, string) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	june := time.Date(day.Year(), time.June, 21, 0, 0, 0, 0, time.UTC)
	december := time.Date(day.Year(), time.December, 21, 0, 0, 0, 0, time.UTC)

	var solstice time.Time

	switch {
	case !day.Before(december):
		solstice = december
	case !day.Before(june):
		solstice = june
	default:
		solstice = december.AddDate(-1, 0, 0)
	}

	days := int(day.Sub(solstice).Hours() / 24)

	// Which solstice counts as winter flips by hemisphere.
	name := "summer"
	if (solstice.Month() == time.December) == (latitude >= 0) {
		name = "winter"
	}

	return days, name
}

// TemporalFor computes the full temporal record for an instant and location.
func TemporalFor(t time.Time, coords domain.Coordinates) domain.TemporalData {
	sunrise := Sunrise(t, coords)
	sunset := Sunset(t, coords)

	days, name := DaysSinceSolstice(t, coords.Latitude)

	return domain.TemporalData{
		Sunrise:           sunrise,
		Sunset:            sunset,
		DayLengthHours:    sunset.Sub(sunrise).Hours(),
		DaysSinceSolstice: days,
		LastSolstice:      name,
	}
}
