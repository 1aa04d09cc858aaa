// Package solar computes the sun's position and the day's sun-time table
// for a date and geographic coordinates, on top of the SunCalc formulas in
// github.com/sixdouglas/suncalc.
//
// Azimuth follows the SunCalc convention: radians measured from south,
// positive toward west. Altitude is radians above the horizon.
//
// Events that do not happen on a given day (polar day or polar night) are
// reported as the zero [time.Time]; use [Times.Valid] or [time.Time.IsZero]
// before relying on them.
package solar

import (
	"time"

	"github.com/sixdouglas/suncalc"
)

// Position is the sun's apparent position for one instant.
type Position struct {
	// Altitude above the horizon in radians.
	Altitude float64
	// Azimuth in radians from south, positive toward west.
	Azimuth float64
}

// Times is the sun-time table for one day. Zero values mark events that do
// not occur (the sun never crosses the corresponding altitude that day).
type Times struct {
	SolarNoon     time.Time
	Nadir         time.Time
	Sunrise       time.Time
	Sunset        time.Time
	SunriseEnd    time.Time
	SunsetStart   time.Time
	Dawn          time.Time
	Dusk          time.Time
	NauticalDawn  time.Time
	NauticalDusk  time.Time
	NightEnd      time.Time
	Night         time.Time
	GoldenHourEnd time.Time
	GoldenHour    time.Time
}

// Valid reports whether both sunrise and sunset exist for the day.
func (t Times) Valid() bool {
	return !t.Sunrise.IsZero() && !t.Sunset.IsZero()
}

// Calculator implements the sun position and times provider. The zero value
// is ready to use.
type Calculator struct{}

// Position returns the sun position at t for the given latitude and
// longitude in degrees.
func (Calculator) Position(t time.Time, lat, lon float64) Position {
	return PositionAt(t, lat, lon)
}

// Times returns the sun-time table for the day containing date.
func (Calculator) Times(date time.Time, lat, lon float64) Times {
	return TimesFor(date, lat, lon)
}

// PositionAt returns the sun position at t for the given latitude and
// longitude in degrees.
func PositionAt(t time.Time, lat, lon float64) Position {
	p := suncalc.GetPosition(t, lat, lon)
	return Position{Altitude: p.Altitude, Azimuth: p.Azimuth}
}

// TimesFor returns the sun-time table for the calendar day of date, in
// date's location. The calculation is anchored at local noon so the
// result belongs to that calendar day regardless of the time of day
// passed in.
func TimesFor(date time.Time, lat, lon float64) Times {
	loc := date.Location()
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
	raw := suncalc.GetTimes(noon, lat, lon)

	// Events the sun never reaches come back missing or as NaN-derived
	// garbage far from the day.
	at := func(name suncalc.DayTimeName) time.Time {
		dt, ok := raw[name]
		if !ok || dt.Value.IsZero() {
			return time.Time{}
		}
		if d := dt.Value.Sub(noon); d > 24*time.Hour || d < -24*time.Hour {
			return time.Time{}
		}
		return dt.Value.In(loc)
	}

	return Times{
		SolarNoon:     at(suncalc.SolarNoon),
		Nadir:         at(suncalc.Nadir),
		Sunrise:       at(suncalc.Sunrise),
		Sunset:        at(suncalc.Sunset),
		SunriseEnd:    at(suncalc.SunriseEnd),
		SunsetStart:   at(suncalc.SunsetStart),
		Dawn:          at(suncalc.Dawn),
		Dusk:          at(suncalc.Dusk),
		NauticalDawn:  at(suncalc.NauticalDawn),
		NauticalDusk:  at(suncalc.NauticalDusk),
		NightEnd:      at(suncalc.NightEnd),
		Night:         at(suncalc.Night),
		GoldenHourEnd: at(suncalc.GoldenHourEnd),
		GoldenHour:    at(suncalc.GoldenHour),
	}
}
