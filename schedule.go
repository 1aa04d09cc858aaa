package sunscope

import (
	"fmt"
	"math"
	"time"

	"github.com/phanxgames/sunscope/solar"
)

// SolarProvider supplies sun positions and the day's sun-time table.
// solar.Calculator is the default implementation.
type SolarProvider interface {
	Position(t time.Time, lat, lon float64) solar.Position
	Times(date time.Time, lat, lon float64) solar.Times
}

// MaxFrames caps the number of samples a single schedule may produce.
const MaxFrames = 2000

// Schedule returns evenly spaced sample timestamps on date's calendar day,
// in date's location. The first timestamp is exactly startHour:00; each next
// one adds interval, and sampling stops once a step passes endHour:00. The
// last timestamp is therefore at or before endHour:00 and only lands on it
// when interval divides the window.
//
// Hours may be fractional (6.5 is 06:30). A window that yields no
// timestamps returns *EmptyResultError.
func Schedule(date time.Time, startHour, endHour float64, interval time.Duration) ([]time.Time, error) {
	if interval <= 0 {
		return nil, &ValidationError{Field: "interval", Reason: fmt.Sprintf("must be positive, got %v", interval)}
	}
	if math.IsNaN(startHour) || math.IsNaN(endHour) {
		return nil, &ValidationError{Field: "window", Reason: "hours must be numbers"}
	}
	start := atHour(date, startHour)
	end := atHour(date, endHour)

	var out []time.Time
	for t := start; !t.After(end); t = t.Add(interval) {
		if len(out) == MaxFrames {
			return nil, &ValidationError{
				Field:  "interval",
				Reason: fmt.Sprintf("window %s-%s every %v exceeds %d frames", formatHour(startHour), formatHour(endHour), interval, MaxFrames),
			}
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, &EmptyResultError{StartHour: startHour, EndHour: endHour, Interval: interval.String()}
	}
	return out, nil
}

// atHour returns the instant at the fractional hour h of date's calendar
// day. Minutes are rounded to the nearest whole minute.
func atHour(date time.Time, h float64) time.Time {
	minutes := int(math.Round(h * 60))
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minutes, 0, 0, date.Location())
}

// SunTimes fetches the sun-time table for date and checks that sunrise and
// sunset exist. Missing events return *DataError.
func SunTimes(p SolarProvider, date time.Time, lat, lon float64) (solar.Times, error) {
	times := p.Times(date, lat, lon)
	if !times.Valid() {
		reason := "sunrise/sunset unavailable (polar day or night)"
		return times, &DataError{Lat: lat, Lon: lon, Date: date.Format(time.DateOnly), Reason: reason}
	}
	return times, nil
}

// ResolveWindow fills unset window bounds from the day's sunrise and sunset
// hours. The hour is the clock hour of the event in date's location.
func ResolveWindow(times solar.Times, date time.Time, start, end *float64) (startHour, endHour float64) {
	loc := date.Location()
	if start != nil {
		startHour = *start
	} else {
		startHour = float64(times.Sunrise.In(loc).Hour())
	}
	if end != nil {
		endHour = *end
	} else {
		endHour = float64(times.Sunset.In(loc).Hour())
	}
	return
}
