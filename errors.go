package sunscope

import (
	"errors"
	"fmt"
)

// ErrExportInProgress is wrapped in a ValidationError when an export is
// started against a surface that already has one running.
var ErrExportInProgress = errors.New("export already in progress")

// ValidationError reports a request that cannot start: a required scene
// object is missing, a parameter is out of range, or the surface is busy.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("sunscope: invalid %s: %s", e.Field, msg)
	}
	return "sunscope: " + msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DataError reports sun data that is unavailable for the requested date and
// coordinates, for example sunrise during polar night.
type DataError struct {
	Lat, Lon float64
	Date     string
	Reason   string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("sunscope: no sun data for %s at (%.4f, %.4f): %s", e.Date, e.Lat, e.Lon, e.Reason)
}

// EmptyResultError reports a sampling window that produced no frames.
type EmptyResultError struct {
	StartHour, EndHour float64
	Interval           string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("sunscope: no frames between %s and %s every %s",
		formatHour(e.StartHour), formatHour(e.EndHour), e.Interval)
}

// EncodingError reports a failure inside the animation encoder.
type EncodingError struct {
	Frame int // -1 when not tied to a frame
	Err   error
}

func (e *EncodingError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("sunscope: encode frame %d: %v", e.Frame, e.Err)
	}
	return fmt.Sprintf("sunscope: encode animation: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// RenderError wraps an error raised while producing one frame.
type RenderError struct {
	Frame int
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("sunscope: render frame %d: %v", e.Frame, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// formatHour renders a fractional hour as HH:MM.
func formatHour(h float64) string {
	total := int(h*60 + 0.5)
	if h < 0 {
		total = int(h*60 - 0.5)
	}
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%02d:%02d", sign, total/60, total%60)
}
