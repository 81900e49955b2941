// Package transform holds the pure conversions from a Reading to what the
// dashboard draws: column height, fill colour, local time and summary figures.
package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kyushu-tempmap/internal/modules/tempmap/types"
)

const (
	MinScale     = 1000
	MaxScale     = 5000
	DefaultScale = 3000

	// ColumnRadius is the horizontal radius of every column, in map units (metres).
	ColumnRadius = 12000

	// DisplayLayout is how observation times are shown on the page.
	DisplayLayout = "2006-01-02 15:04"

	observedLayout = "2006-01-02T15:04"
)

var (
	Blue   = types.RGBA{0, 100, 255, 180}
	Cyan   = types.RGBA{0, 200, 200, 180}
	Yellow = types.RGBA{255, 200, 0, 180}
	Orange = types.RGBA{255, 80, 0, 180}
)

// JST is the fixed UTC+9 display zone.
var JST = time.FixedZone("JST", 9*60*60)

var (
	ErrScaleOutOfRange = fmt.Errorf("scale must be between %d and %d", MinScale, MaxScale)
	ErrScaleNotInteger = errors.New("scale must be an integer")
)

// Elevation is the column height for temperature t: exactly t*scale.
func Elevation(t float64, scale int) (float64, error) {
	if !types.ValidTemperature(t) {
		return 0, &types.InvalidTemperatureError{Value: t}
	}
	return t * float64(scale), nil
}

// Color maps t onto one of four buckets; each bucket includes its lower bound.
func Color(t float64) (types.RGBA, error) {
	if !types.ValidTemperature(t) {
		return types.RGBA{}, &types.InvalidTemperatureError{Value: t}
	}
	switch {
	case t < 5:
		return Blue, nil
	case t < 10:
		return Cyan, nil
	case t < 15:
		return Yellow, nil
	default:
		return Orange, nil
	}
}

// ParseObservedAt parses an Open-Meteo "current.time" value. Values without
// an offset are UTC.
func ParseObservedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(observedLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04Z07:00", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse observation time %q (expected %s)", s, observedLayout)
}

func ToLocal(t time.Time) time.Time {
	return t.In(JST)
}

func FormatLocal(t time.Time) string {
	return ToLocal(t).Format(DisplayLayout)
}

// ObservationLabel returns the first reading's local time as the caption for
// the whole batch. uniform is false when any other reading was observed at a
// different instant, in which case the caption only approximates the batch.
func ObservationLabel(readings []types.Reading) (label string, uniform bool) {
	if len(readings) == 0 {
		return "", true
	}
	first := readings[0].ObservedAt
	uniform = true
	for _, r := range readings[1:] {
		if !r.ObservedAt.Equal(first) {
			uniform = false
			break
		}
	}
	return FormatLocal(first), uniform
}

type Stats struct {
	Mean string
	Max  string
}

const emptyStat = "-"

func Summarize(readings []types.Reading) (Stats, error) {
	if len(readings) == 0 {
		return Stats{Mean: emptyStat, Max: emptyStat}, nil
	}
	var sum float64
	maxT := readings[0].Temperature
	for _, r := range readings {
		if !types.ValidTemperature(r.Temperature) {
			return Stats{}, &types.InvalidTemperatureError{Location: r.Name, Value: r.Temperature}
		}
		sum += r.Temperature
		if r.Temperature > maxT {
			maxT = r.Temperature
		}
	}
	return Stats{
		Mean: FormatCelsius(sum / float64(len(readings))),
		Max:  FormatCelsius(maxT),
	}, nil
}

func FormatCelsius(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " ℃"
}

// ParseScale reads the slider value. An empty string yields DefaultScale.
func ParseScale(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultScale, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultScale, ErrScaleNotInteger
	}
	if n < MinScale || n > MaxScale {
		return DefaultScale, ErrScaleOutOfRange
	}
	return n, nil
}
