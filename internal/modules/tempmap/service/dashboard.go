package service

import (
	"kyushu-tempmap/internal/modules/tempmap/transform"
	"kyushu-tempmap/internal/modules/tempmap/types"
)

// Column is one reading prepared for the map and the table.
type Column struct {
	Name        string     `json:"name"`
	Latitude    float64    `json:"lat"`
	Longitude   float64    `json:"lon"`
	Temperature float64    `json:"temperature"`
	Elevation   float64    `json:"elevation"`
	Color       types.RGBA `json:"color"`
	ObservedAt  string     `json:"observed_at"`
}

type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Dashboard is everything one page render needs, derived from a snapshot at a
// given scale. It is never cached.
type Dashboard struct {
	Scale      int       `json:"scale"`
	Columns    []Column  `json:"readings"`
	Failures   []Failure `json:"failures"`
	Mean       string    `json:"mean"`
	Max        string    `json:"max"`
	ObservedAt string    `json:"observed_at"`
	// ObservedAtUniform is false when the caption stands in for readings
	// taken at different times.
	ObservedAtUniform bool   `json:"observed_at_uniform"`
	FetchedAt         string `json:"fetched_at,omitempty"`
	CacheHit          bool   `json:"cache_hit"`
}

func BuildDashboard(snap types.Snapshot, scale int, cacheHit bool) (Dashboard, error) {
	d := Dashboard{
		Scale:    scale,
		Columns:  make([]Column, 0, len(snap.Readings)),
		Failures: make([]Failure, 0, len(snap.Failures)),
		CacheHit: cacheHit,
	}

	for _, r := range snap.Readings {
		elevation, err := transform.Elevation(r.Temperature, scale)
		if err != nil {
			return Dashboard{}, withLocation(err, r.Name)
		}
		color, err := transform.Color(r.Temperature)
		if err != nil {
			return Dashboard{}, withLocation(err, r.Name)
		}
		d.Columns = append(d.Columns, Column{
			Name:        r.Name,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Temperature: r.Temperature,
			Elevation:   elevation,
			Color:       color,
			ObservedAt:  transform.FormatLocal(r.ObservedAt),
		})
	}

	for _, f := range snap.Failures {
		d.Failures = append(d.Failures, Failure{Name: f.Location.Name, Error: f.Err.Error()})
	}

	stats, err := transform.Summarize(snap.Readings)
	if err != nil {
		return Dashboard{}, err
	}
	d.Mean, d.Max = stats.Mean, stats.Max

	d.ObservedAt, d.ObservedAtUniform = transform.ObservationLabel(snap.Readings)
	if !snap.FetchedAt.IsZero() {
		d.FetchedAt = transform.FormatLocal(snap.FetchedAt)
	}
	return d, nil
}

func withLocation(err error, name string) error {
	if invalid, ok := err.(*types.InvalidTemperatureError); ok && invalid.Location == "" {
		return &types.InvalidTemperatureError{Location: name, Value: invalid.Value}
	}
	return err
}
