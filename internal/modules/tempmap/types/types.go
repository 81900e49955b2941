package types

import "time"

type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// KyushuCapitals is the fixed set of locations shown on the dashboard.
// Its order is the display order.
var KyushuCapitals = []Location{
	{Name: "Fukuoka", Latitude: 33.5904, Longitude: 130.4017},
	{Name: "Saga", Latitude: 33.2494, Longitude: 130.2974},
	{Name: "Nagasaki", Latitude: 32.7450, Longitude: 129.8739},
	{Name: "Kumamoto", Latitude: 32.7900, Longitude: 130.7420},
	{Name: "Oita", Latitude: 33.2381, Longitude: 131.6119},
	{Name: "Miyazaki", Latitude: 31.9110, Longitude: 131.4240},
	{Name: "Kagoshima", Latitude: 31.5600, Longitude: 130.5580},
}

// Reading is one location's current temperature for a single refresh.
// ObservedAt is in UTC.
type Reading struct {
	Location
	Temperature float64   `json:"temperature"`
	ObservedAt  time.Time `json:"observedAt"`
}

type FetchFailure struct {
	Location Location
	Err      error
}

// Snapshot is the result of one acquisition pass. Readings keep the order
// of the configured locations; failed locations are listed in Failures instead.
type Snapshot struct {
	Readings  []Reading
	Failures  []FetchFailure
	FetchedAt time.Time
}

type RGBA [4]uint8
