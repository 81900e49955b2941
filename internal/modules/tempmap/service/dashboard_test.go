package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyushu-tempmap/internal/modules/tempmap/transform"
	"kyushu-tempmap/internal/modules/tempmap/types"
)

func TestBuildDashboard(t *testing.T) {
	snap := types.Snapshot{
		Readings: []types.Reading{
			{Location: types.KyushuCapitals[0], Temperature: 4, ObservedAt: observed},
			{Location: types.KyushuCapitals[1], Temperature: 16, ObservedAt: observed},
		},
		Failures: []types.FetchFailure{
			{Location: types.KyushuCapitals[2], Err: &types.NetworkError{Location: "Nagasaki", Err: errors.New("timeout")}},
		},
		FetchedAt: observed.Add(2 * time.Minute),
	}

	d, err := BuildDashboard(snap, 2000, true)
	require.NoError(t, err)

	assert.Equal(t, 2000, d.Scale)
	assert.True(t, d.CacheHit)
	require.Len(t, d.Columns, 2)

	fukuoka := d.Columns[0]
	assert.Equal(t, "Fukuoka", fukuoka.Name)
	assert.Equal(t, 33.5904, fukuoka.Latitude)
	assert.Equal(t, 130.4017, fukuoka.Longitude)
	assert.Equal(t, 8000.0, fukuoka.Elevation)
	assert.Equal(t, transform.Blue, fukuoka.Color)
	assert.Equal(t, "2024-01-15 12:00", fukuoka.ObservedAt)

	assert.Equal(t, transform.Orange, d.Columns[1].Color)
	assert.Equal(t, 32000.0, d.Columns[1].Elevation)

	assert.Equal(t, "10.0 ℃", d.Mean)
	assert.Equal(t, "16.0 ℃", d.Max)
	assert.Equal(t, "2024-01-15 12:02", d.FetchedAt)

	require.Len(t, d.Failures, 1)
	assert.Equal(t, "Nagasaki", d.Failures[0].Name)
	assert.Contains(t, d.Failures[0].Error, "timeout")
}

func TestBuildDashboard_nonUniformObservationTimes(t *testing.T) {
	snap := types.Snapshot{Readings: []types.Reading{
		{Location: types.KyushuCapitals[0], Temperature: 1, ObservedAt: observed},
		{Location: types.KyushuCapitals[1], Temperature: 2, ObservedAt: observed.Add(15 * time.Minute)},
	}}

	d, err := BuildDashboard(snap, transform.DefaultScale, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15 12:00", d.ObservedAt)
	assert.False(t, d.ObservedAtUniform)
}

func TestBuildDashboard_empty(t *testing.T) {
	d, err := BuildDashboard(types.Snapshot{}, transform.DefaultScale, false)
	require.NoError(t, err)
	assert.Empty(t, d.Columns)
	assert.NotNil(t, d.Columns)
	assert.Equal(t, "-", d.Mean)
	assert.Equal(t, "-", d.Max)
	assert.Empty(t, d.FetchedAt)
}

func TestBuildDashboard_invalidTemperatureNamesLocation(t *testing.T) {
	snap := types.Snapshot{Readings: []types.Reading{
		{Location: types.KyushuCapitals[4], Temperature: math.Inf(1), ObservedAt: observed},
	}}

	_, err := BuildDashboard(snap, transform.DefaultScale, false)
	var invalid *types.InvalidTemperatureError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Oita", invalid.Location)
}
