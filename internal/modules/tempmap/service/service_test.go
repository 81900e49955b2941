package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyushu-tempmap/internal/modules/tempmap/openmeteo"
	"kyushu-tempmap/internal/modules/tempmap/transform"
	"kyushu-tempmap/internal/modules/tempmap/types"
)

var observed = time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher answers from a per-name table; names in fail return an error.
type fakeFetcher struct {
	temps map[string]float64
	fail  map[string]error
}

func (f *fakeFetcher) Current(ctx context.Context, loc types.Location) (types.Reading, error) {
	if err, ok := f.fail[loc.Name]; ok {
		return types.Reading{}, err
	}
	return types.Reading{Location: loc, Temperature: f.temps[loc.Name], ObservedAt: observed}, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	readings []types.Reading
	err      error
}

func (p *recordingPublisher) PublishReading(r types.Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = append(p.readings, r)
	return p.err
}

func names(readings []types.Reading) []string {
	out := make([]string, 0, len(readings))
	for _, r := range readings {
		out = append(out, r.Name)
	}
	return out
}

func allNames() []string {
	out := make([]string, 0, len(types.KyushuCapitals))
	for _, loc := range types.KyushuCapitals {
		out = append(out, loc.Name)
	}
	return out
}

func TestAcquire_allSucceedKeepsConfigurationOrder(t *testing.T) {
	temps := map[string]float64{}
	for i, loc := range types.KyushuCapitals {
		temps[loc.Name] = float64(i)
	}
	pub := &recordingPublisher{}
	a := NewAcquirer(&fakeFetcher{temps: temps}, pub, discardLogger())

	snap, err := a.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, allNames(), names(snap.Readings))
	assert.Empty(t, snap.Failures)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.Len(t, pub.readings, len(types.KyushuCapitals))
}

func TestAcquire_excludesFailingLocation(t *testing.T) {
	fetcher := &fakeFetcher{
		temps: map[string]float64{},
		fail: map[string]error{
			"Nagasaki": &types.HTTPStatusError{Location: "Nagasaki", StatusCode: http.StatusServiceUnavailable},
		},
	}
	pub := &recordingPublisher{}
	a := NewAcquirer(fetcher, pub, discardLogger())

	snap, err := a.Acquire(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Readings, 6)
	assert.NotContains(t, names(snap.Readings), "Nagasaki")
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, "Nagasaki", snap.Failures[0].Location.Name)

	var statusErr *types.HTTPStatusError
	assert.True(t, errors.As(snap.Failures[0].Err, &statusErr))
	assert.Len(t, pub.readings, 6, "only acquired readings are published")
}

func TestAcquire_allFailReturnsErrNoReadings(t *testing.T) {
	fail := map[string]error{}
	for _, loc := range types.KyushuCapitals {
		fail[loc.Name] = &types.NetworkError{Location: loc.Name, Err: errors.New("connection refused")}
	}
	pub := &recordingPublisher{}
	a := NewAcquirer(&fakeFetcher{fail: fail}, pub, discardLogger())

	_, err := a.Acquire(context.Background())
	require.ErrorIs(t, err, types.ErrNoReadings)

	var netErr *types.NetworkError
	assert.True(t, errors.As(err, &netErr), "joined error keeps per-location errors")
	assert.Contains(t, err.Error(), "Kagoshima")
	assert.Empty(t, pub.readings)
}

func TestAcquire_invalidTemperatureIsExcluded(t *testing.T) {
	fetcher := &fakeFetcher{temps: map[string]float64{"Oita": math.NaN()}}
	a := NewAcquirer(fetcher, nil, discardLogger())

	snap, err := a.Acquire(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Failures, 1)
	var invalid *types.InvalidTemperatureError
	require.True(t, errors.As(snap.Failures[0].Err, &invalid))
	assert.Equal(t, "Oita", invalid.Location)
}

func TestAcquire_publishErrorDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker gone")}
	a := NewAcquirer(&fakeFetcher{temps: map[string]float64{}}, pub, discardLogger())

	snap, err := a.Acquire(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Readings, len(types.KyushuCapitals))
}

// fakeOpenMeteo serves a current-weather body per latitude; Saga gets a 500.
func fakeOpenMeteo(t *testing.T) *httptest.Server {
	t.Helper()
	temps := map[string]float64{
		"33.5904": 10, "32.745": 12, "32.79": 14,
		"33.2381": 16, "31.911": 18, "31.56": 20,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lat := r.URL.Query().Get("latitude")
		temp, ok := temps[lat]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"current":{"time":"2024-01-15T03:00","interval":900,"temperature_2m":%v}}`, temp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAcquire_withOpenMeteoClient(t *testing.T) {
	srv := fakeOpenMeteo(t)
	client := openmeteo.NewClient(srv.URL, srv.Client(), nil)
	a := NewAcquirer(client, nil, discardLogger())

	snap, err := a.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Fukuoka", "Nagasaki", "Kumamoto", "Oita", "Miyazaki", "Kagoshima"}, names(snap.Readings))
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, "Saga", snap.Failures[0].Location.Name)

	d, err := BuildDashboard(snap, transform.DefaultScale, false)
	require.NoError(t, err)
	assert.Equal(t, "15.0 ℃", d.Mean)
	assert.Equal(t, "20.0 ℃", d.Max)
	assert.Equal(t, "2024-01-15 12:00", d.ObservedAt)
	assert.True(t, d.ObservedAtUniform)
	require.Len(t, d.Failures, 1)
	assert.Equal(t, "Saga", d.Failures[0].Name)
	assert.Contains(t, d.Failures[0].Error, "500")
}
