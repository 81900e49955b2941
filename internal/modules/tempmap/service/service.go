package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kyushu-tempmap/internal/modules/tempmap/types"
)

// ReadingFetcher returns the current reading for one location.
type ReadingFetcher interface {
	Current(ctx context.Context, loc types.Location) (types.Reading, error)
}

// ReadingPublisher receives every freshly acquired reading.
type ReadingPublisher interface {
	PublishReading(r types.Reading) error
}

type Acquirer struct {
	fetcher   ReadingFetcher
	publisher ReadingPublisher
	locations []types.Location
	logger    *slog.Logger
	now       func() time.Time
}

// NewAcquirer fetches types.KyushuCapitals. publisher may be nil.
func NewAcquirer(fetcher ReadingFetcher, publisher ReadingPublisher, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		fetcher:   fetcher,
		publisher: publisher,
		locations: types.KyushuCapitals,
		logger:    logger,
		now:       time.Now,
	}
}

type result struct {
	reading types.Reading
	err     error
}

// Acquire fetches every location concurrently. Failing locations are left out
// of Readings and listed in Failures; the pass only fails when nothing was
// acquired, with an error wrapping ErrNoReadings and every per-location error.
func (a *Acquirer) Acquire(ctx context.Context) (types.Snapshot, error) {
	results := make([]result, len(a.locations))

	var g errgroup.Group
	for i, loc := range a.locations {
		i, loc := i, loc
		g.Go(func() error {
			r, err := a.fetcher.Current(ctx, loc)
			if err == nil && !types.ValidTemperature(r.Temperature) {
				err = &types.InvalidTemperatureError{Location: loc.Name, Value: r.Temperature}
			}
			results[i] = result{reading: r, err: err}
			return nil
		})
	}
	_ = g.Wait()

	snap := types.Snapshot{FetchedAt: a.now().UTC()}
	var errs []error
	for i, res := range results {
		loc := a.locations[i]
		if res.err != nil {
			a.logger.Warn("excluding location from refresh",
				"location", loc.Name,
				"error", res.err,
			)
			snap.Failures = append(snap.Failures, types.FetchFailure{Location: loc, Err: res.err})
			errs = append(errs, res.err)
			continue
		}
		snap.Readings = append(snap.Readings, res.reading)
	}

	if len(snap.Readings) == 0 {
		return types.Snapshot{}, fmt.Errorf("%w: %w", types.ErrNoReadings, errors.Join(errs...))
	}

	a.logger.Info("acquired readings",
		"readings", len(snap.Readings),
		"failures", len(snap.Failures),
	)
	a.publish(snap.Readings)
	return snap, nil
}

func (a *Acquirer) publish(readings []types.Reading) {
	if a.publisher == nil {
		return
	}
	for _, r := range readings {
		if err := a.publisher.PublishReading(r); err != nil {
			a.logger.Warn("failed to publish reading", "location", r.Name, "error", err)
		}
	}
}
