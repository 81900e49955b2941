package tempmap

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"kyushu-tempmap/internal/config"
	"kyushu-tempmap/internal/modules/tempmap/cache"
	"kyushu-tempmap/internal/modules/tempmap/controller"
	"kyushu-tempmap/internal/modules/tempmap/openmeteo"
	"kyushu-tempmap/internal/modules/tempmap/service"
)

// RegisterFeature builds the acquisition pipeline behind a single-entry cache
// and mounts the dashboard routes. publisher may be nil.
func RegisterFeature(mux *http.ServeMux, cfg config.Config, publisher service.ReadingPublisher, logger *slog.Logger) *cache.Cache {
	httpClient := &http.Client{Timeout: cfg.WeatherHTTPTimeout}
	limiter := rate.NewLimiter(rate.Limit(cfg.WeatherRateLimit), cfg.WeatherRateBurst)
	weatherClient := openmeteo.NewClient(cfg.WeatherAPIURL, httpClient, limiter)

	acquirer := service.NewAcquirer(weatherClient, publisher, logger)
	snapshots := cache.New(cfg.CacheTTL, acquirer.Acquire)

	tempMapController := controller.NewTempMapController(snapshots)
	tempMapController.RegisterRoutes(mux)
	return snapshots
}
