package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"kyushu-tempmap/internal/config"
	httpapi "kyushu-tempmap/internal/httpapi"
	"kyushu-tempmap/internal/modules/tempmap"
	tempmapviews "kyushu-tempmap/internal/modules/tempmap/views"
	"kyushu-tempmap/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"weatherAPIURL", cfg.WeatherAPIURL,
		"weatherHTTPTimeout", cfg.WeatherHTTPTimeout,
		"weatherRateLimit", cfg.WeatherRateLimit,
		"weatherRateBurst", cfg.WeatherRateBurst,
		"cacheTTL", cfg.CacheTTL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
	)

	if err := tempmapviews.LoadTemplates(); err != nil {
		return err
	}

	publisher := mqtt.New(cfg, slog.Default())

	// Short timeout so a missing broker does not block startup.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err := publisher.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without telemetry)", "error", err)
	}

	mux := http.NewServeMux()
	snapshots := tempmap.RegisterFeature(mux, cfg, publisher, slog.Default())
	httpapi.RegisterHealthcheck(mux, snapshots)

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		publisher.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("mqtt disconnecting")
	publisher.Disconnect()

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
