package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultWeatherAPIURL = "https://api.open-meteo.com/v1/forecast"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// WeatherAPIURL is the Open-Meteo forecast endpoint. Tests point it at a local server.
	WeatherAPIURL      string
	WeatherHTTPTimeout time.Duration
	WeatherRateLimit   float64
	WeatherRateBurst   int

	CacheTTL time.Duration

	// MQTTBroker empty disables telemetry publishing.
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	weatherAPIURL := strings.TrimSpace(os.Getenv("WEATHER_API_URL"))
	if weatherAPIURL == "" {
		weatherAPIURL = DefaultWeatherAPIURL
	}
	u, err := url.Parse(weatherAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid WEATHER_API_URL %q (expected absolute URL)", weatherAPIURL)
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_HTTP_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	rateStr := strings.TrimSpace(os.Getenv("WEATHER_RATE_LIMIT"))
	if rateStr == "" {
		rateStr = "10"
	}
	rateLimit, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid WEATHER_RATE_LIMIT %q: %w", rateStr, err)
	}
	if rateLimit <= 0 {
		return Config{}, fmt.Errorf("WEATHER_RATE_LIMIT must be positive, got %v", rateLimit)
	}

	burstStr := strings.TrimSpace(os.Getenv("WEATHER_RATE_BURST"))
	if burstStr == "" {
		burstStr = "7"
	}
	rateBurst, err := strconv.Atoi(burstStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid WEATHER_RATE_BURST %q: %w", burstStr, err)
	}
	if rateBurst <= 0 {
		return Config{}, fmt.Errorf("WEATHER_RATE_BURST must be positive, got %d", rateBurst)
	}

	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "10m")
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "tempmap-" + uuid.NewString()
	}

	mqttTopicPrefix := strings.Trim(strings.TrimSpace(os.Getenv("MQTT_TOPIC_PREFIX")), "/")
	if mqttTopicPrefix == "" {
		mqttTopicPrefix = "tempmap"
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		HTTPAddr:           httpAddr,
		WeatherAPIURL:      weatherAPIURL,
		WeatherHTTPTimeout: weatherTimeout,
		WeatherRateLimit:   rateLimit,
		WeatherRateBurst:   rateBurst,
		CacheTTL:           cacheTTL,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		MQTTTopicPrefix:    mqttTopicPrefix,
	}, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
