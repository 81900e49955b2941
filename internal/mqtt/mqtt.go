package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kyushu-tempmap/internal/config"
	"kyushu-tempmap/internal/modules/tempmap/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// Telemetry is the payload published for each acquired reading.
type Telemetry struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature_c"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
}

func NewTelemetry(r types.Reading) Telemetry {
	return Telemetry{
		StationID:   r.Name,
		Timestamp:   r.ObservedAt.UTC(),
		Temperature: r.Temperature,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}
}

// TelemetryTopic returns "<prefix>/<station>/telemetry".
func TelemetryTopic(prefix, stationID string) string {
	if prefix == "" {
		return fmt.Sprintf("%s/telemetry", stationID)
	}
	return fmt.Sprintf("%s/%s/telemetry", prefix, stationID)
}

// ReadingPublisher is what the application needs from a telemetry sink.
type ReadingPublisher interface {
	Connect(ctx context.Context) error
	PublishReading(r types.Reading) error
	Disconnect()
}

// New returns a broker-backed publisher, or Noop when no broker is configured.
func New(cfg config.Config, logger *slog.Logger) ReadingPublisher {
	if cfg.MQTTBroker == "" {
		logger.Info("mqtt disabled (MQTT_BROKER not set)")
		return Noop{}
	}
	return NewPublisher(cfg, logger)
}

type Publisher struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the initial connection, honouring ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	// With ConnectRetry the token may stay pending while paho keeps retrying.
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// PublishReading sends r to its station's telemetry topic with QoS 1.
func (p *Publisher) PublishReading(r types.Reading) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := TelemetryTopic(p.cfg.MQTTTopicPrefix, r.Name)
	data, err := json.Marshal(NewTelemetry(r))
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish telemetry to %s: %w", topic, err)
	}

	p.logger.Debug("published telemetry", "topic", topic, "temperature_c", r.Temperature)
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect is idempotent. After it, Connect returns an error.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// Noop discards readings.
type Noop struct{}

func (Noop) Connect(context.Context) error { return nil }

func (Noop) PublishReading(types.Reading) error { return nil }

func (Noop) Disconnect() {}
