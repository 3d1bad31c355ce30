package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/model"
)

// MQTTConfig holds the connection settings for streaming telemetry over
// MQTT.
type MQTTConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults fills the optional fields.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "batterysim"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "batterysim"
	}
}

// MQTTSink publishes each record as a JSON message on
// <prefix>/<vehicle_id>/telemetry, and events on <prefix>/<vehicle_id>/events,
// so downstream consumers can subscribe per vehicle.
type MQTTSink struct {
	client mqtt.Client
	cfg    MQTTConfig
	log    logger.Logger
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(cfg MQTTConfig, log logger.Logger) (*MQTTSink, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.SetDefaults()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return &MQTTSink{client: client, cfg: cfg, log: log}, nil
}

func (s *MQTTSink) WriteTelemetry(ctx context.Context, records []model.TelemetryRecord) (int, error) {
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		payload, err := json.Marshal(r)
		if err != nil {
			return i, fmt.Errorf("marshal telemetry record: %w", err)
		}
		topic := fmt.Sprintf("%s/%s/telemetry", s.cfg.TopicPrefix, r.VehicleID)
		if err := s.publish(topic, payload); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func (s *MQTTSink) WriteEvents(ctx context.Context, events []model.AnomalyEvent) (int, error) {
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return i, fmt.Errorf("marshal anomaly event: %w", err)
		}
		topic := fmt.Sprintf("%s/%s/events", s.cfg.TopicPrefix, ev.VehicleID)
		if err := s.publish(topic, payload); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

func (s *MQTTSink) publish(topic string, payload []byte) error {
	token := s.client.Publish(topic, s.cfg.QoS, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
