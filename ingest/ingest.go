// Package ingest subscribes to the live CO2 feed over MQTT and writes the
// readings to a sink.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sartorproj/co2trend/metrics"
	"github.com/sartorproj/co2trend/timeseries"
)

// ErrInvalidPayload is returned for messages that carry no usable reading.
var ErrInvalidPayload = errors.New("ingest: invalid payload")

// Sink receives decoded readings.
type Sink interface {
	Insert(ctx context.Context, r timeseries.Reading) error
}

// Config configures the subscriber.
type Config struct {
	Broker         string
	Topic          string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}

// Subscriber writes every reading published on the topic to the sink.
type Subscriber struct {
	config  Config
	client  mqtt.Client
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSubscriber creates a subscriber. It does not connect until Start.
func NewSubscriber(config Config, sink Sink, logger *slog.Logger, m *metrics.Metrics) *Subscriber {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Subscriber{
		config:  config,
		sink:    sink,
		logger:  logger.With("component", "ingest", "topic", config.Topic),
		metrics: m,
		now:     time.Now,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(config.ConnectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warn("connection lost", "error", err)
		})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. The subscription is (re)established on
// every successful connection.
func (s *Subscriber) Start(ctx context.Context) error {
	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect %s: %w", s.config.Broker, err)
	}
	return nil
}

// Stop disconnects, waiting up to 250ms for in-flight work.
func (s *Subscriber) Stop() {
	s.client.Disconnect(250)
	s.logger.Info("subscriber stopped")
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	s.awaitSubscription(c.Subscribe(s.config.Topic, s.config.QoS, s.handle))
}

// awaitSubscription reports whether the broker acknowledged the subscription
// within ConnectTimeout.
func (s *Subscriber) awaitSubscription(token mqtt.Token) bool {
	if !token.WaitTimeout(s.config.ConnectTimeout) {
		s.logger.Warn("subscribe not confirmed", "topic", s.config.Topic, "timeout", s.config.ConnectTimeout)
		return false
	}
	if err := token.Error(); err != nil {
		s.logger.Error("subscribe failed", "topic", s.config.Topic, "error", err)
		return false
	}
	s.logger.Info("subscribed", "broker", s.config.Broker, "topic", s.config.Topic)
	return true
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	reading, err := DecodeReading(msg.Payload(), s.now())
	if err != nil {
		s.metrics.Ingested("rejected")
		s.logger.Warn("dropping message", "error", err, "payload", truncate(msg.Payload(), 120))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	if err := s.sink.Insert(ctx, reading); err != nil {
		s.metrics.Ingested("failed")
		s.logger.Error("store reading", "error", err)
		return
	}
	s.metrics.Ingested("stored")
	s.logger.Debug("reading stored", "co2_ppm", reading.CO2, "timestamp", reading.Time)
}

type payload struct {
	Timestamp json.RawMessage `json:"timestamp"`
	CO2       *float64        `json:"co2_ppm"`
	CO2Alt    *float64        `json:"co2"`
}

// DecodeReading decodes a message body. Accepted forms are a JSON object
// with "co2_ppm" (or "co2") and an optional "timestamp" (RFC 3339 string or
// unix seconds), or a bare number. Readings without a timestamp are stamped
// with now.
func DecodeReading(body []byte, now time.Time) (timeseries.Reading, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return timeseries.Reading{}, ErrInvalidPayload
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return newReading(now, v)
	}

	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return timeseries.Reading{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	value := p.CO2
	if value == nil {
		value = p.CO2Alt
	}
	if value == nil {
		return timeseries.Reading{}, fmt.Errorf("%w: missing co2_ppm", ErrInvalidPayload)
	}

	ts, err := decodeTimestamp(p.Timestamp, now)
	if err != nil {
		return timeseries.Reading{}, err
	}
	return newReading(ts, *value)
}

func newReading(ts time.Time, v float64) (timeseries.Reading, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return timeseries.Reading{}, fmt.Errorf("%w: bad value %v", ErrInvalidPayload, v)
	}
	return timeseries.Reading{Time: ts, CO2: v}, nil
}

func decodeTimestamp(raw json.RawMessage, now time.Time) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return now, nil
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp: %v", ErrInvalidPayload, err)
	}
	ts, ok := timeseries.ParseTime(s, timeseries.DefaultTimeLayouts, time.UTC)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInvalidPayload, s)
	}
	return ts, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
