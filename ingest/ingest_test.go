package ingest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sartorproj/co2trend/timeseries"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type memorySink struct {
	mu       sync.Mutex
	readings []timeseries.Reading
	err      error
}

func (s *memorySink) Insert(_ context.Context, r timeseries.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.readings = append(s.readings, r)
	return nil
}

func TestDecodeReading(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		body     string
		expected timeseries.Reading
	}{
		{"bare number", "812.5", timeseries.Reading{Time: now, CO2: 812.5}},
		{"object without time", `{"co2_ppm": 901}`, timeseries.Reading{Time: now, CO2: 901}},
		{"alternate key", `{"co2": 650}`, timeseries.Reading{Time: now, CO2: 650}},
		{"rfc3339", `{"timestamp": "2024-03-01T10:30:00Z", "co2_ppm": 1200}`,
			timeseries.Reading{Time: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), CO2: 1200}},
		{"naive time", `{"timestamp": "2024-03-01 10:30:00", "co2_ppm": 1200}`,
			timeseries.Reading{Time: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), CO2: 1200}},
		{"unix seconds", `{"timestamp": 1709289000, "co2_ppm": 700}`,
			timeseries.Reading{Time: time.Unix(1709289000, 0).UTC(), CO2: 700}},
		{"null timestamp", `{"timestamp": null, "co2_ppm": 700}`, timeseries.Reading{Time: now, CO2: 700}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReading([]byte(tt.body), now)
			if err != nil {
				t.Fatalf("DecodeReading failed: %v", err)
			}
			if !got.Time.Equal(tt.expected.Time) || got.CO2 != tt.expected.CO2 {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestDecodeReadingInvalid(t *testing.T) {
	bodies := []string{
		"",
		"   ",
		"not json",
		`{"temperature": 21}`,
		`{"co2_ppm": "high"}`,
		`{"co2_ppm": -5}`,
		`{"timestamp": "yesterday", "co2_ppm": 800}`,
		`{"timestamp": true, "co2_ppm": 800}`,
		"NaN",
	}

	for _, body := range bodies {
		if _, err := DecodeReading([]byte(body), time.Now()); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%q: expected ErrInvalidPayload, got %v", body, err)
		}
	}
}

func newTestSubscriber(sink Sink, logs *bytes.Buffer) *Subscriber {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSubscriber(Config{Broker: "tcp://127.0.0.1:1883", Topic: "sensors/co2"}, sink, logger, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestHandleStoresReading(t *testing.T) {
	var logs bytes.Buffer
	sink := &memorySink{}
	s := newTestSubscriber(sink, &logs)

	s.handle(nil, &fakeMessage{topic: "sensors/co2", payload: []byte(`{"co2_ppm": 845}`)})
	s.handle(nil, &fakeMessage{topic: "sensors/co2", payload: []byte(`garbage`)})

	if len(sink.readings) != 1 || sink.readings[0].CO2 != 845 {
		t.Fatalf("Expected one stored reading, got %+v", sink.readings)
	}
	if !bytes.Contains(logs.Bytes(), []byte("dropping message")) {
		t.Errorf("Expected rejected message to be logged, got %s", logs.String())
	}
}

func TestHandleSinkError(t *testing.T) {
	var logs bytes.Buffer
	sink := &memorySink{err: errors.New("disk full")}
	s := newTestSubscriber(sink, &logs)

	s.handle(nil, &fakeMessage{payload: []byte("900")})

	if !bytes.Contains(logs.Bytes(), []byte("disk full")) {
		t.Errorf("Expected sink error to be logged, got %s", logs.String())
	}
}

type fakeToken struct {
	done chan struct{}
	ok   bool
	err  error
}

func newFakeToken(ok bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), ok: ok, err: err}
	if ok {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { return t.ok }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.ok }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func TestAwaitSubscription(t *testing.T) {
	tests := []struct {
		name  string
		token *fakeToken
		want  bool
		log   string
	}{
		{"acknowledged", newFakeToken(true, nil), true, "msg=subscribed"},
		{"timed out", newFakeToken(false, nil), false, `msg="subscribe not confirmed"`},
		{"rejected", newFakeToken(true, errors.New("not authorized")), false, `msg="subscribe failed"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			s := newTestSubscriber(&memorySink{}, &logs)

			if got := s.awaitSubscription(tt.token); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if !bytes.Contains(logs.Bytes(), []byte(tt.log)) {
				t.Errorf("Expected %s in logs, got %s", tt.log, logs.String())
			}
			if !tt.want && bytes.Contains(logs.Bytes(), []byte("msg=subscribed")) {
				t.Errorf("Unconfirmed subscription logged as subscribed: %s", logs.String())
			}
		})
	}
}
