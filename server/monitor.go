package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sartorproj/co2trend/analysis"
	"github.com/sartorproj/co2trend/stats"
)

// LastUpdateLayout formats the time of the last live refresh.
const LastUpdateLayout = "15:04:05"

const writeWait = 10 * time.Second

var errNoData = errors.New("no data")

// MonitorPayload is the live monitor view over the latest readings.
type MonitorPayload struct {
	KPI         stats.KPI        `json:"kpi"`
	StatusText  string           `json:"status_text"`
	StatusClass string           `json:"status_class"`
	Result      *analysis.Result `json:"result"`
	LastUpdate  string           `json:"last_update"`
}

// monitorPayload analyses the latest MaxPoints readings. It returns
// errNoData when there is nothing to show.
func (s *Server) monitorPayload(ctx context.Context) (*MonitorPayload, error) {
	if s.source == nil {
		return nil, errNoData
	}
	readings, err := s.source.Latest(ctx, s.config.MaxPoints)
	if err != nil {
		return nil, fmt.Errorf("read latest readings: %w", err)
	}

	start := time.Now()
	result, err := analysis.ProcessReadings(readings, s.config.Analysis)
	s.metrics.PipelineRun("live", time.Since(start), resultLen(result))
	if err != nil {
		return nil, errNoData
	}

	loc := s.config.Analysis.Location
	if loc == nil {
		loc = time.UTC
	}
	p := &MonitorPayload{
		Result:     result,
		LastUpdate: s.now().In(loc).Format(LastUpdateLayout),
	}
	p.KPI, p.StatusText, p.StatusClass = headline(result.Summary, s.config.Status)
	return p, nil
}

// monitorMessage is one websocket frame: a payload or an error.
type monitorMessage struct {
	Type    string          `json:"type"` // "update" or "error"
	Payload *MonitorPayload `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleMonitorSocket pushes the monitor payload on connect and then every
// poll interval until the client goes away.
func (s *Server) handleMonitorSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	s.metrics.ClientConnected(1)
	defer s.metrics.ClientConnected(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Client messages are ignored; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.pushMonitor(ctx, conn); err != nil {
			s.logger.Debug("websocket closed", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) pushMonitor(ctx context.Context, conn *websocket.Conn) error {
	msg := monitorMessage{Type: "update"}
	payload, err := s.monitorPayload(ctx)
	switch {
	case err == nil:
		msg.Payload = payload
	case errors.Is(err, errNoData):
		msg = monitorMessage{Type: "error", Error: "no data"}
	default:
		s.logger.Error("build monitor payload", "error", err)
		msg = monitorMessage{Type: "error", Error: "failed to read live data"}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
