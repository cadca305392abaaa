package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sartorproj/co2trend/analysis"
	"github.com/sartorproj/co2trend/stats"
	"github.com/sartorproj/co2trend/timeseries"
)

// AnalysisResponse is the body returned by the demo and upload endpoints.
type AnalysisResponse struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Name        string           `json:"name,omitempty"`
	KPI         stats.KPI        `json:"kpi"`
	StatusText  string           `json:"status_text"`
	StatusClass string           `json:"status_class"`
	Result      *analysis.Result `json:"result"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.source.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSONStatus(w, s.logger, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	table, err := timeseries.LoadCSV(s.config.DemoFile, nil)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, s.logger, http.StatusNotFound, "demo file not found")
			return
		}
		s.logger.Warn("load demo file", "file", s.config.DemoFile, "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondAnalysis(w, r, "demo", s.config.DemoFile, table)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	table, err := timeseries.LoadCSVFromReader(file, nil)
	if err != nil {
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondAnalysis(w, r, "upload", header.Filename, table)
}

func (s *Server) respondAnalysis(w http.ResponseWriter, r *http.Request, source, name string, table *timeseries.Table) {
	start := time.Now()
	result, err := analysis.Run(table, s.config.Analysis)
	s.metrics.PipelineRun(source, time.Since(start), resultLen(result))
	if err != nil {
		s.logger.Info("nothing to analyse", "source", source, "name", name, "error", err,
			"request_id", RequestIDFrom(r.Context()))
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := AnalysisResponse{
		ID:     uuid.NewString(),
		Source: source,
		Name:   name,
		Result: result,
	}
	resp.KPI, resp.StatusText, resp.StatusClass = headline(result.Summary, s.config.Status)
	writeJSON(w, s.logger, resp)
}

func (s *Server) handleMonitorData(w http.ResponseWriter, r *http.Request) {
	payload, err := s.monitorPayload(r.Context())
	if err != nil {
		if errors.Is(err, errNoData) {
			writeError(w, s.logger, http.StatusNotFound, "no data")
			return
		}
		s.logger.Error("build monitor payload", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, s.logger, http.StatusInternalServerError, "failed to read live data")
		return
	}
	writeJSON(w, s.logger, payload)
}

// headline returns the KPI and status for a summary; a nil summary has no data.
func headline(summary *stats.Summary, t stats.StatusThresholds) (stats.KPI, string, string) {
	if summary == nil {
		text, class := stats.Status(math.NaN(), t)
		return stats.KPI{}, text, class
	}
	text, class := stats.Status(summary.Current, t)
	return summary.KPI(), text, class
}

func resultLen(r *analysis.Result) int {
	if r == nil {
		return 0
	}
	return r.Len()
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, data any) {
	writeJSONStatus(w, logger, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSONStatus(w, logger, status, map[string]string{"error": message})
}
