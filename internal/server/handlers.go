package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/floatlabs/floatchat/internal/metrics"
	"github.com/floatlabs/floatchat/internal/store"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "floatchat-api",
		"version": s.cfg.Version,
		"status":  "ok",
		"time":    s.cfg.Clock.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unreachable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ChatRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		metrics.ChatRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Message is required", "")
		return
	}

	data, err := s.cfg.Data.AssembleContext(r.Context(), req.Message)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("error").Inc()
		s.cfg.Logger.Error("failed to assemble chat context", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	reply := s.cfg.Responder.Respond(r.Context(), req.Message, data)
	metrics.ChatRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cfg.Data.DatasetStats(r.Context())
	if err != nil {
		s.cfg.Logger.Error("failed to compute dataset stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// recordJSON is the wire shape of one measurement. Temperature and salinity
// are pointers so a missing measurement serializes as null rather than 0;
// depth 0 is a real surface reading and stays 0.
type recordJSON struct {
	ID          uint64   `json:"id"`
	Time        string   `json:"time"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Depth       float64  `json:"depth"`
	Temperature *float64 `json:"temperature"`
	Salinity    *float64 `json:"salinity"`
	Platform    string   `json:"platform"`
}

type queryResponse struct {
	Data []recordJSON `json:"data"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var spec store.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}

	records, err := s.cfg.Data.QueryRecords(r.Context(), spec)
	if err != nil {
		s.cfg.Logger.Error("failed to query records", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	out := queryResponse{Data: make([]recordJSON, 0, len(records))}
	for _, rec := range records {
		out.Data = append(out.Data, recordJSON{
			ID:          rec.ID,
			Time:        rec.Time.UTC().Format(time.RFC3339),
			Latitude:    rec.Latitude,
			Longitude:   rec.Longitude,
			Depth:       rec.Depth,
			Temperature: rec.Temperature,
			Salinity:    rec.Salinity,
			Platform:    rec.Platform,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
