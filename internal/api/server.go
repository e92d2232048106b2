// Package api exposes the surprise pipeline over HTTP: recent wow values,
// session rollups, and runtime parameter control.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kestrel-vision/surprise/internal/surprise"
	"github.com/kestrel-vision/surprise/internal/version"
	"github.com/kestrel-vision/surprise/internal/wowdb"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// EngineControls is the runtime tuning surface the server needs from the
// surprise engine. Updates apply from the next processed frame.
type EngineControls interface {
	Params() surprise.Params
	SetUpdateFactor(float64) error
	SetChannels(string) error
	FrameCount() uint64
}

type Server struct {
	db        *wowdb.DB
	engine    EngineControls
	sessionID string
}

func NewServer(db *wowdb.DB, engine EngineControls, sessionID string) *Server {
	return &Server{db: db, engine: engine, sessionID: sessionID}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/wow/recent", s.listRecentFrames)
	mux.HandleFunc("/api/wow/stats", s.showSessionStats)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/debug/wow/chart", s.renderWowChart)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sessionParam resolves the session query parameter, defaulting to the live
// session.
func (s *Server) sessionParam(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return s.sessionID
}

func (s *Server) listRecentFrames(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 10000 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	frames, err := s.db.RecentFrames(s.sessionParam(r), limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve frames: %v", err))
		return
	}
	if frames == nil {
		frames = []wowdb.FrameRecord{}
	}
	json.NewEncoder(w).Encode(frames)
}

func (s *Server) showSessionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := s.db.SessionStats(s.sessionParam(r))
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("Failed to compute stats: %v", err))
		return
	}
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessions, err := s.db.Sessions()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []wowdb.Session{}
	}
	json.NewEncoder(w).Encode(sessions)
}

// paramsUpdate is the POST body for /api/params. Omitted fields are left
// unchanged.
type paramsUpdate struct {
	UpdateFactor *float64 `json:"updatefac,omitempty"`
	Channels     *string  `json:"channels,omitempty"`
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(s.engine.Params())

	case http.MethodPost:
		var upd paramsUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
		// A rejected value leaves the engine on its last valid
		// configuration.
		if upd.UpdateFactor != nil {
			if err := s.engine.SetUpdateFactor(*upd.UpdateFactor); err != nil {
				s.writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if upd.Channels != nil {
			if err := s.engine.SetChannels(*upd.Channels); err != nil {
				s.writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		json.NewEncoder(w).Encode(s.engine.Params())

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := map[string]interface{}{
		"session_id":       s.sessionID,
		"frames_processed": s.engine.FrameCount(),
		"params":           s.engine.Params(),
		"version":          version.String(),
	}
	json.NewEncoder(w).Encode(status)
}
