package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"kurskal/internal/ics"
	"kurskal/internal/model"
)

// EventSource produces the cleaned event sequence served by this server.
// Satisfied by *pipeline.Pipeline.
type EventSource interface {
	Run(ctx context.Context) ([]model.CleanEvent, error)
}

// calendarCacheTTL bounds how often a burst of HTTP requests can trigger
// upstream fetch/parse/reconcile work.
const calendarCacheTTL = 30 * time.Second

// Server serves the cleaned calendar over HTTP:
//
//	GET /        the cleaned calendar, Content-Type text/calendar
//	GET /health  liveness probe
type Server struct {
	source EventSource
	log    *logrus.Entry
	mux    *http.ServeMux

	// In-memory cache for the serialized calendar to avoid redundant
	// fetch/reconcile work on every HTTP request.
	calMu    sync.RWMutex
	calCache *calendarCache
}

// calendarCache holds a serialized calendar and its timestamp.
type calendarCache struct {
	body      []byte
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(source EventSource, log *logrus.Entry) *Server {
	s := &Server{
		source: source,
		log:    log,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar returns the cleaned calendar document. A source-fetch
// failure fails the whole request with a 5xx; there is no partial output.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()

	// Fast path: serve the cached document while it is fresh.
	s.calMu.RLock()
	cc := s.calCache
	s.calMu.RUnlock()
	if cc != nil && now.Sub(cc.updatedAt) < calendarCacheTTL {
		writeCalendar(w, cc.body)
		return
	}

	events, err := s.source.Run(r.Context())
	if err != nil {
		s.log.WithError(err).Error("calendar build failed")
		http.Error(w, "failed to build calendar", http.StatusBadGateway)
		return
	}

	body := ics.Serialize(events)

	s.calMu.Lock()
	s.calCache = &calendarCache{body: body, updatedAt: time.Now()}
	s.calMu.Unlock()

	s.log.WithField("event_count", len(events)).Info("calendar served")
	writeCalendar(w, body)
}

func writeCalendar(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
