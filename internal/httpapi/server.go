package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"AssetSentinel/internal/model"
	"AssetSentinel/internal/pipeline"
	"AssetSentinel/internal/recorder"
)

type ctxKey struct{}

// Server exposes the latest pipeline results over read-only HTTP.
type Server struct {
	router   *mux.Router
	server   *http.Server
	snapshot *pipeline.Snapshot
	recorder recorder.Recorder
	metrics  http.Handler
}

// NewServer builds the router. metricsHandler may be nil.
func NewServer(addr string, snap *pipeline.Snapshot, rec recorder.Recorder, metricsHandler http.Handler) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		snapshot: snap,
		recorder: rec,
		metrics:  metricsHandler,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/portfolio", s.portfolio).Methods(http.MethodGet)
	api.HandleFunc("/signals", s.signals).Methods(http.MethodGet)
	api.HandleFunc("/signals/{asset}/{timeframe}", s.latestSignal).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		id, _ := r.Context().Value(ctxKey{}).(string)
		log.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) portfolio(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot.Portfolio()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no portfolio run yet")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) signals(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot.Signals()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no signal scan yet")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) latestSignal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tf := model.Timeframe(vars["timeframe"])
	if !tf.Valid() {
		writeError(w, http.StatusBadRequest, "unknown timeframe "+vars["timeframe"])
		return
	}
	sig, err := s.recorder.LatestSignal(r.Context(), vars["asset"], tf)
	switch {
	case errors.Is(err, recorder.ErrNotFound):
		writeError(w, http.StatusNotFound, "no signal for "+vars["asset"]+" "+string(tf))
	case err != nil:
		log.Error().Err(err).Str("asset", vars["asset"]).Msg("load latest signal")
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, sig)
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
