// Package httpapi serves match searches and catalog lookups over JSON.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/matcher"
)

// maxBodyBytes caps request bodies; a profile is a few hundred bytes.
const maxBodyBytes = 1 << 20

// Server wires the match engine to HTTP routes.
type Server struct {
	engine  *matcher.Engine
	origins []string
	logger  *zap.Logger
	now     func() time.Time
}

// New returns a server for engine. An empty origins list allows any origin.
func New(engine *matcher.Engine, origins []string, l *zap.Logger) *Server {
	return &Server{
		engine:  engine,
		origins: origins,
		logger:  logger.WithFields(l),
		now:     time.Now,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/matches", s.match)
		r.Post("/matches/export", s.exportMatches)
		r.Get("/programs", s.programs)
		r.Get("/programs/institutions", s.programInstitutions)
		r.Get("/institutions/{id}", s.institution)
		r.Get("/status", s.status)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	if s.engine.Snapshot() == nil {
		writeErr(w, http.StatusServiceUnavailable, matcher.ErrNoSnapshot.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
