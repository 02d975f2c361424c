// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	analyzer "github.com/kamisoel/gait-analyzer"
	"github.com/kamisoel/gait-analyzer/internal/config"
	"github.com/kamisoel/gait-analyzer/internal/log"
	"github.com/kamisoel/gait-analyzer/internal/store"
	"github.com/kamisoel/gait-analyzer/internal/video"
)

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	analyzer *analyzer.Analyzer
	prober   *video.Prober
	log      zerolog.Logger

	http *http.Server
	jobs sync.WaitGroup
}

// New wires the HTTP server. The store and analyzer are owned by the caller.
func New(cfg *config.Config, st *store.Store, a *analyzer.Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		analyzer: a,
		prober:   &video.Prober{Binary: cfg.FFprobe},
		log:      log.WithComponent("server"),
	}
	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log))
	r.Use(requestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.Limit(
			s.cfg.Uploads.PerMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		)).Post("/uploads", s.handleUpload)

		r.Post("/analyses", s.handleCreateAnalysis)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Delete("/analyses/{id}", s.handleDeleteAnalysis)
		r.Get("/analyses/{id}/figures/{kind}", s.handleFigure)
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// waits for background analysis jobs.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", s.cfg.Listen).Msg("listening")
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.jobs.Wait()
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
