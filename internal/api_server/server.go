package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hackvision/vision/internal/ai"
	"github.com/hackvision/vision/internal/airtable"
	"github.com/hackvision/vision/internal/auth"
	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/gather"
	"github.com/hackvision/vision/internal/ghclient"
	handlers "github.com/hackvision/vision/internal/handlers/v1"
	"github.com/hackvision/vision/internal/review"
	"github.com/hackvision/vision/internal/service"
	"github.com/hackvision/vision/internal/store"
	"github.com/hackvision/vision/pkg/metrics"
	"github.com/hackvision/vision/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of a vision API server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	aiClient := ai.NewHTTPClient(s.cfg)
	ghClient := ghclient.NewRESTClient(s.cfg)
	airtableClient := airtable.NewHTTPClient(s.cfg)

	runner := review.NewRunner(
		s.store,
		airtableClient,
		gather.NewDuplicateChecker(gather.NewAirtableRegistry(airtableClient, s.cfg)),
		gather.NewContentFetcher(s.cfg),
		gather.NewCommitFetcher(ghClient, s.cfg),
		review.NewProjectTester(aiClient),
		review.NewCommitAnalyzer(aiClient, s.cfg.Review),
		review.NewNarrator(aiClient, s.cfg.Review),
		s.cfg,
	)

	h := handlers.NewServiceHandler(service.NewReviewService(s.store, runner, s.cfg))

	router.Get("/health", h.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Identity)
		r.Post("/reviews", h.CreateReview)
		r.Post("/reviews/bulk", h.CreateBulkReview)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/cancel", h.CancelJob)
		r.Delete("/jobs/{id}", h.DeleteJob)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
