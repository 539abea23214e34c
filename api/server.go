package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rpupo63/fieldlens-backend/annotation"
	"github.com/rpupo63/fieldlens-backend/capture"
	"github.com/rpupo63/fieldlens-backend/config"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/metrics"
	"github.com/rpupo63/fieldlens-backend/services"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/rpupo63/fieldlens-backend/views"
	"github.com/rs/zerolog/log"
)

// Dependencies are the components the HTTP layer routes to
type Dependencies struct {
	Services services.Services
	Overlay  *annotation.Overlay
	Sessions *capture.Manager
	Views    *views.Service
	Store    storage.Store
	// Blobs serves transient photo references; nil when photos go to S3
	Blobs   *storage.TransientStore
	Hub     *events.Hub
	Metrics *metrics.Metrics

	StoreDriver  string
	CameraDriver string
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(deps Dependencies, c map[string]string) (Server, error) {
	if deps.Sessions == nil || deps.Overlay == nil || deps.Views == nil {
		return Server{}, errors.New("api: capture sessions, annotation overlay and views are required")
	}

	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	handler := newRouter(deps, withConfig(c), withStartupTime(startupTime))

	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 60)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 60)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 120)) * time.Second

	server := &http.Server{
		Addr:         address,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")
	if len(acceptedOrigins) == 0 {
		acceptedOrigins = []string{"*"}
	}
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   acceptedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", userNameHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		chiRouter.Use(MetricsMiddleware(deps.Metrics))
	}

	defaultUser := config.GetString(router.config, "DEFAULT_USER_NAME", services.DefaultUserName)
	chiRouter.Use(identityMiddleware(defaultUser))

	handlers := initializeHandlers(deps, router.config, defaultUser)
	health := newHealthHandler(HealthInfo{
		StoreDriver:     deps.StoreDriver,
		CameraDriver:    deps.CameraDriver,
		CaptureSessions: deps.Sessions.Len,
		Subscribers:     subscriberCount(deps.Hub),
	})
	if !router.startupTime.IsZero() {
		health.started = router.startupTime
	}

	chiRouter.Get("/health", health.getHealth())
	if deps.Metrics != nil {
		chiRouter.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	if deps.Hub != nil {
		chiRouter.Get("/ws", deps.Hub.ServeWS)
	}

	setupFrontendRoutes(chiRouter, handlers)

	return chiRouter
}

func subscriberCount(hub *events.Hub) func() int {
	if hub == nil {
		return nil
	}
	return hub.Subscribers
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
