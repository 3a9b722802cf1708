// Package web implements the local JSON API of leontine. It exposes the state snapshot, endpoint
// settings, status refresh and the active transcription job to local clients.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/leontine/leontine/app/state"
)

//go:generate moq -out mocks/jobs.go -pkg mocks -skip-ensure -fmt goimports . JobRunner
//go:generate moq -out mocks/endpoint.go -pkg mocks -skip-ensure -fmt goimports . EndpointSetter
//go:generate moq -out mocks/refresher.go -pkg mocks -skip-ensure -fmt goimports . StatusRefresher

// Server is the local api server
type Server struct {
	st             *state.State
	settings       EndpointSetter
	status         StatusRefresher
	jobs           JobRunner
	version        string
	passwordHash   string // bcrypt hash for basic auth
	maxUploadSize  int64
	uploadLimiter  *limiter.Limiter
	csrfProtection *http.CrossOriginProtection
}

// JobRunner manages the active transcription job
type JobRunner interface {
	Submit(ctx context.Context, audio io.Reader, filename string) (string, error)
	Cancel()
	Discard()
	Result(ctx context.Context) ([]byte, error)
}

// EndpointSetter changes the endpoint url of the service
type EndpointSetter interface {
	SetEndpointURL(candidate string) error
}

// StatusRefresher requests an immediate service status check
type StatusRefresher interface {
	Refresh() bool
}

// Config holds server configuration
type Config struct {
	State         *state.State
	Settings      EndpointSetter
	Status        StatusRefresher
	Jobs          JobRunner
	Version       string
	PasswordHash  string  // bcrypt hash for basic auth, empty to disable
	MaxUploadSize int64   // max audio size in bytes, defaults to 512M
	UploadRate    float64 // max uploads per second per client, defaults to 1
}

// New makes the server, all components are required
func New(cfg Config) (*Server, error) {
	if cfg.State == nil || cfg.Settings == nil || cfg.Status == nil || cfg.Jobs == nil {
		return nil, fmt.Errorf("web server initialization failed: state, settings, status and jobs are required")
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 512 * 1024 * 1024
	}
	if cfg.UploadRate <= 0 {
		cfg.UploadRate = 1
	}

	lmt := tollbooth.NewLimiter(cfg.UploadRate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessageContentType("application/json; charset=utf-8")
	lmt.SetMessage(`{"error":"too many uploads, try again later"}`)

	return &Server{
		st:             cfg.State,
		settings:       cfg.Settings,
		status:         cfg.Status,
		jobs:           cfg.Jobs,
		version:        cfg.Version,
		passwordHash:   cfg.PasswordHash,
		maxUploadSize:  cfg.MaxUploadSize,
		uploadLimiter:  lmt,
		csrfProtection: http.NewCrossOriginProtection(),
	}, nil
}

// Run starts the web server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		// no write timeout, uploads and event streams are long
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(100),
		rest.AppInfo("leontine", "leontine", s.version),
		rest.Ping,
		rest.Trace,
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for web api")
		router.Use(s.authMiddleware)
	}

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache, s.csrfProtection.Handler)

		// small json requests
		api.Group().Route(func(b *routegroup.Bundle) {
			b.Use(rest.SizeLimit(64 * 1024))
			b.HandleFunc("GET /state", s.handleState)
			b.HandleFunc("GET /events", s.handleEvents)
			b.HandleFunc("PUT /endpoint", s.handleSetEndpoint)
			b.HandleFunc("POST /status/refresh", s.handleRefresh)
			b.HandleFunc("POST /jobs/active/cancel", s.handleCancelJob)
			b.HandleFunc("DELETE /jobs/active", s.handleDiscardJob)
			b.HandleFunc("GET /jobs/active/result", s.handleJobResult)
		})

		// audio upload, size limited by handler
		api.With(tollbooth.HTTPMiddleware(s.uploadLimiter)).HandleFunc("POST /jobs", s.handleSubmitJob)
	})

	return router
}
