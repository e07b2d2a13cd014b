// Package api serves moto over HTTP.
//
// All endpoints speak JSON. Authenticated endpoints take the session id as a
// bearer token:
//
//	POST  /api/auth/signup    create an account and sign in
//	POST  /api/auth/login     sign in
//	POST  /api/auth/logout    end the session
//	GET   /api/me             the signed-in session
//	GET   /api/dashboard      profile, stats and visualizer metrics
//	PATCH /api/dashboard/stats
//	POST  /api/audit          run a conversion audit
//	GET   /api/stream         current card stream frame
//	GET   /api/stream.png     current frame as PNG
//	GET   /api/stream.svg     current frame as SVG
//	GET   /healthz
//
// Errors are RFC 7807 problem documents carrying the moto error code.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/dashboard"
	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/session"
)

const (
	maxBodyBytes   = 64 << 10
	requestTimeout = 60 * time.Second
)

// StreamSource yields the latest card stream frame.
type StreamSource interface {
	Snapshot() controller.Snapshot
}

// Options wires the server's collaborators. Consultant and Stream are
// optional; their endpoints answer 503 when absent.
type Options struct {
	Sessions   *session.Manager
	Dashboard  *dashboard.Service
	Consultant *audit.Consultant
	Stream     StreamSource
	Logger     *log.Logger
}

// Server is the HTTP API.
type Server struct {
	sessions   *session.Manager
	dashboard  *dashboard.Service
	consultant *audit.Consultant
	stream     StreamSource
	logger     *log.Logger
	router     chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		sessions:   opts.Sessions,
		dashboard:  opts.Dashboard,
		consultant: opts.Consultant,
		stream:     opts.Stream,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/audit", s.handleAudit)
		r.Get("/stream", s.handleStream)
		r.Get("/stream.png", s.handleStreamImage(formatPNG))
		r.Get("/stream.svg", s.handleStreamImage(formatSVG))

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/me", s.handleMe)
			r.Get("/dashboard", s.handleDashboard)
			r.Patch("/dashboard/stats", s.handleSaveStats)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, moerr.ErrCodeNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "", "method not allowed")
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for addr with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
