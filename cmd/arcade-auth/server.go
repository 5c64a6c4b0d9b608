package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/account"
	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/device"
	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/health"
	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/scores"
	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/session"
	"github.com/wrale/arcade-auth/internal/leaderboard"
	"github.com/wrale/arcade-auth/internal/logging"
	"github.com/wrale/arcade-auth/internal/ratelimit"
)

const requestTimeout = 30 * time.Second

type server struct {
	app    *app
	router *chi.Mux
}

func newServer(a *app) *server {
	srv := &server{
		app:    a,
		router: chi.NewRouter(),
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(logging.RequestLogger(a.logger))
	srv.router.Use(a.metrics.Middleware)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.Timeout(requestTimeout))

	srv.routes()
	return srv
}

func (s *server) routes() {
	a := s.app
	requireAuth := common.RequireAuth(a.tokens)
	limited := ratelimit.Middleware(a.limiter, common.TooManyRequests, a.metrics.RateLimited)

	healthHandler := health.New(a.healthCheckers()).
		WithVersion(version).
		WithStats(func() any { return a.codes.Stats() })
	s.router.Method(http.MethodGet, "/health", healthHandler)
	s.router.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	dev := device.New(a.device, a.logger)
	s.router.Route("/device", func(r chi.Router) {
		r.Post("/initiate", dev.Initiate)
		r.Post("/token", dev.Token)
		r.With(limited).Post("/login", dev.Login)
		r.With(requireAuth).Post("/connect", dev.Connect)
	})

	sess := session.New(a.session, a.logger)
	s.router.Route("/session", func(r chi.Router) {
		r.Post("/status", sess.Status)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/initiate", sess.Initiate)
			r.Post("/confirm", sess.Confirm)
			r.Post("/cancel", sess.Cancel)
		})
	})

	acct := account.New(a.accounts, a.logger)
	s.router.With(limited).Post("/login", acct.Login)
	s.router.With(limited).Post("/register", acct.Register)

	sc := scores.New(a.board, a.logger)
	s.router.Get("/scores", sc.Top(leaderboard.AllTime))
	s.router.Get("/scores/weekly", sc.Top(leaderboard.Weekly))
	s.router.Get("/scores/yearly", sc.Top(leaderboard.Yearly))
	s.router.Route("/users", func(r chi.Router) {
		r.Get("/{id}/stats", sc.Stats)
		r.Get("/{id}/achievements", sc.Achievements)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", sc.ListUsers)
			r.Get("/{id}", sc.GetUser)
			r.Post("/{id}/achievements", sc.Unlock)
			r.Put("/{id}/score", sc.SubmitScore)
		})
	})
}
