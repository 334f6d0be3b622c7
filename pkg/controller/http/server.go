// Package http exposes the webhook endpoint and the OAuth completion
// pages over a chi router.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

// Server wires the HTTP surface of the engine
type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	signingSecret string
	clientID      string
	oauthScopes   string
}

// Options configures the server
type Options func(*Server)

// WithSigningSecret enables Slack signature verification on the webhook
// endpoint
func WithSigningSecret(secret string) Options {
	return func(s *Server) {
		s.signingSecret = secret
	}
}

// WithOAuth enables the OAuth start/callback pages
func WithOAuth(clientID, scopes string) Options {
	return func(s *Server) {
		s.clientID = clientID
		s.oauthScopes = scopes
	}
}

// New creates the HTTP server for an engine
func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/hook/slack", func(r chi.Router) {
		if s.signingSecret != "" {
			r.Use(SlackSignatureMiddleware(s.signingSecret))
		}
		r.Post("/event", s.webhookHandler().ServeHTTP)
	})

	if s.clientID != "" {
		r.Route("/oauth", func(r chi.Router) {
			r.Get("/start", s.oauthStartHandler)
			r.Get("/callback", s.oauthCallbackHandler)
		})
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return s
}

// Router returns the chi router for mounting or serving
func (s *Server) Router() http.Handler {
	return s.router
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
