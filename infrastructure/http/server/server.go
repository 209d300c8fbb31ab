package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/contract"
	"github.com/Tropical8818/iProTalk/runtime"
	"github.com/Tropical8818/iProTalk/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Server exposes the relay, account and key directory services over HTTP.
type Server struct {
	log      *slog.Logger
	tokens   services.Authenticator
	relay    services.IRelayService
	accounts services.IAuthService
	keys     services.IKeyService
	hub      contract.IHub
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, tokens services.Authenticator, relay services.IRelayService,
	accounts services.IAuthService, keys services.IKeyService, hub contract.IHub) *Server {
	return &Server{
		log:      log,
		tokens:   tokens,
		relay:    relay,
		accounts: accounts,
		keys:     keys,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from another origin, access is gated by the token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
		})
		r.Route("/users", func(r chi.Router) {
			r.With(s.requireCredential).Post("/keys", s.uploadKeys)
			r.Get("/{userID}/keys", s.getKeys)
		})
		r.Route("/messages", func(r chi.Router) {
			r.With(s.requireCredential).Post("/", s.submit)
			r.With(s.requireCredential).Post("/group/{groupID}", s.submitToGroup)
			r.Get("/events", s.streamEvents)
			r.Get("/ws", s.streamWebSocket)
			r.Get("/{messageID}", s.getMessage)
		})
	})
	return r
}

// logRequests logs one line per request once it completes. Streams log when
// the client goes away.
// requireCredential rejects a request without a valid credential before its
// body is read, so a bad body never hides an authentication failure.
func (s *Server) requireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.tokens.ValidateCredential(auth.CredentialFromRequest(r)); err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status string           `json:"status"`
	Hub    runtime.HubStats `json:"hub"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Hub: s.hub.Stats()})
}
