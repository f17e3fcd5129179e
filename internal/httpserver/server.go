// internal/httpserver/server.go
//
// HTTP server wiring for the star-match backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints: POST /game/new, GET /game/{id}, POST /game/{id}/toggle.
//   - Daily round: POST /daily/new (mounted from routes_daily.go).
//   - Live push: GET /game/{id}/ws (WebSocket snapshots on every change).
//
// Notes:
//   - Every load/mutate/save of a game happens under Server.mu; the engine
//     itself is not safe for concurrent use.
//   - Countdowns are driven by clock.Manager, one timer per live game.
//   - A player token for a live game supersedes that game when a new one is
//     started from the same client.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/starmatch/internal/clock"
	"github.com/robalobadob/starmatch/internal/store"
)

// Options configures a Server.
type Options struct {
	Store         store.Store
	Clock         *clock.Manager
	JWTSecret     string
	TokenTTL      time.Duration
	ClientOrigin  string
	DailySalt     string
	SecureCookies bool
	Now           func() time.Time // defaults to time.Now
}

// Server bundles router, live game store, countdown timers and push hub.
type Server struct {
	r      *chi.Mux
	opts   Options
	store  store.Store
	clock  *clock.Manager
	hub    *hub
	tokens *tokenIssuer

	mu sync.Mutex // serializes game load/mutate/save
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewManager(time.Second)
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{
		r:      chi.NewRouter(),
		opts:   opts,
		store:  opts.Store,
		clock:  opts.Clock,
		hub:    newHub(),
		tokens: newTokenIssuer(opts.JWTSecret, opts.TokenTTL, opts.SecureCookies, opts.Now),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)            // add X-Request-ID
	s.r.Use(chimw.RealIP)               // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)            // recover from panics
	s.r.Use(corsFor(opts.ClientOrigin)) // credentials-friendly CORS

	// Long-lived push channel: no handler timeout, no JSON content type.
	s.r.Get("/game/{id}/ws", s.handleWatch)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"starmatch-go","endpoints":["/health","POST /game/new","GET /game/{id}","POST /game/{id}/toggle","GET /game/{id}/ws","POST /daily/new"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/game/new", s.handleNewGame)
		r.Get("/game/{id}", s.handleGetGame)
		r.With(s.requireGameToken).Post("/game/{id}/toggle", s.handleToggle)

		s.mountDaily(r)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Close cancels every countdown.
func (s *Server) Close() { s.clock.Stop() }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
