// internal/httpserver/server.go
//
// HTTP server wiring for the forge backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     zerolog access logs).
//   - Public endpoints: "/", "/health", "/catalog".
//   - Forge room endpoints (optional auth): mounted under /forge.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests, who are tracked by an anonymous cookie.
//   - Websocket routes sit outside the request timeout.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/forgerush/apps/go-server/internal/accounts"
	"github.com/robalobadob/forgerush/apps/go-server/internal/catalog"
	"github.com/robalobadob/forgerush/apps/go-server/internal/config"
	"github.com/robalobadob/forgerush/apps/go-server/internal/daily"
	"github.com/robalobadob/forgerush/apps/go-server/internal/events"
	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
	"github.com/robalobadob/forgerush/apps/go-server/internal/store"
)

const requestTimeout = 10 * time.Second

// Deps are the collaborators a Server needs.
type Deps struct {
	Config  config.Config
	Catalog *catalog.Catalog
	Rooms   store.Store
	DB      *sql.DB
}

// Server bundles the router, live rooms and the SQLite-backed stores.
type Server struct {
	r        *chi.Mux
	ctx      context.Context
	cfg      config.Config
	cat      *catalog.Catalog
	rooms    store.Store
	users    *accounts.Store
	tokens   *accounts.Tokens
	daily    *daily.Store
	upgrader *websocket.Upgrader
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes. ctx
// bounds background work started by requests, such as room clocks.
func New(ctx context.Context, d Deps) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		ctx:      ctx,
		cfg:      d.Config,
		cat:      d.Catalog,
		rooms:    d.Rooms,
		users:    accounts.NewStore(d.DB),
		tokens:   accounts.NewTokens(d.Config.JWTSecret, d.Config.JWTTTL()),
		daily:    daily.NewStore(d.DB),
		upgrader: events.NewUpgrader(d.Config.ClientOrigin),
		now:      time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// Websocket streams are long-lived.
	s.r.With(s.withOptionalAuth()).Get("/forge/{id}/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "forge-go",
				"endpoints": []string{"/health", "/catalog", "POST /forge/new", "/forge/{id}/*", "/daily/*", "/auth/*"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "rooms": s.rooms.Len()})
		})
		r.Get("/catalog", s.handleCatalog)

		// Rooms and daily: OPTIONAL AUTH (guests can play)
		opt := r.With(s.withOptionalAuth())
		s.mountForge(opt)
		s.mountDaily(opt)

		s.mountAuthRoutes(r)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Router exposes the router; main serves it and tests drive it with httptest.
func (s *Server) Router() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
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

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("req_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// ------------------------------ catalog ------------------------------------

type rulesView struct {
	WrongForgePenalty  int  `json:"wrongForgePenalty"`
	DefeatOnOutOfMoves bool `json:"defeatOnOutOfMoves"`
	DefeatOnTimeout    bool `json:"defeatOnTimeout"`
	ClampScoreToZero   bool `json:"clampScoreToZero"`
	NewOrderOnTimeout  bool `json:"newOrderOnTimeout"`
}

type catalogRes struct {
	Source     string                `json:"source"`
	Digest     string                `json:"digest"`
	GridSize   int                   `json:"gridSize"`
	MovesStart int                   `json:"movesStart"`
	Materials  []events.MaterialView `json:"materials"`
	Recipes    []*events.RecipeView  `json:"recipes"`
	Rules      rulesView             `json:"rules"`
	Warnings   []string              `json:"warnings,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	recipes := s.cat.Recipes.All()
	res := catalogRes{
		Source:     s.cat.Source,
		Digest:     s.cat.Digest,
		GridSize:   s.cfg.GridSize,
		MovesStart: s.cfg.MovesStart,
		Materials:  events.ViewMaterials(s.cat.Materials.All()),
		Recipes:    make([]*events.RecipeView, 0, len(recipes)),
		Rules:      viewRules(s.cat.Rules),
		Warnings:   s.cat.Warnings,
	}
	for _, rc := range recipes {
		res.Recipes = append(res.Recipes, events.ViewRecipe(rc))
	}
	writeJSON(w, http.StatusOK, res)
}

func viewRules(r game.Rules) rulesView {
	return rulesView{
		WrongForgePenalty:  r.WrongForgePenalty,
		DefeatOnOutOfMoves: r.DefeatOnOutOfMoves,
		DefeatOnTimeout:    r.DefeatOnTimeout,
		ClampScoreToZero:   r.ClampScoreToZero,
		NewOrderOnTimeout:  r.NewOrderOnTimeout,
	}
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// background returns a short-lived context for best-effort writes that must
// outlive the request.
func (s *Server) background() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(s.ctx), 5*time.Second)
}
