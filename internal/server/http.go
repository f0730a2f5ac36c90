package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/config"
	"github.com/exportnine/server/internal/game"
	"github.com/exportnine/server/internal/identity"
	"github.com/exportnine/server/internal/rating"
)

// Handlers bundles the HTTP surfaces wired into the API server.
type Handlers struct {
	Identity *identity.HTTPHandler
	Rating   *rating.HTTPHandler
	Rooms    *game.RoomHTTPHandler
	GameWS   http.HandlerFunc
}

// NewHTTPServer wires health, metrics, REST, and the game socket.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h.Identity != nil {
		mux.HandleFunc("POST /v1/guests", h.Identity.HandleCreateGuest)
		mux.HandleFunc("GET /v1/players/{id}", h.Identity.HandleGetPlayer)
	}
	if h.Rating != nil {
		mux.HandleFunc("GET /v1/leaderboard", h.Rating.HandleLeaderboard)
		mux.HandleFunc("GET /v1/players/{id}/opponent", h.Rating.HandleSuggestOpponent)
		mux.HandleFunc("GET /v1/players/{id}/results", h.Rating.HandleRecentResults)
	}
	if h.Rooms != nil {
		mux.HandleFunc("POST /v1/rooms", h.Rooms.HandleCreate)
		mux.HandleFunc("GET /v1/rooms", h.Rooms.HandleList)
		mux.HandleFunc("GET /v1/rooms/{code}", h.Rooms.HandleGet)
	}
	if h.GameWS != nil {
		mux.HandleFunc("GET /ws/game", h.GameWS)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS, mux),
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
