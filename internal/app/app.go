package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/config"
	"github.com/exportnine/server/internal/db/repository"
	"github.com/exportnine/server/internal/game"
	"github.com/exportnine/server/internal/identity"
	"github.com/exportnine/server/internal/logging"
	"github.com/exportnine/server/internal/rating"
	"github.com/exportnine/server/internal/server"
	"github.com/exportnine/server/internal/valuation"
	"github.com/exportnine/server/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the background workers.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	presence  *game.PresenceMonitor
	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, and the service graph.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	playerRepo := repository.NewPlayerRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}
	tokens := identity.NewTokenManager(identity.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})
	identitySvc := identity.NewService(playerRepo, tokens, logger)

	ratingIndex := rating.NewIndex(redisClient, logger)
	ratingSvc := rating.NewService(playerRepo, resultRepo, redisClient, ratingIndex, cfg.Rating.DedupeWindow, logger)

	valuationClient := valuation.NewClient(cfg.Valuation.BaseURL, cfg.Valuation.Year, nil)
	valuationSource := valuation.NewSource(valuationClient, cfg.Valuation.HTTPTimeout, logger)

	hub := ws.NewHub(logger)
	roster := game.NewRoster()
	maker := game.NewMatchMaker(roster, cfg.Game.HandSize, cfg.Game.RoundCount, logger)
	rooms := game.NewRoomManager(cfg.Game.RoomTTL, logger)
	timers := game.NewTimerRegistry()

	gameSvc := game.NewService(
		cfg.Game,
		roster,
		maker,
		rooms,
		timers,
		valuationSource,
		&settlerAdapter{ratings: ratingSvc},
		playerRepo,
		hub,
		logger,
	)
	presence := game.NewPresenceMonitor(cfg.Game, roster, gameSvc, logger)

	authenticate := game.Authenticator(func(ctx context.Context, token string) (game.Identity, error) {
		claims, err := identitySvc.Authenticate(token)
		if err != nil {
			return game.Identity{}, err
		}
		return game.Identity{AccountID: claims.PlayerID, Name: claims.Name}, nil
	})

	gameHandler := game.NewHandler(gameSvc, hub, authenticate, cfg.CORS.AllowedOrigins, logger)
	roomHandler := game.NewRoomHTTPHandler(rooms, authenticate, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		Identity: identity.NewHTTPHandler(identitySvc, logger),
		Rating:   rating.NewHTTPHandler(ratingSvc, cfg.Rating.LeaderboardTop, logger),
		Rooms:    roomHandler,
		GameWS:   gameHandler.ServeWS,
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		presence:  presence,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go a.presence.Run(bgCtx)
}

// settlerAdapter bridges the match loop's settlement reports into the rating
// service.
type settlerAdapter struct {
	ratings *rating.Service
}

func (s *settlerAdapter) Settle(ctx context.Context, report game.ResultReport) ([]game.RatingChange, error) {
	settlement, err := s.ratings.RecordResult(ctx, rating.ResultRequest{
		A:        toParticipant(report.A),
		B:        toParticipant(report.B),
		ScoreA:   report.ScoreA,
		ScoreB:   report.ScoreB,
		Forfeit:  report.Forfeit,
		Duration: report.Duration,
	})
	if err != nil {
		return nil, err
	}
	changes := make([]game.RatingChange, 0, len(settlement.Changes))
	for _, c := range settlement.Changes {
		changes = append(changes, game.RatingChange{
			PlayerID:  c.PlayerID,
			NewRating: c.NewRating,
			Delta:     c.Delta,
		})
	}
	return changes, nil
}

func toParticipant(side game.ResultSide) rating.Participant {
	return rating.Participant{
		ID:   side.AccountID,
		Name: side.Name,
		Bot:  side.Bot,
	}
}
