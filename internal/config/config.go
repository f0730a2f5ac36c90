package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"exportnine"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Security  Security
	Game      Game
	Valuation Valuation
	Rating    Rating
	CORS      CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds dedupe + rating index configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Game groups match-loop tunables.
type Game struct {
	HandSize          int           `env:"GAME_HAND_SIZE" envDefault:"10"`
	RoundCount        int           `env:"GAME_ROUND_COUNT" envDefault:"9"`
	PresentationDelay time.Duration `env:"GAME_PRESENTATION_DELAY" envDefault:"5s"`
	EndCleanupDelay   time.Duration `env:"GAME_END_CLEANUP_DELAY" envDefault:"10s"`
	BotThinkDelay     time.Duration `env:"GAME_BOT_THINK_DELAY" envDefault:"2s"`
	SweepInterval     time.Duration `env:"GAME_SWEEP_INTERVAL" envDefault:"3s"`
	SilenceThreshold  time.Duration `env:"GAME_SILENCE_THRESHOLD" envDefault:"15s"`
	GraceWindow       time.Duration `env:"GAME_GRACE_WINDOW" envDefault:"30s"`
	RoomTTL           time.Duration `env:"GAME_ROOM_TTL" envDefault:"30m"`
	BroadcastPicks    bool          `env:"GAME_BROADCAST_PICKS" envDefault:"true"`
}

// Valuation configures the external trade-data client.
type Valuation struct {
	BaseURL     string        `env:"VALUATION_BASE_URL" envDefault:"https://api-v2.oec.world/tesseract/data.jsonrecords"`
	Year        int           `env:"VALUATION_YEAR" envDefault:"2023"`
	HTTPTimeout time.Duration `env:"VALUATION_HTTP_TIMEOUT" envDefault:"4s"`
}

// Rating governs Elo settlement behavior.
type Rating struct {
	DedupeWindow   time.Duration `env:"RATING_DEDUPE_WINDOW" envDefault:"5m"`
	LeaderboardTop int           `env:"RATING_LEADERBOARD_TOP" envDefault:"10"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
