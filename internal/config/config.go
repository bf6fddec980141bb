// internal/config/config.go
//
// Process configuration for the forge server.
// Sources, in order of precedence:
//   1. Real environment variables.
//   2. A .env file in the working directory (development; missing file is fine).
//   3. Struct defaults below.
//
// Notes:
//   - Invalid values (e.g. FORGE_GRID_SIZE=abc) fail startup instead of being ignored.
//   - JWT_SECRET falls back to a dev value outside production only.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const devJWTSecret = "dev_secret_change_me"

// Config holds every tunable the server reads at startup.
type Config struct {
	Port      string `env:"PORT"       envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	Env       string `env:"NODE_ENV"   envDefault:"development"`

	DBPath string `env:"DB_PATH" envDefault:"./data/forge.db"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME"      envDefault:"forge_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN"    envDefault:"http://localhost:5173"`

	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	CatalogFile  string        `env:"FORGE_CATALOG_FILE"`
	FitPatterns  bool          `env:"FORGE_FIT_PATTERNS"  envDefault:"false"`
	GridSize     int           `env:"FORGE_GRID_SIZE"     envDefault:"3"`
	MovesStart   int           `env:"FORGE_MOVES_START"   envDefault:"12"`
	AutoSelect   bool          `env:"FORGE_AUTO_SELECT"   envDefault:"false"`
	TickInterval time.Duration `env:"FORGE_TICK_INTERVAL" envDefault:"0s"`
	JournalDir   string        `env:"FORGE_JOURNAL_DIR"`
	RoomTTL      time.Duration `env:"FORGE_ROOM_TTL"      envDefault:"30m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the current environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.JWTSecret == "" {
		if c.Production() {
			return Config{}, errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Production reports NODE_ENV=production; it turns on Secure cookies.
func (c Config) Production() bool { return c.Env == "production" }

// ServerClock reports whether rooms are advanced by a server-side ticker
// instead of client tick requests.
func (c Config) ServerClock() bool { return c.TickInterval > 0 }

// JWTTTL is the token lifetime.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

func (c Config) validate() error {
	if c.GridSize < 1 {
		return fmt.Errorf("FORGE_GRID_SIZE must be >= 1, got %d", c.GridSize)
	}
	if c.MovesStart < 0 {
		return fmt.Errorf("FORGE_MOVES_START must be >= 0, got %d", c.MovesStart)
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("FORGE_TICK_INTERVAL must not be negative, got %s", c.TickInterval)
	}
	if c.RoomTTL <= 0 {
		return fmt.Errorf("FORGE_ROOM_TTL must be positive, got %s", c.RoomTTL)
	}
	if c.JWTExpiresDays < 1 {
		return fmt.Errorf("JWT_EXPIRES_DAYS must be >= 1, got %d", c.JWTExpiresDays)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}
