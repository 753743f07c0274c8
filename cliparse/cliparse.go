package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              int
	DatabaseURL       string
	DatabaseType      string
	PasscodeSalt      string
	TokenSecret       string
	TokenTTL          time.Duration
	AdminPassword     string
	AdminPasswordHash string
	CatalogPath       string
	SellCountdown     time.Duration
	SubscriberBuffer  int
	ReconnectGrace    time.Duration
	LogLevel          string
	LogFormat         string
}

// ParseFlags reads flags, then environment variables (including a .env
// file in the working directory), then defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// A missing .env is fine; real environment variables win over it
	_ = godotenv.Load()

	fs := flag.NewFlagSet("landbid", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or pgx)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.PasscodeSalt, "passcode-salt", "", "Passcode digest salt (prefer env)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "Team token signing secret (prefer env)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "Admin password (prefer env)")

	// Auction tuning
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "TOML catalog seeded into an empty database")
	fs.DurationVar(&cfg.SellCountdown, "sell-countdown", 0, "Countdown before a sold plot closes")
	fs.IntVar(&cfg.SubscriberBuffer, "subscriber-buffer", 0, "Queued events per subscriber before eviction")
	fs.DurationVar(&cfg.ReconnectGrace, "reconnect-grace", 0, "How long a disconnected team stays online")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 0, "Lifetime of a team token")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "text or json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "pgx":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.PasscodeSalt == "" {
		cfg.PasscodeSalt = os.Getenv("PASSCODE_SALT")
	}
	if cfg.PasscodeSalt == "" {
		return Config{}, errors.New("PASSCODE_SALT required")
	}

	// Without its own secret the token key is derived from the salt
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = os.Getenv("TEAM_TOKEN_SECRET")
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = cfg.PasscodeSalt
	}

	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return Config{}, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH required")
	}

	if cfg.CatalogPath == "" {
		cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	}

	if cfg.SellCountdown == 0 {
		if s := os.Getenv("SELL_COUNTDOWN"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid SELL_COUNTDOWN env variable")
			}
			cfg.SellCountdown = d
		} else {
			cfg.SellCountdown = 4 * time.Second
		}
	}
	if cfg.SellCountdown < 0 {
		return Config{}, errors.New("sell countdown must be positive")
	}

	if cfg.SubscriberBuffer == 0 {
		if s := os.Getenv("SUBSCRIBER_BUFFER"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return Config{}, errors.New("invalid SUBSCRIBER_BUFFER env variable")
			}
			cfg.SubscriberBuffer = n
		} else {
			cfg.SubscriberBuffer = 64
		}
	}

	if cfg.ReconnectGrace == 0 {
		if s := os.Getenv("RECONNECT_GRACE"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d < 0 {
				return Config{}, errors.New("invalid RECONNECT_GRACE env variable")
			}
			cfg.ReconnectGrace = d
		} else {
			cfg.ReconnectGrace = 30 * time.Second
		}
	}

	if cfg.TokenTTL == 0 {
		if s := os.Getenv("TOKEN_TTL"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid TOKEN_TTL env variable")
			}
			cfg.TokenTTL = d
		} else {
			cfg.TokenTTL = 24 * time.Hour
		}
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, errors.New("token TTL must be positive")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
		if cfg.LogFormat == "" {
			cfg.LogFormat = "text"
		}
	}

	return cfg, nil
}
