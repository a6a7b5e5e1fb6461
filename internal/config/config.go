package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr             string        `env:"RUN_ADDRESS"`
	LogLevel               string        `env:"LOG_LEVEL"`
	LogFormat              string        `env:"LOG_FORMAT"`
	LogFile                string        `env:"LOG_FILE"`
	LogFileMaxSizeMB       int           `env:"LOG_FILE_MAX_SIZE_MB"`
	DatabaseURI            string        `env:"DATABASE_URI"`
	JWTSecretKey           string        `env:"JWT_SECRET_KEY"`
	TokenTTL               time.Duration `env:"TOKEN_TTL"`
	CookieSecure           bool          `env:"COOKIE_SECURE"`
	CORSAllowedOrigins     string        `env:"CORS_ALLOWED_ORIGINS"`
	PriceFeedURI           string        `env:"PRICE_FEED_URI"`
	SettlementPollInterval time.Duration `env:"SETTLEMENT_POLL_INTERVAL"`
	SettlementWorkers      int           `env:"SETTLEMENT_WORKERS"`
	PayoutRatio            float64       `env:"PAYOUT_RATIO"`
	PriceVolatility        float64       `env:"PRICE_VOLATILITY"`
	AdminEmail             string        `env:"ADMIN_EMAIL"`
	AdminPassword          string        `env:"ADMIN_PASSWORD"`
}

// NewConfig reads the configuration from the command line arguments.
// An optional .env file in the working directory is loaded first; environment variables override flags.
func NewConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("godotenv.Load: %w", err)
	}

	return Parse(os.Args[1:])
}

// Parse builds the configuration from args and the process environment.
func Parse(args []string) (Config, error) {
	cfg := Config{}

	flags := flag.NewFlagSet("tradesim", flag.ContinueOnError)

	flags.StringVar(&cfg.ServerAddr, "a", "0.0.0.0:8080", "server listening address [env:RUN_ADDRESS]")
	flags.StringVar(&cfg.LogLevel, "l", "info", "log output level [env:LOG_LEVEL]")
	flags.StringVar(&cfg.LogFormat, "f", "json", "log output format: json or text [env:LOG_FORMAT]")
	flags.StringVar(&cfg.LogFile, "log-file", "", "rotated log file path [env:LOG_FILE]")
	flags.IntVar(&cfg.LogFileMaxSizeMB, "log-file-max-size", 100, "log file size in MB before rotation [env:LOG_FILE_MAX_SIZE_MB]")
	flags.StringVar(&cfg.DatabaseURI, "d", "", "database connection string, in-memory storage if empty [env:DATABASE_URI]")
	flags.StringVar(&cfg.JWTSecretKey, "s", "secretkey", "JWT secret to sign tokens [env:JWT_SECRET_KEY]")
	flags.DurationVar(&cfg.TokenTTL, "t", 7*24*time.Hour, "session token lifetime [env:TOKEN_TTL]")
	flags.BoolVar(&cfg.CookieSecure, "cookie-secure", false, "set the Secure attribute on the session cookie [env:COOKIE_SECURE]")
	flags.StringVar(&cfg.CORSAllowedOrigins, "cors", "", "comma separated CORS allowed origins [env:CORS_ALLOWED_ORIGINS]")
	flags.StringVar(&cfg.PriceFeedURI, "p", "", "reference price feed URI [env:PRICE_FEED_URI]")
	flags.DurationVar(&cfg.SettlementPollInterval, "i", time.Second, "expired trades poll interval [env:SETTLEMENT_POLL_INTERVAL]")
	flags.IntVar(&cfg.SettlementWorkers, "w", 4, "settlement workers number [env:SETTLEMENT_WORKERS]")
	flags.Float64Var(&cfg.PayoutRatio, "payout", 1.85, "payout ratio of a winning trade [env:PAYOUT_RATIO]")
	flags.Float64Var(&cfg.PriceVolatility, "volatility", 0.002, "synthetic exit price volatility [env:PRICE_VOLATILITY]")
	flags.StringVar(&cfg.AdminEmail, "admin-email", "", "bootstrap admin email [env:ADMIN_EMAIL]")
	flags.StringVar(&cfg.AdminPassword, "admin-password", "", "bootstrap admin password [env:ADMIN_PASSWORD]")

	if err := flags.Parse(args); err != nil {
		return cfg, fmt.Errorf("flags.Parse: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("env.Parse: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// AllowedOrigins returns the parsed list of CORS origins.
func (c Config) AllowedOrigins() []string {
	origins := make([]string, 0)

	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}

func (c Config) validate() error {
	switch {
	case c.JWTSecretKey == "":
		return errors.New("jwt secret key is empty")
	case c.TokenTTL <= 0:
		return fmt.Errorf("token ttl must be positive: %s", c.TokenTTL)
	case c.SettlementPollInterval <= 0:
		return fmt.Errorf("settlement poll interval must be positive: %s", c.SettlementPollInterval)
	case c.SettlementWorkers < 1:
		return fmt.Errorf("settlement workers must be at least 1: %d", c.SettlementWorkers)
	case c.PayoutRatio <= 0:
		return fmt.Errorf("payout ratio must be positive: %v", c.PayoutRatio)
	case c.PriceVolatility <= 0 || c.PriceVolatility >= 1:
		return fmt.Errorf("price volatility must be in (0, 1): %v", c.PriceVolatility)
	case (c.AdminEmail == "") != (c.AdminPassword == ""):
		return errors.New("admin email and admin password must be set together")
	}

	return nil
}
