package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andymarkow/tradesim/internal/auth"
	"github.com/andymarkow/tradesim/internal/config"
	"github.com/andymarkow/tradesim/internal/httpclient"
	"github.com/andymarkow/tradesim/internal/logger"
	"github.com/andymarkow/tradesim/internal/pricefeed"
	"github.com/andymarkow/tradesim/internal/server"
	"github.com/andymarkow/tradesim/internal/server/router"
	"github.com/andymarkow/tradesim/internal/settlement"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/inmemory"
	"github.com/andymarkow/tradesim/internal/storage/pgstorage"
	"github.com/andymarkow/tradesim/internal/trading"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 15 * time.Second

// Quotes are fetched while a client waits on POST /api/trades,
// so the price feed gets one quick retry at most.
const (
	priceFeedTimeout      = 2 * time.Second
	priceFeedRetryCount   = 1
	priceFeedRetryWait    = 200 * time.Millisecond
	priceFeedRetryMaxWait = 500 * time.Millisecond
)

type Application struct {
	log        *slog.Logger
	logCloser  io.Closer
	store      storage.Storage
	server     *server.Server
	settlement *settlement.Settlement
}

func New() (*Application, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config.NewConfig: %w", err)
	}

	logg, logCloser, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := newStorage(cfg, logg)
	if err != nil {
		logCloser.Close() //nolint:errcheck

		return nil, err
	}

	if err := EnsureAdmin(context.Background(), store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		store.Close()     //nolint:errcheck
		logCloser.Close() //nolint:errcheck

		return nil, fmt.Errorf("app.EnsureAdmin: %w", err)
	}

	tradingOpts := []trading.Option{
		trading.WithLogger(logg),
		trading.WithPayoutRatio(decimal.NewFromFloat(cfg.PayoutRatio)),
		trading.WithVolatility(decimal.NewFromFloat(cfg.PriceVolatility)),
	}

	if cfg.PriceFeedURI != "" {
		feed := pricefeed.New(
			pricefeed.WithLogger(logg),
			pricefeed.WithClient(newPriceFeedClient(cfg.PriceFeedURI)),
		)

		tradingOpts = append(tradingOpts, trading.WithPriceSource(feed))
	}

	svc := trading.NewService(store, tradingOpts...)

	jwtAuth := auth.NewJWTAuth([]byte(cfg.JWTSecretKey), auth.WithTokenTTL(cfg.TokenTTL))

	r := router.NewRouter(store,
		router.WithLogger(logg),
		router.WithAuth(jwtAuth),
		router.WithTrading(svc),
		router.WithCookieSecure(cfg.CookieSecure),
		router.WithAllowedOrigins(cfg.AllowedOrigins()),
	)

	srv := server.NewServer(r,
		server.WithServerAddr(cfg.ServerAddr),
		server.WithLogger(logg),
	)

	settl := settlement.NewSettlement(store, svc,
		settlement.WithLogger(logg),
		settlement.WithPollInterval(cfg.SettlementPollInterval),
		settlement.WithWorkers(cfg.SettlementWorkers),
	)

	return &Application{
		log:        logg,
		logCloser:  logCloser,
		store:      store,
		server:     srv,
		settlement: settl,
	}, nil
}

func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	logLevel, err := logger.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("logger.ParseLogLevel: %w", err)
	}

	logFormat, err := logger.ParseLogFormat(cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("logger.ParseLogFormat: %w", err)
	}

	opts := []logger.Option{
		logger.WithLevel(logLevel),
		logger.WithFormat(logFormat),
		logger.WithAddSource(false),
	}

	if cfg.LogFile != "" {
		opts = append(opts, logger.WithFile(cfg.LogFile, cfg.LogFileMaxSizeMB))
	}

	logg, closer := logger.NewLoggerWithCloser(opts...)

	return logg, closer, nil
}

func newPriceFeedClient(baseURL string) *resty.Client {
	return httpclient.New(
		httpclient.WithBaseURL(baseURL),
		httpclient.WithTimeout(priceFeedTimeout),
		httpclient.WithRetryCount(priceFeedRetryCount),
		httpclient.WithRetryWaitTime(priceFeedRetryWait),
		httpclient.WithRetryMaxWaitTime(priceFeedRetryMaxWait),
	)
}

// newStorage connects to PostgreSQL when a database URI is configured
// and falls back to the in-memory storage otherwise.
func newStorage(cfg config.Config, logg *slog.Logger) (storage.Storage, error) {
	if cfg.DatabaseURI == "" {
		logg.Warn("Database URI is not set, using in-memory storage")

		return storage.NewStorage(inmemory.NewStorage()), nil
	}

	pgstore, err := pgstorage.NewStorage(cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("pgstorage.NewStorage: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pgstore.Bootstrap(ctx); err != nil {
		pgstore.Close() //nolint:errcheck

		return nil, fmt.Errorf("pgstore.Bootstrap: %w", err)
	}

	return storage.NewStorage(pgstore), nil
}

func (a *Application) Run() error {
	defer a.close()

	errChan := make(chan error, 2)

	go func() {
		if err := a.server.Start(); err != nil {
			errChan <- fmt.Errorf("server.Start: %w", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settlDone := make(chan struct{})

	go func() {
		defer close(settlDone)

		if err := a.settlement.Run(ctx); err != nil {
			errChan <- fmt.Errorf("settlement.Run: %w", err)
		}
	}()

	// Graceful shutdown handler
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	var runErr error

	select {
	case runErr = <-errChan:
	case <-quit:
		a.log.Info("Gracefully shutting down application...")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	<-settlDone

	return runErr
}

func (a *Application) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("storage.Close", slog.Any("error", err))
	}

	// The log file goes last so the errors above still reach it.
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "logger.Close: %v\n", err)
		}
	}
}
