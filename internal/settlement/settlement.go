// Package settlement runs the background daemon that settles expired trades.
//
// Active trades are the durable job queue: every tick the daemon fetches the
// trades whose expiry has passed and settles them through a worker pool.
// Settlement is idempotent, so trades that expired while the process was down
// are picked up on the first tick after start.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/andymarkow/tradesim/internal/settlement/settlprocessor"
	"github.com/andymarkow/tradesim/internal/storage"
)

type Settlement struct {
	log          *slog.Logger
	pollInterval time.Duration
	processor    *settlprocessor.SettlementProcessor
}

type Config struct {
	logger       *slog.Logger
	pollInterval time.Duration
	workers      int
}

func NewSettlement(store storage.TradeStorage, settler settlprocessor.Settler, opts ...Option) *Settlement {
	cfg := &Config{
		logger:       slog.Default(),
		pollInterval: time.Second,
		workers:      4,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	processor := settlprocessor.New(
		store,
		settler,
		settlprocessor.WithLogger(cfg.logger),
		settlprocessor.WithPoolSize(cfg.workers),
	)

	return &Settlement{
		log:          cfg.logger.With(slog.String("module", "settlement")),
		pollInterval: cfg.pollInterval,
		processor:    processor,
	}
}

type Option func(c *Config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.pollInterval = interval
	}
}

func WithWorkers(workers int) Option {
	return func(c *Config) {
		c.workers = workers
	}
}

// Run settles due trades until ctx is cancelled.
func (s *Settlement) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.log.Info("Start settlement daemon", slog.Duration("poll_interval", s.pollInterval))

	s.process(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Context done, stopping settlement daemon")

			return nil

		case <-ticker.C:
			s.process(ctx)
		}
	}
}

func (s *Settlement) process(ctx context.Context) {
	if _, err := s.processor.Process(ctx); err != nil {
		s.log.Error("processor.Process", slog.Any("error", err))
	}
}
