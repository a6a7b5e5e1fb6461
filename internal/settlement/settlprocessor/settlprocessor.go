package settlprocessor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/storage"
)

// Settler resolves a single due trade.
type Settler interface {
	Settle(ctx context.Context, trade *trades.Trade) (*trades.Trade, error)
}

type SettlementProcessor struct {
	log       *slog.Logger
	storage   storage.TradeStorage
	settler   Settler
	poolSize  int
	batchSize int
	now       func() time.Time
}

type Config struct {
	logger    *slog.Logger
	poolSize  int
	batchSize int
	now       func() time.Time
}

type Option func(c *Config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithPoolSize(size int) Option {
	return func(c *Config) {
		c.poolSize = size
	}
}

// WithBatchSize limits the number of due trades fetched per pass.
func WithBatchSize(size int) Option {
	return func(c *Config) {
		c.batchSize = size
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.now = now
	}
}

func New(store storage.TradeStorage, settler Settler, opts ...Option) *SettlementProcessor {
	cfg := &Config{
		logger:    slog.Default(),
		poolSize:  4,
		batchSize: 500,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.poolSize < 1 {
		cfg.poolSize = 1
	}

	return &SettlementProcessor{
		log:       cfg.logger.With(slog.String("module", "settlement_processor")),
		storage:   store,
		settler:   settler,
		poolSize:  cfg.poolSize,
		batchSize: cfg.batchSize,
		now:       cfg.now,
	}
}

// Process settles the trades that are due and returns how many it settled.
func (p *SettlementProcessor) Process(ctx context.Context) (int, error) {
	due, err := p.storage.GetDueTrades(ctx, p.now(), p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("storage.GetDueTrades: %w", err)
	}

	if len(due) == 0 {
		return 0, nil
	}

	p.log.Debug("Start trades settlement", slog.Int("due", len(due)))

	tradeCh := tradeGenerator(ctx, due)

	return p.tradeProcessor(ctx, tradeCh), nil
}

func tradeGenerator(ctx context.Context, due []*trades.Trade) chan *trades.Trade {
	tradeCh := make(chan *trades.Trade)

	go func() {
		defer close(tradeCh)

		for _, trade := range due {
			select {
			case <-ctx.Done():
				return
			case tradeCh <- trade:
			}
		}
	}()

	return tradeCh
}

func (p *SettlementProcessor) tradeProcessor(ctx context.Context, tradeCh chan *trades.Trade) int {
	var settled atomic.Int64

	wg := &sync.WaitGroup{}

	// Spawn workers
	for w := 1; w <= p.poolSize; w++ {
		wg.Add(1)

		go p.tradeProcessorWorker(ctx, wg, tradeCh, &settled)
	}

	// Wait for workers
	wg.Wait()

	return int(settled.Load())
}

func (p *SettlementProcessor) tradeProcessorWorker(
	ctx context.Context, wg *sync.WaitGroup, tradeCh chan *trades.Trade, settled *atomic.Int64,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case trade, ok := <-tradeCh:
			if !ok {
				return
			}

			result, err := p.settler.Settle(ctx, trade)
			if err != nil {
				if errors.Is(err, trades.ErrTradeNotActive) {
					p.log.Debug("Trade already settled", slog.String("trade_id", trade.ID))

					continue
				}

				p.log.Error("settler.Settle()", slog.String("trade_id", trade.ID), slog.Any("error", err))

				continue
			}

			settled.Add(1)

			p.log.Info("Trade settled",
				slog.String("trade_id", result.ID),
				slog.String("user_id", result.UserID),
				slog.String("status", result.Status.String()),
				slog.String("exit_price", result.ExitPrice.String()),
				slog.String("payout", result.Payout.String()),
			)
		}
	}
}
