package pgstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/dbmodels"
	"github.com/shopspring/decimal"
)

const tradeColumns = `id, user_id, pair, direction, amount, entry_price, duration_seconds, status,` +
	` exit_price, payout, profit, created_at, expires_at, closed_at`

func (s *Storage) OpenTrade(ctx context.Context, trade *trades.Trade) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := changeBalance(ctx, tx, trade.UserID, func(b *balance.Balance) error {
			return b.Debit(trade.Amount)
		}); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trades (id, user_id, pair, direction, amount, entry_price, duration_seconds, status,`+
				` created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			trade.ID, trade.UserID, trade.Pair, trade.Direction.String(), trade.Amount, trade.EntryPrice,
			int64(trade.Duration/time.Second), trade.Status.String(), trade.CreatedAt, trade.ExpiresAt,
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrTradeAlreadyExists
			}

			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		return nil
	})
}

func (s *Storage) GetTrade(ctx context.Context, tradeID string) (*trades.Trade, error) {
	var trade *trades.Trade

	err := WithRetry(ctx, func() error {
		dbTrade, err := scanTrade(s.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, tradeID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrTradeNotFound
			}

			return fmt.Errorf("db.QueryRowContext: %w", err)
		}

		trade = toTrade(dbTrade)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return trade, nil
}

func (s *Storage) GetTradesByUser(ctx context.Context, userID string, limit int) ([]*trades.Trade, error) {
	return s.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, nullLimit(limit),
	)
}

func (s *Storage) ListTrades(ctx context.Context, limit int) ([]*trades.Trade, error) {
	return s.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades ORDER BY created_at DESC, id DESC LIMIT $1`,
		nullLimit(limit),
	)
}

func (s *Storage) GetDueTrades(ctx context.Context, now time.Time, limit int) ([]*trades.Trade, error) {
	return s.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE status = $1 AND expires_at <= $2 ORDER BY expires_at LIMIT $3`,
		trades.StatusActive.String(), now, nullLimit(limit),
	)
}

func (s *Storage) queryTrades(ctx context.Context, query string, args ...any) ([]*trades.Trade, error) {
	result := make([]*trades.Trade, 0)

	err := WithRetry(ctx, func() error {
		result = result[:0]

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("db.QueryContext: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			dbTrade, err := scanTrade(rows)
			if err != nil {
				return fmt.Errorf("rows.Scan: %w", err)
			}

			result = append(result, toTrade(dbTrade))
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows.Err: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Storage) SettleTrade(ctx context.Context, trade *trades.Trade) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE trades SET status = $1, exit_price = $2, payout = $3, profit = $4, closed_at = $5`+
				` WHERE id = $6 AND status = $7`,
			trade.Status.String(), trade.ExitPrice, trade.Payout, trade.Profit, trade.ClosedAt,
			trade.ID, trades.StatusActive.String(),
		)
		if err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("res.RowsAffected: %w", err)
		}

		if affected == 0 {
			var status string

			row := tx.QueryRowContext(ctx, `SELECT status FROM trades WHERE id = $1`, trade.ID)
			if err := row.Scan(&status); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return storage.ErrTradeNotFound
				}

				return fmt.Errorf("row.Scan: %w", err)
			}

			return storage.ErrTradeNotActive
		}

		if !trade.Payout.IsPositive() {
			return nil
		}

		if _, err := changeBalance(ctx, tx, trade.UserID, func(b *balance.Balance) error {
			return b.Credit(trade.Payout)
		}); err != nil {
			return err
		}

		return nil
	})
}

func scanTrade(row scanner) (*dbmodels.Trade, error) {
	dbTrade := new(dbmodels.Trade)

	if err := row.Scan(
		&dbTrade.ID, &dbTrade.UserID, &dbTrade.Pair, &dbTrade.Direction, &dbTrade.Amount, &dbTrade.EntryPrice,
		&dbTrade.DurationSeconds, &dbTrade.Status, &dbTrade.ExitPrice, &dbTrade.Payout, &dbTrade.Profit,
		&dbTrade.CreatedAt, &dbTrade.ExpiresAt, &dbTrade.ClosedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return dbTrade, nil
}

func toTrade(dbTrade *dbmodels.Trade) *trades.Trade {
	trade := &trades.Trade{
		ID:         dbTrade.ID,
		UserID:     dbTrade.UserID,
		Pair:       dbTrade.Pair,
		Direction:  trades.Direction(dbTrade.Direction),
		Amount:     dbTrade.Amount,
		EntryPrice: dbTrade.EntryPrice,
		Duration:   time.Duration(dbTrade.DurationSeconds) * time.Second,
		Status:     trades.Status(dbTrade.Status),
		ExitPrice:  nullDecimal(dbTrade.ExitPrice),
		Payout:     nullDecimal(dbTrade.Payout),
		Profit:     nullDecimal(dbTrade.Profit),
		CreatedAt:  dbTrade.CreatedAt.UTC(),
		ExpiresAt:  dbTrade.ExpiresAt.UTC(),
	}

	if dbTrade.ClosedAt.Valid {
		trade.ClosedAt = dbTrade.ClosedAt.Time.UTC()
	}

	return trade
}

func nullDecimal(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}

	return decimal.Zero
}
