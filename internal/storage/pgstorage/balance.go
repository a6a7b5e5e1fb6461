package pgstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/dbmodels"
	"github.com/shopspring/decimal"
)

const balanceColumns = `user_id, current, held, withdrawn, updated_at`

func (s *Storage) GetUserBalance(ctx context.Context, userID string) (*balance.Balance, error) {
	var blnc *balance.Balance

	err := WithRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM user_balance WHERE user_id = $1`, userID)

		b, err := scanBalance(row)
		if err != nil {
			return err
		}

		blnc = b

		return nil
	})
	if err != nil {
		return nil, err
	}

	return blnc, nil
}

func (s *Storage) CreditUserBalance(ctx context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error) {
	return s.updateBalance(ctx, userID, func(b *balance.Balance) error {
		return b.Credit(amount)
	})
}

func (s *Storage) DebitUserBalance(ctx context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error) {
	return s.updateBalance(ctx, userID, func(b *balance.Balance) error {
		return b.Debit(amount)
	})
}

func (s *Storage) SetUserBalance(ctx context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error) {
	return s.updateBalance(ctx, userID, func(b *balance.Balance) error {
		return b.Set(amount)
	})
}

func (s *Storage) updateBalance(
	ctx context.Context, userID string, fn func(b *balance.Balance) error,
) (*balance.Balance, error) {
	var blnc *balance.Balance

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		b, err := changeBalance(ctx, tx, userID, fn)
		if err != nil {
			return err
		}

		blnc = b

		return nil
	})
	if err != nil {
		return nil, err
	}

	return blnc, nil
}

// changeBalance locks the balance row, applies fn and writes the result back within tx.
func changeBalance(
	ctx context.Context, tx *sql.Tx, userID string, fn func(b *balance.Balance) error,
) (*balance.Balance, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM user_balance WHERE user_id = $1 FOR UPDATE`, userID)

	blnc, err := scanBalance(row)
	if err != nil {
		return nil, err
	}

	if err := fn(blnc); err != nil {
		if errors.Is(err, balance.ErrInsufficientFunds) {
			return nil, storage.ErrUserBalanceNotEnough
		}

		return nil, err //nolint:wrapcheck
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_balance SET current = $1, held = $2, withdrawn = $3, updated_at = $4 WHERE user_id = $5`,
		blnc.Current(), blnc.Held(), blnc.Withdrawn(), blnc.UpdatedAt(), blnc.UserID(),
	); err != nil {
		return nil, fmt.Errorf("tx.ExecContext: %w", err)
	}

	return blnc, nil
}

func scanBalance(row scanner) (*balance.Balance, error) {
	dbBalance := new(dbmodels.UserBalance)

	if err := row.Scan(
		&dbBalance.UserID, &dbBalance.Current, &dbBalance.Held, &dbBalance.Withdrawn, &dbBalance.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserBalanceNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return toBalance(dbBalance)
}
