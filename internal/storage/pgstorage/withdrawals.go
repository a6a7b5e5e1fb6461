package pgstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/withdrawals"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/dbmodels"
	"github.com/lib/pq"
)

const withdrawalColumns = `id, user_id, amount, currency, wallet_address, status, admin_note, created_at, processed_at`

func (s *Storage) CreateWithdrawal(ctx context.Context, withdrawal *withdrawals.Withdrawal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := changeBalance(ctx, tx, withdrawal.UserID, func(b *balance.Balance) error {
			return b.Hold(withdrawal.Amount)
		}); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO withdrawals (id, user_id, amount, currency, wallet_address, status, created_at)`+
				` VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			withdrawal.ID, withdrawal.UserID, withdrawal.Amount, withdrawal.Currency, withdrawal.WalletAddress,
			withdrawal.Status.String(), withdrawal.CreatedAt,
		); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		return nil
	})
}

func (s *Storage) GetWithdrawal(ctx context.Context, withdrawalID string) (*withdrawals.Withdrawal, error) {
	var withdrawal *withdrawals.Withdrawal

	err := WithRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, withdrawalID)

		w, err := scanWithdrawal(row)
		if err != nil {
			return err
		}

		withdrawal = w

		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func (s *Storage) GetWithdrawalsByUser(ctx context.Context, userID string) ([]*withdrawals.Withdrawal, error) {
	return s.queryWithdrawals(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (s *Storage) ListWithdrawals(ctx context.Context, statuses ...withdrawals.Status) ([]*withdrawals.Withdrawal, error) {
	if len(statuses) == 0 {
		return s.queryWithdrawals(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals ORDER BY created_at DESC, id DESC`)
	}

	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status.String())
	}

	return s.queryWithdrawals(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE status = ANY($1) ORDER BY created_at DESC, id DESC`,
		pq.Array(values),
	)
}

func (s *Storage) queryWithdrawals(ctx context.Context, query string, args ...any) ([]*withdrawals.Withdrawal, error) {
	result := make([]*withdrawals.Withdrawal, 0)

	err := WithRetry(ctx, func() error {
		result = result[:0]

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("db.QueryContext: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			w, err := scanWithdrawal(rows)
			if err != nil {
				return err
			}

			result = append(result, w)
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

func (s *Storage) ReviewWithdrawal(
	ctx context.Context, withdrawalID string, decision withdrawals.Status, note string,
) (*withdrawals.Withdrawal, error) {
	var withdrawal *withdrawals.Withdrawal

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, withdrawalID)

		w, err := scanWithdrawal(row)
		if err != nil {
			return err
		}

		if err := w.Review(decision, note); err != nil {
			return err //nolint:wrapcheck
		}

		if _, err := changeBalance(ctx, tx, w.UserID, func(b *balance.Balance) error {
			if w.Status == withdrawals.StatusCompleted {
				return b.Settle(w.Amount)
			}

			return b.Release(w.Amount)
		}); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE withdrawals SET status = $1, admin_note = $2, processed_at = $3 WHERE id = $4`,
			w.Status.String(), w.AdminNote, w.ProcessedAt, w.ID,
		); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		withdrawal = w

		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func scanWithdrawal(row scanner) (*withdrawals.Withdrawal, error) {
	dbWithdrawal := new(dbmodels.Withdrawal)

	if err := row.Scan(
		&dbWithdrawal.ID, &dbWithdrawal.UserID, &dbWithdrawal.Amount, &dbWithdrawal.Currency,
		&dbWithdrawal.WalletAddress, &dbWithdrawal.Status, &dbWithdrawal.AdminNote,
		&dbWithdrawal.CreatedAt, &dbWithdrawal.ProcessedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrWithdrawalNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	withdrawal := &withdrawals.Withdrawal{
		ID:            dbWithdrawal.ID,
		UserID:        dbWithdrawal.UserID,
		Amount:        dbWithdrawal.Amount,
		Currency:      dbWithdrawal.Currency,
		WalletAddress: dbWithdrawal.WalletAddress,
		Status:        withdrawals.Status(dbWithdrawal.Status),
		AdminNote:     dbWithdrawal.AdminNote,
		CreatedAt:     dbWithdrawal.CreatedAt.UTC(),
	}

	if dbWithdrawal.ProcessedAt.Valid {
		withdrawal.ProcessedAt = dbWithdrawal.ProcessedAt.Time.UTC()
	}

	return withdrawal, nil
}
