package pgstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/dbmodels"
	"github.com/lib/pq"
)

const depositColumns = `id, user_id, currency, amount, address, status, admin_note, created_at, processed_at`

func (s *Storage) CreateDeposit(ctx context.Context, dep *deposits.Deposit) error {
	return WithRetry(ctx, func() error {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO deposits (id, user_id, currency, amount, address, status, created_at)`+
				` VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			dep.ID, dep.UserID, dep.Currency, dep.Amount, dep.Address, dep.Status.String(), dep.CreatedAt,
		); err != nil {
			if isForeignKeyViolation(err) {
				return storage.ErrUserNotFound
			}

			return fmt.Errorf("db.ExecContext: %w", err)
		}

		return nil
	})
}

func (s *Storage) GetDeposit(ctx context.Context, depositID string) (*deposits.Deposit, error) {
	var dep *deposits.Deposit

	err := WithRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, depositID)

		d, err := scanDeposit(row)
		if err != nil {
			return err
		}

		dep = d

		return nil
	})
	if err != nil {
		return nil, err
	}

	return dep, nil
}

func (s *Storage) GetDepositsByUser(ctx context.Context, userID string) ([]*deposits.Deposit, error) {
	return s.queryDeposits(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (s *Storage) ListDeposits(ctx context.Context, statuses ...deposits.Status) ([]*deposits.Deposit, error) {
	if len(statuses) == 0 {
		return s.queryDeposits(ctx, `SELECT `+depositColumns+` FROM deposits ORDER BY created_at DESC, id DESC`)
	}

	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status.String())
	}

	return s.queryDeposits(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE status = ANY($1) ORDER BY created_at DESC, id DESC`,
		pq.Array(values),
	)
}

func (s *Storage) queryDeposits(ctx context.Context, query string, args ...any) ([]*deposits.Deposit, error) {
	result := make([]*deposits.Deposit, 0)

	err := WithRetry(ctx, func() error {
		result = result[:0]

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("db.QueryContext: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			dep, err := scanDeposit(rows)
			if err != nil {
				return err
			}

			result = append(result, dep)
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

func (s *Storage) ReviewDeposit(
	ctx context.Context, depositID string, decision deposits.Status, note string,
) (*deposits.Deposit, error) {
	var dep *deposits.Deposit

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, depositID)

		d, err := scanDeposit(row)
		if err != nil {
			return err
		}

		if err := d.Review(decision, note); err != nil {
			return err //nolint:wrapcheck
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE deposits SET status = $1, admin_note = $2, processed_at = $3 WHERE id = $4`,
			d.Status.String(), d.AdminNote, d.ProcessedAt, d.ID,
		); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		if d.Status == deposits.StatusConfirmed {
			if _, err := changeBalance(ctx, tx, d.UserID, func(b *balance.Balance) error {
				return b.Credit(d.Amount)
			}); err != nil {
				return err
			}
		}

		dep = d

		return nil
	})
	if err != nil {
		return nil, err
	}

	return dep, nil
}

func scanDeposit(row scanner) (*deposits.Deposit, error) {
	dbDeposit := new(dbmodels.Deposit)

	if err := row.Scan(
		&dbDeposit.ID, &dbDeposit.UserID, &dbDeposit.Currency, &dbDeposit.Amount, &dbDeposit.Address,
		&dbDeposit.Status, &dbDeposit.AdminNote, &dbDeposit.CreatedAt, &dbDeposit.ProcessedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDepositNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	dep := &deposits.Deposit{
		ID:        dbDeposit.ID,
		UserID:    dbDeposit.UserID,
		Currency:  dbDeposit.Currency,
		Amount:    dbDeposit.Amount,
		Address:   dbDeposit.Address,
		Status:    deposits.Status(dbDeposit.Status),
		AdminNote: dbDeposit.AdminNote,
		CreatedAt: dbDeposit.CreatedAt.UTC(),
	}

	if dbDeposit.ProcessedAt.Valid {
		dep.ProcessedAt = dbDeposit.ProcessedAt.Time.UTC()
	}

	return dep, nil
}
