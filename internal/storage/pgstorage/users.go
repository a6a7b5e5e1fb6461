package pgstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/dbmodels"
)

const userColumns = `id, email, password_hash, first_name, last_name, is_admin, is_verified, created_at`

func (s *Storage) CreateUser(ctx context.Context, usr *users.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			usr.ID, usr.Email, usr.PasswordHash, usr.FirstName, usr.LastName, usr.IsAdmin, usr.IsVerified, usr.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrUserAlreadyExists
			}

			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_balance (user_id, updated_at) VALUES ($1, $2)`, usr.ID, usr.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrUserBalanceAlreadyExists
			}

			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		return nil
	})
}

func (s *Storage) GetUser(ctx context.Context, userID string) (*users.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*users.User, error) {
	var usr *users.User

	err := WithRetry(ctx, func() error {
		dbUser, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrUserNotFound
			}

			return fmt.Errorf("db.QueryRowContext: %w", err)
		}

		usr = toUser(dbUser)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return usr, nil
}

func (s *Storage) UpdateUser(ctx context.Context, usr *users.User) error {
	return WithRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE users SET first_name = $1, last_name = $2, password_hash = $3, is_admin = $4, is_verified = $5`+
				` WHERE id = $6`,
			usr.FirstName, usr.LastName, usr.PasswordHash, usr.IsAdmin, usr.IsVerified, usr.ID,
		)
		if err != nil {
			return fmt.Errorf("db.ExecContext: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("res.RowsAffected: %w", err)
		}

		if affected == 0 {
			return storage.ErrUserNotFound
		}

		return nil
	})
}

func (s *Storage) ListUsers(ctx context.Context) ([]*storage.UserAccount, error) {
	accounts := make([]*storage.UserAccount, 0)

	err := WithRetry(ctx, func() error {
		accounts = accounts[:0]

		rows, err := s.db.QueryContext(ctx,
			`SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.is_admin, u.is_verified, u.created_at,`+
				` b.user_id, b.current, b.held, b.withdrawn, b.updated_at`+
				` FROM users u JOIN user_balance b ON b.user_id = u.id ORDER BY u.created_at DESC, u.id DESC`,
		)
		if err != nil {
			return fmt.Errorf("db.QueryContext: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			dbUser := new(dbmodels.User)
			dbBalance := new(dbmodels.UserBalance)

			if err := rows.Scan(
				&dbUser.ID, &dbUser.Email, &dbUser.PasswordHash, &dbUser.FirstName, &dbUser.LastName,
				&dbUser.IsAdmin, &dbUser.IsVerified, &dbUser.CreatedAt,
				&dbBalance.UserID, &dbBalance.Current, &dbBalance.Held, &dbBalance.Withdrawn, &dbBalance.UpdatedAt,
			); err != nil {
				return fmt.Errorf("rows.Scan: %w", err)
			}

			blnc, err := toBalance(dbBalance)
			if err != nil {
				return err
			}

			accounts = append(accounts, &storage.UserAccount{User: toUser(dbUser), Balance: blnc})
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows.Err: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func scanUser(row scanner) (*dbmodels.User, error) {
	dbUser := new(dbmodels.User)

	if err := row.Scan(
		&dbUser.ID, &dbUser.Email, &dbUser.PasswordHash, &dbUser.FirstName, &dbUser.LastName,
		&dbUser.IsAdmin, &dbUser.IsVerified, &dbUser.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return dbUser, nil
}

func toUser(dbUser *dbmodels.User) *users.User {
	return &users.User{
		ID:           dbUser.ID,
		Email:        dbUser.Email,
		PasswordHash: dbUser.PasswordHash,
		FirstName:    dbUser.FirstName,
		LastName:     dbUser.LastName,
		IsAdmin:      dbUser.IsAdmin,
		IsVerified:   dbUser.IsVerified,
		CreatedAt:    dbUser.CreatedAt.UTC(),
	}
}

func toBalance(dbBalance *dbmodels.UserBalance) (*balance.Balance, error) {
	blnc, err := balance.NewBalance(dbBalance.UserID, dbBalance.Current, dbBalance.Held, dbBalance.Withdrawn)
	if err != nil {
		return nil, fmt.Errorf("balance.NewBalance: %w", err)
	}

	blnc.SetUpdatedAt(dbBalance.UpdatedAt.UTC())

	return blnc, nil
}
