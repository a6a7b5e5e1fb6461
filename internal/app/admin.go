package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/storage"
)

// EnsureAdmin creates the bootstrap admin account, or promotes the existing
// account with that email and resets its password. Empty credentials are a no-op.
func EnsureAdmin(ctx context.Context, store storage.UserStorage, email, password string) error {
	if email == "" && password == "" {
		return nil
	}

	usr, err := store.GetUserByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("storage.GetUserByEmail: %w", err)
		}

		usr, err = users.NewUser(users.Params{Email: email, Password: password})
		if err != nil {
			return fmt.Errorf("users.NewUser: %w", err)
		}

		usr.IsAdmin = true
		usr.IsVerified = true

		if err := store.CreateUser(ctx, usr); err != nil {
			return fmt.Errorf("storage.CreateUser: %w", err)
		}

		return nil
	}

	if err := usr.SetPassword(password); err != nil {
		return fmt.Errorf("user.SetPassword: %w", err)
	}

	usr.IsAdmin = true
	usr.IsVerified = true

	if err := store.UpdateUser(ctx, usr); err != nil {
		return fmt.Errorf("storage.UpdateUser: %w", err)
	}

	return nil
}
