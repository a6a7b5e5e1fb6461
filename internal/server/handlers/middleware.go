package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/andymarkow/tradesim/internal/auth"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/storage"
)

type ctxKey struct{}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKey{}).(string)

	return userID
}

// Authenticator rejects requests without a valid session token.
// It expects the token to be verified by auth.JWTAuth.Verifier first.
func (h *Handlers) Authenticator(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.auth.UserIDFromContext(r.Context())
		if err != nil {
			h.log.Debug("auth.UserIDFromContext()", slog.Any("error", err))

			if errors.Is(err, auth.ErrTokenExpired) {
				handleError(w, errmsg.NewHTTPError(http.StatusUnauthorized, auth.ErrTokenExpired))

				return
			}

			handleError(w, errmsg.ErrUnauthenticated)

			return
		}

		if err := users.ValidateID(userID); err != nil {
			h.log.Debug("users.ValidateID()", slog.Any("error", err))
			handleError(w, errmsg.ErrUnauthenticated)

			return
		}

		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	}

	return http.HandlerFunc(fn)
}

// AdminOnly lets through authenticated users with the admin flag.
// The flag is read from storage on every request so revocation is immediate.
func (h *Handlers) AdminOnly(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		user, err := h.storage.GetUser(r.Context(), userIDFromContext(r.Context()))
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				handleError(w, errmsg.ErrUnauthenticated)

				return
			}

			h.handleServiceError(w, "storage.GetUser()", err)

			return
		}

		if !user.IsAdmin {
			handleError(w, errmsg.ErrForbidden)

			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
