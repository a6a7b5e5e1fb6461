package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/andymarkow/tradesim/internal/auth"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/server/models"
	"github.com/andymarkow/tradesim/internal/storage"
)

func (h *Handlers) UserRegister(w http.ResponseWriter, r *http.Request) {
	var payload models.UserRegisterRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	user, err := users.NewUser(users.Params{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		h.handleServiceError(w, "users.NewUser()", err)

		return
	}

	if err := h.storage.CreateUser(r.Context(), user); err != nil {
		h.handleServiceError(w, "storage.CreateUser()", err)

		return
	}

	token, ok := h.startSession(w, user.ID)
	if !ok {
		return
	}

	h.log.Info("User registered", slog.String("user_id", user.ID))

	handleJSONResponse(w, http.StatusCreated, &models.UserRegisterResponse{
		User:         models.NewUserResponse(user),
		SessionToken: token,
	})
}

func (h *Handlers) UserLogin(w http.ResponseWriter, r *http.Request) {
	var payload models.UserLoginRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	if payload.Email == "" || payload.Password == "" {
		handleError(w, errmsg.ErrUserCredentialsInvalid)

		return
	}

	user, err := h.storage.GetUserByEmail(r.Context(), users.NormalizeEmail(payload.Email))
	if err != nil {
		// Unknown email and wrong password look the same to the client.
		if errors.Is(err, storage.ErrUserNotFound) {
			handleError(w, errmsg.ErrUserCredentialsInvalid)

			return
		}

		h.handleServiceError(w, "storage.GetUserByEmail()", err)

		return
	}

	if err := user.CheckPassword(payload.Password); err != nil {
		if errors.Is(err, users.ErrUserPasswordMismatch) {
			handleError(w, errmsg.ErrUserCredentialsInvalid)

			return
		}

		h.handleServiceError(w, "user.CheckPassword()", err)

		return
	}

	token, ok := h.startSession(w, user.ID)
	if !ok {
		return
	}

	handleJSONResponse(w, http.StatusOK, &models.UserLoginResponse{SessionToken: token})
}

func (h *Handlers) UserLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	handleJSONResponse(w, http.StatusOK, &JSONResponse{Message: "ok"})
}

func (h *Handlers) UserProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	user, err := h.storage.GetUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, "storage.GetUser()", err)

		return
	}

	blnc, err := h.storage.GetUserBalance(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, "storage.GetUserBalance()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, &models.UserProfileResponse{
		User:    models.NewUserResponse(user),
		Balance: models.NewUserBalanceResponse(blnc),
	})
}

func (h *Handlers) GetUserBalance(w http.ResponseWriter, r *http.Request) {
	blnc, err := h.storage.GetUserBalance(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, "storage.GetUserBalance()", err)

		return
	}

	resp := models.NewUserBalanceResponse(blnc)

	handleJSONResponse(w, http.StatusOK, &resp)
}

// startSession issues a session token and sends it in the Authorization header and the session cookie.
func (h *Handlers) startSession(w http.ResponseWriter, userID string) (string, bool) {
	token, err := h.auth.CreateJWTString(userID)
	if err != nil {
		h.handleServiceError(w, "auth.CreateJWTString()", err)

		return "", false
	}

	ttl := h.auth.TokenTTL()

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Authorization", "Bearer "+token)

	return token, true
}
