package handlers

import (
	"log/slog"
	"net/http"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/server/models"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.storage.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, "storage.ListUsers()", err)

		return
	}

	resp := make([]models.AdminUserResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, models.AdminUserResponse{
			UserResponse: models.NewUserResponse(acc.User),
			Balance:      models.NewUserBalanceResponse(acc.Balance),
		})
	}

	handleJSONResponse(w, http.StatusOK, resp)
}

func (h *Handlers) SetUserBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := resourceID(r)
	if !ok {
		handleError(w, errmsg.ErrUserNotFound)

		return
	}

	var payload models.SetBalanceRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	if payload.Amount == nil {
		handleError(w, errmsg.ErrRequestPayloadInvalid)

		return
	}

	if payload.Amount.IsNegative() {
		handleError(w, errmsg.Validation(balance.ErrAmountNegative))

		return
	}

	if err := balance.ValidateAmount(*payload.Amount); err != nil {
		h.handleServiceError(w, "balance.ValidateAmount()", err)

		return
	}

	blnc, err := h.storage.SetUserBalance(r.Context(), userID, *payload.Amount)
	if err != nil {
		h.handleServiceError(w, "storage.SetUserBalance()", err)

		return
	}

	h.log.Info("User balance set",
		slog.String("user_id", userID),
		slog.String("amount", payload.Amount.String()),
		slog.String("admin_id", userIDFromContext(r.Context())),
	)

	resp := models.NewUserBalanceResponse(blnc)

	handleJSONResponse(w, http.StatusOK, &resp)
}
