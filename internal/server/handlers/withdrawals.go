package handlers

import (
	"log/slog"
	"net/http"

	"github.com/andymarkow/tradesim/internal/domain/withdrawals"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/server/models"
)

func (h *Handlers) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var payload models.WithdrawalRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	withdrawal, err := withdrawals.NewWithdrawal(
		userIDFromContext(r.Context()), payload.Amount, payload.Currency, payload.WalletAddress,
	)
	if err != nil {
		h.handleServiceError(w, "withdrawals.NewWithdrawal()", err)

		return
	}

	if err := h.storage.CreateWithdrawal(r.Context(), withdrawal); err != nil {
		h.handleServiceError(w, "storage.CreateWithdrawal()", err)

		return
	}

	h.log.Info("Withdrawal requested",
		slog.String("withdrawal_id", withdrawal.ID),
		slog.String("user_id", withdrawal.UserID),
		slog.String("amount", withdrawal.Amount.String()),
	)

	handleJSONResponse(w, http.StatusCreated, &models.WithdrawalCreatedResponse{
		Withdrawal: models.NewWithdrawalResponse(withdrawal),
		Status:     withdrawal.Status.String(),
	})
}

func (h *Handlers) GetUserWithdrawals(w http.ResponseWriter, r *http.Request) {
	list, err := h.storage.GetWithdrawalsByUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, "storage.GetWithdrawalsByUser()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewWithdrawalResponses(list))
}

func (h *Handlers) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	var statuses []withdrawals.Status

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := withdrawals.ParseStatus(raw)
		if err != nil {
			handleError(w, errmsg.ErrRequestParamInvalid)

			return
		}

		statuses = append(statuses, status)
	}

	list, err := h.storage.ListWithdrawals(r.Context(), statuses...)
	if err != nil {
		h.handleServiceError(w, "storage.ListWithdrawals()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewWithdrawalResponses(list))
}

func (h *Handlers) ReviewWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawalID, ok := resourceID(r)
	if !ok {
		handleError(w, errmsg.ErrWithdrawalNotFound)

		return
	}

	var payload models.ReviewRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	decision, err := withdrawals.ParseDecision(payload.Decision)
	if err != nil {
		h.handleServiceError(w, "withdrawals.ParseDecision()", err)

		return
	}

	withdrawal, err := h.storage.ReviewWithdrawal(r.Context(), withdrawalID, decision, payload.Note)
	if err != nil {
		h.handleServiceError(w, "storage.ReviewWithdrawal()", err)

		return
	}

	h.log.Info("Withdrawal reviewed",
		slog.String("withdrawal_id", withdrawal.ID),
		slog.String("status", withdrawal.Status.String()),
		slog.String("admin_id", userIDFromContext(r.Context())),
	)

	handleJSONResponse(w, http.StatusOK, models.NewWithdrawalResponse(withdrawal))
}
