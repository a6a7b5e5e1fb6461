package handlers

import (
	"log/slog"
	"net/http"

	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/server/models"
)

func (h *Handlers) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var payload models.DepositRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	dep, err := deposits.NewDeposit(userIDFromContext(r.Context()), payload.Currency, payload.Amount, payload.Address)
	if err != nil {
		h.handleServiceError(w, "deposits.NewDeposit()", err)

		return
	}

	if err := h.storage.CreateDeposit(r.Context(), dep); err != nil {
		h.handleServiceError(w, "storage.CreateDeposit()", err)

		return
	}

	h.log.Info("Deposit requested",
		slog.String("deposit_id", dep.ID),
		slog.String("user_id", dep.UserID),
		slog.String("amount", dep.Amount.String()),
	)

	handleJSONResponse(w, http.StatusCreated, &models.DepositCreatedResponse{
		Deposit: models.NewDepositResponse(dep),
		Status:  dep.Status.String(),
	})
}

func (h *Handlers) GetUserDeposits(w http.ResponseWriter, r *http.Request) {
	list, err := h.storage.GetDepositsByUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, "storage.GetDepositsByUser()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewDepositResponses(list))
}

func (h *Handlers) ListDeposits(w http.ResponseWriter, r *http.Request) {
	var statuses []deposits.Status

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := deposits.ParseStatus(raw)
		if err != nil {
			handleError(w, errmsg.ErrRequestParamInvalid)

			return
		}

		statuses = append(statuses, status)
	}

	list, err := h.storage.ListDeposits(r.Context(), statuses...)
	if err != nil {
		h.handleServiceError(w, "storage.ListDeposits()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewDepositResponses(list))
}

func (h *Handlers) ReviewDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, ok := resourceID(r)
	if !ok {
		handleError(w, errmsg.ErrDepositNotFound)

		return
	}

	var payload models.ReviewRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	decision, err := deposits.ParseDecision(payload.Decision)
	if err != nil {
		h.handleServiceError(w, "deposits.ParseDecision()", err)

		return
	}

	dep, err := h.storage.ReviewDeposit(r.Context(), depositID, decision, payload.Note)
	if err != nil {
		h.handleServiceError(w, "storage.ReviewDeposit()", err)

		return
	}

	h.log.Info("Deposit reviewed",
		slog.String("deposit_id", dep.ID),
		slog.String("status", dep.Status.String()),
		slog.String("admin_id", userIDFromContext(r.Context())),
	)

	handleJSONResponse(w, http.StatusOK, models.NewDepositResponse(dep))
}
