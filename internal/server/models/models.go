package models

import (
	"time"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/domain/withdrawals"
	"github.com/shopspring/decimal"
)

type UserRegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	IsAdmin    bool   `json:"isAdmin"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"createdAt"`
}

type UserRegisterResponse struct {
	User         UserResponse `json:"user"`
	SessionToken string       `json:"sessionToken"`
}

type UserLoginResponse struct {
	SessionToken string `json:"sessionToken"`
}

type UserBalanceResponse struct {
	Current   float64 `json:"current"`
	Held      float64 `json:"held"`
	Withdrawn float64 `json:"withdrawn"`
}

type UserProfileResponse struct {
	User    UserResponse        `json:"user"`
	Balance UserBalanceResponse `json:"balance"`
}

type TradeRequest struct {
	Pair       string           `json:"pair"`
	Amount     decimal.Decimal  `json:"amount"`
	Direction  string           `json:"direction"`
	EntryPrice *decimal.Decimal `json:"entryPrice"`
	// Duration in seconds.
	Duration int64 `json:"duration"`
}

type TradeResponse struct {
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Pair       string   `json:"pair"`
	Direction  string   `json:"direction"`
	Amount     float64  `json:"amount"`
	EntryPrice float64  `json:"entryPrice"`
	Duration   int64    `json:"duration"`
	Status     string   `json:"status"`
	ExitPrice  *float64 `json:"exitPrice,omitempty"`
	Payout     *float64 `json:"payout,omitempty"`
	Profit     *float64 `json:"profit,omitempty"`
	CreatedAt  string   `json:"createdAt"`
	ExpiresAt  string   `json:"expiresAt"`
	ClosedAt   string   `json:"closedAt,omitempty"`
}

type TradeCreatedResponse struct {
	Trade TradeResponse `json:"trade"`
}

type PriceResponse struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
}

type DepositRequest struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Address  string          `json:"address"`
}

type DepositResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Currency    string  `json:"currency"`
	Amount      float64 `json:"amount"`
	Address     string  `json:"address"`
	Status      string  `json:"status"`
	AdminNote   string  `json:"adminNote,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	ProcessedAt string  `json:"processedAt,omitempty"`
}

type DepositCreatedResponse struct {
	Deposit DepositResponse `json:"deposit"`
	Status  string          `json:"status"`
}

type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	WalletAddress string          `json:"walletAddress"`
}

type WithdrawalResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	WalletAddress string  `json:"walletAddress"`
	Status        string  `json:"status"`
	AdminNote     string  `json:"adminNote,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	ProcessedAt   string  `json:"processedAt,omitempty"`
}

type WithdrawalCreatedResponse struct {
	Withdrawal WithdrawalResponse `json:"withdrawal"`
	Status     string             `json:"status"`
}

type ReviewRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

type SetBalanceRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type AdminUserResponse struct {
	UserResponse
	Balance UserBalanceResponse `json:"balance"`
}

func NewUserResponse(usr *users.User) UserResponse {
	return UserResponse{
		ID:         usr.ID,
		Email:      usr.Email,
		FirstName:  usr.FirstName,
		LastName:   usr.LastName,
		IsAdmin:    usr.IsAdmin,
		IsVerified: usr.IsVerified,
		CreatedAt:  formatTime(usr.CreatedAt),
	}
}

func NewUserBalanceResponse(blnc *balance.Balance) UserBalanceResponse {
	if blnc == nil {
		return UserBalanceResponse{}
	}

	return UserBalanceResponse{
		Current:   blnc.Current().InexactFloat64(),
		Held:      blnc.Held().InexactFloat64(),
		Withdrawn: blnc.Withdrawn().InexactFloat64(),
	}
}

func NewTradeResponse(trade *trades.Trade) TradeResponse {
	resp := TradeResponse{
		ID:         trade.ID,
		UserID:     trade.UserID,
		Pair:       trade.Pair,
		Direction:  trade.Direction.String(),
		Amount:     trade.Amount.InexactFloat64(),
		EntryPrice: trade.EntryPrice.InexactFloat64(),
		Duration:   int64(trade.Duration / time.Second),
		Status:     trade.Status.String(),
		CreatedAt:  formatTime(trade.CreatedAt),
		ExpiresAt:  formatTime(trade.ExpiresAt),
		ClosedAt:   formatTime(trade.ClosedAt),
	}

	if trade.Status.IsTerminal() {
		exitPrice := trade.ExitPrice.InexactFloat64()
		payout := trade.Payout.InexactFloat64()
		profit := trade.Profit.InexactFloat64()

		resp.ExitPrice = &exitPrice
		resp.Payout = &payout
		resp.Profit = &profit
	}

	return resp
}

func NewTradeResponses(list []*trades.Trade) []TradeResponse {
	resp := make([]TradeResponse, 0, len(list))
	for _, trade := range list {
		resp = append(resp, NewTradeResponse(trade))
	}

	return resp
}

func NewDepositResponse(dep *deposits.Deposit) DepositResponse {
	return DepositResponse{
		ID:          dep.ID,
		UserID:      dep.UserID,
		Currency:    dep.Currency,
		Amount:      dep.Amount.InexactFloat64(),
		Address:     dep.Address,
		Status:      dep.Status.String(),
		AdminNote:   dep.AdminNote,
		CreatedAt:   formatTime(dep.CreatedAt),
		ProcessedAt: formatTime(dep.ProcessedAt),
	}
}

func NewDepositResponses(list []*deposits.Deposit) []DepositResponse {
	resp := make([]DepositResponse, 0, len(list))
	for _, dep := range list {
		resp = append(resp, NewDepositResponse(dep))
	}

	return resp
}

func NewWithdrawalResponse(w *withdrawals.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:            w.ID,
		UserID:        w.UserID,
		Amount:        w.Amount.InexactFloat64(),
		Currency:      w.Currency,
		WalletAddress: w.WalletAddress,
		Status:        w.Status.String(),
		AdminNote:     w.AdminNote,
		CreatedAt:     formatTime(w.CreatedAt),
		ProcessedAt:   formatTime(w.ProcessedAt),
	}
}

func NewWithdrawalResponses(list []*withdrawals.Withdrawal) []WithdrawalResponse {
	resp := make([]WithdrawalResponse, 0, len(list))
	for _, w := range list {
		resp = append(resp, NewWithdrawalResponse(w))
	}

	return resp
}

// formatTime renders t as RFC 3339, the zero time as an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}
