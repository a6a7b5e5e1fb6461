package storage

import (
	"context"
	"errors"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/domain/withdrawals"
	"github.com/shopspring/decimal"
)

var (
	ErrUserAlreadyExists        = errors.New("user already exists")
	ErrUserNotFound             = errors.New("user not found")
	ErrUserBalanceAlreadyExists = errors.New("user balance already exists")
	ErrUserBalanceNotFound      = errors.New("user balance not found")
	ErrUserBalanceNotEnough     = errors.New("user balance not enough")
	ErrTradeAlreadyExists       = errors.New("trade already exists")
	ErrTradeNotFound            = errors.New("trade not found")
	ErrTradeNotActive           = errors.New("trade is not active")
	ErrDepositNotFound          = errors.New("deposit not found")
	ErrWithdrawalNotFound       = errors.New("withdrawal not found")
)

// UserAccount is a user together with its balance.
type UserAccount struct {
	User    *users.User
	Balance *balance.Balance
}

type UserStorage interface {
	// CreateUser stores the user and its zero balance in one transaction.
	CreateUser(ctx context.Context, usr *users.User) error
	GetUser(ctx context.Context, userID string) (*users.User, error)
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	// UpdateUser overwrites the mutable profile fields: names, password hash and flags.
	UpdateUser(ctx context.Context, usr *users.User) error
	ListUsers(ctx context.Context) ([]*UserAccount, error)
}

// UserBalanceStorage is the balance ledger. Every call is one transaction on a locked balance row.
type UserBalanceStorage interface {
	GetUserBalance(ctx context.Context, userID string) (*balance.Balance, error)
	CreditUserBalance(ctx context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error)
	// DebitUserBalance fails with ErrUserBalanceNotEnough and leaves the balance unchanged
	// when the current funds do not cover the amount.
	DebitUserBalance(ctx context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error)
	SetUserBalance(ctx context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error)
}

type TradeStorage interface {
	// OpenTrade debits the stake and inserts the active trade in one transaction.
	OpenTrade(ctx context.Context, trade *trades.Trade) error
	GetTrade(ctx context.Context, tradeID string) (*trades.Trade, error)
	// GetTradesByUser returns the user's trades, most recent first.
	GetTradesByUser(ctx context.Context, userID string, limit int) ([]*trades.Trade, error)
	ListTrades(ctx context.Context, limit int) ([]*trades.Trade, error)
	// GetDueTrades returns active trades expired at now, oldest expiry first.
	GetDueTrades(ctx context.Context, now time.Time, limit int) ([]*trades.Trade, error)
	// SettleTrade persists a resolved trade and credits its payout in one transaction.
	// It returns ErrTradeNotActive when the trade has already been settled.
	SettleTrade(ctx context.Context, trade *trades.Trade) error
}

type DepositStorage interface {
	CreateDeposit(ctx context.Context, dep *deposits.Deposit) error
	GetDeposit(ctx context.Context, depositID string) (*deposits.Deposit, error)
	GetDepositsByUser(ctx context.Context, userID string) ([]*deposits.Deposit, error)
	// ListDeposits returns deposits in any of the statuses, all deposits when none are given.
	ListDeposits(ctx context.Context, statuses ...deposits.Status) ([]*deposits.Deposit, error)
	// ReviewDeposit applies the decision to a pending deposit. A confirmed deposit credits the user balance.
	ReviewDeposit(ctx context.Context, depositID string, decision deposits.Status, note string) (*deposits.Deposit, error)
}

type WithdrawalStorage interface {
	// CreateWithdrawal holds the amount on the user balance and inserts the pending withdrawal.
	CreateWithdrawal(ctx context.Context, withdrawal *withdrawals.Withdrawal) error
	GetWithdrawal(ctx context.Context, withdrawalID string) (*withdrawals.Withdrawal, error)
	GetWithdrawalsByUser(ctx context.Context, userID string) ([]*withdrawals.Withdrawal, error)
	ListWithdrawals(ctx context.Context, statuses ...withdrawals.Status) ([]*withdrawals.Withdrawal, error)
	// ReviewWithdrawal applies the decision to a pending withdrawal. Completion pays out the held funds,
	// rejection releases them back to the current balance.
	ReviewWithdrawal(
		ctx context.Context, withdrawalID string, decision withdrawals.Status, note string,
	) (*withdrawals.Withdrawal, error)
}

type Storage interface {
	UserStorage
	UserBalanceStorage
	TradeStorage
	DepositStorage
	WithdrawalStorage
	Close() error
	Ping(ctx context.Context) error
}

func NewStorage(store Storage) Storage {
	return store
}
