package dbmodels

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsAdmin      bool
	IsVerified   bool
	CreatedAt    time.Time
}

type UserBalance struct {
	UserID    string
	Current   decimal.Decimal
	Held      decimal.Decimal
	Withdrawn decimal.Decimal
	UpdatedAt time.Time
}

type Trade struct {
	ID              string
	UserID          string
	Pair            string
	Direction       string
	Amount          decimal.Decimal
	EntryPrice      decimal.Decimal
	DurationSeconds int64
	Status          string
	ExitPrice       decimal.NullDecimal
	Payout          decimal.NullDecimal
	Profit          decimal.NullDecimal
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ClosedAt        sql.NullTime
}

type Deposit struct {
	ID          string
	UserID      string
	Currency    string
	Amount      decimal.Decimal
	Address     string
	Status      string
	AdminNote   string
	CreatedAt   time.Time
	ProcessedAt sql.NullTime
}

type Withdrawal struct {
	ID            string
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	WalletAddress string
	Status        string
	AdminNote     string
	CreatedAt     time.Time
	ProcessedAt   sql.NullTime
}
