//nolint:wrapcheck
package withdrawals

import (
	"errors"
	"strings"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrWithdrawalCurrencyInvalid  = errors.New("withdrawal currency is invalid")
	ErrWithdrawalAmountOutOfRange = errors.New("withdrawal amount is out of range")
	ErrWithdrawalWalletInvalid    = errors.New("withdrawal wallet address is invalid")
	ErrWithdrawalNoteTooLong      = errors.New("withdrawal admin note is too long")
	ErrWithdrawalDecisionInvalid  = errors.New("withdrawal decision is invalid")
	ErrWithdrawalAlreadyProcessed = errors.New("withdrawal already processed")
)

var (
	MinAmount = decimal.NewFromInt(10)
	MaxAmount = decimal.NewFromInt(10_000_000)
)

const (
	maxCurrencyLength = 10
	maxWalletLength   = 255
	maxNoteLength     = 1000
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(status string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(status))); s {
	case StatusPending, StatusCompleted, StatusRejected:
		return s, nil
	default:
		return "", ErrWithdrawalDecisionInvalid
	}
}

func ParseDecision(decision string) (Status, error) {
	status, err := ParseStatus(decision)
	if err != nil || status == StatusPending {
		return "", ErrWithdrawalDecisionInvalid
	}

	return status, nil
}

type Withdrawal struct {
	ID            string
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	WalletAddress string
	Status        Status
	AdminNote     string
	CreatedAt     time.Time
	ProcessedAt   time.Time
}

func NewWithdrawal(userID string, amount decimal.Decimal, currency, walletAddress string) (*Withdrawal, error) {
	if err := users.ValidateID(userID); err != nil {
		return nil, err
	}

	if amount.LessThan(MinAmount) || amount.GreaterThan(MaxAmount) || balance.ValidateAmount(amount) != nil {
		return nil, ErrWithdrawalAmountOutOfRange
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || len(currency) > maxCurrencyLength {
		return nil, ErrWithdrawalCurrencyInvalid
	}

	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" || len(walletAddress) > maxWalletLength {
		return nil, ErrWithdrawalWalletInvalid
	}

	return &Withdrawal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		Currency:      currency,
		WalletAddress: walletAddress,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Review moves a pending withdrawal to the decided terminal status.
func (w *Withdrawal) Review(decision Status, note string) error {
	if decision != StatusCompleted && decision != StatusRejected {
		return ErrWithdrawalDecisionInvalid
	}

	if len(note) > maxNoteLength {
		return ErrWithdrawalNoteTooLong
	}

	if w.Status != StatusPending {
		return ErrWithdrawalAlreadyProcessed
	}

	w.Status = decision
	w.AdminNote = strings.TrimSpace(note)
	w.ProcessedAt = time.Now().UTC()

	return nil
}
