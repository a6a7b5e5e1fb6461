//nolint:wrapcheck
package deposits

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
	ErrDepositCurrencyInvalid  = errors.New("deposit currency is invalid")
	ErrDepositAmountOutOfRange = errors.New("deposit amount is out of range")
	ErrDepositAddressInvalid   = errors.New("deposit address is invalid")
	ErrDepositNoteTooLong      = errors.New("deposit admin note is too long")
	ErrDepositDecisionInvalid  = errors.New("deposit decision is invalid")
	ErrDepositAlreadyProcessed = errors.New("deposit already processed")
)

var (
	MinAmount = decimal.NewFromInt(500)
	MaxAmount = decimal.NewFromInt(10_000_000)
)

const (
	maxCurrencyLength = 10
	maxAddressLength  = 255
	maxNoteLength     = 1000
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusRejected  Status = "Rejected"
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(status string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending":
		return StatusPending, nil
	case "confirmed":
		return StatusConfirmed, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return "", ErrDepositDecisionInvalid
	}
}

// ParseDecision accepts only the terminal statuses an admin may choose.
func ParseDecision(decision string) (Status, error) {
	status, err := ParseStatus(decision)
	if err != nil || status == StatusPending {
		return "", ErrDepositDecisionInvalid
	}

	return status, nil
}

type Deposit struct {
	ID          string
	UserID      string
	Currency    string
	Amount      decimal.Decimal
	Address     string
	Status      Status
	AdminNote   string
	CreatedAt   time.Time
	ProcessedAt time.Time
}

func NewDeposit(userID, currency string, amount decimal.Decimal, address string) (*Deposit, error) {
	if err := users.ValidateID(userID); err != nil {
		return nil, err
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || len(currency) > maxCurrencyLength {
		return nil, ErrDepositCurrencyInvalid
	}

	if amount.LessThan(MinAmount) || amount.GreaterThan(MaxAmount) || balance.ValidateAmount(amount) != nil {
		return nil, ErrDepositAmountOutOfRange
	}

	address = strings.TrimSpace(address)
	if address == "" || len(address) > maxAddressLength {
		return nil, ErrDepositAddressInvalid
	}

	return &Deposit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Currency:  currency,
		Amount:    amount,
		Address:   address,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Review moves a pending deposit to the decided terminal status.
func (d *Deposit) Review(decision Status, note string) error {
	if decision != StatusConfirmed && decision != StatusRejected {
		return ErrDepositDecisionInvalid
	}

	if len(note) > maxNoteLength {
		return ErrDepositNoteTooLong
	}

	if d.Status != StatusPending {
		return ErrDepositAlreadyProcessed
	}

	d.Status = decision
	d.AdminNote = strings.TrimSpace(note)
	d.ProcessedAt = time.Now().UTC()

	return nil
}
