// Package balance implements the arithmetic of a user's ledger balance.
//
// A balance has three buckets: current funds the user can spend, funds held by
// pending withdrawals, and the running total of completed withdrawals. Every
// method validates before it mutates, so a failed call leaves the balance unchanged.
package balance

import (
	"errors"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountNegative    = errors.New("amount must not be negative")
	ErrAmountPrecision   = errors.New("amount has more than 8 decimal places")
	ErrAmountTooLarge    = errors.New("amount is too large")
)

// Precision is the number of decimal places stored for money and prices.
const Precision = 8

// MaxAmount is the exclusive upper bound of a stored amount, NUMERIC(20, 8).
var MaxAmount = decimal.New(1, 20-Precision)

// ValidateAmount checks that amount fits the stored precision and range.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(Precision)) {
		return ErrAmountPrecision
	}

	if amount.Abs().GreaterThanOrEqual(MaxAmount) {
		return ErrAmountTooLarge
	}

	return nil
}

type Balance struct {
	userID    string
	current   decimal.Decimal
	held      decimal.Decimal
	withdrawn decimal.Decimal
	updatedAt time.Time
}

func NewBalance(userID string, current, held, withdrawn decimal.Decimal) (*Balance, error) {
	if err := users.ValidateID(userID); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &Balance{
		userID:    userID,
		current:   current,
		held:      held,
		withdrawn: withdrawn,
		updatedAt: time.Now().UTC(),
	}, nil
}

func (b *Balance) UserID() string {
	return b.userID
}

func (b *Balance) Current() decimal.Decimal {
	return b.current
}

func (b *Balance) Held() decimal.Decimal {
	return b.held
}

func (b *Balance) Withdrawn() decimal.Decimal {
	return b.withdrawn
}

func (b *Balance) UpdatedAt() time.Time {
	return b.updatedAt
}

func (b *Balance) SetUpdatedAt(updatedAt time.Time) {
	b.updatedAt = updatedAt
}

// Credit adds amount to the current funds.
func (b *Balance) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if b.current.Add(amount).GreaterThanOrEqual(MaxAmount) {
		return ErrAmountTooLarge
	}

	b.current = b.current.Add(amount)
	b.touch()

	return nil
}

// Debit subtracts amount from the current funds.
// It fails with ErrInsufficientFunds when the current funds do not cover the amount.
func (b *Balance) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if b.current.LessThan(amount) {
		return ErrInsufficientFunds
	}

	b.current = b.current.Sub(amount)
	b.touch()

	return nil
}

// Hold moves amount from the current funds to the held bucket.
func (b *Balance) Hold(amount decimal.Decimal) error {
	if err := b.Debit(amount); err != nil {
		return err
	}

	b.held = b.held.Add(amount)

	return nil
}

// Release returns held funds back to the current funds.
func (b *Balance) Release(amount decimal.Decimal) error {
	if err := b.checkHeld(amount); err != nil {
		return err
	}

	b.held = b.held.Sub(amount)
	b.current = b.current.Add(amount)
	b.touch()

	return nil
}

// Settle pays out held funds, moving them to the withdrawn total.
func (b *Balance) Settle(amount decimal.Decimal) error {
	if err := b.checkHeld(amount); err != nil {
		return err
	}

	b.held = b.held.Sub(amount)
	b.withdrawn = b.withdrawn.Add(amount)
	b.touch()

	return nil
}

// Set overrides the current funds. Held and withdrawn buckets are not touched.
func (b *Balance) Set(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrAmountNegative
	}

	if err := ValidateAmount(amount); err != nil {
		return err
	}

	b.current = amount
	b.touch()

	return nil
}

func (b *Balance) checkHeld(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if b.held.LessThan(amount) {
		return ErrInsufficientFunds
	}

	return nil
}

func (b *Balance) touch() {
	b.updatedAt = time.Now().UTC()
}
