//nolint:wrapcheck
package trades

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
	ErrTradePairEmpty         = errors.New("trade pair is empty")
	ErrTradePairInvalid       = errors.New("trade pair is invalid")
	ErrTradeDirectionInvalid  = errors.New("trade direction is invalid")
	ErrTradeAmountInvalid     = errors.New("trade amount must be positive")
	ErrTradeAmountOutOfRange  = errors.New("trade amount is out of range or has more than 8 decimal places")
	ErrTradeEntryPriceInvalid = errors.New("trade entry price must be positive")
	ErrTradePriceOutOfRange   = errors.New("trade entry price is out of range or has more than 8 decimal places")
	ErrTradeExitPriceInvalid  = errors.New("trade exit price must be positive")
	ErrTradeDurationInvalid   = errors.New("trade duration is out of range")
	ErrTradeNotActive         = errors.New("trade is not active")
)

const (
	MinDuration = 30 * time.Second
	MaxDuration = 300 * time.Second

	maxPairLength = 20
)

type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

func ParseDirection(direction string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(direction))); d {
	case DirectionCall, DirectionPut, DirectionBuy, DirectionSell:
		return d, nil
	default:
		return "", ErrTradeDirectionInvalid
	}
}

// IsUp reports whether the direction bets on a rising price.
func (d Direction) IsUp() bool {
	return d == DirectionCall || d == DirectionBuy
}

func (d Direction) String() string {
	return string(d)
}

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusWon    Status = "WON"
	StatusLost   Status = "LOST"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

type Trade struct {
	ID         string
	UserID     string
	Pair       string
	Direction  Direction
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	Duration   time.Duration
	Status     Status
	ExitPrice  decimal.Decimal
	Payout     decimal.Decimal
	Profit     decimal.Decimal
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ClosedAt   time.Time
}

type Params struct {
	UserID     string
	Pair       string
	Direction  string
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	Duration   time.Duration
}

// NewTrade validates params and returns an ACTIVE trade opened at now.
func NewTrade(params Params, now time.Time) (*Trade, error) {
	if err := users.ValidateID(params.UserID); err != nil {
		return nil, err
	}

	pair, err := NormalizePair(params.Pair)
	if err != nil {
		return nil, err
	}

	direction, err := ParseDirection(params.Direction)
	if err != nil {
		return nil, err
	}

	if !params.Amount.IsPositive() {
		return nil, ErrTradeAmountInvalid
	}

	if balance.ValidateAmount(params.Amount) != nil {
		return nil, ErrTradeAmountOutOfRange
	}

	if !params.EntryPrice.IsPositive() {
		return nil, ErrTradeEntryPriceInvalid
	}

	if balance.ValidateAmount(params.EntryPrice) != nil {
		return nil, ErrTradePriceOutOfRange
	}

	if err := ValidateDuration(params.Duration); err != nil {
		return nil, err
	}

	now = now.UTC()

	return &Trade{
		ID:         uuid.NewString(),
		UserID:     params.UserID,
		Pair:       pair,
		Direction:  direction,
		Amount:     params.Amount,
		EntryPrice: params.EntryPrice,
		Duration:   params.Duration,
		Status:     StatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(params.Duration),
	}, nil
}

// IsDue reports whether an active trade has reached its expiry.
func (t *Trade) IsDue(now time.Time) bool {
	return t.Status == StatusActive && !now.Before(t.ExpiresAt)
}

// Settle resolves an active trade against exitPrice. A winning trade pays out
// amount * payoutRatio, a losing one pays nothing.
func (t *Trade) Settle(exitPrice, payoutRatio decimal.Decimal, now time.Time) error {
	if t.Status != StatusActive {
		return ErrTradeNotActive
	}

	if !exitPrice.IsPositive() {
		return ErrTradeExitPriceInvalid
	}

	t.ExitPrice = exitPrice
	t.Status = Outcome(t.Direction, t.EntryPrice, exitPrice)

	t.Payout = decimal.Zero
	if t.Status == StatusWon {
		t.Payout = t.Amount.Mul(payoutRatio).Round(balance.Precision)
	}

	t.Profit = t.Payout.Sub(t.Amount)
	t.ClosedAt = now.UTC()

	return nil
}

// Outcome is WON when the price moved in the bet direction. An unchanged price loses.
func Outcome(direction Direction, entryPrice, exitPrice decimal.Decimal) Status {
	if direction.IsUp() && exitPrice.GreaterThan(entryPrice) {
		return StatusWon
	}

	if !direction.IsUp() && exitPrice.LessThan(entryPrice) {
		return StatusWon
	}

	return StatusLost
}

// NormalizePair upper-cases an instrument pair such as "eur/usd".
func NormalizePair(pair string) (string, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return "", ErrTradePairEmpty
	}

	if len(pair) > maxPairLength {
		return "", ErrTradePairInvalid
	}

	for _, r := range pair {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '/' && r != '-' && r != '_' {
			return "", ErrTradePairInvalid
		}
	}

	return pair, nil
}

// ValidateDurationSeconds checks a duration given in whole seconds
// before it is converted to a time.Duration.
func ValidateDurationSeconds(seconds int64) error {
	if seconds < int64(MinDuration/time.Second) || seconds > int64(MaxDuration/time.Second) {
		return ErrTradeDurationInvalid
	}

	return nil
}

func ValidateDuration(duration time.Duration) error {
	if duration < MinDuration || duration > MaxDuration {
		return ErrTradeDurationInvalid
	}

	return nil
}
