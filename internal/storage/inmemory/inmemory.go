package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/domain/withdrawals"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/shopspring/decimal"
)

var _ storage.Storage = (*Storage)(nil)

// Storage keeps every record in process memory. A single lock makes each
// multi-record mutation atomic. Records are copied on the way in and out.
type Storage struct {
	mu          sync.RWMutex
	users       map[string]*users.User
	emails      map[string]string
	balances    map[string]*balance.Balance
	trades      map[string]*trades.Trade
	deposits    map[string]*deposits.Deposit
	withdrawals map[string]*withdrawals.Withdrawal
}

func NewStorage() *Storage {
	return &Storage{
		users:       make(map[string]*users.User),
		emails:      make(map[string]string),
		balances:    make(map[string]*balance.Balance),
		trades:      make(map[string]*trades.Trade),
		deposits:    make(map[string]*deposits.Deposit),
		withdrawals: make(map[string]*withdrawals.Withdrawal),
	}
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) Ping(_ context.Context) error {
	return nil
}

func (s *Storage) CreateUser(_ context.Context, usr *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[usr.ID]; ok {
		return storage.ErrUserAlreadyExists
	}

	if _, ok := s.emails[usr.Email]; ok {
		return storage.ErrUserAlreadyExists
	}

	if _, ok := s.balances[usr.ID]; ok {
		return storage.ErrUserBalanceAlreadyExists
	}

	blnc, err := balance.NewBalance(usr.ID, decimal.Zero, decimal.Zero, decimal.Zero)
	if err != nil {
		return err //nolint:wrapcheck
	}

	s.users[usr.ID] = cloneUser(usr)
	s.emails[usr.Email] = usr.ID
	s.balances[usr.ID] = blnc

	return nil
}

func (s *Storage) GetUser(_ context.Context, userID string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return cloneUser(usr), nil
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.emails[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return cloneUser(s.users[userID]), nil
}

func (s *Storage) UpdateUser(_ context.Context, usr *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[usr.ID]
	if !ok {
		return storage.ErrUserNotFound
	}

	updated := cloneUser(stored)
	updated.FirstName = usr.FirstName
	updated.LastName = usr.LastName
	updated.PasswordHash = usr.PasswordHash
	updated.IsAdmin = usr.IsAdmin
	updated.IsVerified = usr.IsVerified

	s.users[usr.ID] = updated

	return nil
}

func (s *Storage) ListUsers(_ context.Context) ([]*storage.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*storage.UserAccount, 0, len(s.users))

	for id, usr := range s.users {
		accounts = append(accounts, &storage.UserAccount{
			User:    cloneUser(usr),
			Balance: cloneBalance(s.balances[id]),
		})
	}

	sort.Slice(accounts, func(i, j int) bool {
		return newerFirst(accounts[i].User.CreatedAt, accounts[j].User.CreatedAt, accounts[i].User.ID, accounts[j].User.ID)
	})

	return accounts, nil
}

func (s *Storage) GetUserBalance(_ context.Context, userID string) (*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blnc, ok := s.balances[userID]
	if !ok {
		return nil, storage.ErrUserBalanceNotFound
	}

	return cloneBalance(blnc), nil
}

func (s *Storage) CreditUserBalance(_ context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateBalance(userID, func(b *balance.Balance) error {
		return b.Credit(amount)
	})
}

func (s *Storage) DebitUserBalance(_ context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateBalance(userID, func(b *balance.Balance) error {
		return b.Debit(amount)
	})
}

func (s *Storage) SetUserBalance(_ context.Context, userID string, amount decimal.Decimal) (*balance.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateBalance(userID, func(b *balance.Balance) error {
		return b.Set(amount)
	})
}

// updateBalance applies fn to a copy of the balance and stores it only on success.
// The caller must hold the write lock.
func (s *Storage) updateBalance(userID string, fn func(b *balance.Balance) error) (*balance.Balance, error) {
	stored, ok := s.balances[userID]
	if !ok {
		return nil, storage.ErrUserBalanceNotFound
	}

	blnc := cloneBalance(stored)

	if err := fn(blnc); err != nil {
		if errors.Is(err, balance.ErrInsufficientFunds) {
			return nil, storage.ErrUserBalanceNotEnough
		}

		return nil, err //nolint:wrapcheck
	}

	s.balances[userID] = blnc

	return cloneBalance(blnc), nil
}

func (s *Storage) OpenTrade(_ context.Context, trade *trades.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[trade.ID]; ok {
		return storage.ErrTradeAlreadyExists
	}

	if _, ok := s.users[trade.UserID]; !ok {
		return storage.ErrUserNotFound
	}

	if _, err := s.updateBalance(trade.UserID, func(b *balance.Balance) error {
		return b.Debit(trade.Amount)
	}); err != nil {
		return err
	}

	s.trades[trade.ID] = cloneTrade(trade)

	return nil
}

func (s *Storage) GetTrade(_ context.Context, tradeID string) (*trades.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trade, ok := s.trades[tradeID]
	if !ok {
		return nil, storage.ErrTradeNotFound
	}

	return cloneTrade(trade), nil
}

func (s *Storage) GetTradesByUser(_ context.Context, userID string, limit int) ([]*trades.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterTrades(func(t *trades.Trade) bool { return t.UserID == userID }, limit), nil
}

func (s *Storage) ListTrades(_ context.Context, limit int) ([]*trades.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterTrades(func(*trades.Trade) bool { return true }, limit), nil
}

func (s *Storage) filterTrades(match func(t *trades.Trade) bool, limit int) []*trades.Trade {
	result := make([]*trades.Trade, 0)

	for _, trade := range s.trades {
		if match(trade) {
			result = append(result, cloneTrade(trade))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})

	return truncate(result, limit)
}

func (s *Storage) GetDueTrades(_ context.Context, now time.Time, limit int) ([]*trades.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*trades.Trade, 0)

	for _, trade := range s.trades {
		if trade.IsDue(now) {
			result = append(result, cloneTrade(trade))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpiresAt.Before(result[j].ExpiresAt)
	})

	return truncate(result, limit), nil
}

func (s *Storage) SettleTrade(_ context.Context, trade *trades.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.trades[trade.ID]
	if !ok {
		return storage.ErrTradeNotFound
	}

	if stored.Status != trades.StatusActive {
		return storage.ErrTradeNotActive
	}

	if trade.Payout.IsPositive() {
		if _, err := s.updateBalance(trade.UserID, func(b *balance.Balance) error {
			return b.Credit(trade.Payout)
		}); err != nil {
			return err
		}
	}

	settled := cloneTrade(stored)
	settled.Status = trade.Status
	settled.ExitPrice = trade.ExitPrice
	settled.Payout = trade.Payout
	settled.Profit = trade.Profit
	settled.ClosedAt = trade.ClosedAt

	s.trades[trade.ID] = settled

	return nil
}

func (s *Storage) CreateDeposit(_ context.Context, dep *deposits.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[dep.UserID]; !ok {
		return storage.ErrUserNotFound
	}

	d := *dep
	s.deposits[dep.ID] = &d

	return nil
}

func (s *Storage) GetDeposit(_ context.Context, depositID string) (*deposits.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dep, ok := s.deposits[depositID]
	if !ok {
		return nil, storage.ErrDepositNotFound
	}

	d := *dep

	return &d, nil
}

func (s *Storage) GetDepositsByUser(_ context.Context, userID string) ([]*deposits.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterDeposits(func(d *deposits.Deposit) bool { return d.UserID == userID }), nil
}

func (s *Storage) ListDeposits(_ context.Context, statuses ...deposits.Status) ([]*deposits.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterDeposits(func(d *deposits.Deposit) bool {
		return len(statuses) == 0 || contains(statuses, d.Status)
	}), nil
}

func (s *Storage) filterDeposits(match func(d *deposits.Deposit) bool) []*deposits.Deposit {
	result := make([]*deposits.Deposit, 0)

	for _, dep := range s.deposits {
		if match(dep) {
			d := *dep
			result = append(result, &d)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})

	return result
}

func (s *Storage) ReviewDeposit(
	_ context.Context, depositID string, decision deposits.Status, note string,
) (*deposits.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.deposits[depositID]
	if !ok {
		return nil, storage.ErrDepositNotFound
	}

	dep := *stored

	if err := dep.Review(decision, note); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if dep.Status == deposits.StatusConfirmed {
		if _, err := s.updateBalance(dep.UserID, func(b *balance.Balance) error {
			return b.Credit(dep.Amount)
		}); err != nil {
			return nil, err
		}
	}

	s.deposits[depositID] = &dep

	result := dep

	return &result, nil
}

func (s *Storage) CreateWithdrawal(_ context.Context, withdrawal *withdrawals.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[withdrawal.UserID]; !ok {
		return storage.ErrUserNotFound
	}

	if _, err := s.updateBalance(withdrawal.UserID, func(b *balance.Balance) error {
		return b.Hold(withdrawal.Amount)
	}); err != nil {
		return err
	}

	w := *withdrawal
	s.withdrawals[withdrawal.ID] = &w

	return nil
}

func (s *Storage) GetWithdrawal(_ context.Context, withdrawalID string) (*withdrawals.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	withdrawal, ok := s.withdrawals[withdrawalID]
	if !ok {
		return nil, storage.ErrWithdrawalNotFound
	}

	w := *withdrawal

	return &w, nil
}

func (s *Storage) GetWithdrawalsByUser(_ context.Context, userID string) ([]*withdrawals.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterWithdrawals(func(w *withdrawals.Withdrawal) bool { return w.UserID == userID }), nil
}

func (s *Storage) ListWithdrawals(_ context.Context, statuses ...withdrawals.Status) ([]*withdrawals.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterWithdrawals(func(w *withdrawals.Withdrawal) bool {
		return len(statuses) == 0 || contains(statuses, w.Status)
	}), nil
}

func (s *Storage) filterWithdrawals(match func(w *withdrawals.Withdrawal) bool) []*withdrawals.Withdrawal {
	result := make([]*withdrawals.Withdrawal, 0)

	for _, withdrawal := range s.withdrawals {
		if match(withdrawal) {
			w := *withdrawal
			result = append(result, &w)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})

	return result
}

func (s *Storage) ReviewWithdrawal(
	_ context.Context, withdrawalID string, decision withdrawals.Status, note string,
) (*withdrawals.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.withdrawals[withdrawalID]
	if !ok {
		return nil, storage.ErrWithdrawalNotFound
	}

	withdrawal := *stored

	if err := withdrawal.Review(decision, note); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if _, err := s.updateBalance(withdrawal.UserID, func(b *balance.Balance) error {
		if withdrawal.Status == withdrawals.StatusCompleted {
			return b.Settle(withdrawal.Amount)
		}

		return b.Release(withdrawal.Amount)
	}); err != nil {
		return nil, err
	}

	s.withdrawals[withdrawalID] = &withdrawal

	result := withdrawal

	return &result, nil
}

func cloneUser(usr *users.User) *users.User {
	u := *usr

	return &u
}

func cloneBalance(blnc *balance.Balance) *balance.Balance {
	if blnc == nil {
		return nil
	}

	b := *blnc

	return &b
}

func cloneTrade(trade *trades.Trade) *trades.Trade {
	t := *trade

	return &t
}

func contains[T comparable](items []T, item T) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}

	return false
}

func newerFirst(a, b time.Time, aID, bID string) bool {
	if a.Equal(b) {
		return aID > bID
	}

	return a.After(b)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}
