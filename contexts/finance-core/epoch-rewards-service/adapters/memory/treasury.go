package memory

import (
	"context"
	"math/big"
	"sync"

	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
)

// Treasury is an in-memory funding/payout collaborator. Payout decrements
// the live balance atomically; an injected failure leaves the balance
// untouched, which is how tests exercise the commit-then-fail discipline.
type Treasury struct {
	mu        sync.Mutex
	balance   *big.Int
	payoutErr error
}

func NewTreasury(initial *big.Int) *Treasury {
	balance := big.NewInt(0)
	if initial != nil {
		balance = new(big.Int).Set(initial)
	}
	return &Treasury{balance: balance}
}

func (t *Treasury) LivePoolBalance(_ context.Context) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance), nil
}

func (t *Treasury) Deposit(_ context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.balance.Add(t.balance, amount)
	return new(big.Int).Set(t.balance), nil
}

func (t *Treasury) Payout(_ context.Context, _ string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domainerrors.ErrInvalidInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.payoutErr != nil {
		return t.payoutErr
	}
	if t.balance.Cmp(amount) < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	t.balance.Sub(t.balance, amount)
	return nil
}

// FailPayoutsWith makes every subsequent Payout return err; nil restores
// normal behaviour.
func (t *Treasury) FailPayoutsWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payoutErr = err
}
