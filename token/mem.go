package token

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/types"
)

// MemToken is an in-memory token ledger for testing. Balances are created
// lazily; Mint credits an account out of thin air.
type MemToken struct {
	mu       sync.RWMutex
	balances map[types.Address]*uint256.Int
}

// Compile-time interface check.
var _ Token = (*MemToken)(nil)

// NewMemToken returns an empty in-memory token.
func NewMemToken() *MemToken {
	return &MemToken{balances: make(map[types.Address]*uint256.Int)}
}

// Mint credits amount to account.
func (t *MemToken) Mint(account types.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal, ok := t.balances[account]
	if !ok {
		bal = new(uint256.Int)
		t.balances[account] = bal
	}
	bal.Add(bal, amount)
}

// BalanceOf returns the balance held by account.
func (t *MemToken) BalanceOf(_ context.Context, account types.Address) (*uint256.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bal, ok := t.balances[account]
	if !ok {
		return new(uint256.Int), nil
	}
	return bal.Clone(), nil
}

// Transfer moves amount from one account to another.
func (t *MemToken) Transfer(_ context.Context, from, to types.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrNilAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	src, ok := t.balances[from]
	if !ok || src.Lt(amount) {
		return ErrInsufficientBalance
	}
	dst, ok := t.balances[to]
	if !ok {
		dst = new(uint256.Int)
		t.balances[to] = dst
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}
