// Package token defines the fee-token collaborator consumed by the
// distribution engine, plus an in-memory implementation for testing.
package token

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/types"
)

// Token is the minimal ledger surface the distribution engine needs from a
// fee token: reading its own balance and paying claims out of it.
type Token interface {
	// BalanceOf returns the token balance held by account.
	BalanceOf(ctx context.Context, account types.Address) (*uint256.Int, error)

	// Transfer moves amount from one account to another. A failed transfer
	// must leave both balances unchanged.
	Transfer(ctx context.Context, from, to types.Address, amount *uint256.Int) error
}
