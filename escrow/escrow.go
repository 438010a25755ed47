// Package escrow defines the voting-power oracle consumed by the
// distribution engine, together with a function-field mock and a
// deterministic linear-decay escrow for local use and testing.
//
// The oracle abstracts the lock engine's historical voting-power curve. The
// distribution engine never reimplements decay math; it only queries this
// interface at epoch boundaries.
package escrow

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/types"
)

// Oracle exposes historical voting power as a function of wall-clock time.
//
// Implementations must be deterministic: repeated queries for the same
// (account, timestamp) pair return the same value. Timestamps before the
// oracle's own genesis yield zero, not an error.
type Oracle interface {
	// BalanceAt returns the account's decayed voting power at ts.
	// Zero if the account had no active lock then.
	BalanceAt(ctx context.Context, account types.Address, ts uint64) (*uint256.Int, error)

	// TotalSupplyAt returns the sum of all accounts' voting power at ts.
	TotalSupplyAt(ctx context.Context, ts uint64) (*uint256.Int, error)

	// FirstLockTime returns the timestamp of the account's earliest recorded
	// lock activity. ok is false if the account has no lock history at all.
	FirstLockTime(ctx context.Context, account types.Address) (first uint64, ok bool, err error)
}
