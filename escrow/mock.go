package escrow

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/types"
)

// MockOracle is a test double for Oracle.
// All function fields must be set before the corresponding method is called.
type MockOracle struct {
	BalanceAtFn     func(ctx context.Context, account types.Address, ts uint64) (*uint256.Int, error)
	TotalSupplyAtFn func(ctx context.Context, ts uint64) (*uint256.Int, error)
	FirstLockTimeFn func(ctx context.Context, account types.Address) (uint64, bool, error)
}

func (m *MockOracle) BalanceAt(ctx context.Context, account types.Address, ts uint64) (*uint256.Int, error) {
	return m.BalanceAtFn(ctx, account, ts)
}

func (m *MockOracle) TotalSupplyAt(ctx context.Context, ts uint64) (*uint256.Int, error) {
	return m.TotalSupplyAtFn(ctx, ts)
}

func (m *MockOracle) FirstLockTime(ctx context.Context, account types.Address) (uint64, bool, error) {
	return m.FirstLockTimeFn(ctx, account)
}
