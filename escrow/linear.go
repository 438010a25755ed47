package escrow

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/epoch"
	"github.com/vedistorg/libvedist-go/types"
)

// MaxLockTime is the longest lock duration, four years in seconds. The
// voting power of a lock decays linearly from amount*(unlock-now)/MaxLockTime
// to zero at the unlock time.
const MaxLockTime = 4 * 365 * 86400

// window is one historical lock interval for an account. Voting power is
// positive on [start, end) and zero outside it.
type window struct {
	slope     *uint256.Int // amount / MaxLockTime
	start     uint64
	end       uint64 // unlock time, floored to a week boundary
	withdrawn bool
}

// LinearEscrow is a deterministic in-memory voting escrow with the linear
// decay curve of the lock engine. It records full lock history so that
// BalanceAt and TotalSupplyAt stay answerable for arbitrary past instants,
// which is what the distribution engine requires of its oracle.
type LinearEscrow struct {
	mu    sync.RWMutex
	locks map[types.Address][]window
}

// Compile-time interface check.
var _ Oracle = (*LinearEscrow)(nil)

// NewLinearEscrow returns an empty escrow.
func NewLinearEscrow() *LinearEscrow {
	return &LinearEscrow{locks: make(map[types.Address][]window)}
}

// CreateLock locks amount for account until unlockTime, as observed at now.
// The unlock time is floored to a week boundary. An account may hold at most
// one active lock; a new lock may be created once the previous one has been
// withdrawn.
func (e *LinearEscrow) CreateLock(account types.Address, amount *uint256.Int, unlockTime, now uint64) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	end := epoch.Floor(unlockTime)
	if end <= now {
		return ErrUnlockInPast
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	windows := e.locks[account]
	if n := len(windows); n > 0 && !windows[n-1].withdrawn {
		return ErrLockExists
	}

	slope := new(uint256.Int).Div(amount, uint256.NewInt(MaxLockTime))
	e.locks[account] = append(windows, window{slope: slope, start: now, end: end})
	return nil
}

// Withdraw releases an expired lock so the account may lock again. The
// lock's historical voting power is retained.
func (e *LinearEscrow) Withdraw(account types.Address, now uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	windows := e.locks[account]
	n := len(windows)
	if n == 0 || windows[n-1].withdrawn {
		return ErrNoLock
	}
	if now < windows[n-1].end {
		return ErrLockNotExpired
	}
	windows[n-1].withdrawn = true
	return nil
}

// BalanceAt returns the account's voting power at ts.
func (e *LinearEscrow) BalanceAt(_ context.Context, account types.Address, ts uint64) (*uint256.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bal := new(uint256.Int)
	part := new(uint256.Int)
	for _, w := range e.locks[account] {
		// Windows never overlap, so at most one term is nonzero.
		if ts >= w.start && ts < w.end {
			part.Mul(w.slope, uint256.NewInt(w.end-ts))
			bal.Add(bal, part)
		}
	}
	return bal, nil
}

// TotalSupplyAt returns the sum of all accounts' voting power at ts.
func (e *LinearEscrow) TotalSupplyAt(_ context.Context, ts uint64) (*uint256.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := new(uint256.Int)
	part := new(uint256.Int)
	for _, windows := range e.locks {
		for _, w := range windows {
			if ts >= w.start && ts < w.end {
				part.Mul(w.slope, uint256.NewInt(w.end-ts))
				total.Add(total, part)
			}
		}
	}
	return total, nil
}

// FirstLockTime returns the creation time of the account's earliest lock.
func (e *LinearEscrow) FirstLockTime(_ context.Context, account types.Address) (uint64, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	windows := e.locks[account]
	if len(windows) == 0 {
		return 0, false, nil
	}
	return windows[0].start, true, nil
}
