package escrow

import "errors"

var (
	// ErrLockExists indicates the account already has an active lock.
	ErrLockExists = errors.New("escrow: account already has an active lock")

	// ErrNoLock indicates the account has no active lock.
	ErrNoLock = errors.New("escrow: account has no active lock")

	// ErrLockNotExpired indicates a withdrawal was attempted before the
	// lock's unlock time.
	ErrLockNotExpired = errors.New("escrow: lock has not expired")

	// ErrUnlockInPast indicates the requested unlock time does not lie in
	// the future.
	ErrUnlockInPast = errors.New("escrow: unlock time must be in the future")

	// ErrZeroAmount indicates a lock with a zero token amount.
	ErrZeroAmount = errors.New("escrow: lock amount must be positive")
)
