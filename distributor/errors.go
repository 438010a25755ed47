package distributor

import "errors"

var (
	// ErrPermissionDenied indicates an admin-only operation was attempted
	// by a non-admin account.
	ErrPermissionDenied = errors.New("distributor: permission denied")

	// ErrCheckpointCooldown indicates a public token checkpoint was
	// attempted before the cooldown window elapsed.
	ErrCheckpointCooldown = errors.New("distributor: checkpoint cooldown has not elapsed")

	// ErrOracleUnavailable indicates the voting-power oracle failed to
	// answer for a requested timestamp. This is a hard failure: the oracle
	// is expected to be deterministic and always answerable.
	ErrOracleUnavailable = errors.New("distributor: voting power oracle unavailable")

	// ErrNoPendingAdmin indicates ApplyAdmin was called with no admin
	// rotation committed.
	ErrNoPendingAdmin = errors.New("distributor: no pending admin to apply")

	// ErrNoMeta indicates the store holds no distributor metadata yet.
	ErrNoMeta = errors.New("distributor: store has no metadata")
)
