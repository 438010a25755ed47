package token

import "errors"

var (
	// ErrInsufficientBalance indicates a transfer larger than the sender's
	// balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrNilAmount indicates a nil amount was passed.
	ErrNilAmount = errors.New("token: amount must not be nil")
)
