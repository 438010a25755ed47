// Package types holds the small shared types used across the library.
package types

import "encoding/hex"

// AddressSize is the length of an account address in bytes.
const AddressSize = 20

// Address identifies an account: a locker, the distributor itself, or the
// admin. It is an opaque 20-byte identifier supplied by the surrounding
// system.
type Address [AddressSize]byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero returns true if the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// AddressFromBytes copies b into an Address. Returns ok=false if b is not
// exactly AddressSize bytes.
func AddressFromBytes(b []byte) (Address, bool) {
	var a Address
	if len(b) != AddressSize {
		return a, false
	}
	copy(a[:], b)
	return a, true
}
