// Package epoch provides the week-alignment arithmetic used by the
// distribution ledgers. An epoch is identified by its starting timestamp,
// which is always a multiple of Week.
package epoch

// Week is the epoch length in seconds (7 days).
const Week = 604800

// Floor returns the start of the epoch containing t.
func Floor(t uint64) uint64 {
	return t / Week * Week
}

// Ceil returns t rounded up to the next epoch boundary. A t already on a
// boundary is returned unchanged.
func Ceil(t uint64) uint64 {
	return (t + Week - 1) / Week * Week
}

// Next returns the epoch following e.
func Next(e uint64) uint64 {
	return e + Week
}
