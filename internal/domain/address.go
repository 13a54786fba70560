package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address is a base58-encoded 32-byte ed25519 public key identifying an
// account (admin, buyer, or external contract endpoint).
type Address string

// ErrInvalidAddress is returned when an address fails validation.
var ErrInvalidAddress = errors.New("invalid address")

// String returns the string representation of Address.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}

// Validate checks that the address decodes to a 32-byte point on the
// ed25519 curve.
func (a Address) Validate() error {
	raw, err := base58.Decode(string(a))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, a, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: %s: expected 32 bytes, got %d", ErrInvalidAddress, a, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: %s: not on curve", ErrInvalidAddress, a)
	}
	return nil
}
