// Package payments defines the payment transfer capability used for
// ticket purchases and refunds. Transfers are atomic: a failed transfer
// moves no funds.
package payments

import (
	"context"
	"errors"

	"ticketd/internal/domain"
)

var (
	// ErrInsufficientFunds is returned when the source balance cannot
	// cover the transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for negative transfer amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Transferer moves funds between accounts. Amounts are 8-decimal
// fixed-point, matching ticket prices. A zero-amount transfer succeeds
// without moving funds.
type Transferer interface {
	// Transfer moves amount from one account to another and returns a
	// reference for the completed transfer.
	Transfer(ctx context.Context, from, to domain.Address, amount int64) (reference string, err error)
}
