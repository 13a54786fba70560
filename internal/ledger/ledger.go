// Package ledger defines the token ledger capability backing ticket
// issuance. Tokens are soulbound: the transfer and approval surface
// exists for ledger compatibility but structurally rejects every call.
package ledger

import (
	"context"
	"errors"

	"ticketd/internal/domain"
)

var (
	// ErrSoulbound is returned by every transfer and approval operation.
	ErrSoulbound = errors.New("token is soulbound")

	// ErrTokenNotFound is returned for token ids that were never minted
	// or were burned.
	ErrTokenNotFound = errors.New("token not found")
)

// Metadata is the collection-level token metadata, set once at
// initialization.
type Metadata struct {
	Name   string
	Symbol string
	URI    string
}

// TokenLedger is the token capability used by the ticketing service.
// Mint assigns sequential ids starting at 1; burned ids are never
// reused.
type TokenLedger interface {
	// SetMetadata records the collection metadata.
	SetMetadata(ctx context.Context, meta Metadata) error

	// Metadata returns the collection metadata.
	Metadata(ctx context.Context) (Metadata, error)

	// Mint creates a token owned by to and returns its id.
	Mint(ctx context.Context, to domain.Address) (uint64, error)

	// Burn destroys a token. Returns ErrTokenNotFound for unknown ids.
	Burn(ctx context.Context, tokenID uint64) error

	// OwnerOf returns the owner of a token. Returns ErrTokenNotFound
	// for unknown ids.
	OwnerOf(ctx context.Context, tokenID uint64) (domain.Address, error)

	// BalanceOf returns the number of live tokens owned by owner.
	BalanceOf(ctx context.Context, owner domain.Address) (uint32, error)

	// Transfer always returns ErrSoulbound.
	Transfer(ctx context.Context, from, to domain.Address, tokenID uint64) error

	// TransferFrom always returns ErrSoulbound.
	TransferFrom(ctx context.Context, spender, from, to domain.Address, tokenID uint64) error

	// Approve always returns ErrSoulbound.
	Approve(ctx context.Context, owner, approved domain.Address, tokenID uint64) error

	// ApproveForAll always returns ErrSoulbound.
	ApproveForAll(ctx context.Context, owner, operator domain.Address, approved bool) error

	// GetApproved reports no approval for any live token. Returns
	// ErrTokenNotFound for unknown ids.
	GetApproved(ctx context.Context, tokenID uint64) (domain.Address, error)

	// IsApprovedForAll reports false for every pair.
	IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error)
}
