package storage

import (
	"context"

	"ticketd/internal/domain"
)

// ConfigStore provides access to the singleton instance records: the
// admin identity, event timing, and the global pricing configuration.
type ConfigStore interface {
	// Initialize creates the instance records exactly once. Returns
	// ErrDuplicateKey if the instance is already initialized.
	Initialize(ctx context.Context, admin domain.Address, info domain.EventInfo, cfg domain.PricingConfig) error

	// Initialized reports whether Initialize has been called.
	Initialized(ctx context.Context) (bool, error)

	// GetAdmin retrieves the admin identity. Returns ErrNotFound before
	// initialization.
	GetAdmin(ctx context.Context) (domain.Address, error)

	// SetAdmin replaces the admin identity. An empty address records a
	// renounced instance.
	SetAdmin(ctx context.Context, admin domain.Address) error

	// GetPendingOwner retrieves the pending ownership-transfer target.
	// Returns ErrNotFound when no transfer is in flight.
	GetPendingOwner(ctx context.Context) (domain.Address, error)

	// SetPendingOwner records an ownership-transfer target.
	SetPendingOwner(ctx context.Context, owner domain.Address) error

	// ClearPendingOwner removes any pending ownership-transfer target.
	ClearPendingOwner(ctx context.Context) error

	// GetEventInfo retrieves the event timing. Returns ErrNotFound before
	// initialization.
	GetEventInfo(ctx context.Context) (*domain.EventInfo, error)

	// GetPricingConfig retrieves the pricing configuration. Returns
	// ErrNotFound before initialization.
	GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error)

	// SetPricingConfig replaces the pricing configuration.
	SetPricingConfig(ctx context.Context, cfg *domain.PricingConfig) error
}

// TierStore provides access to tier records keyed by symbol.
type TierStore interface {
	// Insert adds a new tier. Returns ErrDuplicateKey if the symbol exists.
	Insert(ctx context.Context, t *domain.Tier) error

	// GetBySymbol retrieves a tier. Returns ErrNotFound if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Tier, error)

	// Update replaces an existing tier. Returns ErrNotFound if not exists.
	Update(ctx context.Context, t *domain.Tier) error

	// List retrieves all tiers, ordered by symbol ASC.
	List(ctx context.Context) ([]*domain.Tier, error)
}

// TicketStore provides access to ticket records keyed by token id.
type TicketStore interface {
	// Insert adds a new ticket. Returns ErrDuplicateKey if the token id exists.
	Insert(ctx context.Context, tk *domain.Ticket) error

	// GetByTokenID retrieves a ticket. Returns ErrNotFound if not exists.
	GetByTokenID(ctx context.Context, tokenID uint64) (*domain.Ticket, error)

	// Update replaces an existing ticket. Returns ErrNotFound if not exists.
	Update(ctx context.Context, tk *domain.Ticket) error

	// ListByTier retrieves all tickets for a tier, ordered by token id ASC.
	ListByTier(ctx context.Context, symbol string) ([]*domain.Ticket, error)
}
