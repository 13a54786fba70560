// Package ticketing implements the ticket lifecycle: one-time
// initialization, tier management, purchases, refunds, and validation.
// Tickets move Minted -> Valid -> Refunded; the refunded state is
// terminal and the backing token is burned in the same operation.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"ticketd/internal/domain"
	"ticketd/internal/ledger"
	"ticketd/internal/observability"
	"ticketd/internal/payments"
	"ticketd/internal/pricing"
	"ticketd/internal/storage"
)

// Default pricing configuration seeded at initialization.
const (
	DefaultUpdateFrequency     int64 = 3600
	DefaultOraclePair                = "XLM/USD"
	DefaultMaxOracleAgeSeconds int64 = 86400
)

// Service coordinates stores, the token ledger, payments, and the
// pricing engine. Mutating operations are serialized, so each runs as
// one atomic unit against the in-process state.
type Service struct {
	mu sync.Mutex

	config  storage.ConfigStore
	tiers   storage.TierStore
	tickets storage.TicketStore
	tokens  ledger.TokenLedger
	pay     payments.Transferer
	engine  *pricing.Engine

	now    func() time.Time
	logger *log.Logger

	// Seeded into the pricing configuration at Initialize.
	oracleEndpoint string
	dexEndpoint    string
	oraclePair     string
	maxOracleAge   int64
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithClock sets a custom clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the operation logger.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithOracleDefaults sets the oracle endpoints, pair, and staleness
// window seeded into the pricing configuration at Initialize. Empty or
// zero values fall back to the package defaults. The admin can replace
// all of them later through SetPricingConfig.
func WithOracleDefaults(endpoint, dexEndpoint, pair string, maxAgeSeconds int64) ServiceOption {
	return func(s *Service) {
		s.oracleEndpoint = endpoint
		s.dexEndpoint = dexEndpoint
		if pair != "" {
			s.oraclePair = pair
		}
		if maxAgeSeconds > 0 {
			s.maxOracleAge = maxAgeSeconds
		}
	}
}

// NewService creates a ticketing service.
func NewService(
	config storage.ConfigStore,
	tiers storage.TierStore,
	tickets storage.TicketStore,
	tokens ledger.TokenLedger,
	pay payments.Transferer,
	engine *pricing.Engine,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		config:  config,
		tiers:   tiers,
		tickets: tickets,
		tokens:  tokens,
		pay:     pay,
		engine:  engine,
		now:     time.Now,

		oraclePair:   DefaultOraclePair,
		maxOracleAge: DefaultMaxOracleAgeSeconds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize sets up the instance exactly once: the admin identity, the
// event timing, the default pricing configuration, and the token
// collection metadata.
func (s *Service) Initialize(ctx context.Context, admin domain.Address, name, symbol, uri string, startTime, refundCutoff int64) error {
	if err := admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info := domain.EventInfo{
		StartTime:        startTime,
		RefundCutoffTime: refundCutoff,
	}
	cfg := domain.PricingConfig{
		OracleEndpoint:       s.oracleEndpoint,
		DexEndpoint:          s.dexEndpoint,
		PriceFloor:           0,
		PriceCeiling:         math.MaxInt64,
		UpdateFrequency:      DefaultUpdateFrequency,
		OraclePair:           s.oraclePair,
		OracleReferencePrice: domain.OracleDecimals,
		MaxOracleAgeSeconds:  s.maxOracleAge,
	}

	if err := s.config.Initialize(ctx, admin, info, cfg); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return ErrAlreadyInitialized
		}
		return fmt.Errorf("initialize: %w", err)
	}

	if err := s.tokens.SetMetadata(ctx, ledger.Metadata{Name: name, Symbol: symbol, URI: uri}); err != nil {
		return fmt.Errorf("set token metadata: %w", err)
	}

	s.logf("initialized: admin=%s event_start=%d refund_cutoff=%d", admin, startTime, refundCutoff)
	return nil
}

// SetPricingConfig replaces the pricing configuration wholesale.
func (s *Service) SetPricingConfig(ctx context.Context, caller domain.Address, cfg *domain.PricingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.config.SetPricingConfig(ctx, cfg); err != nil {
		return fmt.Errorf("set pricing config: %w", err)
	}
	observability.SetPricingFrozen(cfg.IsFrozen)
	return nil
}

// UpdateOracleReference replaces the oracle reference price used for
// multiplier conversion.
func (s *Service) UpdateOracleReference(ctx context.Context, caller domain.Address, reference int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	cfg, err := s.config.GetPricingConfig(ctx)
	if err != nil {
		return fmt.Errorf("get pricing config: %w", err)
	}
	cfg.OracleReferencePrice = reference
	if err := s.config.SetPricingConfig(ctx, cfg); err != nil {
		return fmt.Errorf("set pricing config: %w", err)
	}
	return nil
}

// EmergencyFreeze toggles frozen pricing. While frozen, price queries
// and purchases use each tier's last recorded price.
func (s *Service) EmergencyFreeze(ctx context.Context, caller domain.Address, frozen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	cfg, err := s.config.GetPricingConfig(ctx)
	if err != nil {
		return fmt.Errorf("get pricing config: %w", err)
	}
	cfg.IsFrozen = frozen
	if err := s.config.SetPricingConfig(ctx, cfg); err != nil {
		return fmt.Errorf("set pricing config: %w", err)
	}
	observability.SetPricingFrozen(frozen)
	s.logf("pricing frozen=%v", frozen)
	return nil
}

// AddTier creates a new tier. It starts active with nothing minted and
// its current price equal to the base price.
func (s *Service) AddTier(ctx context.Context, caller domain.Address, symbol, name string, basePrice int64, maxSupply uint32, strategy domain.PricingStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !strategy.IsValid() {
		return fmt.Errorf("invalid pricing strategy %q", strategy)
	}

	tier := &domain.Tier{
		Symbol:       symbol,
		Name:         name,
		BasePrice:    basePrice,
		CurrentPrice: basePrice,
		MaxSupply:    maxSupply,
		Minted:       0,
		Active:       true,
		Strategy:     strategy,
	}
	if err := s.tiers.Insert(ctx, tier); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return ErrTierExists
		}
		return fmt.Errorf("insert tier: %w", err)
	}

	s.logf("tier added: %s base=%d supply=%d strategy=%s", symbol, basePrice, maxSupply, strategy)
	return nil
}

// GetTicketPrice computes the current price for one ticket in the tier.
// Side-effect free.
func (s *Service) GetTicketPrice(ctx context.Context, symbol string) (int64, error) {
	start := s.now()
	price, err := s.engine.ComputePrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrTierNotFound
		}
		return 0, err
	}
	observability.RecordPriceComputation(symbol, price, s.now().Sub(start).Seconds())
	return price, nil
}

// BatchMint issues amount complimentary tickets to one recipient. The
// tickets record a zero price and count against the tier's supply.
func (s *Service) BatchMint(ctx context.Context, caller, to domain.Address, symbol string, amount uint32) ([]uint64, error) {
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	tier, err := s.tiers.GetBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	if uint64(tier.Minted)+uint64(amount) > uint64(tier.MaxSupply) {
		return nil, ErrSupplyExceeded
	}

	now := s.now().Unix()
	ids := make([]uint64, 0, amount)
	for i := uint32(0); i < amount; i++ {
		id, err := s.tokens.Mint(ctx, to)
		if err != nil {
			return nil, fmt.Errorf("mint token: %w", err)
		}
		tk := &domain.Ticket{
			TokenID:      id,
			TierSymbol:   symbol,
			PurchaseTime: now,
			PricePaid:    0,
			IsValid:      true,
		}
		if err := s.tickets.Insert(ctx, tk); err != nil {
			return nil, fmt.Errorf("insert ticket: %w", err)
		}
		ids = append(ids, id)
	}

	// The counter moves once, after all tokens of the batch exist.
	tier.Minted += amount
	if err := s.tiers.Update(ctx, tier); err != nil {
		return nil, fmt.Errorf("update tier: %w", err)
	}

	observability.RecordMint(symbol, "batch", int(amount))
	s.logf("batch minted %d tickets in %s to %s", amount, symbol, to)
	return ids, nil
}

// Purchase charges the buyer the current tier price and issues one
// ticket. The payment happens before any state changes, so a failed
// transfer leaves everything untouched; a failure after the payment
// unwinds what was minted and reverses the transfer.
func (s *Service) Purchase(ctx context.Context, buyer domain.Address, symbol string) (*domain.Ticket, error) {
	if err := buyer.Validate(); err != nil {
		return nil, fmt.Errorf("buyer: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.adminAddress(ctx)
	if err != nil {
		return nil, err
	}

	tier, err := s.tiers.GetBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	if !tier.Active {
		observability.RecordPurchase(symbol, "inactive")
		return nil, ErrTierInactive
	}
	if tier.SoldOut() {
		observability.RecordPurchase(symbol, "sold_out")
		return nil, ErrTierSoldOut
	}

	price, err := s.engine.ComputePrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("compute price: %w", err)
	}

	ref, err := s.pay.Transfer(ctx, buyer, admin, price)
	if err != nil {
		observability.RecordPurchase(symbol, "payment_failed")
		return nil, fmt.Errorf("payment: %w", err)
	}

	id, err := s.tokens.Mint(ctx, buyer)
	if err != nil {
		s.reversePayment(ctx, admin, buyer, price, ref)
		observability.RecordPurchase(symbol, "mint_failed")
		return nil, fmt.Errorf("mint token: %w", err)
	}

	now := s.now().Unix()
	tk := &domain.Ticket{
		TokenID:      id,
		TierSymbol:   symbol,
		PurchaseTime: now,
		PricePaid:    price,
		IsValid:      true,
	}
	if err := s.tickets.Insert(ctx, tk); err != nil {
		s.unwindMint(ctx, id)
		s.reversePayment(ctx, admin, buyer, price, ref)
		observability.RecordPurchase(symbol, "store_failed")
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	tier.Minted++
	tier.CurrentPrice = price
	if err := s.tiers.Update(ctx, tier); err != nil {
		tk.IsValid = false
		if uerr := s.tickets.Update(ctx, tk); uerr != nil {
			s.logf("ticket %d left valid after failed purchase: %v", id, uerr)
		}
		s.unwindMint(ctx, id)
		s.reversePayment(ctx, admin, buyer, price, ref)
		observability.RecordPurchase(symbol, "store_failed")
		return nil, fmt.Errorf("update tier: %w", err)
	}

	// The purchase is committed at this point; a lost timestamp is not
	// worth charging the buyer for.
	if cfg, err := s.config.GetPricingConfig(ctx); err != nil {
		s.logf("purchase timestamp not recorded: %v", err)
	} else {
		cfg.LastUpdateTime = now
		if err := s.config.SetPricingConfig(ctx, cfg); err != nil {
			s.logf("purchase timestamp not recorded: %v", err)
		}
	}

	observability.RecordPurchase(symbol, "ok")
	observability.RecordMint(symbol, "purchase", 1)
	observability.RecordRevenue(symbol, price)
	observability.MarkPurchase(now)
	s.logf("purchase: token=%d tier=%s buyer=%s price=%s ref=%s",
		id, symbol, buyer, domain.FormatPrice(price), ref)
	return tk, nil
}

// Refund returns the recorded purchase price to the ticket's owner,
// invalidates the ticket, and burns the token. Allowed up to and
// including the refund cutoff.
func (s *Service) Refund(ctx context.Context, caller domain.Address, tokenID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.adminAddress(ctx)
	if err != nil {
		return err
	}

	tk, err := s.tickets.GetByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("get ticket: %w", err)
	}

	owner, err := s.tokens.OwnerOf(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ledger.ErrTokenNotFound) {
			// Token already burned by an earlier refund.
			return ErrTicketInvalid
		}
		return fmt.Errorf("owner of token: %w", err)
	}
	if caller != owner {
		observability.RecordRefund("unauthorized")
		return ErrNotAuthorized
	}

	info, err := s.config.GetEventInfo(ctx)
	if err != nil {
		return fmt.Errorf("get event info: %w", err)
	}
	if s.now().Unix() > info.RefundCutoffTime {
		observability.RecordRefund("window_closed")
		return ErrRefundWindowClosed
	}

	if !tk.IsValid {
		observability.RecordRefund("invalid")
		return ErrTicketInvalid
	}

	if _, err := s.pay.Transfer(ctx, admin, owner, tk.PricePaid); err != nil {
		observability.RecordRefund("payment_failed")
		return fmt.Errorf("refund payment: %w", err)
	}

	tk.IsValid = false
	if err := s.tickets.Update(ctx, tk); err != nil {
		// Take the refund back; the ticket is still valid.
		if _, rerr := s.pay.Transfer(ctx, owner, admin, tk.PricePaid); rerr != nil {
			s.logf("refund reversal failed: token=%d owner=%s amount=%s err=%v",
				tokenID, owner, domain.FormatPrice(tk.PricePaid), rerr)
		}
		observability.RecordRefund("store_failed")
		return fmt.Errorf("update ticket: %w", err)
	}
	if err := s.tokens.Burn(ctx, tokenID); err != nil {
		// The ticket is already invalid, which is what blocks reuse.
		s.logf("token %d not burned after refund: %v", tokenID, err)
	}

	observability.RecordRefund("ok")
	s.logf("refund: token=%d owner=%s amount=%s", tokenID, owner, domain.FormatPrice(tk.PricePaid))
	return nil
}

// ValidateTicket reports whether a ticket is known and still valid.
func (s *Service) ValidateTicket(ctx context.Context, tokenID uint64) (bool, error) {
	tk, err := s.tickets.GetByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get ticket: %w", err)
	}
	return tk.IsValid, nil
}

// GetTicket returns a ticket by token id.
func (s *Service) GetTicket(ctx context.Context, tokenID uint64) (*domain.Ticket, error) {
	tk, err := s.tickets.GetByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return tk, nil
}

// GetTier returns a tier by symbol.
func (s *Service) GetTier(ctx context.Context, symbol string) (*domain.Tier, error) {
	tier, err := s.tiers.GetBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return tier, nil
}

// ListTiers returns all tiers ordered by symbol.
func (s *Service) ListTiers(ctx context.Context) ([]*domain.Tier, error) {
	return s.tiers.List(ctx)
}

// GetPricingConfig returns the current pricing configuration.
func (s *Service) GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	cfg, err := s.config.GetPricingConfig(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("get pricing config: %w", err)
	}
	return cfg, nil
}

// GetEventInfo returns the event timing.
func (s *Service) GetEventInfo(ctx context.Context) (*domain.EventInfo, error) {
	info, err := s.config.GetEventInfo(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("get event info: %w", err)
	}
	return info, nil
}

// Metadata returns the token collection metadata.
func (s *Service) Metadata(ctx context.Context) (ledger.Metadata, error) {
	return s.tokens.Metadata(ctx)
}

// Owner returns the current admin identity. Empty after renouncement.
func (s *Service) Owner(ctx context.Context) (domain.Address, error) {
	return s.adminAddress(ctx)
}

// TransferOwnership starts a two-step ownership transfer. The new owner
// takes over only after AcceptOwnership.
func (s *Service) TransferOwnership(ctx context.Context, caller, newOwner domain.Address) error {
	if err := newOwner.Validate(); err != nil {
		return fmt.Errorf("new owner: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.config.SetPendingOwner(ctx, newOwner); err != nil {
		return fmt.Errorf("set pending owner: %w", err)
	}

	s.logf("ownership transfer started: %s -> %s", caller, newOwner)
	return nil
}

// AcceptOwnership completes a pending ownership transfer. Only the
// pending owner may call it.
func (s *Service) AcceptOwnership(ctx context.Context, caller domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.config.GetPendingOwner(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotAuthorized
		}
		return fmt.Errorf("get pending owner: %w", err)
	}
	if caller != pending {
		return ErrNotAuthorized
	}

	if err := s.config.SetAdmin(ctx, caller); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := s.config.ClearPendingOwner(ctx); err != nil {
		return fmt.Errorf("clear pending owner: %w", err)
	}

	s.logf("ownership accepted by %s", caller)
	return nil
}

// RenounceOwnership clears the admin identity permanently. Admin-only
// operations become impossible afterwards.
func (s *Service) RenounceOwnership(ctx context.Context, caller domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.config.SetAdmin(ctx, ""); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := s.config.ClearPendingOwner(ctx); err != nil {
		return fmt.Errorf("clear pending owner: %w", err)
	}

	s.logf("ownership renounced by %s", caller)
	return nil
}

// adminAddress fetches the stored admin, mapping absence to
// ErrNotInitialized.
// reversePayment returns a captured payment after a later purchase
// step fails. A failed reversal is logged with the original transfer
// reference so the funds can be traced.
func (s *Service) reversePayment(ctx context.Context, admin, buyer domain.Address, amount int64, ref string) {
	if _, err := s.pay.Transfer(ctx, admin, buyer, amount); err != nil {
		s.logf("payment reversal failed: ref=%s buyer=%s amount=%s err=%v",
			ref, buyer, domain.FormatPrice(amount), err)
	}
}

// unwindMint burns a token minted during a purchase that later failed.
func (s *Service) unwindMint(ctx context.Context, tokenID uint64) {
	if err := s.tokens.Burn(ctx, tokenID); err != nil {
		s.logf("token %d left orphaned after failed purchase: %v", tokenID, err)
	}
}

func (s *Service) adminAddress(ctx context.Context) (domain.Address, error) {
	admin, err := s.config.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNotInitialized
		}
		return "", fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

// requireAdmin checks that caller is the current admin. A renounced
// instance authorizes nobody.
func (s *Service) requireAdmin(ctx context.Context, caller domain.Address) (domain.Address, error) {
	admin, err := s.adminAddress(ctx)
	if err != nil {
		return "", err
	}
	if admin == "" || caller != admin {
		return "", ErrNotAuthorized
	}
	return admin, nil
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
