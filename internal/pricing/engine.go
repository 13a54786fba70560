// Package pricing computes tier ticket prices: strategy adjustments on
// the base price, market multiplier from the oracle resolver, then the
// configured floor/ceiling clamp. All arithmetic is integer
// multiply-then-divide on 8-decimal fixed-point prices, truncating
// toward zero; the multiply is carried in 128 bits so large base
// prices cannot wrap.
package pricing

import (
	"context"
	"fmt"
	"time"

	"ticketd/internal/domain"
	"ticketd/internal/oracle"
	"ticketd/internal/storage"
)

const (
	// PriceIncreaseBPS is the standard-strategy step per supply
	// threshold, in basis points of the base price.
	PriceIncreaseBPS int64 = 500

	// EarlyBirdDiscountBPS is the time-decay discount applied before
	// the early-bird window opens.
	EarlyBirdDiscountBPS int64 = 1000

	// ExperimentMarkupBPS is the flat markup of the B experiment arm.
	ExperimentMarkupBPS int64 = 2000

	// EarlyBirdWindowSeconds is how long before the event start the
	// early-bird discount stops applying.
	EarlyBirdWindowSeconds int64 = 604800
)

// PriceResolver resolves a market reading, or nil when no source is
// available. Satisfied by *oracle.Resolver.
type PriceResolver interface {
	Resolve(ctx context.Context, req oracle.Request) *oracle.Result
}

// Engine computes prices from stored tier and configuration state. It
// is read-only: committing a computed price back to the tier is the
// caller's job.
type Engine struct {
	config   storage.ConfigStore
	tiers    storage.TierStore
	resolver PriceResolver
	now      func() time.Time
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithClock sets a custom clock for strategy time checks.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a pricing engine over the given stores and resolver.
func NewEngine(config storage.ConfigStore, tiers storage.TierStore, resolver PriceResolver, opts ...EngineOption) *Engine {
	e := &Engine{
		config:   config,
		tiers:    tiers,
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputePrice returns the current price for one ticket in the tier.
// When the configuration is frozen it returns the tier's last recorded
// price verbatim, with no oracle call.
func (e *Engine) ComputePrice(ctx context.Context, tierSymbol string) (int64, error) {
	tier, err := e.tiers.GetBySymbol(ctx, tierSymbol)
	if err != nil {
		return 0, fmt.Errorf("get tier %s: %w", tierSymbol, err)
	}

	cfg, err := e.config.GetPricingConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("get pricing config: %w", err)
	}

	if cfg.IsFrozen {
		return tier.CurrentPrice, nil
	}

	info, err := e.config.GetEventInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("get event info: %w", err)
	}

	price := e.strategyPrice(tier, info)

	multiplier := domain.Precision
	result := e.resolver.Resolve(ctx, oracle.Request{
		Pair:           cfg.OraclePair,
		OracleEndpoint: cfg.OracleEndpoint,
		DexEndpoint:    cfg.DexEndpoint,
		MaxAgeSeconds:  cfg.MaxOracleAgeSeconds,
	})
	if result != nil {
		multiplier = oracle.Multiplier(result.Price, cfg.OracleReferencePrice)
	}
	price = domain.MulDiv(price, multiplier, domain.Precision)

	return clamp(price, cfg.PriceFloor, cfg.PriceCeiling), nil
}

// strategyPrice applies the tier's strategy to its base price.
func (e *Engine) strategyPrice(tier *domain.Tier, info *domain.EventInfo) int64 {
	price := tier.BasePrice

	switch tier.Strategy {
	case domain.StrategyStandard:
		price = domain.SaturatingAdd(price, demandAdjustment(tier, PriceIncreaseBPS))
	case domain.StrategyTimeDecay:
		if e.now().Unix() < info.StartTime-EarlyBirdWindowSeconds {
			price -= domain.MulDiv(price, EarlyBirdDiscountBPS, domain.Precision)
		}
	case domain.StrategyAbTestA:
		// A arm: standard demand curve at double the step.
		price = domain.SaturatingAdd(price, demandAdjustment(tier, 2*PriceIncreaseBPS))
	case domain.StrategyAbTestB:
		price = domain.SaturatingAdd(price, domain.MulDiv(price, ExperimentMarkupBPS, domain.Precision))
	}

	return price
}

// demandAdjustment raises the base price by stepBPS for every fifth of
// the supply already minted.
func demandAdjustment(tier *domain.Tier, stepBPS int64) int64 {
	threshold := tier.MaxSupply / 5
	if threshold == 0 {
		threshold = 1
	}
	thresholdsPassed := int64(tier.Minted / threshold)
	return domain.MulDiv(tier.BasePrice, stepBPS*thresholdsPassed, domain.Precision)
}

// clamp bounds price to [floor, ceiling]. Applied ceiling-first, so the
// floor wins when the bounds are inverted.
func clamp(price, floor, ceiling int64) int64 {
	if price > ceiling {
		price = ceiling
	}
	if price < floor {
		price = floor
	}
	return price
}
