package pricing

import (
	"context"
	"math"
	"testing"
	"time"

	"ticketd/internal/domain"
	"ticketd/internal/oracle"
	"ticketd/internal/storage/memory"
)

// fixedResolver always returns the same reading, or nil.
type fixedResolver struct {
	result *oracle.Result
}

func (r *fixedResolver) Resolve(_ context.Context, _ oracle.Request) *oracle.Result {
	return r.result
}

// neutralResolver returns a reading equal to the default reference, so
// the multiplier is exactly 1x.
func neutralResolver() *fixedResolver {
	return &fixedResolver{result: &oracle.Result{Price: domain.OracleDecimals, FromPrimary: true}}
}

type engineFixture struct {
	config *memory.ConfigStore
	tiers  *memory.TierStore
	engine *Engine
}

func newEngineFixture(t *testing.T, resolver PriceResolver, cfg domain.PricingConfig, info domain.EventInfo, now int64) *engineFixture {
	t.Helper()

	config := memory.NewConfigStore()
	tiers := memory.NewTierStore()

	admin := domain.Address("admin")
	if err := config.Initialize(context.Background(), admin, info, cfg); err != nil {
		t.Fatalf("initialize config: %v", err)
	}

	engine := NewEngine(config, tiers, resolver, WithClock(func() time.Time {
		return time.Unix(now, 0)
	}))

	return &engineFixture{config: config, tiers: tiers, engine: engine}
}

func defaultConfig() domain.PricingConfig {
	return domain.PricingConfig{
		PriceFloor:           0,
		PriceCeiling:         math.MaxInt64,
		OraclePair:           "XLM/USD",
		OracleReferencePrice: domain.OracleDecimals,
		MaxOracleAgeSeconds:  86400,
	}
}

func mustInsertTier(t *testing.T, f *engineFixture, tier domain.Tier) {
	t.Helper()
	if err := f.tiers.Insert(context.Background(), &tier); err != nil {
		t.Fatalf("insert tier: %v", err)
	}
}

func TestComputePrice_StandardDemandCurve(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000, CurrentPrice: 1000_00000000,
		MaxSupply: 10, Minted: 2, Active: true, Strategy: domain.StrategyStandard,
	})

	// One threshold of two passed: base + 5%.
	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1050_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_StandardNoThresholds(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000, CurrentPrice: 1000_00000000,
		MaxSupply: 10, Minted: 1, Active: true, Strategy: domain.StrategyStandard,
	})

	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1000_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_ZeroMaxSupply(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000,
		MaxSupply: 0, Minted: 0, Active: true, Strategy: domain.StrategyStandard,
	})

	// Threshold size falls back to 1; no division by zero.
	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1000_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_TimeDecayEarlyBird(t *testing.T) {
	start := int64(10_000_000)
	info := domain.EventInfo{StartTime: start}

	tests := []struct {
		name string
		now  int64
		want int64
	}{
		{"well before window", start - EarlyBirdWindowSeconds - 1, 900_00000000},
		{"at window boundary", start - EarlyBirdWindowSeconds, 1000_00000000},
		{"inside window", start - 100, 1000_00000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, neutralResolver(), defaultConfig(), info, tt.now)
			mustInsertTier(t, f, domain.Tier{
				Symbol: "GA", BasePrice: 1000_00000000,
				MaxSupply: 10, Active: true, Strategy: domain.StrategyTimeDecay,
			})

			price, err := f.engine.ComputePrice(context.Background(), "GA")
			if err != nil {
				t.Fatalf("ComputePrice: %v", err)
			}
			if price != tt.want {
				t.Errorf("price: got %d, want %d", price, tt.want)
			}
		})
	}
}

func TestComputePrice_ExperimentArmA(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000,
		MaxSupply: 10, Minted: 2, Active: true, Strategy: domain.StrategyAbTestA,
	})

	// Double step: base + 10% per threshold passed.
	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1100_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_ExperimentArmB(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000,
		MaxSupply: 10, Minted: 0, Active: true, Strategy: domain.StrategyAbTestB,
	})

	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1200_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_OracleMultiplier(t *testing.T) {
	// Reading at 1.10 over a 1.00 reference scales the price by 1.1x.
	resolver := &fixedResolver{result: &oracle.Result{Price: 110_000_000, FromPrimary: true}}
	f := newEngineFixture(t, resolver, defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000,
		MaxSupply: 10, Active: true, Strategy: domain.StrategyStandard,
	})

	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1100_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_BothSourcesDownIsNeutral(t *testing.T) {
	f := newEngineFixture(t, &fixedResolver{result: nil}, defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000,
		MaxSupply: 10, Active: true, Strategy: domain.StrategyStandard,
	})

	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1000_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_ZeroReferenceIsNeutral(t *testing.T) {
	cfg := defaultConfig()
	cfg.OracleReferencePrice = 0

	resolver := &fixedResolver{result: &oracle.Result{Price: 500_000_000, FromPrimary: true}}
	f := newEngineFixture(t, resolver, cfg, domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000,
		MaxSupply: 10, Active: true, Strategy: domain.StrategyStandard,
	})

	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1000_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_Clamp(t *testing.T) {
	tests := []struct {
		name    string
		floor   int64
		ceiling int64
		want    int64
	}{
		{"above ceiling", 500_00000000, 900_00000000, 900_00000000},
		{"below floor", 1500_00000000, 2000_00000000, 1500_00000000},
		{"inverted bounds floor wins", 900_00000000, 500_00000000, 900_00000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.PriceFloor = tt.floor
			cfg.PriceCeiling = tt.ceiling

			f := newEngineFixture(t, neutralResolver(), cfg, domain.EventInfo{}, 1000)
			mustInsertTier(t, f, domain.Tier{
				Symbol: "GA", BasePrice: 1200_00000000,
				MaxSupply: 10, Active: true, Strategy: domain.StrategyStandard,
			})

			price, err := f.engine.ComputePrice(context.Background(), "GA")
			if err != nil {
				t.Fatalf("ComputePrice: %v", err)
			}
			if price != tt.want {
				t.Errorf("price: got %d, want %d", price, tt.want)
			}
		})
	}
}

func TestComputePrice_FrozenReturnsCurrentPrice(t *testing.T) {
	cfg := defaultConfig()
	cfg.IsFrozen = true
	cfg.PriceCeiling = 1 // would clamp if applied; frozen bypasses it

	// A resolver that must not be consulted.
	resolver := &panicResolver{t: t}
	f := newEngineFixture(t, resolver, cfg, domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "GA", BasePrice: 1000_00000000, CurrentPrice: 1234_00000000,
		MaxSupply: 10, Minted: 4, Active: true, Strategy: domain.StrategyStandard,
	})

	price, err := f.engine.ComputePrice(context.Background(), "GA")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(1234_00000000); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}

func TestComputePrice_UnknownTier(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)

	if _, err := f.engine.ComputePrice(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

// panicResolver fails the test if the engine consults the oracle.
type panicResolver struct {
	t *testing.T
}

func (r *panicResolver) Resolve(_ context.Context, _ oracle.Request) *oracle.Result {
	r.t.Error("resolver consulted while pricing is frozen")
	return nil
}

func TestComputePrice_LargeBasePriceDoesNotWrap(t *testing.T) {
	base := int64(5_000_000_000_000_000_000)

	cases := []struct {
		name     string
		minted   uint32
		strategy domain.PricingStrategy
		want     int64
	}{
		{"experiment arm b", 0, domain.StrategyAbTestB, base + base/5},
		{"standard one threshold", 2, domain.StrategyStandard, base + base/20},
		{"experiment arm a one threshold", 2, domain.StrategyAbTestA, base + base/10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
			mustInsertTier(t, f, domain.Tier{
				Symbol: "VIP", BasePrice: base, CurrentPrice: base,
				MaxSupply: 10, Minted: tc.minted, Active: true, Strategy: tc.strategy,
			})

			price, err := f.engine.ComputePrice(context.Background(), "VIP")
			if err != nil {
				t.Fatalf("ComputePrice: %v", err)
			}
			if price < base {
				t.Fatalf("price wrapped below base: got %d, base %d", price, base)
			}
			if price != tc.want {
				t.Errorf("price: got %d, want %d", price, tc.want)
			}
		})
	}
}

func TestComputePrice_MarkupPastMaxSaturates(t *testing.T) {
	f := newEngineFixture(t, neutralResolver(), defaultConfig(), domain.EventInfo{}, 1000)
	mustInsertTier(t, f, domain.Tier{
		Symbol: "VIP", BasePrice: math.MaxInt64, CurrentPrice: math.MaxInt64,
		MaxSupply: 10, Minted: 0, Active: true, Strategy: domain.StrategyAbTestB,
	})

	// Base plus 20% exceeds the int64 range; the result pins to the
	// ceiling instead of wrapping negative and clamping to the floor.
	price, err := f.engine.ComputePrice(context.Background(), "VIP")
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if want := int64(math.MaxInt64); price != want {
		t.Errorf("price: got %d, want %d", price, want)
	}
}
