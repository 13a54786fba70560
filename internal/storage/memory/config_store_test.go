package memory

import (
	"context"
	"errors"
	"testing"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

func testPricingConfig() domain.PricingConfig {
	return domain.PricingConfig{
		OracleEndpoint:       "http://oracle.local",
		DexEndpoint:          "http://dex.local",
		PriceFloor:           0,
		PriceCeiling:         1 << 62,
		UpdateFrequency:      3600,
		OraclePair:           "XLM/USD",
		OracleReferencePrice: domain.OracleDecimals,
		MaxOracleAgeSeconds:  86400,
	}
}

func TestConfigStore_InitializeOnce(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	info := domain.EventInfo{StartTime: 2000, RefundCutoffTime: 1500}
	if err := store.Initialize(ctx, "admin", info, testPricingConfig()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	err := store.Initialize(ctx, "other", info, testPricingConfig())
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey on re-initialization, got %v", err)
	}

	ok, err := store.Initialized(ctx)
	if err != nil || !ok {
		t.Errorf("Initialized: got %v, %v", ok, err)
	}
}

func TestConfigStore_NotFoundBeforeInit(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	if _, err := store.GetAdmin(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetAdmin: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetEventInfo(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetEventInfo: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetPricingConfig(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetPricingConfig: expected ErrNotFound, got %v", err)
	}
	if err := store.SetPricingConfig(ctx, &domain.PricingConfig{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetPricingConfig: expected ErrNotFound, got %v", err)
	}
}

func TestConfigStore_RoundTrip(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	info := domain.EventInfo{StartTime: 2000, RefundCutoffTime: 1500}
	cfg := testPricingConfig()
	if err := store.Initialize(ctx, "admin", info, cfg); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	admin, err := store.GetAdmin(ctx)
	if err != nil {
		t.Fatalf("GetAdmin failed: %v", err)
	}
	if admin != "admin" {
		t.Errorf("GetAdmin: got %s", admin)
	}

	gotInfo, err := store.GetEventInfo(ctx)
	if err != nil {
		t.Fatalf("GetEventInfo failed: %v", err)
	}
	if gotInfo.RefundCutoffTime != 1500 {
		t.Errorf("RefundCutoffTime: got %d", gotInfo.RefundCutoffTime)
	}

	gotCfg, err := store.GetPricingConfig(ctx)
	if err != nil {
		t.Fatalf("GetPricingConfig failed: %v", err)
	}
	if gotCfg.OraclePair != "XLM/USD" {
		t.Errorf("OraclePair: got %s", gotCfg.OraclePair)
	}

	gotCfg.IsFrozen = true
	if err := store.SetPricingConfig(ctx, gotCfg); err != nil {
		t.Fatalf("SetPricingConfig failed: %v", err)
	}
	again, err := store.GetPricingConfig(ctx)
	if err != nil {
		t.Fatalf("GetPricingConfig failed: %v", err)
	}
	if !again.IsFrozen {
		t.Error("IsFrozen not persisted")
	}
}

func TestConfigStore_PendingOwner(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	if err := store.Initialize(ctx, "admin", domain.EventInfo{}, testPricingConfig()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if _, err := store.GetPendingOwner(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound with no pending owner, got %v", err)
	}

	if err := store.SetPendingOwner(ctx, "newowner"); err != nil {
		t.Fatalf("SetPendingOwner failed: %v", err)
	}
	owner, err := store.GetPendingOwner(ctx)
	if err != nil {
		t.Fatalf("GetPendingOwner failed: %v", err)
	}
	if owner != "newowner" {
		t.Errorf("GetPendingOwner: got %s", owner)
	}

	if err := store.ClearPendingOwner(ctx); err != nil {
		t.Fatalf("ClearPendingOwner failed: %v", err)
	}
	if _, err := store.GetPendingOwner(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after clear, got %v", err)
	}
}

func TestConfigStore_RenouncedAdmin(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	if err := store.Initialize(ctx, "admin", domain.EventInfo{}, testPricingConfig()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := store.SetAdmin(ctx, ""); err != nil {
		t.Fatalf("SetAdmin failed: %v", err)
	}
	admin, err := store.GetAdmin(ctx)
	if err != nil {
		t.Fatalf("GetAdmin failed: %v", err)
	}
	if !admin.IsZero() {
		t.Errorf("expected renounced admin, got %s", admin)
	}
}
