package domain

import (
	"errors"
	"math"
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// curveAddress builds a valid address from the ed25519 generator point,
// offset n times so callers can get distinct addresses.
func curveAddress(n int) Address {
	p := edwards25519.NewGeneratorPoint()
	for i := 0; i < n; i++ {
		p.Add(p, edwards25519.NewGeneratorPoint())
	}
	return Address(base58.Encode(p.Bytes()))
}

func TestAddress_Validate(t *testing.T) {
	if err := curveAddress(0).Validate(); err != nil {
		t.Fatalf("generator point address should validate: %v", err)
	}
	if err := curveAddress(3).Validate(); err != nil {
		t.Fatalf("offset point address should validate: %v", err)
	}
}

func TestAddress_ValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		addr Address
	}{
		{"empty", Address("")},
		{"not base58", Address("0OIl+/")},
		{"wrong length", Address(base58.Encode([]byte("short")))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.addr.Validate()
			if !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func TestPricingStrategy_IsValid(t *testing.T) {
	for _, s := range []PricingStrategy{StrategyStandard, StrategyTimeDecay, StrategyAbTestA, StrategyAbTestB} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if PricingStrategy("SURGE").IsValid() {
		t.Error("unknown strategy should be invalid")
	}
}

func TestTier_Remaining(t *testing.T) {
	tier := &Tier{MaxSupply: 10, Minted: 4}
	if got := tier.Remaining(); got != 6 {
		t.Errorf("Remaining: got %d, want 6", got)
	}
	if tier.SoldOut() {
		t.Error("tier with remaining supply should not be sold out")
	}

	tier.Minted = 10
	if got := tier.Remaining(); got != 0 {
		t.Errorf("Remaining at cap: got %d, want 0", got)
	}
	if !tier.SoldOut() {
		t.Error("tier at cap should be sold out")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		price int64
		want  string
	}{
		{100_000_000, "1"},
		{105_000_000, "1.05"},
		{0, "0"},
		{1, "0.00000001"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.price); got != tc.want {
			t.Errorf("FormatPrice(%d): got %s, want %s", tc.price, got, tc.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	got, err := ParsePrice("1.05")
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	if got != 105_000_000 {
		t.Errorf("ParsePrice(1.05): got %d, want 105000000", got)
	}

	// Excess precision truncates toward zero.
	got, err = ParsePrice("0.000000019")
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	if got != 1 {
		t.Errorf("ParsePrice(0.000000019): got %d, want 1", got)
	}

	if _, err := ParsePrice("not a price"); err == nil {
		t.Error("expected error for malformed price")
	}
}

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name    string
		a, b, d int64
		want    int64
	}{
		{"in range", 1000_00000000, 2000, 10000, 200_00000000},
		{"truncates toward zero", 100_000_001, 3333, 10000, 33330000},
		{"product past 64 bits", 5_000_000_000_000_000_000, 2000, 10000, 1_000_000_000_000_000_000},
		{"quotient saturates", math.MaxInt64, 3, 2, math.MaxInt64},
		{"zero factor", 0, 2000, 10000, 0},
		{"negative factor", -5, 2000, 10000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MulDiv(tc.a, tc.b, tc.d); got != tc.want {
				t.Errorf("MulDiv(%d, %d, %d): got %d, want %d", tc.a, tc.b, tc.d, got, tc.want)
			}
		})
	}
}

func TestSaturatingAdd(t *testing.T) {
	if got := SaturatingAdd(3, 4); got != 7 {
		t.Errorf("SaturatingAdd(3, 4): got %d, want 7", got)
	}
	if got := SaturatingAdd(math.MaxInt64, 1); got != math.MaxInt64 {
		t.Errorf("SaturatingAdd past max: got %d, want %d", got, int64(math.MaxInt64))
	}
	if got := SaturatingAdd(math.MaxInt64-10, 10); got != math.MaxInt64 {
		t.Errorf("SaturatingAdd at max: got %d, want %d", got, int64(math.MaxInt64))
	}
}
