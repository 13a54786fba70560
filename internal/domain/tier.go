package domain

// Tier represents a named ticket class with its own supply cap, base
// price, and pricing strategy. Corresponds to the tiers table in
// PostgreSQL, keyed by symbol.
type Tier struct {
	Symbol       string          // PRIMARY KEY, short tier identifier
	Name         string          // display name
	BasePrice    int64           // 8-decimal fixed point
	CurrentPrice int64           // last price actually charged; frozen-mode readback
	MaxSupply    uint32          // supply cap
	Minted       uint32          // monotonic, Minted <= MaxSupply
	Active       bool            // inactive tiers reject purchases
	Strategy     PricingStrategy // one of the closed strategy set
}

// Remaining returns the number of tickets still available in the tier.
func (t *Tier) Remaining() uint32 {
	if t.Minted >= t.MaxSupply {
		return 0
	}
	return t.MaxSupply - t.Minted
}

// SoldOut reports whether the tier has reached its supply cap.
func (t *Tier) SoldOut() bool {
	return t.Minted >= t.MaxSupply
}
