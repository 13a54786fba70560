package domain

import "github.com/shopspring/decimal"

// Ticket represents one issued ticket. Corresponds to the tickets table
// in PostgreSQL, keyed by token id. Created valid at mint; IsValid flips
// to false exactly once, on refund, and the token id is never reused.
type Ticket struct {
	TokenID      uint64 // PRIMARY KEY, ledger-assigned sequential id
	TierSymbol   string // tier the ticket was issued from
	PurchaseTime int64  // unix seconds at mint
	PricePaid    int64  // 8-decimal fixed point; 0 for admin batch mints
	IsValid      bool   // false once refunded
}

// FormatPrice renders an 8-decimal fixed-point price as a human-readable
// decimal string ("1.05" for 105_000_000). Display only; all arithmetic
// stays on the integer representation.
func FormatPrice(price int64) string {
	return decimal.New(price, -8).String()
}

// ParsePrice converts a decimal price string into its 8-decimal
// fixed-point representation, truncating excess precision.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Shift(8).Truncate(0).IntPart(), nil
}
