package domain

// Precision is the basis-point scale used for oracle multipliers and all
// percentage arithmetic: 10000 == 100% == a neutral 1x multiplier.
const Precision int64 = 10000

// OracleDecimals is the fixed-point scale of raw oracle readings.
// Prices carry 8 decimal places: 100_000_000 == 1.00.
const OracleDecimals int64 = 100_000_000

// EventInfo holds the event timing. Set exactly once at initialization;
// re-initialization is an invariant violation.
type EventInfo struct {
	StartTime        int64 // event start, unix seconds
	RefundCutoffTime int64 // last second (inclusive) at which refunds succeed
}

// PricingConfig is the global pricing configuration aggregate.
// Mutated wholesale by the admin, or field-wise by the oracle-reference
// and freeze operations.
type PricingConfig struct {
	OracleEndpoint string // primary oracle endpoint
	DexEndpoint    string // exchange price router endpoint (fallback)

	// Inclusive clamp bounds for computed prices. PriceFloor <= PriceCeiling
	// is admin discipline, not structurally enforced; when inverted the
	// floor wins.
	PriceFloor   int64
	PriceCeiling int64

	UpdateFrequency int64 // informational, seconds
	LastUpdateTime  int64 // unix seconds of the last committed purchase price

	// IsFrozen makes price computation return the tier's last recorded
	// price unmodified, with no oracle call.
	IsFrozen bool

	OraclePair           string // market symbol, e.g. "XLM/USD"
	OracleReferencePrice int64  // 8-decimal baseline for multiplier conversion
	MaxOracleAgeSeconds  int64  // staleness window for primary readings
}
