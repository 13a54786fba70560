package domain

// PricingStrategy selects how a tier's unit price reacts to demand and
// time. The set is closed: dispatch happens once per price computation,
// and adding a variant is a data-model change, not an interface change.
type PricingStrategy string

const (
	// StrategyStandard adds 5% of the base price per quintile of supply sold.
	StrategyStandard PricingStrategy = "STANDARD"
	// StrategyTimeDecay applies an early-bird discount more than a week
	// before the event start.
	StrategyTimeDecay PricingStrategy = "TIME_DECAY"
	// StrategyAbTestA is the Standard demand curve at double sensitivity.
	StrategyAbTestA PricingStrategy = "AB_TEST_A"
	// StrategyAbTestB is a flat +20% markup experiment arm.
	StrategyAbTestB PricingStrategy = "AB_TEST_B"
)

// String returns the string representation of PricingStrategy.
func (s PricingStrategy) String() string {
	return string(s)
}

// IsValid checks if the strategy is a valid value.
func (s PricingStrategy) IsValid() bool {
	switch s {
	case StrategyStandard, StrategyTimeDecay, StrategyAbTestA, StrategyAbTestB:
		return true
	}
	return false
}
