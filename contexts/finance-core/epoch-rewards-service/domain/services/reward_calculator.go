package services

import "math/big"

// PercentageDenominator converts fixed-point percentages to fractions:
// a stored value V represents V/1_000_000 of the pool (50000 = 5%).
var PercentageDenominator = big.NewInt(1_000_000)

// DefaultMaxUserPoolPercentage is the cap applied when no administrator
// has configured one (5%).
var DefaultMaxUserPoolPercentage = big.NewInt(50_000)

// CapPercentage clamps a raw percentage against the configured maximum.
// Clamping an already-clamped value is a no-op.
func CapPercentage(percentage, maxPercentage *big.Int) *big.Int {
	if percentage == nil {
		return big.NewInt(0)
	}
	if maxPercentage != nil && percentage.Cmp(maxPercentage) > 0 {
		return new(big.Int).Set(maxPercentage)
	}
	return new(big.Int).Set(percentage)
}

// RewardAmount computes floor(balance * percentage / 1_000_000) with
// integer-only math. A nil balance or percentage yields zero.
func RewardAmount(balance, percentage *big.Int) *big.Int {
	if balance == nil || percentage == nil {
		return big.NewInt(0)
	}
	amount := new(big.Int).Mul(balance, percentage)
	return amount.Quo(amount, PercentageDenominator)
}
