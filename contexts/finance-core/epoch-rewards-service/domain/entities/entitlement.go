package entities

import (
	"math/big"
	"time"
)

// Entitlement is a user's registered share of one epoch's pool.
// PoolPercentage uses six implicit decimal digits (1_000_000 = 100%).
// Records are never deleted; the only irreversible transition is
// Claimed false -> true.
type Entitlement struct {
	Epoch          uint64
	UserID         string
	PoolPercentage *big.Int
	Claimed        bool
	ClaimedAt      *time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy so callers cannot alias the stored big integers.
func (e Entitlement) Clone() Entitlement {
	clone := e
	if e.PoolPercentage != nil {
		clone.PoolPercentage = new(big.Int).Set(e.PoolPercentage)
	}
	if e.ClaimedAt != nil {
		ts := *e.ClaimedAt
		clone.ClaimedAt = &ts
	}
	return clone
}

// Eligible reports whether the entitlement carries a non-zero share.
// An absent record is modelled as a zero-percentage entitlement and is
// never eligible.
func (e Entitlement) Eligible() bool {
	return e.PoolPercentage != nil && e.PoolPercentage.Sign() > 0
}
