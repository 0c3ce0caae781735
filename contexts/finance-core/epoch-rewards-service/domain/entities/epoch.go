package entities

import (
	"math/big"
	"time"
)

// EpochSnapshot freezes the reward pool view at the moment an epoch opens.
// Snapshots are written exactly once and never mutated afterwards; claims
// compute against DistributingBalance even when the live pool moves.
type EpochSnapshot struct {
	Epoch               uint64
	TotalPoints         *big.Int
	DistributingBalance *big.Int
	OpenedAt            time.Time
}

// Clone returns a deep copy so callers cannot alias the stored big integers.
func (s EpochSnapshot) Clone() EpochSnapshot {
	clone := s
	if s.TotalPoints != nil {
		clone.TotalPoints = new(big.Int).Set(s.TotalPoints)
	}
	if s.DistributingBalance != nil {
		clone.DistributingBalance = new(big.Int).Set(s.DistributingBalance)
	}
	return clone
}
