// Package period discretizes time for the governance suite. All decay and
// voting computations align on week-long periods; voting and tuning cadence
// aligns on two-week epochs.
package period

import "time"

const (
	// Week is the length of one period in seconds.
	Week uint64 = 7 * 24 * 60 * 60
	// Epoch is the vote-cooldown and tune cadence in seconds.
	Epoch uint64 = 2 * Week

	// MinLockPeriods and MaxLockPeriods bound lock durations.
	MinLockPeriods uint64 = 1
	MaxLockPeriods uint64 = 104

	// UnlockPeriods is the mandatory wait between unlock and withdraw,
	// in periods.
	UnlockPeriods uint64 = 2

	// MaxBPS is 100% in basis points; a vote's weights sum to at most this.
	MaxBPS uint16 = 10000
)

// FromTime returns the period containing t.
func FromTime(t time.Time) uint64 {
	return uint64(t.Unix()) / Week
}

// FromSeconds returns the period containing the unix timestamp ts.
func FromSeconds(ts uint64) uint64 {
	return ts / Week
}

// Start returns the unix timestamp at which period p begins.
func Start(p uint64) uint64 {
	return p * Week
}

// EpochStart returns the unix timestamp of the start of the epoch
// containing ts.
func EpochStart(ts uint64) uint64 {
	return ts - ts%Epoch
}
