package escrow

import (
	"cosmossdk.io/math"

	"github.com/helixswap/governance/checkpoint"
	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/state"
)

// scheduleSlopeChange registers an extra decay-rate reduction for the total
// curve at the period a lock expires.
func scheduleSlopeChange(store cw.Storage, p uint64, slope math.Uint) error {
	if slope.IsZero() {
		return nil
	}
	key := state.U64Key(p)
	cur, _, err := slopeChanges.May(store, key)
	if err != nil {
		return err
	}
	if cur.IsNil() {
		cur = math.ZeroUint()
	}
	return slopeChanges.Save(store, key, cur.Add(slope))
}

// cancelSlopeChange withdraws a previously scheduled reduction. Only future
// periods are ever cancelled, so historical traversals stay reproducible.
func cancelSlopeChange(store cw.Storage, p uint64, slope math.Uint) error {
	if slope.IsZero() {
		return nil
	}
	key := state.U64Key(p)
	cur, ok, err := slopeChanges.May(store, key)
	if err != nil || !ok {
		return err
	}
	if cur.LTE(slope) {
		slopeChanges.Remove(store, key)
		return nil
	}
	return slopeChanges.Save(store, key, cur.Sub(slope))
}

// travel advances a (power, slope) pair from period `from` to `to`, applying
// every slope change scheduled in (from, to] at the period it takes effect.
func travel(store cw.Storage, power, slope math.Uint, from, to uint64) (math.Uint, math.Uint, error) {
	cursor := from
	err := slopeChanges.Range(store, state.U64Key(from+1), state.U64Key(to+1), cw.Ascending,
		func(key []byte, change math.Uint) (bool, error) {
			at := state.ParseU64Key(key)
			power = applyDecay(power, slope, at-cursor)
			if change.GTE(slope) {
				slope = math.ZeroUint()
			} else {
				slope = slope.Sub(change)
			}
			cursor = at
			return true, nil
		})
	if err != nil {
		return power, slope, err
	}
	power = applyDecay(power, slope, to-cursor)
	return power, slope, nil
}

func applyDecay(power, slope math.Uint, periods uint64) math.Uint {
	decay := slope.MulUint64(periods)
	if decay.GTE(power) {
		return math.ZeroUint()
	}
	return power.Sub(decay)
}

// checkpointTotal rolls the total curve forward to the current period,
// applies a position delta and persists the new segment. The total is
// maintained incrementally; it is never re-summed from individual locks.
func checkpointTotal(store cw.Storage, curPeriod uint64, addPower, reducePower, oldSlope, newSlope math.Uint) error {
	power, slope := math.ZeroUint(), math.ZeroUint()
	point, ok, err := totalHistory.LoadAtOrBefore(store, totalEntity, curPeriod)
	if err != nil {
		return err
	}
	if ok {
		power, slope, err = travel(store, point.Power, point.Slope, point.Start, curPeriod)
		if err != nil {
			return err
		}
	}
	power = power.Add(addPower)
	if reducePower.GTE(power) {
		power = math.ZeroUint()
	} else {
		power = power.Sub(reducePower)
	}
	if oldSlope.GTE(slope) {
		slope = math.ZeroUint()
	} else {
		slope = slope.Sub(oldSlope)
	}
	slope = slope.Add(newSlope)

	return totalHistory.Save(store, totalEntity, curPeriod, checkpoint.Point{
		Power: power,
		Slope: slope,
		Start: curPeriod,
		End:   checkpoint.Unbounded,
	})
}

// totalPowerAtPeriod reads the total curve at any past or present period,
// extrapolating from the last recorded segment through every scheduled slope
// change up to the target.
func totalPowerAtPeriod(store cw.Storage, p uint64) (math.Uint, error) {
	point, ok, err := totalHistory.LoadAtOrBefore(store, totalEntity, p)
	if err != nil || !ok {
		return math.ZeroUint(), err
	}
	power, _, err := travel(store, point.Power, point.Slope, point.Start, p)
	return power, err
}

// userPowerAtPeriod reads one user's curve; missing history means zero.
func userPowerAtPeriod(store cw.Storage, user string, p uint64) (math.Uint, error) {
	return userHistory.PowerAt(store, user, p)
}
