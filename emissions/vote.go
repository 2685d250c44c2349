package emissions

import (
	"encoding/json"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/checkpoint"
	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/escrow"
	"github.com/helixswap/governance/period"
	"github.com/helixswap/governance/state"
)

func schedulePoolSlopeChange(store cw.Storage, pool string, p uint64, slope math.Uint) error {
	if slope.IsZero() || p == checkpoint.Unbounded {
		return nil
	}
	key := poolPeriodKey(pool, p)
	cur, ok, err := poolSlopeChanges.May(store, key)
	if err != nil {
		return err
	}
	if !ok {
		cur = math.ZeroUint()
	}
	return poolSlopeChanges.Save(store, key, cur.Add(slope))
}

func cancelPoolSlopeChange(store cw.Storage, pool string, p uint64, slope math.Uint) error {
	if slope.IsZero() || p == checkpoint.Unbounded {
		return nil
	}
	key := poolPeriodKey(pool, p)
	cur, ok, err := poolSlopeChanges.May(store, key)
	if err != nil || !ok {
		return err
	}
	if cur.LTE(slope) {
		poolSlopeChanges.Remove(store, key)
		return nil
	}
	return poolSlopeChanges.Save(store, key, cur.Sub(slope))
}

func decay(power, slope math.Uint, periods uint64) math.Uint {
	d := slope.MulUint64(periods)
	if d.GTE(power) {
		return math.ZeroUint()
	}
	return power.Sub(d)
}

// travelPool advances a pool's (power, slope) from one period to another,
// applying the pool's scheduled slope changes along the way.
func travelPool(store cw.Storage, pool string, power, slope math.Uint, from, to uint64) (math.Uint, math.Uint, error) {
	cursor := from
	err := poolSlopeChanges.Range(store,
		poolPeriodKey(pool, from+1), poolPeriodKey(pool, to+1), cw.Ascending,
		func(key []byte, change math.Uint) (bool, error) {
			at := state.ParseU64Key(key[len(key)-8:])
			power = decay(power, slope, at-cursor)
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
	return decay(power, slope, to-cursor), slope, nil
}

// poolPowerAtPeriod reads a pool's accumulated vote weight at a period. With
// no exact checkpoint the last prior one carries forward, decayed by its
// slope; last known state persists until explicitly changed.
func poolPowerAtPeriod(store cw.Storage, pool string, p uint64) (math.Uint, error) {
	point, ok, err := poolHistory.LoadAtOrBefore(store, pool, p)
	if err != nil || !ok {
		return math.ZeroUint(), err
	}
	power, _, err := travelPool(store, pool, point.Power, point.Slope, point.Start, p)
	return power, err
}

// checkpointPool rolls one pool's curve to the current period and applies a
// contribution delta.
func checkpointPool(store cw.Storage, pool string, curPeriod uint64, addPower, reducePower, addSlope, reduceSlope math.Uint) error {
	power, slope := math.ZeroUint(), math.ZeroUint()
	point, ok, err := poolHistory.LoadAtOrBefore(store, pool, curPeriod)
	if err != nil {
		return err
	}
	if ok {
		power, slope, err = travelPool(store, pool, point.Power, point.Slope, point.Start, curPeriod)
		if err != nil {
			return err
		}
	}
	if reducePower.GTE(power) {
		power = math.ZeroUint()
	} else {
		power = power.Sub(reducePower)
	}
	power = power.Add(addPower)
	if reduceSlope.GTE(slope) {
		slope = math.ZeroUint()
	} else {
		slope = slope.Sub(reduceSlope)
	}
	slope = slope.Add(addSlope)

	return poolHistory.Save(store, pool, curPeriod, checkpoint.Point{
		Power: power,
		Slope: slope,
		Start: curPeriod,
		End:   checkpoint.Unbounded,
	})
}

// bpsShare takes weight basis points of a value, truncating toward zero.
func bpsShare(value math.Uint, weight uint16) math.Uint {
	return value.MulUint64(uint64(weight)).QuoUint64(uint64(period.MaxBPS))
}

// removeContribution subtracts the voter's currently applied, already-decayed
// contribution from every pool they voted for, at the current period. Done
// before any addition so pool checkpoints stay the literal sum of live
// per-voter contributions.
func removeContribution(store cw.Storage, curPeriod uint64, ui UserInfo) error {
	for _, v := range ui.Votes {
		sharePower := bpsShare(ui.VotingPower, v.Weight)
		shareSlope := bpsShare(ui.Slope, v.Weight)

		reducePower := math.ZeroUint()
		reduceSlope := math.ZeroUint()
		if ui.LockEnd != checkpoint.Unbounded && curPeriod >= ui.LockEnd {
			// expired naturally; travel already consumed the slope change
		} else {
			reducePower = decay(sharePower, shareSlope, curPeriod-ui.VotePeriod)
			reduceSlope = shareSlope
			if err := cancelPoolSlopeChange(store, v.Pool, ui.LockEnd, shareSlope); err != nil {
				return err
			}
		}
		if err := checkpointPool(store, v.Pool, curPeriod, math.ZeroUint(), reducePower, math.ZeroUint(), reduceSlope); err != nil {
			return err
		}
	}
	return nil
}

// applyVote replaces the voter's vote: old contribution out, new one in, new
// UserInfo persisted.
func applyVote(store cw.Storage, now uint64, voter string, votes []PoolWeight, votingPower, slope math.Uint, lockEnd uint64) error {
	curPeriod := period.FromSeconds(now)

	old, hadVote, err := userInfos.May(store, []byte(voter))
	if err != nil {
		return err
	}
	if hadVote {
		if err = removeContribution(store, curPeriod, old); err != nil {
			return err
		}
	}

	for _, v := range votes {
		sharePower := bpsShare(votingPower, v.Weight)
		shareSlope := bpsShare(slope, v.Weight)
		if err = checkpointPool(store, v.Pool, curPeriod, sharePower, math.ZeroUint(), shareSlope, math.ZeroUint()); err != nil {
			return err
		}
		if err = schedulePoolSlopeChange(store, v.Pool, lockEnd, shareSlope); err != nil {
			return err
		}
		if err = votedPools.Save(store, []byte(v.Pool), struct{}{}); err != nil {
			return err
		}
	}

	return userInfos.Save(store, []byte(voter), UserInfo{
		VoteTime:    now,
		VotePeriod:  curPeriod,
		VotingPower: votingPower,
		Slope:       slope,
		LockEnd:     lockEnd,
		Votes:       votes,
	})
}

// validateVotes enforces the structural vote invariants.
func validateVotes(store cw.Storage, votes []PoolWeight) error {
	if len(votes) == 0 {
		return ErrNoVotes
	}
	seen := make(map[string]struct{}, len(votes))
	total := uint64(0)
	for _, v := range votes {
		if _, dup := seen[v.Pool]; dup {
			return ErrDuplicatedPools
		}
		seen[v.Pool] = struct{}{}
		total += uint64(v.Weight)
		if !whitelist.Has(store, []byte(v.Pool)) {
			return ErrPoolNotWhitelisted(v.Pool)
		}
	}
	if total > uint64(period.MaxBPS) {
		return ErrExceededMaxBPS
	}
	return nil
}

// checkCooldown rejects a revote before one full epoch has elapsed.
func checkCooldown(store cw.Storage, voter string, now uint64) error {
	ui, ok, err := userInfos.May(store, []byte(voter))
	if err != nil || !ok {
		return err
	}
	if now < ui.VoteTime+period.Epoch {
		return ErrVoteCooldown(ui.VoteTime + period.Epoch)
	}
	return nil
}

// escrowPosition reads the voter's current power and decay parameters from
// the escrow contract through the query boundary.
func escrowPosition(deps cw.Deps, escrowAddr, voter string) (math.Uint, math.Uint, uint64, error) {
	raw, err := json.Marshal(escrow.QueryMsg{
		UserVotingPower: &escrow.UserVotingPowerQuery{User: voter},
	})
	if err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	resp, err := deps.Querier.QuerySmart(escrowAddr, raw)
	if err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	var vp escrow.VotingPowerResponse
	if err = json.Unmarshal(resp, &vp); err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	power, err := math.ParseUint(vp.VotingPower)
	if err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	if power.IsZero() {
		return math.Uint{}, math.Uint{}, 0, ErrZeroVotingPower
	}

	raw, err = json.Marshal(escrow.QueryMsg{
		LockInfo: &escrow.LockInfoQuery{User: voter},
	})
	if err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	resp, err = deps.Querier.QuerySmart(escrowAddr, raw)
	if err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	var lock escrow.LockInfoResponse
	if err = json.Unmarshal(resp, &lock); err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	slope, err := math.ParseUint(lock.Slope)
	if err != nil {
		return math.Uint{}, math.Uint{}, 0, err
	}
	return power, slope, lock.End, nil
}

func vote(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, votes []PoolWeight) (*cw.Response, error) {
	if err := validateVotes(deps.Storage, votes); err != nil {
		return nil, err
	}
	now := uint64(env.BlockTime.Unix())
	if err := checkCooldown(deps.Storage, info.Sender, now); err != nil {
		return nil, err
	}
	power, slope, lockEnd, err := escrowPosition(deps, cfg.Escrow, info.Sender)
	if err != nil {
		return nil, err
	}
	if err = applyVote(deps.Storage, now, info.Sender, votes, power, slope, lockEnd); err != nil {
		return nil, err
	}
	return cw.NewResponse().
		AddAttribute("action", "vote").
		AddAttribute("voter", info.Sender).
		AddAttribute("voting_power", power.String()), nil
}

func kick(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, user string) (*cw.Response, error) {
	if info.Sender != cfg.Escrow && info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	resp := cw.NewResponse().AddAttribute("action", "kick").AddAttribute("user", user)

	ui, ok, err := userInfos.May(deps.Storage, []byte(user))
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.AddAttribute("result", "no_vote"), nil
	}
	curPeriod := period.FromTime(env.BlockTime)
	if err = removeContribution(deps.Storage, curPeriod, ui); err != nil {
		return nil, err
	}
	userInfos.Remove(deps.Storage, []byte(user))
	return resp, nil
}
