package emissions

import (
	"sort"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/period"
)

type poolPower struct {
	pool  string
	power math.Uint
}

// snapshotPools reads the current voting power of every whitelisted pool
// that has ever received a vote, grouped by outpost prefix. Pools with an
// unknown prefix (neither hub nor a registered outpost) are skipped.
func snapshotPools(deps cw.Deps, cfg Config, curPeriod uint64) (map[string][]poolPower, error) {
	pools, err := votedPools.Keys(deps.Storage)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]poolPower)
	for _, key := range pools {
		pool := string(key)
		if !whitelist.Has(deps.Storage, []byte(pool)) {
			continue
		}
		power, err := poolPowerAtPeriod(deps.Storage, pool, curPeriod)
		if err != nil {
			return nil, err
		}
		if power.IsZero() {
			continue
		}
		prefix := outpostPrefix(pool)
		group := hubGroup
		if prefix != cfg.HubPrefix {
			if !outposts.Has(deps.Storage, []byte(prefix)) {
				continue
			}
			group = prefix
		}
		grouped[group] = append(grouped[group], poolPower{pool: pool, power: power})
	}
	return grouped, nil
}

// rankPools orders one group by voting power descending, breaking ties by
// pool id ascending (stable, documented), and keeps the top limit entries.
func rankPools(group []poolPower, limit uint32) []poolPower {
	sort.Slice(group, func(i, j int) bool {
		if group[i].power.Equal(group[j].power) {
			return group[i].pool < group[j].pool
		}
		return group[i].power.GT(group[j].power)
	})
	if limit > 0 && uint32(len(group)) > limit {
		group = group[:limit]
	}
	return group
}

// buildAllocations converts absolute voting power into proportional shares
// and applies the main-pool floor: the main pool is raised to its minimum
// share and every other pool is scaled down proportionally.
func buildAllocations(cfg Config, grouped map[string][]poolPower) map[string][]PoolAlloc {
	total := math.ZeroUint()
	for _, group := range grouped {
		for _, pp := range group {
			total = total.Add(pp.power)
		}
	}
	if total.IsZero() {
		return map[string][]PoolAlloc{}
	}
	totalDec := math.LegacyNewDecFromBigInt(total.BigInt())

	allocs := make(map[string][]PoolAlloc, len(grouped))
	mainShare := math.LegacyZeroDec()
	for name, group := range grouped {
		out := make([]PoolAlloc, 0, len(group))
		for _, pp := range group {
			share := math.LegacyNewDecFromBigInt(pp.power.BigInt()).Quo(totalDec)
			out = append(out, PoolAlloc{Pool: pp.pool, Alloc: share})
			if pp.pool == cfg.MainPool {
				mainShare = share
			}
		}
		allocs[name] = out
	}

	if cfg.MainPool == "" || cfg.MainPoolMinAlloc.IsNil() || cfg.MainPoolMinAlloc.IsZero() ||
		mainShare.IsZero() || mainShare.GTE(cfg.MainPoolMinAlloc) {
		return allocs
	}

	// scale factor keeps the grand total at 1 after raising the main pool
	scale := math.LegacyOneDec().Sub(cfg.MainPoolMinAlloc).
		Quo(math.LegacyOneDec().Sub(mainShare))
	for name, group := range allocs {
		for i := range group {
			if group[i].Pool == cfg.MainPool {
				group[i].Alloc = cfg.MainPoolMinAlloc
			} else {
				group[i].Alloc = group[i].Alloc.Mul(scale)
			}
		}
		allocs[name] = group
	}
	return allocs
}

// incentivesMsg is the hub-local emission sink hook.
type incentivesMsg struct {
	SetupPools struct {
		Pools []PoolAlloc `json:"pools"`
	} `json:"setup_pools"`
}

// dispatchGroup emits the message carrying one group's allocations: a wasm
// submessage for the hub group, an IBC packet for a remote outpost.
func dispatchGroup(deps cw.Deps, cfg Config, resp *cw.Response, name string, group []PoolAlloc) error {
	if name == hubGroup {
		var msg incentivesMsg
		msg.SetupPools.Pools = group
		resp.AddSubMessage(replyTuneHub, cw.ExecuteContract(cfg.Incentives, msg), cw.ReplyAlways)
		return nil
	}
	channel, err := outposts.Load(deps.Storage, []byte(name))
	if err != nil {
		return ErrUnknownOutpost(name)
	}
	resp.AddMessage(cw.SendPacket(channel, HubPacket{
		UpdateEmissions: &UpdateEmissions{Pools: group},
	}, cfg.IBCTimeoutSeconds))
	return nil
}

// tunePools runs the per-epoch gauge computation. Calling it again inside
// the same epoch fails; allocations are never doubled.
func tunePools(deps cw.Deps, env cw.Env, cfg Config) (*cw.Response, error) {
	now := uint64(env.BlockTime.Unix())
	if prev, ok, err := tuneItem.May(deps.Storage); err != nil {
		return nil, err
	} else if ok && period.EpochStart(prev.TuneTime) == period.EpochStart(now) {
		return nil, ErrTuneCooldown
	}

	curPeriod := period.FromSeconds(now)
	grouped, err := snapshotPools(deps, cfg, curPeriod)
	if err != nil {
		return nil, err
	}
	for name, group := range grouped {
		grouped[name] = rankPools(group, cfg.PoolsPerOutpost)
	}
	allocs := buildAllocations(cfg, grouped)

	info := TuneInfo{
		TuneTime:      now,
		PoolsGrouped:  allocs,
		OutpostStatus: make(map[string]OutpostStatus, len(allocs)),
	}
	resp := cw.NewResponse().AddAttribute("action", "tune_pools")
	for name, group := range allocs {
		if err = dispatchGroup(deps, cfg, resp, name, group); err != nil {
			return nil, err
		}
		info.OutpostStatus[name] = StatusInProgress
	}
	if err = tuneItem.Save(deps.Storage, info); err != nil {
		return nil, err
	}
	return resp, nil
}

// retryFailedOutposts re-dispatches only the Failed groups of the current
// snapshot.
func retryFailedOutposts(deps cw.Deps, _ cw.Env, cfg Config) (*cw.Response, error) {
	info, err := tuneItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	resp := cw.NewResponse().AddAttribute("action", "retry_failed_outposts")
	retried := 0
	for name, status := range info.OutpostStatus {
		if status != StatusFailed {
			continue
		}
		if err = dispatchGroup(deps, cfg, resp, name, info.PoolsGrouped[name]); err != nil {
			return nil, err
		}
		info.OutpostStatus[name] = StatusInProgress
		retried++
	}
	if retried == 0 {
		return nil, ErrNothingToRetry
	}
	if err = tuneItem.Save(deps.Storage, info); err != nil {
		return nil, err
	}
	return resp, nil
}

// Reply settles the hub group's status from the incentives submessage result.
func Reply(deps cw.Deps, _ cw.Env, reply cw.Reply) (*cw.Response, error) {
	if reply.ID != replyTuneHub {
		return nil, ErrUnknownReplyID(reply.ID)
	}
	info, err := tuneItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	status := StatusDone
	if reply.Result.Err != "" {
		status = StatusFailed
	}
	info.OutpostStatus[hubGroup] = status
	if err = tuneItem.Save(deps.Storage, info); err != nil {
		return nil, err
	}
	return cw.NewResponse().
		AddAttribute("action", "tune_reply").
		AddAttribute("status", string(status)), nil
}
