// Package emissions implements the hub emissions controller: it aggregates
// voting-escrow votes per pool and, once per epoch, converts the aggregate
// into emission allocations distributed to the hub incentives contract and
// to remote outposts over IBC.
package emissions

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/period"
)

func Instantiate(deps cw.Deps, _ cw.Env, _ cw.MessageInfo, msg InstantiateMsg) (*cw.Response, error) {
	if msg.Owner == "" || msg.Escrow == "" || msg.HubPrefix == "" {
		return nil, fmt.Errorf("owner, escrow and hub_prefix are required")
	}
	minAlloc := math.LegacyZeroDec()
	if msg.MainPoolMinAlloc != "" {
		var err error
		minAlloc, err = math.LegacyNewDecFromStr(msg.MainPoolMinAlloc)
		if err != nil {
			return nil, err
		}
		if minAlloc.IsNegative() || minAlloc.GTE(math.LegacyOneDec()) {
			return nil, fmt.Errorf("main_pool_min_alloc must be within [0, 1)")
		}
	}
	cfg := Config{
		Owner:             msg.Owner,
		Escrow:            msg.Escrow,
		Factory:           msg.Factory,
		Incentives:        msg.Incentives,
		Assembly:          msg.Assembly,
		HubPrefix:         msg.HubPrefix,
		PoolsPerOutpost:   msg.PoolsPerOutpost,
		MainPool:          msg.MainPool,
		MainPoolMinAlloc:  minAlloc,
		IBCTimeoutSeconds: msg.IBCTimeoutSeconds,
	}
	if err := configItem.Save(deps.Storage, cfg); err != nil {
		return nil, err
	}
	if err := versionItem.Save(deps.Storage, ContractVersion{
		Contract: ContractName,
		Version:  contractVersion,
	}); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "instantiate"), nil
}

func Execute(deps cw.Deps, env cw.Env, info cw.MessageInfo, msg ExecuteMsg) (*cw.Response, error) {
	cfg, err := configItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.Vote != nil:
		return vote(deps, env, info, cfg, msg.Vote.Votes)
	case msg.Kick != nil:
		return kick(deps, env, info, cfg, msg.Kick.User)
	case msg.TunePools != nil:
		return tunePools(deps, env, cfg)
	case msg.RetryFailedOutposts != nil:
		return retryFailedOutposts(deps, env, cfg)
	case msg.UpdateWhitelist != nil:
		return updateWhitelist(deps, info, cfg, msg.UpdateWhitelist)
	case msg.UpdateOutpost != nil:
		return updateOutpost(deps, info, cfg, msg.UpdateOutpost)
	case msg.RemoveOutpost != nil:
		return removeOutpost(deps, info, cfg, msg.RemoveOutpost.Prefix)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, info, cfg, msg.UpdateConfig)
	default:
		return nil, fmt.Errorf("unknown execute message")
	}
}

// poolExistsQuery is the factory collaborator interface used to validate a
// pool before whitelisting it.
type poolExistsQuery struct {
	PoolExists struct {
		Pool string `json:"pool"`
	} `json:"pool_exists"`
}

type poolExistsResponse struct {
	Exists bool `json:"exists"`
}

func validatePoolWithFactory(deps cw.Deps, cfg Config, pool string) error {
	if cfg.Factory == "" {
		return nil
	}
	var q poolExistsQuery
	q.PoolExists.Pool = pool
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	resp, err := deps.Querier.QuerySmart(cfg.Factory, raw)
	if err != nil {
		return err
	}
	var out poolExistsResponse
	if err = json.Unmarshal(resp, &out); err != nil {
		return err
	}
	if !out.Exists {
		return fmt.Errorf("pool %q is not registered in the factory", pool)
	}
	return nil
}

func updateWhitelist(deps cw.Deps, info cw.MessageInfo, cfg Config, msg *UpdateWhitelist) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	resp := cw.NewResponse().AddAttribute("action", "update_whitelist")
	for _, pool := range msg.Add {
		prefix := outpostPrefix(pool)
		if prefix != cfg.HubPrefix && !outposts.Has(deps.Storage, []byte(prefix)) {
			return nil, ErrUnknownOutpost(prefix)
		}
		if prefix == cfg.HubPrefix {
			if err := validatePoolWithFactory(deps, cfg, pool); err != nil {
				return nil, err
			}
		}
		if err := whitelist.Save(deps.Storage, []byte(pool), struct{}{}); err != nil {
			return nil, err
		}
		resp.AddAttribute("added", pool)
	}
	for _, pool := range msg.Remove {
		whitelist.Remove(deps.Storage, []byte(pool))
		resp.AddAttribute("removed", pool)
	}
	return resp, nil
}

func updateOutpost(deps cw.Deps, info cw.MessageInfo, cfg Config, msg *UpdateOutpost) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	if msg.Prefix == "" || msg.Channel == "" {
		return nil, fmt.Errorf("prefix and channel are required")
	}
	if msg.Prefix == cfg.HubPrefix {
		return nil, fmt.Errorf("hub prefix cannot be registered as an outpost")
	}
	if err := outposts.Save(deps.Storage, []byte(msg.Prefix), msg.Channel); err != nil {
		return nil, err
	}
	return cw.NewResponse().
		AddAttribute("action", "update_outpost").
		AddAttribute("prefix", msg.Prefix).
		AddAttribute("channel", msg.Channel), nil
}

func removeOutpost(deps cw.Deps, info cw.MessageInfo, cfg Config, prefix string) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	outposts.Remove(deps.Storage, []byte(prefix))
	return cw.NewResponse().
		AddAttribute("action", "remove_outpost").
		AddAttribute("prefix", prefix), nil
}

func updateConfig(deps cw.Deps, info cw.MessageInfo, cfg Config, msg *UpdateConfig) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	if msg.NewOwner != nil {
		cfg.Owner = *msg.NewOwner
	}
	if msg.NewPoolsPerOutpost != nil {
		cfg.PoolsPerOutpost = *msg.NewPoolsPerOutpost
	}
	if msg.NewMainPool != nil {
		cfg.MainPool = *msg.NewMainPool
	}
	if msg.NewMainPoolMinAlloc != nil {
		minAlloc, err := math.LegacyNewDecFromStr(*msg.NewMainPoolMinAlloc)
		if err != nil {
			return nil, err
		}
		if minAlloc.IsNegative() || minAlloc.GTE(math.LegacyOneDec()) {
			return nil, fmt.Errorf("main_pool_min_alloc must be within [0, 1)")
		}
		cfg.MainPoolMinAlloc = minAlloc
	}
	if err := configItem.Save(deps.Storage, cfg); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "update_config"), nil
}

func Query(deps cw.Deps, env cw.Env, msg QueryMsg) ([]byte, error) {
	switch {
	case msg.Config != nil:
		cfg, err := configItem.Load(deps.Storage)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cfg)
	case msg.UserInfo != nil:
		ui, err := userInfos.Load(deps.Storage, []byte(msg.UserInfo.User))
		if err != nil {
			return nil, err
		}
		return json.Marshal(UserInfoResponse{
			VoteTime:    ui.VoteTime,
			VotingPower: ui.VotingPower.String(),
			Slope:       ui.Slope.String(),
			LockEnd:     ui.LockEnd,
			Votes:       ui.Votes,
		})
	case msg.TuneInfo != nil:
		// before the first tune the item is absent; report a zero TuneTime
		// so pollers see the first epoch as overdue instead of an error
		info, ok, err := tuneItem.May(deps.Storage)
		if err != nil {
			return nil, err
		}
		if !ok {
			info = TuneInfo{
				PoolsGrouped:  map[string][]PoolAlloc{},
				OutpostStatus: map[string]OutpostStatus{},
			}
		}
		return json.Marshal(info)
	case msg.PoolVotingPower != nil:
		return poolPowerResponse(deps, msg.PoolVotingPower.Pool, period.FromTime(env.BlockTime))
	case msg.PoolVotingPowerAtPeriod != nil:
		return poolPowerResponse(deps, msg.PoolVotingPowerAtPeriod.Pool, msg.PoolVotingPowerAtPeriod.Period)
	case msg.VotedPools != nil:
		return votedPoolsResponse(deps, msg.VotedPools)
	case msg.Outposts != nil:
		out := OutpostsResponse{Outposts: map[string]string{}}
		err := outposts.Range(deps.Storage, nil, nil, cw.Ascending,
			func(key []byte, channel string) (bool, error) {
				out.Outposts[string(key)] = channel
				return true, nil
			})
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	case msg.Whitelist != nil:
		out := WhitelistResponse{Pools: []string{}}
		err := whitelist.Range(deps.Storage, nil, nil, cw.Ascending,
			func(key []byte, _ struct{}) (bool, error) {
				out.Pools = append(out.Pools, string(key))
				return true, nil
			})
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("unknown query message")
	}
}

func poolPowerResponse(deps cw.Deps, pool string, p uint64) ([]byte, error) {
	power, err := poolPowerAtPeriod(deps.Storage, pool, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(VotingPowerResponse{VotingPower: power.String()})
}

const defaultPageLimit = 30

func votedPoolsResponse(deps cw.Deps, q *VotedPoolsQuery) ([]byte, error) {
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageLimit
	}
	var start []byte
	if q.StartAfter != "" {
		start = append([]byte(q.StartAfter), 0)
	}
	out := VotedPoolsResponse{Pools: []string{}}
	err := votedPools.Range(deps.Storage, start, nil, cw.Ascending,
		func(key []byte, _ struct{}) (bool, error) {
			out.Pools = append(out.Pools, string(key))
			return uint32(len(out.Pools)) < limit, nil
		})
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// Migrate only asserts the stored contract identity and bumps the version.
func Migrate(deps cw.Deps, _ cw.Env, _ MigrateMsg) (*cw.Response, error) {
	stored, err := versionItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	if stored.Contract != ContractName {
		return nil, fmt.Errorf("cannot migrate %q into %s", stored.Contract, ContractName)
	}
	if err = versionItem.Save(deps.Storage, ContractVersion{
		Contract: ContractName,
		Version:  contractVersion,
	}); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "migrate"), nil
}
