package emissions

import (
	"strings"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/checkpoint"
	"github.com/helixswap/governance/state"
)

type Config struct {
	Owner             string         `json:"owner"`
	Escrow            string         `json:"escrow"`
	Factory           string         `json:"factory"`
	Incentives        string         `json:"incentives"`
	Assembly          string         `json:"assembly"`
	HubPrefix         string         `json:"hub_prefix"`
	PoolsPerOutpost   uint32         `json:"pools_per_outpost"`
	MainPool          string         `json:"main_pool,omitempty"`
	MainPoolMinAlloc  math.LegacyDec `json:"main_pool_min_alloc"`
	IBCTimeoutSeconds uint64         `json:"ibc_timeout_seconds"`
}

// UserInfo is the voter's currently applied vote. A new vote fully replaces
// it; Slope and LockEnd describe how the applied contribution decays
// (zero/unbounded for outpost voters, whose snapshots do not decay).
type UserInfo struct {
	VoteTime    uint64       `json:"vote_time"`
	VotePeriod  uint64       `json:"vote_period"`
	VotingPower math.Uint    `json:"voting_power"`
	Slope       math.Uint    `json:"slope"`
	LockEnd     uint64       `json:"lock_end,omitempty"`
	Votes       []PoolWeight `json:"votes"`
}

// OutpostStatus is the per-outpost lifecycle of one tune round.
type OutpostStatus string

const (
	StatusInProgress OutpostStatus = "in_progress"
	StatusDone       OutpostStatus = "done"
	StatusFailed     OutpostStatus = "failed"
)

type PoolAlloc struct {
	Pool string `json:"pool"`
	// Alloc is the pool's share of emissions for this round
	Alloc math.LegacyDec `json:"alloc"`
}

// TuneInfo is the per-epoch emissions snapshot, replaced wholesale at the
// next tune and mutated only by ack/timeout/reply callbacks in between.
type TuneInfo struct {
	TuneTime      uint64                   `json:"tune_time"`
	PoolsGrouped  map[string][]PoolAlloc   `json:"pools_grouped"`
	OutpostStatus map[string]OutpostStatus `json:"outpost_status"`
}

const (
	ContractName    = "helix-emissions-controller"
	contractVersion = "1.1.0"

	// hubGroup keys the hub-local allocation group in TuneInfo.
	hubGroup = "hub"

	// replyTuneHub correlates the incentives submessage with the reply
	// that settles the hub group's status.
	replyTuneHub uint64 = 1
)

var (
	configItem  = state.NewItem[Config]("config")
	versionItem = state.NewItem[ContractVersion]("contract_info")
	tuneItem    = state.NewItem[TuneInfo]("tune_info")
	userInfos   = state.NewMap[UserInfo]("user_info")
	whitelist   = state.NewMap[struct{}]("whitelist")
	votedPools  = state.NewMap[struct{}]("voted_pools")
	// outposts maps bech32 prefix -> IBC channel id.
	outposts    = state.NewMap[string]("outposts")
	poolHistory = checkpoint.NewHistory("pool_points")
	// poolSlopeChanges aggregates, per (pool, period), the decay-rate
	// reduction to apply when voters' locks expire.
	poolSlopeChanges = state.NewMap[math.Uint]("pool_slope_changes")
)

// ContractVersion is the cw2-style version marker asserted by Migrate.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

// poolPeriodKey builds the composite (pool, period) key for slope changes.
func poolPeriodKey(pool string, p uint64) []byte {
	key := make([]byte, 0, 2+len(pool)+8)
	key = append(key, byte(len(pool)>>8), byte(len(pool)))
	key = append(key, pool...)
	return append(key, state.U64Key(p)...)
}

// outpostPrefix extracts the bech32 human-readable part of a pool address.
// Returns "" when the address has no separator.
func outpostPrefix(addr string) string {
	idx := strings.LastIndex(addr, "1")
	if idx <= 0 {
		return ""
	}
	return addr[:idx]
}
