package emissions

// InstantiateMsg configures the hub emissions controller.
type InstantiateMsg struct {
	Owner string `json:"owner"`
	// Escrow is the hub voting-escrow contract
	Escrow string `json:"escrow"`
	// Factory validates pools before whitelisting
	Factory string `json:"factory"`
	// Incentives receives hub-local emission allocations
	Incentives string `json:"incentives"`
	// Assembly receives relayed governance proposals and votes
	Assembly string `json:"assembly"`
	// HubPrefix is the bech32 prefix of hub-local pools
	HubPrefix string `json:"hub_prefix"`
	// PoolsPerOutpost caps how many pools per outpost receive emissions
	PoolsPerOutpost uint32 `json:"pools_per_outpost"`
	// MainPool, if set, is guaranteed MainPoolMinAlloc of emissions
	MainPool         string `json:"main_pool,omitempty"`
	MainPoolMinAlloc string `json:"main_pool_min_alloc,omitempty"`
	// IBCTimeoutSeconds is the packet lifetime for outpost messages
	IBCTimeoutSeconds uint64 `json:"ibc_timeout_seconds"`
}

// ExecuteMsg is a tagged union; exactly one variant is set.
type ExecuteMsg struct {
	Vote                *Vote                `json:"vote,omitempty"`
	Kick                *Kick                `json:"kick,omitempty"`
	TunePools           *TunePools           `json:"tune_pools,omitempty"`
	RetryFailedOutposts *RetryFailedOutposts `json:"retry_failed_outposts,omitempty"`
	UpdateWhitelist     *UpdateWhitelist     `json:"update_whitelist,omitempty"`
	UpdateOutpost       *UpdateOutpost       `json:"update_outpost,omitempty"`
	RemoveOutpost       *RemoveOutpost       `json:"remove_outpost,omitempty"`
	UpdateConfig        *UpdateConfig        `json:"update_config,omitempty"`
}

// PoolWeight allocates a share of the voter's power, in basis points.
type PoolWeight struct {
	Pool   string `json:"pool"`
	Weight uint16 `json:"weight"`
}

type Vote struct {
	Votes []PoolWeight `json:"votes"`
}

// Kick removes a voter's live contribution without a replacement vote. Sent
// by the escrow contract on unlock/blacklist, or by the owner.
type Kick struct {
	User string `json:"user"`
}

type TunePools struct{}

type RetryFailedOutposts struct{}

type UpdateWhitelist struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

type UpdateOutpost struct {
	Prefix  string `json:"prefix"`
	Channel string `json:"channel"`
}

type RemoveOutpost struct {
	Prefix string `json:"prefix"`
}

type UpdateConfig struct {
	NewOwner            *string `json:"new_owner,omitempty"`
	NewPoolsPerOutpost  *uint32 `json:"new_pools_per_outpost,omitempty"`
	NewMainPool         *string `json:"new_main_pool,omitempty"`
	NewMainPoolMinAlloc *string `json:"new_main_pool_min_alloc,omitempty"`
}

// QueryMsg is a tagged union; exactly one variant is set.
type QueryMsg struct {
	Config                  *ConfigQuery             `json:"config,omitempty"`
	UserInfo                *UserInfoQuery           `json:"user_info,omitempty"`
	TuneInfo                *TuneInfoQuery           `json:"tune_info,omitempty"`
	PoolVotingPower         *PoolVotingPowerQuery    `json:"pool_voting_power,omitempty"`
	PoolVotingPowerAtPeriod *PoolVotingPowerAtPeriod `json:"pool_voting_power_at_period,omitempty"`
	VotedPools              *VotedPoolsQuery         `json:"voted_pools,omitempty"`
	Outposts                *OutpostsQuery           `json:"outposts,omitempty"`
	Whitelist               *WhitelistQuery          `json:"whitelist,omitempty"`
}

type ConfigQuery struct{}

type UserInfoQuery struct {
	User string `json:"user"`
}

type TuneInfoQuery struct{}

type PoolVotingPowerQuery struct {
	Pool string `json:"pool"`
}

type PoolVotingPowerAtPeriod struct {
	Pool   string `json:"pool"`
	Period uint64 `json:"period"`
}

type VotedPoolsQuery struct {
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type OutpostsQuery struct{}

type WhitelistQuery struct{}

// MigrateMsg carries no fields; migrations only bump the stored version.
type MigrateMsg struct{}

type UserInfoResponse struct {
	VoteTime    uint64       `json:"vote_time"`
	VotingPower string       `json:"voting_power"`
	Slope       string       `json:"slope"`
	LockEnd     uint64       `json:"lock_end,omitempty"`
	Votes       []PoolWeight `json:"votes"`
}

type VotingPowerResponse struct {
	VotingPower string `json:"voting_power"`
}

type VotedPoolsResponse struct {
	Pools []string `json:"pools"`
}

type OutpostsResponse struct {
	Outposts map[string]string `json:"outposts"`
}

type WhitelistResponse struct {
	Pools []string `json:"pools"`
}
