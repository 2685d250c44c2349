package escrow

// InstantiateMsg configures the voting-escrow ledger.
type InstantiateMsg struct {
	// Owner may manage the blacklist and force-unlock voters
	Owner string `json:"owner"`
	// Denom of the token accepted for deposits
	Denom string `json:"denom"`
	// Controller is the emissions controller (hub) or outpost controller
	// (remote chain) kicked on unlock and allowed to relock
	Controller string `json:"controller,omitempty"`
}

// ExecuteMsg is a tagged union; exactly one variant is set.
type ExecuteMsg struct {
	CreateLock       *CreateLock       `json:"create_lock,omitempty"`
	ExtendLockTime   *ExtendLockTime   `json:"extend_lock_time,omitempty"`
	ExtendLockAmount *ExtendLockAmount `json:"extend_lock_amount,omitempty"`
	Unlock           *Unlock           `json:"unlock,omitempty"`
	Withdraw         *Withdraw         `json:"withdraw,omitempty"`
	Relock           *Relock           `json:"relock,omitempty"`
	ForceUnlock      *ForceUnlock      `json:"force_unlock,omitempty"`
	UpdateBlacklist  *UpdateBlacklist  `json:"update_blacklist,omitempty"`
	UpdateConfig     *UpdateConfig     `json:"update_config,omitempty"`
}

type CreateLock struct {
	// Time is the lock duration in seconds, rounded down to whole periods
	Time uint64 `json:"time"`
}

type ExtendLockTime struct {
	// Time is added to the current lock end, in seconds
	Time uint64 `json:"time"`
}

type ExtendLockAmount struct{}

type Unlock struct{}

type Withdraw struct{}

// Relock restores an unlocking position. Only the configured controller (or
// the owner) may call it; it is the compensation path for a failed
// cross-chain unlock.
type Relock struct {
	User string `json:"user"`
}

type ForceUnlock struct {
	User string `json:"user"`
}

type UpdateBlacklist struct {
	Append []string `json:"append_addrs,omitempty"`
	Remove []string `json:"remove_addrs,omitempty"`
}

type UpdateConfig struct {
	NewController *string `json:"new_controller,omitempty"`
	NewOwner      *string `json:"new_owner,omitempty"`
}

// QueryMsg is a tagged union; exactly one variant is set.
type QueryMsg struct {
	Config                   *ConfigQuery              `json:"config,omitempty"`
	LockInfo                 *LockInfoQuery            `json:"lock_info,omitempty"`
	UserVotingPower          *UserVotingPowerQuery     `json:"user_voting_power,omitempty"`
	UserVotingPowerAt        *UserVotingPowerAtQuery   `json:"user_voting_power_at,omitempty"`
	UserVotingPowerAtPeriod  *UserVotingPowerAtPeriod  `json:"user_voting_power_at_period,omitempty"`
	TotalVotingPower         *TotalVotingPowerQuery    `json:"total_voting_power,omitempty"`
	TotalVotingPowerAt       *TotalVotingPowerAtQuery  `json:"total_voting_power_at,omitempty"`
	TotalVotingPowerAtPeriod *TotalVotingPowerAtPeriod `json:"total_voting_power_at_period,omitempty"`
	BlacklistedVoters        *BlacklistedVotersQuery   `json:"blacklisted_voters,omitempty"`
}

type ConfigQuery struct{}

type LockInfoQuery struct {
	User string `json:"user"`
}

type UserVotingPowerQuery struct {
	User string `json:"user"`
}

type UserVotingPowerAtQuery struct {
	User string `json:"user"`
	Time uint64 `json:"time"`
}

type UserVotingPowerAtPeriod struct {
	User   string `json:"user"`
	Period uint64 `json:"period"`
}

type TotalVotingPowerQuery struct{}

type TotalVotingPowerAtQuery struct {
	Time uint64 `json:"time"`
}

type TotalVotingPowerAtPeriod struct {
	Period uint64 `json:"period"`
}

type BlacklistedVotersQuery struct {
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// MigrateMsg carries no fields; migrations only bump the stored version.
type MigrateMsg struct{}

type LockInfoResponse struct {
	Amount string `json:"amount"`
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
	Slope  string `json:"slope"`
	// UnlockedAt is the unix time withdraw becomes available, present only
	// while the position is unlocking
	UnlockedAt *uint64 `json:"unlocked_at,omitempty"`
}

type VotingPowerResponse struct {
	VotingPower string `json:"voting_power"`
}

type BlacklistedVotersResponse struct {
	Voters []string `json:"voters"`
}
