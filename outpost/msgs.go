package outpost

import "github.com/helixswap/governance/emissions"

// InstantiateMsg configures the outpost controller.
type InstantiateMsg struct {
	Owner string `json:"owner"`
	// Escrow is the outpost's local voting-escrow contract
	Escrow string `json:"escrow"`
	// Incentives receives emission allocations relayed from the hub
	Incentives string `json:"incentives"`
	// HubChannel is the IBC channel to the hub emissions controller
	HubChannel        string `json:"hub_channel,omitempty"`
	IBCTimeoutSeconds uint64 `json:"ibc_timeout_seconds"`
}

// ExecuteMsg is a tagged union; exactly one variant is set.
type ExecuteMsg struct {
	Vote             *Vote             `json:"vote,omitempty"`
	Kick             *Kick             `json:"kick,omitempty"`
	RegisterProposal *RegisterProposal `json:"register_proposal,omitempty"`
	GovernanceVote   *GovernanceVote   `json:"governance_vote,omitempty"`
	ClearIBCError    *ClearIBCError    `json:"clear_ibc_error,omitempty"`
	UpdateConfig     *UpdateConfig     `json:"update_config,omitempty"`
}

type Vote struct {
	Votes []emissions.PoolWeight `json:"votes"`
}

// Kick is the local escrow hook on unlock; it relays the unlock to the hub
// so the voter's gauge contribution is removed there.
type Kick struct {
	User string `json:"user"`
}

type RegisterProposal struct {
	ProposalID uint64 `json:"proposal_id"`
}

type GovernanceVote struct {
	ProposalID uint64 `json:"proposal_id"`
	Vote       string `json:"vote"`
}

type ClearIBCError struct{}

type UpdateConfig struct {
	NewOwner      *string `json:"new_owner,omitempty"`
	NewHubChannel *string `json:"new_hub_channel,omitempty"`
}

// QueryMsg is a tagged union; exactly one variant is set.
type QueryMsg struct {
	Config      *ConfigQuery      `json:"config,omitempty"`
	PendingUser *PendingUserQuery `json:"pending_user,omitempty"`
	IBCError    *IBCErrorQuery    `json:"ibc_error,omitempty"`
}

type ConfigQuery struct{}

type PendingUserQuery struct {
	User string `json:"user"`
}

type IBCErrorQuery struct {
	User string `json:"user"`
}

// MigrateMsg carries no fields; migrations only bump the stored version.
type MigrateMsg struct{}

type PendingUserResponse struct {
	Pending bool   `json:"pending"`
	Kind    string `json:"kind,omitempty"`
	SentAt  uint64 `json:"sent_at,omitempty"`
}
