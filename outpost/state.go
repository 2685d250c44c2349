package outpost

import (
	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/state"
)

type Config struct {
	Owner             string `json:"owner"`
	Escrow            string `json:"escrow"`
	Incentives        string `json:"incentives"`
	HubChannel        string `json:"hub_channel,omitempty"`
	IBCTimeoutSeconds uint64 `json:"ibc_timeout_seconds"`
}

// Request kinds held in the pending map.
const (
	KindVote       = "vote"
	KindUnlock     = "unlock"
	KindGovernance = "governance"
	KindProposal   = "proposal"
)

// PendingRequest blocks a second in-flight cross-chain mutation for a voter
// and retains the original packet for compensation or inspection.
type PendingRequest struct {
	Kind   string                  `json:"kind"`
	Packet emissions.OutpostPacket `json:"packet"`
	SentAt uint64                  `json:"sent_at"`
}

// UserIBCError is the durable record of a failed relay, inspectable by
// query. Retries are fresh user transactions, never automatic.
type UserIBCError struct {
	Kind     string                  `json:"kind"`
	Error    string                  `json:"error"`
	Packet   emissions.OutpostPacket `json:"packet"`
	FailedAt uint64                  `json:"failed_at"`
}

// ContractVersion is the cw2-style version marker asserted by Migrate.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

const (
	ContractName    = "helix-outpost-controller"
	contractVersion = "1.1.0"
)

var (
	configItem  = state.NewItem[Config]("config")
	versionItem = state.NewItem[ContractVersion]("contract_info")
	pending     = state.NewMap[PendingRequest]("pending")
	ibcErrors   = state.NewMap[UserIBCError]("ibc_errors")
)
