// Package outpost implements the remote-chain controller: it relays local
// lock/vote/unlock events to the hub emissions controller over IBC with an
// explicit pending/ack/timeout/error state machine per voter, and applies
// emission allocations the hub sends back.
package outpost

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/escrow"
	"github.com/helixswap/governance/period"
)

func Instantiate(deps cw.Deps, _ cw.Env, _ cw.MessageInfo, msg InstantiateMsg) (*cw.Response, error) {
	if msg.Owner == "" || msg.Escrow == "" {
		return nil, fmt.Errorf("owner and escrow are required")
	}
	cfg := Config{
		Owner:             msg.Owner,
		Escrow:            msg.Escrow,
		Incentives:        msg.Incentives,
		HubChannel:        msg.HubChannel,
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
		return relayUnlock(deps, env, info, cfg, msg.Kick.User)
	case msg.RegisterProposal != nil:
		return relayProposal(deps, env, info, cfg, msg.RegisterProposal.ProposalID)
	case msg.GovernanceVote != nil:
		return relayGovernanceVote(deps, env, info, cfg, msg.GovernanceVote)
	case msg.ClearIBCError != nil:
		return clearIBCError(deps, info)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, info, cfg, msg.UpdateConfig)
	default:
		return nil, fmt.Errorf("unknown execute message")
	}
}

// localVotingPower reads the voter's power from the outpost escrow. The
// snapshot travels inside the packet; the hub never queries back.
func localVotingPower(deps cw.Deps, escrowAddr, voter string) (math.Uint, error) {
	raw, err := json.Marshal(escrow.QueryMsg{
		UserVotingPower: &escrow.UserVotingPowerQuery{User: voter},
	})
	if err != nil {
		return math.Uint{}, err
	}
	resp, err := deps.Querier.QuerySmart(escrowAddr, raw)
	if err != nil {
		return math.Uint{}, err
	}
	var vp escrow.VotingPowerResponse
	if err = json.Unmarshal(resp, &vp); err != nil {
		return math.Uint{}, err
	}
	power, err := math.ParseUint(vp.VotingPower)
	if err != nil {
		return math.Uint{}, err
	}
	if power.IsZero() {
		return math.Uint{}, ErrZeroVotingPower
	}
	return power, nil
}

// sendToHub queues the packet and records the pending request. The presence
// check is the lock substitute: at most one in-flight mutation per voter.
func sendToHub(deps cw.Deps, env cw.Env, cfg Config, voter, kind string, packet emissions.OutpostPacket, resp *cw.Response) error {
	if cfg.HubChannel == "" {
		return ErrNoHubChannel
	}
	if pending.Has(deps.Storage, []byte(voter)) {
		return ErrPendingUser
	}
	if err := pending.Save(deps.Storage, []byte(voter), PendingRequest{
		Kind:   kind,
		Packet: packet,
		SentAt: uint64(env.BlockTime.Unix()),
	}); err != nil {
		return err
	}
	resp.AddMessage(cw.SendPacket(cfg.HubChannel, packet, cfg.IBCTimeoutSeconds))
	return nil
}

func validateVotes(votes []emissions.PoolWeight) error {
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
	}
	if total > uint64(period.MaxBPS) {
		return ErrExceededMaxBPS
	}
	return nil
}

func vote(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, votes []emissions.PoolWeight) (*cw.Response, error) {
	// structural checks run here; whitelist membership is the hub's call
	// and comes back as an error ack if it fails
	if err := validateVotes(votes); err != nil {
		return nil, err
	}
	power, err := localVotingPower(deps, cfg.Escrow, info.Sender)
	if err != nil {
		return nil, err
	}
	resp := cw.NewResponse().
		AddAttribute("action", "outpost_vote").
		AddAttribute("voter", info.Sender)
	err = sendToHub(deps, env, cfg, info.Sender, KindVote, emissions.OutpostPacket{
		Vote: &emissions.OutpostVote{
			Voter:       info.Sender,
			VotingPower: power.String(),
			Votes:       votes,
		},
	}, resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// relayUnlock forwards a local unlock to the hub. The escrow has already
// zeroed the position locally; if the relay fails the ack/timeout path
// relocks it.
func relayUnlock(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, user string) (*cw.Response, error) {
	if info.Sender != cfg.Escrow && info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	resp := cw.NewResponse().
		AddAttribute("action", "relay_unlock").
		AddAttribute("user", user)
	err := sendToHub(deps, env, cfg, user, KindUnlock, emissions.OutpostPacket{
		Unlock: &emissions.OutpostUnlock{Voter: user},
	}, resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func relayProposal(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, proposalID uint64) (*cw.Response, error) {
	resp := cw.NewResponse().
		AddAttribute("action", "relay_proposal").
		AddAttribute("proposal_id", fmt.Sprint(proposalID))
	err := sendToHub(deps, env, cfg, info.Sender, KindProposal, emissions.OutpostPacket{
		RegisterProposal: &emissions.RegisterProposal{ProposalID: proposalID},
	}, resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func relayGovernanceVote(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, msg *GovernanceVote) (*cw.Response, error) {
	if msg.Vote != "for" && msg.Vote != "against" {
		return nil, fmt.Errorf("vote option must be \"for\" or \"against\"")
	}
	power, err := localVotingPower(deps, cfg.Escrow, info.Sender)
	if err != nil {
		return nil, err
	}
	resp := cw.NewResponse().
		AddAttribute("action", "relay_governance_vote").
		AddAttribute("voter", info.Sender).
		AddAttribute("proposal_id", fmt.Sprint(msg.ProposalID))
	err = sendToHub(deps, env, cfg, info.Sender, KindGovernance, emissions.OutpostPacket{
		GovernanceVote: &emissions.GovernanceVote{
			Voter:       info.Sender,
			VotingPower: power.String(),
			ProposalID:  msg.ProposalID,
			Vote:        msg.Vote,
		},
	}, resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func clearIBCError(deps cw.Deps, info cw.MessageInfo) (*cw.Response, error) {
	if !ibcErrors.Has(deps.Storage, []byte(info.Sender)) {
		return nil, ErrNoIBCError
	}
	ibcErrors.Remove(deps.Storage, []byte(info.Sender))
	return cw.NewResponse().
		AddAttribute("action", "clear_ibc_error").
		AddAttribute("user", info.Sender), nil
}

func updateConfig(deps cw.Deps, info cw.MessageInfo, cfg Config, msg *UpdateConfig) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	if msg.NewOwner != nil {
		cfg.Owner = *msg.NewOwner
	}
	if msg.NewHubChannel != nil {
		cfg.HubChannel = *msg.NewHubChannel
	}
	if err := configItem.Save(deps.Storage, cfg); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "update_config"), nil
}

func Query(deps cw.Deps, _ cw.Env, msg QueryMsg) ([]byte, error) {
	switch {
	case msg.Config != nil:
		cfg, err := configItem.Load(deps.Storage)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cfg)
	case msg.PendingUser != nil:
		req, ok, err := pending.May(deps.Storage, []byte(msg.PendingUser.User))
		if err != nil {
			return nil, err
		}
		if !ok {
			return json.Marshal(PendingUserResponse{Pending: false})
		}
		return json.Marshal(PendingUserResponse{Pending: true, Kind: req.Kind, SentAt: req.SentAt})
	case msg.IBCError != nil:
		rec, err := ibcErrors.Load(deps.Storage, []byte(msg.IBCError.User))
		if err != nil {
			return nil, ErrNoIBCError
		}
		return json.Marshal(rec)
	default:
		return nil, fmt.Errorf("unknown query message")
	}
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
