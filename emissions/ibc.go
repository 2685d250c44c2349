package emissions

import (
	"encoding/json"
	"fmt"
	"strings"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/checkpoint"
	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/period"
)

// IBCVersion is the exact channel version both sides must agree on.
const IBCVersion = "helix-governance-v1"

// OutpostPacket travels outpost -> hub. Exactly one variant is set.
type OutpostPacket struct {
	Vote             *OutpostVote      `json:"vote,omitempty"`
	Unlock           *OutpostUnlock    `json:"unlock,omitempty"`
	RegisterProposal *RegisterProposal `json:"register_proposal,omitempty"`
	GovernanceVote   *GovernanceVote   `json:"governance_vote,omitempty"`
}

type OutpostVote struct {
	Voter string `json:"voter"`
	// VotingPower is the voter's power snapshot on the outpost; remote
	// snapshots do not decay on the hub, they are wiped on unlock
	VotingPower string       `json:"voting_power"`
	Votes       []PoolWeight `json:"votes"`
}

type OutpostUnlock struct {
	Voter string `json:"voter"`
}

type RegisterProposal struct {
	ProposalID uint64 `json:"proposal_id"`
}

type GovernanceVote struct {
	Voter       string `json:"voter"`
	VotingPower string `json:"voting_power"`
	ProposalID  uint64 `json:"proposal_id"`
	Vote        string `json:"vote"`
}

// HubPacket travels hub -> outpost. Exactly one variant is set.
type HubPacket struct {
	UpdateEmissions *UpdateEmissions `json:"update_emissions,omitempty"`
}

type UpdateEmissions struct {
	Pools []PoolAlloc `json:"pools"`
}

// IBCChannelOpen enforces an unordered channel with the exact version.
func IBCChannelOpen(_ cw.Deps, _ cw.Env, msg cw.IBCChannelOpenMsg) error {
	if msg.Channel.Order != cw.ChannelOrderUnordered {
		return fmt.Errorf("only unordered channels are supported")
	}
	if msg.Channel.Version != IBCVersion {
		return fmt.Errorf("channel version must be %s", IBCVersion)
	}
	if msg.CounterpartyVersion != "" && msg.CounterpartyVersion != IBCVersion {
		return fmt.Errorf("counterparty version must be %s", IBCVersion)
	}
	return nil
}

func IBCChannelConnect(_ cw.Deps, _ cw.Env, _ cw.IBCChannelConnectMsg) (*cw.Response, error) {
	return cw.NewResponse().AddAttribute("action", "ibc_connect"), nil
}

// IBCChannelClose is accepted unconditionally so outposts can be
// decommissioned.
func IBCChannelClose(_ cw.Deps, _ cw.Env, _ cw.IBCChannelCloseMsg) (*cw.Response, error) {
	return cw.NewResponse().AddAttribute("action", "ibc_close"), nil
}

// outpostByChannel resolves the registered outpost owning a channel.
func outpostByChannel(store cw.Storage, channelID string) (string, error) {
	found := ""
	err := outposts.Range(store, nil, nil, cw.Ascending, func(key []byte, channel string) (bool, error) {
		if channel == channelID {
			found = string(key)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrUnknownChannel
	}
	return found, nil
}

// IBCPacketReceive handles outpost packets. Failures become an error ack so
// the outpost can record them per user; nothing is committed first because
// every handler validates before mutating.
func IBCPacketReceive(deps cw.Deps, env cw.Env, msg cw.IBCPacketReceiveMsg) (*cw.IBCReceiveResponse, error) {
	resp, err := receiveOutpostPacket(deps, env, msg)
	if err != nil {
		return &cw.IBCReceiveResponse{Acknowledgement: cw.AckError(err)}, nil
	}
	return resp, nil
}

func receiveOutpostPacket(deps cw.Deps, env cw.Env, msg cw.IBCPacketReceiveMsg) (*cw.IBCReceiveResponse, error) {
	cfg, err := configItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	prefix, err := outpostByChannel(deps.Storage, msg.Packet.Dest.ChannelID)
	if err != nil {
		return nil, err
	}
	var packet OutpostPacket
	if err = json.Unmarshal(msg.Packet.Data, &packet); err != nil {
		return nil, fmt.Errorf("malformed outpost packet: %w", err)
	}

	switch {
	case packet.Vote != nil:
		return receiveVote(deps, env, prefix, packet.Vote)
	case packet.Unlock != nil:
		return receiveUnlock(deps, env, prefix, packet.Unlock)
	case packet.RegisterProposal != nil:
		return forwardToAssembly(cfg, "register_outpost_proposal", map[string]any{
			"proposal_id": packet.RegisterProposal.ProposalID,
			"outpost":     prefix,
		})
	case packet.GovernanceVote != nil:
		return forwardToAssembly(cfg, "cast_outpost_vote", map[string]any{
			"voter":        packet.GovernanceVote.Voter,
			"voting_power": packet.GovernanceVote.VotingPower,
			"proposal_id":  packet.GovernanceVote.ProposalID,
			"vote":         packet.GovernanceVote.Vote,
		})
	default:
		return nil, fmt.Errorf("unknown outpost packet variant")
	}
}

// assertVoterPrefix ties a remote voter to the outpost the packet came from.
func assertVoterPrefix(voter, prefix string) error {
	if !strings.HasPrefix(voter, prefix+"1") {
		return fmt.Errorf("voter %q does not belong to outpost %q", voter, prefix)
	}
	return nil
}

func receiveVote(deps cw.Deps, env cw.Env, prefix string, v *OutpostVote) (*cw.IBCReceiveResponse, error) {
	if err := assertVoterPrefix(v.Voter, prefix); err != nil {
		return nil, err
	}
	if err := validateVotes(deps.Storage, v.Votes); err != nil {
		return nil, err
	}
	now := uint64(env.BlockTime.Unix())
	if err := checkCooldown(deps.Storage, v.Voter, now); err != nil {
		return nil, err
	}
	power, err := math.ParseUint(v.VotingPower)
	if err != nil {
		return nil, fmt.Errorf("malformed voting power: %w", err)
	}
	if power.IsZero() {
		return nil, ErrZeroVotingPower
	}
	if err = applyVote(deps.Storage, now, v.Voter, v.Votes, power, math.ZeroUint(), checkpoint.Unbounded); err != nil {
		return nil, err
	}
	return &cw.IBCReceiveResponse{
		Acknowledgement: cw.AckSuccess(nil),
		Attributes: []cw.Attribute{
			{Key: "action", Value: "outpost_vote"},
			{Key: "voter", Value: v.Voter},
		},
	}, nil
}

func receiveUnlock(deps cw.Deps, env cw.Env, prefix string, u *OutpostUnlock) (*cw.IBCReceiveResponse, error) {
	if err := assertVoterPrefix(u.Voter, prefix); err != nil {
		return nil, err
	}
	ui, ok, err := userInfos.May(deps.Storage, []byte(u.Voter))
	if err != nil {
		return nil, err
	}
	if ok {
		curPeriod := period.FromTime(env.BlockTime)
		if err = removeContribution(deps.Storage, curPeriod, ui); err != nil {
			return nil, err
		}
		userInfos.Remove(deps.Storage, []byte(u.Voter))
	}
	return &cw.IBCReceiveResponse{
		Acknowledgement: cw.AckSuccess(nil),
		Attributes: []cw.Attribute{
			{Key: "action", Value: "outpost_unlock"},
			{Key: "voter", Value: u.Voter},
		},
	}, nil
}

func forwardToAssembly(cfg Config, variant string, body map[string]any) (*cw.IBCReceiveResponse, error) {
	msg := map[string]map[string]any{variant: body}
	return &cw.IBCReceiveResponse{
		Acknowledgement: cw.AckSuccess(nil),
		Messages: []cw.SubMsg{
			{Msg: cw.ExecuteContract(cfg.Assembly, msg), ReplyOn: cw.ReplyNever},
		},
		Attributes: []cw.Attribute{{Key: "action", Value: variant}},
	}, nil
}

// IBCPacketAck settles the outpost status of the current tune round when an
// emissions packet is acknowledged. The original transaction committed long
// ago; only the durable status record changes here.
func IBCPacketAck(deps cw.Deps, _ cw.Env, msg cw.IBCPacketAckMsg) (*cw.Response, error) {
	prefix, err := outpostByChannel(deps.Storage, msg.OriginalPacket.Src.ChannelID)
	if err != nil {
		return nil, err
	}
	status := StatusDone
	if msg.Acknowledgement.IsError() {
		status = StatusFailed
	}
	return settleOutpost(deps, prefix, status)
}

// IBCPacketTimeout marks the outpost Failed; a retry is operator-initiated.
func IBCPacketTimeout(deps cw.Deps, _ cw.Env, msg cw.IBCPacketTimeoutMsg) (*cw.Response, error) {
	prefix, err := outpostByChannel(deps.Storage, msg.Packet.Src.ChannelID)
	if err != nil {
		return nil, err
	}
	return settleOutpost(deps, prefix, StatusFailed)
}

func settleOutpost(deps cw.Deps, prefix string, status OutpostStatus) (*cw.Response, error) {
	info, ok, err := tuneItem.May(deps.Storage)
	if err != nil {
		return nil, err
	}
	if ok {
		if _, tracked := info.OutpostStatus[prefix]; tracked {
			info.OutpostStatus[prefix] = status
			if err = tuneItem.Save(deps.Storage, info); err != nil {
				return nil, err
			}
		}
	}
	return cw.NewResponse().
		AddAttribute("action", "settle_outpost").
		AddAttribute("outpost", prefix).
		AddAttribute("status", string(status)), nil
}
