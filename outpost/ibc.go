package outpost

import (
	"encoding/json"
	"fmt"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/escrow"
)

// IBCChannelOpen enforces an unordered channel with the hub's exact version.
func IBCChannelOpen(_ cw.Deps, _ cw.Env, msg cw.IBCChannelOpenMsg) error {
	if msg.Channel.Order != cw.ChannelOrderUnordered {
		return fmt.Errorf("only unordered channels are supported")
	}
	if msg.Channel.Version != emissions.IBCVersion {
		return fmt.Errorf("channel version must be %s", emissions.IBCVersion)
	}
	if msg.CounterpartyVersion != "" && msg.CounterpartyVersion != emissions.IBCVersion {
		return fmt.Errorf("counterparty version must be %s", emissions.IBCVersion)
	}
	return nil
}

func IBCChannelConnect(_ cw.Deps, _ cw.Env, msg cw.IBCChannelConnectMsg) (*cw.Response, error) {
	return cw.NewResponse().
		AddAttribute("action", "ibc_connect").
		AddAttribute("channel", msg.Channel.Endpoint.ChannelID), nil
}

// IBCChannelClose is accepted unconditionally.
func IBCChannelClose(_ cw.Deps, _ cw.Env, _ cw.IBCChannelCloseMsg) (*cw.Response, error) {
	return cw.NewResponse().AddAttribute("action", "ibc_close"), nil
}

// IBCPacketReceive applies hub packets: emission allocations are forwarded
// to the local incentives sink.
func IBCPacketReceive(deps cw.Deps, _ cw.Env, msg cw.IBCPacketReceiveMsg) (*cw.IBCReceiveResponse, error) {
	cfg, err := configItem.Load(deps.Storage)
	if err != nil {
		return &cw.IBCReceiveResponse{Acknowledgement: cw.AckError(err)}, nil
	}
	var packet emissions.HubPacket
	if err = json.Unmarshal(msg.Packet.Data, &packet); err != nil {
		return &cw.IBCReceiveResponse{
			Acknowledgement: cw.AckError(fmt.Errorf("malformed hub packet: %w", err)),
		}, nil
	}
	if packet.UpdateEmissions == nil {
		return &cw.IBCReceiveResponse{
			Acknowledgement: cw.AckError(fmt.Errorf("unknown hub packet variant")),
		}, nil
	}

	setup := map[string]map[string]any{
		"setup_pools": {"pools": packet.UpdateEmissions.Pools},
	}
	return &cw.IBCReceiveResponse{
		Acknowledgement: cw.AckSuccess(nil),
		Messages: []cw.SubMsg{
			{Msg: cw.ExecuteContract(cfg.Incentives, setup), ReplyOn: cw.ReplyNever},
		},
		Attributes: []cw.Attribute{{Key: "action", Value: "update_emissions"}},
	}, nil
}

// IBCPacketAck settles a pending relay. Success clears the pending record;
// an error ack records a durable per-user error and, for unlock relays,
// issues the compensating relock against the local escrow.
func IBCPacketAck(deps cw.Deps, env cw.Env, msg cw.IBCPacketAckMsg) (*cw.Response, error) {
	if !msg.Acknowledgement.IsError() {
		return settleRelay(deps, env, msg.OriginalPacket, "")
	}
	return settleRelay(deps, env, msg.OriginalPacket, msg.Acknowledgement.Error)
}

// IBCPacketTimeout is handled exactly like an error ack: the hub never saw
// the mutation, so the local side effect must be compensated.
func IBCPacketTimeout(deps cw.Deps, env cw.Env, msg cw.IBCPacketTimeoutMsg) (*cw.Response, error) {
	return settleRelay(deps, env, msg.Packet, "packet timed out")
}

// packetVoter extracts the voter a relayed packet belongs to.
func packetVoter(packet emissions.OutpostPacket) (string, error) {
	switch {
	case packet.Vote != nil:
		return packet.Vote.Voter, nil
	case packet.Unlock != nil:
		return packet.Unlock.Voter, nil
	case packet.GovernanceVote != nil:
		return packet.GovernanceVote.Voter, nil
	case packet.RegisterProposal != nil:
		// proposal relays are keyed by the sender that requested them;
		// the pending map holds that association
		return "", nil
	default:
		return "", fmt.Errorf("unknown outpost packet variant")
	}
}

func settleRelay(deps cw.Deps, env cw.Env, raw cw.IBCPacket, ackError string) (*cw.Response, error) {
	var packet emissions.OutpostPacket
	if err := json.Unmarshal(raw.Data, &packet); err != nil {
		return nil, fmt.Errorf("malformed original packet: %w", err)
	}
	voter, err := packetVoter(packet)
	if err != nil {
		return nil, err
	}
	if voter == "" {
		voter, err = pendingProposalOwner(deps, packet)
		if err != nil {
			return nil, err
		}
	}
	req, ok, err := pending.May(deps.Storage, []byte(voter))
	if err != nil {
		return nil, err
	}
	if !ok {
		// already settled; acks and timeouts can race relayer retries
		return cw.NewResponse().AddAttribute("action", "settle_relay_noop"), nil
	}
	pending.Remove(deps.Storage, []byte(voter))

	resp := cw.NewResponse().
		AddAttribute("action", "settle_relay").
		AddAttribute("user", voter).
		AddAttribute("kind", req.Kind)
	if ackError == "" {
		return resp.AddAttribute("result", "ok"), nil
	}

	if err = ibcErrors.Save(deps.Storage, []byte(voter), UserIBCError{
		Kind:     req.Kind,
		Error:    ackError,
		Packet:   req.Packet,
		FailedAt: uint64(env.BlockTime.Unix()),
	}); err != nil {
		return nil, err
	}
	resp.AddAttribute("result", "error").AddAttribute("error", ackError)

	if req.Kind == KindUnlock {
		cfg, err := configItem.Load(deps.Storage)
		if err != nil {
			return nil, err
		}
		// compensate: the local escrow zeroed the position when the
		// unlock began, so put it back
		resp.AddMessage(cw.ExecuteContract(cfg.Escrow, escrow.ExecuteMsg{
			Relock: &escrow.Relock{User: voter},
		}))
	}
	return resp, nil
}

// pendingProposalOwner finds which sender relayed a proposal packet by
// scanning the pending map for the matching proposal id.
func pendingProposalOwner(deps cw.Deps, packet emissions.OutpostPacket) (string, error) {
	owner := ""
	err := pending.Range(deps.Storage, nil, nil, cw.Ascending,
		func(key []byte, req PendingRequest) (bool, error) {
			if req.Kind == KindProposal && req.Packet.RegisterProposal != nil &&
				packet.RegisterProposal != nil &&
				req.Packet.RegisterProposal.ProposalID == packet.RegisterProposal.ProposalID {
				owner = string(key)
				return false, nil
			}
			return true, nil
		})
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", fmt.Errorf("no pending record for relayed proposal")
	}
	return owner, nil
}
