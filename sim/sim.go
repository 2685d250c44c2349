// Package sim is an in-process host for the governance contract engines:
// isolated storage per contract, smart-query routing, atomic message
// dispatch with reply callbacks, and manual IBC packet delivery. It plays
// the role the localnet container plays for e2e tests, without a chain.
package sim

import (
	"encoding/json"
	"fmt"
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/state"
)

type ExecuteFn func(deps cw.Deps, env cw.Env, info cw.MessageInfo, msg json.RawMessage) (*cw.Response, error)
type QueryFn func(deps cw.Deps, env cw.Env, msg json.RawMessage) ([]byte, error)
type ReplyFn func(deps cw.Deps, env cw.Env, reply cw.Reply) (*cw.Response, error)
type ReceiveFn func(deps cw.Deps, env cw.Env, msg cw.IBCPacketReceiveMsg) (*cw.IBCReceiveResponse, error)
type AckFn func(deps cw.Deps, env cw.Env, msg cw.IBCPacketAckMsg) (*cw.Response, error)
type TimeoutFn func(deps cw.Deps, env cw.Env, msg cw.IBCPacketTimeoutMsg) (*cw.Response, error)

// Contract is one deployed engine and its isolated store.
type Contract struct {
	Addr    string
	Store   *state.Memory
	Execute ExecuteFn
	Query   QueryFn
	Reply   ReplyFn
	Receive ReceiveFn
	Ack     AckFn
	Timeout TimeoutFn
}

// Packet is an IBC packet captured from a contract's response, waiting for
// the test to deliver, ack or time it out.
type Packet struct {
	From      string
	ChannelID string
	Data      json.RawMessage
	Sequence  uint64
}

// BankTransfer is a captured bank send.
type BankTransfer struct {
	From, To      string
	Denom, Amount string
}

// Host executes messages one at a time, fully serialized, each one atomic:
// either every effect of a message tree commits or none do.
type Host struct {
	BlockTime   time.Time
	BlockHeight uint64

	contracts map[string]*Contract
	// Outbound holds packets sent and not yet settled by the test.
	Outbound []Packet
	// Transfers holds observed bank sends.
	Transfers []BankTransfer
	sequence  uint64
}

func NewHost(start time.Time) *Host {
	return &Host{
		BlockTime:   start,
		BlockHeight: 1,
		contracts:   map[string]*Contract{},
	}
}

func (h *Host) Register(c *Contract) *Contract {
	if c.Store == nil {
		c.Store = state.NewMemory()
	}
	h.contracts[c.Addr] = c
	return c
}

func (h *Host) Contract(addr string) *Contract {
	return h.contracts[addr]
}

// Advance moves the chain clock forward.
func (h *Host) Advance(d time.Duration) {
	h.BlockTime = h.BlockTime.Add(d)
	h.BlockHeight++
}

func (h *Host) env(addr string) cw.Env {
	return cw.Env{BlockHeight: h.BlockHeight, BlockTime: h.BlockTime, Contract: addr}
}

func (h *Host) deps(c *Contract) cw.Deps {
	return cw.Deps{Storage: c.Store, Querier: hostQuerier{h: h}}
}

type hostQuerier struct {
	h *Host
}

func (q hostQuerier) QuerySmart(contractAddr string, req []byte) ([]byte, error) {
	c, ok := q.h.contracts[contractAddr]
	if !ok || c.Query == nil {
		return nil, fmt.Errorf("sim: no contract at %s", contractAddr)
	}
	return c.Query(q.h.deps(c), q.h.env(contractAddr), req)
}

// snapshot copies every contract store so a failed transaction can revert.
func (h *Host) snapshot() map[string]*state.Memory {
	snap := make(map[string]*state.Memory, len(h.contracts))
	for addr, c := range h.contracts {
		snap[addr] = c.Store.Clone()
	}
	return snap
}

func (h *Host) restore(snap map[string]*state.Memory) {
	for addr, store := range snap {
		h.contracts[addr].Store = store
	}
}

// Execute runs one transaction: the entry message plus every queued message
// and reply it produces, atomically.
func (h *Host) Execute(sender, contractAddr string, msg any, funds ...sdktypes.Coin) (*cw.Response, error) {
	snap := h.snapshot()
	outboundLen := len(h.Outbound)
	resp, err := h.execute(sender, contractAddr, msg, funds)
	if err != nil {
		h.restore(snap)
		h.Outbound = h.Outbound[:outboundLen]
		return nil, err
	}
	return resp, nil
}

func (h *Host) execute(sender, contractAddr string, msg any, funds []sdktypes.Coin) (*cw.Response, error) {
	c, ok := h.contracts[contractAddr]
	if !ok || c.Execute == nil {
		return nil, fmt.Errorf("sim: no contract at %s", contractAddr)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	resp, err := c.Execute(h.deps(c), h.env(contractAddr), cw.MessageInfo{
		Sender: sender,
		Funds:  sdktypes.NewCoins(funds...),
	}, raw)
	if err != nil {
		return nil, err
	}
	if err = h.dispatch(contractAddr, resp.Messages); err != nil {
		return nil, err
	}
	return resp, nil
}

// dispatch runs queued messages depth-first, feeding submessage results back
// through the emitting contract's Reply entry point.
func (h *Host) dispatch(emitter string, msgs []cw.SubMsg) error {
	for _, sub := range msgs {
		err := h.dispatchOne(emitter, sub.Msg)
		switch sub.ReplyOn {
		case cw.ReplyNever:
			if err != nil {
				return err
			}
		case cw.ReplyOnError:
			if err == nil {
				continue
			}
			if err = h.reply(emitter, sub.ID, err); err != nil {
				return err
			}
		case cw.ReplySuccess:
			if err != nil {
				return err
			}
			if err = h.reply(emitter, sub.ID, nil); err != nil {
				return err
			}
		case cw.ReplyAlways:
			if err = h.reply(emitter, sub.ID, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Host) dispatchOne(emitter string, msg cw.CosmosMsg) error {
	switch {
	case msg.Wasm != nil && msg.Wasm.Execute != nil:
		var funds []sdktypes.Coin
		for _, coin := range msg.Wasm.Execute.Funds {
			parsed, err := sdktypes.ParseCoinNormalized(coin.Amount + coin.Denom)
			if err != nil {
				return err
			}
			funds = append(funds, parsed)
		}
		_, err := h.execute(emitter, msg.Wasm.Execute.ContractAddr, json.RawMessage(msg.Wasm.Execute.Msg), funds)
		return err
	case msg.Bank != nil && msg.Bank.Send != nil:
		for _, coin := range msg.Bank.Send.Amount {
			h.Transfers = append(h.Transfers, BankTransfer{
				From:   emitter,
				To:     msg.Bank.Send.ToAddress,
				Denom:  coin.Denom,
				Amount: coin.Amount,
			})
		}
		return nil
	case msg.IBC != nil && msg.IBC.SendPacket != nil:
		h.sequence++
		h.Outbound = append(h.Outbound, Packet{
			From:      emitter,
			ChannelID: msg.IBC.SendPacket.ChannelID,
			Data:      msg.IBC.SendPacket.Data,
			Sequence:  h.sequence,
		})
		return nil
	default:
		return fmt.Errorf("sim: unsupported message")
	}
}

func (h *Host) reply(contractAddr string, id uint64, result error) error {
	c := h.contracts[contractAddr]
	if c.Reply == nil {
		return fmt.Errorf("sim: contract %s has no reply handler", contractAddr)
	}
	rep := cw.Reply{ID: id}
	if result != nil {
		rep.Result = cw.SubMsgResult{Err: result.Error()}
	} else {
		rep.Result = cw.SubMsgResult{Ok: &cw.SubMsgResponse{}}
	}
	resp, err := c.Reply(h.deps(c), h.env(contractAddr), rep)
	if err != nil {
		return err
	}
	return h.dispatch(contractAddr, resp.Messages)
}

// Query routes a smart query to a contract.
func Query[Response any](h *Host, contractAddr string, msg any) (Response, error) {
	var out Response
	raw, err := json.Marshal(msg)
	if err != nil {
		return out, err
	}
	data, err := hostQuerier{h: h}.QuerySmart(contractAddr, raw)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

// DeliverPacket hands an outbound packet to the destination contract's
// receive entry point and returns the resulting ack. The packet stays in
// Outbound until SettleAck or SettleTimeout runs against the origin.
func (h *Host) DeliverPacket(pkt Packet, destAddr, destChannel string) (cw.Acknowledgement, error) {
	c, ok := h.contracts[destAddr]
	if !ok || c.Receive == nil {
		return cw.Acknowledgement{}, fmt.Errorf("sim: no ibc contract at %s", destAddr)
	}
	snap := h.snapshot()
	resp, err := c.Receive(h.deps(c), h.env(destAddr), cw.IBCPacketReceiveMsg{
		Packet: cw.IBCPacket{
			Data:     pkt.Data,
			Src:      cw.IBCEndpoint{ChannelID: pkt.ChannelID},
			Dest:     cw.IBCEndpoint{ChannelID: destChannel},
			Sequence: pkt.Sequence,
		},
	})
	if err != nil {
		h.restore(snap)
		return cw.Acknowledgement{}, err
	}
	if resp.Acknowledgement.IsError() {
		// an error ack reverts the receive side entirely
		h.restore(snap)
		return resp.Acknowledgement, nil
	}
	if err = h.dispatch(destAddr, resp.Messages); err != nil {
		h.restore(snap)
		return cw.AckError(err), nil
	}
	return resp.Acknowledgement, nil
}

// SettleAck delivers an acknowledgement back to the packet's origin and
// drops the packet from Outbound.
func (h *Host) SettleAck(pkt Packet, ack cw.Acknowledgement) (*cw.Response, error) {
	c, ok := h.contracts[pkt.From]
	if !ok || c.Ack == nil {
		return nil, fmt.Errorf("sim: no ack handler at %s", pkt.From)
	}
	snap := h.snapshot()
	resp, err := c.Ack(h.deps(c), h.env(pkt.From), cw.IBCPacketAckMsg{
		Acknowledgement: ack,
		OriginalPacket: cw.IBCPacket{
			Data:     pkt.Data,
			Src:      cw.IBCEndpoint{ChannelID: pkt.ChannelID},
			Sequence: pkt.Sequence,
		},
	})
	if err != nil {
		h.restore(snap)
		return nil, err
	}
	if err = h.dispatch(pkt.From, resp.Messages); err != nil {
		h.restore(snap)
		return nil, err
	}
	h.dropPacket(pkt)
	return resp, nil
}

// SettleTimeout delivers a timeout for the packet to its origin.
func (h *Host) SettleTimeout(pkt Packet) (*cw.Response, error) {
	c, ok := h.contracts[pkt.From]
	if !ok || c.Timeout == nil {
		return nil, fmt.Errorf("sim: no timeout handler at %s", pkt.From)
	}
	snap := h.snapshot()
	resp, err := c.Timeout(h.deps(c), h.env(pkt.From), cw.IBCPacketTimeoutMsg{
		Packet: cw.IBCPacket{
			Data:     pkt.Data,
			Src:      cw.IBCEndpoint{ChannelID: pkt.ChannelID},
			Sequence: pkt.Sequence,
		},
	})
	if err != nil {
		h.restore(snap)
		return nil, err
	}
	if err = h.dispatch(pkt.From, resp.Messages); err != nil {
		h.restore(snap)
		return nil, err
	}
	h.dropPacket(pkt)
	return resp, nil
}

func (h *Host) dropPacket(pkt Packet) {
	for i := range h.Outbound {
		if h.Outbound[i].Sequence == pkt.Sequence {
			h.Outbound = append(h.Outbound[:i], h.Outbound[i+1:]...)
			return
		}
	}
}

// TakeOutbound drains and returns the currently captured packets.
func (h *Host) TakeOutbound() []Packet {
	out := h.Outbound
	h.Outbound = nil
	return out
}
