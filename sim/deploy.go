package sim

import (
	"encoding/json"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/escrow"
	"github.com/helixswap/governance/outpost"
)

// DeployEscrow instantiates the voting escrow engine at addr.
func (h *Host) DeployEscrow(addr string, msg escrow.InstantiateMsg) (*Contract, error) {
	c := &Contract{
		Addr: addr,
		Execute: func(deps cw.Deps, env cw.Env, info cw.MessageInfo, raw json.RawMessage) (*cw.Response, error) {
			var exec escrow.ExecuteMsg
			if err := json.Unmarshal(raw, &exec); err != nil {
				return nil, err
			}
			return escrow.Execute(deps, env, info, exec)
		},
		Query: func(deps cw.Deps, env cw.Env, raw json.RawMessage) ([]byte, error) {
			var query escrow.QueryMsg
			if err := json.Unmarshal(raw, &query); err != nil {
				return nil, err
			}
			return escrow.Query(deps, env, query)
		},
	}
	h.Register(c)
	if _, err := escrow.Instantiate(h.deps(c), h.env(addr), cw.MessageInfo{}, msg); err != nil {
		return nil, err
	}
	return c, nil
}

// DeployEmissions instantiates the emissions controller engine at addr.
func (h *Host) DeployEmissions(addr string, msg emissions.InstantiateMsg) (*Contract, error) {
	c := &Contract{
		Addr: addr,
		Execute: func(deps cw.Deps, env cw.Env, info cw.MessageInfo, raw json.RawMessage) (*cw.Response, error) {
			var exec emissions.ExecuteMsg
			if err := json.Unmarshal(raw, &exec); err != nil {
				return nil, err
			}
			return emissions.Execute(deps, env, info, exec)
		},
		Query: func(deps cw.Deps, env cw.Env, raw json.RawMessage) ([]byte, error) {
			var query emissions.QueryMsg
			if err := json.Unmarshal(raw, &query); err != nil {
				return nil, err
			}
			return emissions.Query(deps, env, query)
		},
		Reply:   emissions.Reply,
		Receive: emissions.IBCPacketReceive,
		Ack:     emissions.IBCPacketAck,
		Timeout: emissions.IBCPacketTimeout,
	}
	h.Register(c)
	if _, err := emissions.Instantiate(h.deps(c), h.env(addr), cw.MessageInfo{}, msg); err != nil {
		return nil, err
	}
	return c, nil
}

// DeployOutpost instantiates the outpost controller engine at addr.
func (h *Host) DeployOutpost(addr string, msg outpost.InstantiateMsg) (*Contract, error) {
	c := &Contract{
		Addr: addr,
		Execute: func(deps cw.Deps, env cw.Env, info cw.MessageInfo, raw json.RawMessage) (*cw.Response, error) {
			var exec outpost.ExecuteMsg
			if err := json.Unmarshal(raw, &exec); err != nil {
				return nil, err
			}
			return outpost.Execute(deps, env, info, exec)
		},
		Query: func(deps cw.Deps, env cw.Env, raw json.RawMessage) ([]byte, error) {
			var query outpost.QueryMsg
			if err := json.Unmarshal(raw, &query); err != nil {
				return nil, err
			}
			return outpost.Query(deps, env, query)
		},
		Receive: outpost.IBCPacketReceive,
		Ack:     outpost.IBCPacketAck,
		Timeout: outpost.IBCPacketTimeout,
	}
	h.Register(c)
	if _, err := outpost.Instantiate(h.deps(c), h.env(addr), cw.MessageInfo{}, msg); err != nil {
		return nil, err
	}
	return c, nil
}
