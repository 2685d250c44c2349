package api

import (
	"context"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/client"
	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/escrow"
	"github.com/helixswap/governance/outpost"
)

// Escrow is a typed client for the voting-escrow contract.
type Escrow struct {
	clientCtx client.Context
	addr      string
	opts      TxOptions
}

func NewEscrow(clientCtx client.Context, contractAddr string, opts TxOptions) *Escrow {
	return &Escrow{clientCtx: clientCtx, addr: contractAddr, opts: opts}
}

func (e *Escrow) CreateLock(ctx context.Context, sender, funds string, lockSeconds uint64) (*coretypes.ResultBroadcastTx, error) {
	coins, err := sdktypes.ParseCoinsNormalized(funds)
	if err != nil {
		return nil, err
	}
	msg := escrow.ExecuteMsg{CreateLock: &escrow.CreateLock{Time: lockSeconds}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, coins, e.opts)
}

func (e *Escrow) ExtendLockTime(ctx context.Context, sender string, extraSeconds uint64) (*coretypes.ResultBroadcastTx, error) {
	msg := escrow.ExecuteMsg{ExtendLockTime: &escrow.ExtendLockTime{Time: extraSeconds}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, nil, e.opts)
}

func (e *Escrow) ExtendLockAmount(ctx context.Context, sender, funds string) (*coretypes.ResultBroadcastTx, error) {
	coins, err := sdktypes.ParseCoinsNormalized(funds)
	if err != nil {
		return nil, err
	}
	msg := escrow.ExecuteMsg{ExtendLockAmount: &escrow.ExtendLockAmount{}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, coins, e.opts)
}

func (e *Escrow) Unlock(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	return Execute(e.clientCtx, ctx, sender, e.addr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}}, nil, e.opts)
}

func (e *Escrow) Withdraw(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	return Execute(e.clientCtx, ctx, sender, e.addr, escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}}, nil, e.opts)
}

func (e *Escrow) LockInfo(ctx context.Context, user string) (escrow.LockInfoResponse, error) {
	msg := escrow.QueryMsg{LockInfo: &escrow.LockInfoQuery{User: user}}
	return Query[escrow.LockInfoResponse](e.clientCtx, ctx, e.addr, msg)
}

func (e *Escrow) UserVotingPower(ctx context.Context, user string) (escrow.VotingPowerResponse, error) {
	msg := escrow.QueryMsg{UserVotingPower: &escrow.UserVotingPowerQuery{User: user}}
	return Query[escrow.VotingPowerResponse](e.clientCtx, ctx, e.addr, msg)
}

func (e *Escrow) TotalVotingPower(ctx context.Context) (escrow.VotingPowerResponse, error) {
	msg := escrow.QueryMsg{TotalVotingPower: &escrow.TotalVotingPowerQuery{}}
	return Query[escrow.VotingPowerResponse](e.clientCtx, ctx, e.addr, msg)
}

// Emissions is a typed client for the hub emissions controller.
type Emissions struct {
	clientCtx client.Context
	addr      string
	opts      TxOptions
}

func NewEmissions(clientCtx client.Context, contractAddr string, opts TxOptions) *Emissions {
	return &Emissions{clientCtx: clientCtx, addr: contractAddr, opts: opts}
}

func (e *Emissions) Vote(ctx context.Context, sender string, votes []emissions.PoolWeight) (*coretypes.ResultBroadcastTx, error) {
	msg := emissions.ExecuteMsg{Vote: &emissions.Vote{Votes: votes}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, nil, e.opts)
}

func (e *Emissions) TunePools(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	msg := emissions.ExecuteMsg{TunePools: &emissions.TunePools{}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, nil, e.opts)
}

func (e *Emissions) RetryFailedOutposts(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	msg := emissions.ExecuteMsg{RetryFailedOutposts: &emissions.RetryFailedOutposts{}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, nil, e.opts)
}

func (e *Emissions) UpdateWhitelist(ctx context.Context, sender string, add, remove []string) (*coretypes.ResultBroadcastTx, error) {
	msg := emissions.ExecuteMsg{UpdateWhitelist: &emissions.UpdateWhitelist{Add: add, Remove: remove}}
	return Execute(e.clientCtx, ctx, sender, e.addr, msg, nil, e.opts)
}

func (e *Emissions) TuneInfo(ctx context.Context) (emissions.TuneInfo, error) {
	msg := emissions.QueryMsg{TuneInfo: &emissions.TuneInfoQuery{}}
	return Query[emissions.TuneInfo](e.clientCtx, ctx, e.addr, msg)
}

func (e *Emissions) UserInfo(ctx context.Context, user string) (emissions.UserInfoResponse, error) {
	msg := emissions.QueryMsg{UserInfo: &emissions.UserInfoQuery{User: user}}
	return Query[emissions.UserInfoResponse](e.clientCtx, ctx, e.addr, msg)
}

func (e *Emissions) VotedPools(ctx context.Context, startAfter string, limit uint32) (emissions.VotedPoolsResponse, error) {
	msg := emissions.QueryMsg{VotedPools: &emissions.VotedPoolsQuery{StartAfter: startAfter, Limit: limit}}
	return Query[emissions.VotedPoolsResponse](e.clientCtx, ctx, e.addr, msg)
}

// Outpost is a typed client for a remote-chain outpost controller.
type Outpost struct {
	clientCtx client.Context
	addr      string
	opts      TxOptions
}

func NewOutpost(clientCtx client.Context, contractAddr string, opts TxOptions) *Outpost {
	return &Outpost{clientCtx: clientCtx, addr: contractAddr, opts: opts}
}

func (o *Outpost) Vote(ctx context.Context, sender string, votes []emissions.PoolWeight) (*coretypes.ResultBroadcastTx, error) {
	msg := outpost.ExecuteMsg{Vote: &outpost.Vote{Votes: votes}}
	return Execute(o.clientCtx, ctx, sender, o.addr, msg, nil, o.opts)
}

func (o *Outpost) GovernanceVote(ctx context.Context, sender string, proposalID uint64, vote string) (*coretypes.ResultBroadcastTx, error) {
	msg := outpost.ExecuteMsg{GovernanceVote: &outpost.GovernanceVote{ProposalID: proposalID, Vote: vote}}
	return Execute(o.clientCtx, ctx, sender, o.addr, msg, nil, o.opts)
}

func (o *Outpost) ClearIBCError(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	msg := outpost.ExecuteMsg{ClearIBCError: &outpost.ClearIBCError{}}
	return Execute(o.clientCtx, ctx, sender, o.addr, msg, nil, o.opts)
}

func (o *Outpost) PendingUser(ctx context.Context, user string) (outpost.PendingUserResponse, error) {
	msg := outpost.QueryMsg{PendingUser: &outpost.PendingUserQuery{User: user}}
	return Query[outpost.PendingUserResponse](o.clientCtx, ctx, o.addr, msg)
}
