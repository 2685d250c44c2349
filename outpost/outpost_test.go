package outpost_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/escrow"
	"github.com/helixswap/governance/outpost"
	"github.com/helixswap/governance/period"
	"github.com/helixswap/governance/sim"
)

const (
	outpostAddr    = "osmo1outpost"
	escrowAddr     = "osmo1escrow"
	incentivesAddr = "osmo1incentives"
	owner          = "osmo1owner"
	denom          = "uosmo"
	hubChannel     = "channel-0"

	alice = "osmo1alice"
	bob   = "osmo1bob"

	osmoPool = "osmo1pooldelta"
)

type outpostTestSuite struct {
	suite.Suite
	host *sim.Host

	incentivesCalls []json.RawMessage
}

func TestOutpost(t *testing.T) {
	suite.Run(t, new(outpostTestSuite))
}

func (s *outpostTestSuite) SetupTest() {
	start := time.Unix(int64(2800*period.Week), 0).UTC()
	s.host = sim.NewHost(start)
	s.incentivesCalls = nil

	_, err := s.host.DeployEscrow(escrowAddr, escrow.InstantiateMsg{
		Owner:      owner,
		Denom:      denom,
		Controller: outpostAddr,
	})
	s.Require().NoError(err)

	_, err = s.host.DeployOutpost(outpostAddr, outpost.InstantiateMsg{
		Owner:             owner,
		Escrow:            escrowAddr,
		Incentives:        incentivesAddr,
		HubChannel:        hubChannel,
		IBCTimeoutSeconds: 3600,
	})
	s.Require().NoError(err)

	s.host.Register(&sim.Contract{
		Addr: incentivesAddr,
		Execute: func(_ cw.Deps, _ cw.Env, _ cw.MessageInfo, msg json.RawMessage) (*cw.Response, error) {
			s.incentivesCalls = append(s.incentivesCalls, msg)
			return cw.NewResponse(), nil
		},
	})
}

func (s *outpostTestSuite) createLock(user string, amount int64, weeks uint64) {
	_, err := s.host.Execute(user, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: weeks * period.Week},
	}, sdktypes.NewInt64Coin(denom, amount))
	s.Require().NoError(err)
}

func (s *outpostTestSuite) vote(user string, votes ...emissions.PoolWeight) error {
	_, err := s.host.Execute(user, outpostAddr, outpost.ExecuteMsg{
		Vote: &outpost.Vote{Votes: votes},
	})
	return err
}

func (s *outpostTestSuite) pendingUser(user string) outpost.PendingUserResponse {
	resp, err := sim.Query[outpost.PendingUserResponse](s.host, outpostAddr, outpost.QueryMsg{
		PendingUser: &outpost.PendingUserQuery{User: user},
	})
	s.Require().NoError(err)
	return resp
}

func (s *outpostTestSuite) advanceWeeks(n uint64) {
	s.host.Advance(time.Duration(n*period.Week) * time.Second)
}

func (s *outpostTestSuite) Test_VoteValidation() {
	s.createLock(alice, 1000, 10)

	err := s.vote(alice)
	s.ErrorIs(err, outpost.ErrNoVotes)

	err = s.vote(alice,
		emissions.PoolWeight{Pool: osmoPool, Weight: 5000},
		emissions.PoolWeight{Pool: osmoPool, Weight: 5000},
	)
	s.ErrorIs(err, outpost.ErrDuplicatedPools)

	err = s.vote(alice, emissions.PoolWeight{Pool: osmoPool, Weight: 10001})
	s.ErrorIs(err, outpost.ErrExceededMaxBPS)

	err = s.vote(bob, emissions.PoolWeight{Pool: osmoPool, Weight: 10000})
	s.ErrorIs(err, outpost.ErrZeroVotingPower)
}

func (s *outpostTestSuite) Test_VotePendingGuard() {
	s.createLock(alice, 1000, 10)
	s.Require().NoError(s.vote(alice, emissions.PoolWeight{Pool: osmoPool, Weight: 10000}))

	packets := s.host.Outbound
	s.Require().Len(packets, 1)
	s.Equal(hubChannel, packets[0].ChannelID)
	var packet emissions.OutpostPacket
	s.Require().NoError(json.Unmarshal(packets[0].Data, &packet))
	s.Require().NotNil(packet.Vote)
	s.Equal(alice, packet.Vote.Voter)
	s.Equal("1000", packet.Vote.VotingPower)

	info := s.pendingUser(alice)
	s.True(info.Pending)
	s.Equal(outpost.KindVote, info.Kind)

	// one in-flight mutation per voter
	err := s.vote(alice, emissions.PoolWeight{Pool: osmoPool, Weight: 5000})
	s.ErrorIs(err, outpost.ErrPendingUser)

	// a failed transaction must not leave a phantom packet behind
	s.Len(s.host.Outbound, 1)

	_, err = s.host.SettleAck(packets[0], cw.AckSuccess(nil))
	s.Require().NoError(err)
	s.False(s.pendingUser(alice).Pending)

	s.NoError(s.vote(alice, emissions.PoolWeight{Pool: osmoPool, Weight: 5000}))
}

func (s *outpostTestSuite) Test_VoteRequiresHubChannel() {
	host := sim.NewHost(s.host.BlockTime)
	_, err := host.DeployEscrow(escrowAddr, escrow.InstantiateMsg{Owner: owner, Denom: denom})
	s.Require().NoError(err)
	_, err = host.DeployOutpost(outpostAddr, outpost.InstantiateMsg{
		Owner:  owner,
		Escrow: escrowAddr,
	})
	s.Require().NoError(err)

	_, err = host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: 10 * period.Week},
	}, sdktypes.NewInt64Coin(denom, 1000))
	s.Require().NoError(err)

	_, err = host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		Vote: &outpost.Vote{Votes: []emissions.PoolWeight{{Pool: osmoPool, Weight: 10000}}},
	})
	s.ErrorIs(err, outpost.ErrNoHubChannel)

	channel := hubChannel
	_, err = host.Execute(owner, outpostAddr, outpost.ExecuteMsg{
		UpdateConfig: &outpost.UpdateConfig{NewHubChannel: &channel},
	})
	s.Require().NoError(err)
	_, err = host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		Vote: &outpost.Vote{Votes: []emissions.PoolWeight{{Pool: osmoPool, Weight: 10000}}},
	})
	s.NoError(err)
}

func (s *outpostTestSuite) Test_AckErrorRecordsUserError() {
	s.createLock(alice, 1000, 10)
	s.Require().NoError(s.vote(alice, emissions.PoolWeight{Pool: osmoPool, Weight: 10000}))

	packets := s.host.Outbound
	s.Require().Len(packets, 1)
	_, err := s.host.SettleAck(packets[0], cw.Acknowledgement{Error: `pool "osmo1pooldelta" is not whitelisted`})
	s.Require().NoError(err)

	s.False(s.pendingUser(alice).Pending)

	rec, err := sim.Query[outpost.UserIBCError](s.host, outpostAddr, outpost.QueryMsg{
		IBCError: &outpost.IBCErrorQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Equal(outpost.KindVote, rec.Kind)
	s.Contains(rec.Error, "not whitelisted")

	_, err = s.host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		ClearIBCError: &outpost.ClearIBCError{},
	})
	s.Require().NoError(err)
	_, err = sim.Query[outpost.UserIBCError](s.host, outpostAddr, outpost.QueryMsg{
		IBCError: &outpost.IBCErrorQuery{User: alice},
	})
	s.Error(err)

	_, err = s.host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		ClearIBCError: &outpost.ClearIBCError{},
	})
	s.ErrorIs(err, outpost.ErrNoIBCError)
}

func (s *outpostTestSuite) Test_UnlockRelayAndTimeoutCompensation() {
	s.createLock(alice, 1000, 10)
	s.advanceWeeks(2)
	preUnlock, err := sim.Query[escrow.VotingPowerResponse](s.host, escrowAddr, escrow.QueryMsg{
		UserVotingPower: &escrow.UserVotingPowerQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Equal("800", preUnlock.VotingPower)

	// escrow zeroes the position and kicks the controller in one transaction
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)

	info := s.pendingUser(alice)
	s.True(info.Pending)
	s.Equal(outpost.KindUnlock, info.Kind)

	packets := s.host.Outbound
	s.Require().Len(packets, 1)
	var packet emissions.OutpostPacket
	s.Require().NoError(json.Unmarshal(packets[0].Data, &packet))
	s.Require().NotNil(packet.Unlock)
	s.Equal(alice, packet.Unlock.Voter)

	// the hub never saw the unlock; timing out relocks the local position
	_, err = s.host.SettleTimeout(packets[0])
	s.Require().NoError(err)

	s.False(s.pendingUser(alice).Pending)
	rec, err := sim.Query[outpost.UserIBCError](s.host, outpostAddr, outpost.QueryMsg{
		IBCError: &outpost.IBCErrorQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Equal(outpost.KindUnlock, rec.Kind)

	lock, err := sim.Query[escrow.LockInfoResponse](s.host, escrowAddr, escrow.QueryMsg{
		LockInfo: &escrow.LockInfoQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Nil(lock.UnlockedAt)

	// compensation restores the pre-unlock decayed power, keeping the
	// original slope, rather than re-locking the full amount
	power, err := sim.Query[escrow.VotingPowerResponse](s.host, escrowAddr, escrow.QueryMsg{
		UserVotingPower: &escrow.UserVotingPowerQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Equal(preUnlock.VotingPower, power.VotingPower)
}

func (s *outpostTestSuite) Test_UnlockRelayAckSuccess() {
	s.createLock(alice, 1000, 10)
	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)

	packets := s.host.Outbound
	s.Require().Len(packets, 1)
	_, err = s.host.SettleAck(packets[0], cw.AckSuccess(nil))
	s.Require().NoError(err)
	s.False(s.pendingUser(alice).Pending)

	// the position keeps unlocking locally and can be withdrawn
	s.advanceWeeks(period.UnlockPeriods)
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}})
	s.Require().NoError(err)
	s.Require().Len(s.host.Transfers, 1)
	s.Equal(alice, s.host.Transfers[0].To)
}

func (s *outpostTestSuite) Test_ProposalRelay() {
	_, err := s.host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		RegisterProposal: &outpost.RegisterProposal{ProposalID: 42},
	})
	s.Require().NoError(err)
	s.Equal(outpost.KindProposal, s.pendingUser(alice).Kind)

	packets := s.host.Outbound
	s.Require().Len(packets, 1)

	// settlement finds the sender through the pending map
	_, err = s.host.SettleAck(packets[0], cw.AckError(errors.New("proposal already registered")))
	s.Require().NoError(err)
	s.False(s.pendingUser(alice).Pending)

	rec, err := sim.Query[outpost.UserIBCError](s.host, outpostAddr, outpost.QueryMsg{
		IBCError: &outpost.IBCErrorQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Equal(outpost.KindProposal, rec.Kind)
}

func (s *outpostTestSuite) Test_GovernanceVoteRelay() {
	s.createLock(alice, 1000, 10)

	_, err := s.host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		GovernanceVote: &outpost.GovernanceVote{ProposalID: 42, Vote: "abstain"},
	})
	s.ErrorContains(err, `must be "for" or "against"`)

	_, err = s.host.Execute(alice, outpostAddr, outpost.ExecuteMsg{
		GovernanceVote: &outpost.GovernanceVote{ProposalID: 42, Vote: "for"},
	})
	s.Require().NoError(err)

	packets := s.host.Outbound
	s.Require().Len(packets, 1)
	var packet emissions.OutpostPacket
	s.Require().NoError(json.Unmarshal(packets[0].Data, &packet))
	s.Require().NotNil(packet.GovernanceVote)
	s.Equal("1000", packet.GovernanceVote.VotingPower)
	s.Equal("for", packet.GovernanceVote.Vote)
}

func (s *outpostTestSuite) Test_ReceiveEmissionUpdates() {
	data, err := json.Marshal(emissions.HubPacket{UpdateEmissions: &emissions.UpdateEmissions{
		Pools: []emissions.PoolAlloc{{Pool: osmoPool}},
	}})
	s.Require().NoError(err)

	ack, err := s.host.DeliverPacket(sim.Packet{Data: data}, outpostAddr, hubChannel)
	s.Require().NoError(err)
	s.False(ack.IsError())

	s.Require().Len(s.incentivesCalls, 1)
	s.Contains(string(s.incentivesCalls[0]), "setup_pools")

	// malformed hub packets come back as error acks, not host errors
	ack, err = s.host.DeliverPacket(sim.Packet{Data: []byte(`{}`)}, outpostAddr, hubChannel)
	s.Require().NoError(err)
	s.True(ack.IsError())
}

// Test_HubRoundTrip wires the outpost against a real hub emissions controller
// and walks a vote and an unlock across the channel.
func (s *outpostTestSuite) Test_HubRoundTrip() {
	const (
		hubController = "helix1controller"
		hubEscrow     = "helix1escrow"
		hubChannelID  = "channel-3"
	)
	_, err := s.host.DeployEmissions(hubController, emissions.InstantiateMsg{
		Owner:             "helix1owner",
		Escrow:            hubEscrow,
		Incentives:        "helix1incentives",
		HubPrefix:         "helix",
		IBCTimeoutSeconds: 3600,
	})
	s.Require().NoError(err)
	_, err = s.host.Execute("helix1owner", hubController, emissions.ExecuteMsg{
		UpdateOutpost: &emissions.UpdateOutpost{Prefix: "osmo", Channel: hubChannelID},
	})
	s.Require().NoError(err)
	_, err = s.host.Execute("helix1owner", hubController, emissions.ExecuteMsg{
		UpdateWhitelist: &emissions.UpdateWhitelist{Add: []string{osmoPool}},
	})
	s.Require().NoError(err)

	relay := func() {
		packets := s.host.TakeOutbound()
		s.Require().Len(packets, 1)
		ack, err := s.host.DeliverPacket(packets[0], hubController, hubChannelID)
		s.Require().NoError(err)
		s.Require().False(ack.IsError(), "ack error: %s", ack.Error)
		_, err = s.host.SettleAck(packets[0], ack)
		s.Require().NoError(err)
	}

	s.createLock(alice, 1000, 10)
	s.Require().NoError(s.vote(alice, emissions.PoolWeight{Pool: osmoPool, Weight: 10000}))
	relay()

	s.False(s.pendingUser(alice).Pending)
	power, err := sim.Query[emissions.VotingPowerResponse](s.host, hubController, emissions.QueryMsg{
		PoolVotingPower: &emissions.PoolVotingPowerQuery{Pool: osmoPool},
	})
	s.Require().NoError(err)
	s.Equal("1000", power.VotingPower)

	// the unlock travels the same path and wipes the hub snapshot
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)
	relay()

	power, err = sim.Query[emissions.VotingPowerResponse](s.host, hubController, emissions.QueryMsg{
		PoolVotingPower: &emissions.PoolVotingPowerQuery{Pool: osmoPool},
	})
	s.Require().NoError(err)
	s.Equal("0", power.VotingPower)
}
