package escrow_test

import (
	"encoding/json"
	"testing"
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/escrow"
	"github.com/helixswap/governance/period"
	"github.com/helixswap/governance/sim"
)

const (
	escrowAddr = "helix1escrow"
	owner      = "helix1owner"
	denom      = "uhlx"
	alice      = "helix1alice"
	bob        = "helix1bob"
)

type escrowTestSuite struct {
	suite.Suite
	host *sim.Host
}

func TestEscrow(t *testing.T) {
	suite.Run(t, new(escrowTestSuite))
}

func (s *escrowTestSuite) SetupTest() {
	// start exactly on a period boundary so decay math is easy to read
	start := time.Unix(int64(2800*period.Week), 0).UTC()
	s.host = sim.NewHost(start)
	_, err := s.host.DeployEscrow(escrowAddr, escrow.InstantiateMsg{
		Owner: owner,
		Denom: denom,
	})
	s.Require().NoError(err)
}

func (s *escrowTestSuite) createLock(user string, amount int64, weeks uint64) {
	_, err := s.host.Execute(user, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: weeks * period.Week},
	}, sdktypes.NewInt64Coin(denom, amount))
	s.Require().NoError(err)
}

func (s *escrowTestSuite) userPower(user string) string {
	resp, err := sim.Query[escrow.VotingPowerResponse](s.host, escrowAddr, escrow.QueryMsg{
		UserVotingPower: &escrow.UserVotingPowerQuery{User: user},
	})
	s.Require().NoError(err)
	return resp.VotingPower
}

func (s *escrowTestSuite) totalPower() string {
	resp, err := sim.Query[escrow.VotingPowerResponse](s.host, escrowAddr, escrow.QueryMsg{
		TotalVotingPower: &escrow.TotalVotingPowerQuery{},
	})
	s.Require().NoError(err)
	return resp.VotingPower
}

func (s *escrowTestSuite) totalPowerAtPeriod(p uint64) string {
	resp, err := sim.Query[escrow.VotingPowerResponse](s.host, escrowAddr, escrow.QueryMsg{
		TotalVotingPowerAtPeriod: &escrow.TotalVotingPowerAtPeriod{Period: p},
	})
	s.Require().NoError(err)
	return resp.VotingPower
}

func (s *escrowTestSuite) advanceWeeks(n uint64) {
	s.host.Advance(time.Duration(n*period.Week) * time.Second)
}

func (s *escrowTestSuite) Test_CreateLockAndDecay() {
	s.createLock(alice, 1000, 10)

	s.Equal("1000", s.userPower(alice))
	s.Equal("1000", s.totalPower())

	// linear decay, one slope unit per period
	s.advanceWeeks(3)
	s.Equal("700", s.userPower(alice))
	s.Equal("700", s.totalPower())

	s.advanceWeeks(7)
	s.Equal("0", s.userPower(alice))
	s.Equal("0", s.totalPower())

	// stays at zero past the end
	s.advanceWeeks(5)
	s.Equal("0", s.userPower(alice))
	s.Equal("0", s.totalPower())
}

func (s *escrowTestSuite) Test_MinimumLockDecaysToZeroAtEnd() {
	s.createLock(alice, 1000, period.MinLockPeriods)
	s.Equal("1000", s.userPower(alice))

	s.advanceWeeks(period.MinLockPeriods)
	s.Equal("0", s.userPower(alice))
	s.Equal("0", s.totalPower())
}

func (s *escrowTestSuite) Test_SlopeTruncationLossIsBounded() {
	// 1000 over 3 periods: slope 333, power 999, one unit lost
	s.createLock(alice, 1000, 3)
	s.Equal("999", s.userPower(alice))

	s.advanceWeeks(1)
	s.Equal("666", s.userPower(alice))
}

func (s *escrowTestSuite) Test_CreateLockValidation() {
	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: 10 * period.Week},
	})
	s.ErrorIs(err, escrow.ErrNoFunds)

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: period.Week - 1},
	}, sdktypes.NewInt64Coin(denom, 1000))
	s.ErrorIs(err, escrow.ErrLockTime)

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: (period.MaxLockPeriods + 1) * period.Week},
	}, sdktypes.NewInt64Coin(denom, 1000))
	s.ErrorIs(err, escrow.ErrLockTime)

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: 10 * period.Week},
	}, sdktypes.NewInt64Coin("uatom", 1000))
	s.ErrorIs(err, escrow.ErrNoFunds)

	s.createLock(alice, 1000, 10)
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: 10 * period.Week},
	}, sdktypes.NewInt64Coin(denom, 1000))
	s.ErrorIs(err, escrow.ErrLockAlreadyExists)
}

func (s *escrowTestSuite) Test_ExtendLockTime() {
	s.createLock(alice, 1000, 10)
	s.advanceWeeks(2)

	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		ExtendLockTime: &escrow.ExtendLockTime{Time: 4 * period.Week},
	})
	s.Require().NoError(err)

	// 12 periods remain: slope 83, power 996
	s.Equal("996", s.userPower(alice))
	s.Equal("996", s.totalPower())

	// extending past the global maximum is rejected
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		ExtendLockTime: &escrow.ExtendLockTime{Time: period.MaxLockPeriods * period.Week},
	})
	s.ErrorIs(err, escrow.ErrLockTime)
}

func (s *escrowTestSuite) Test_ExtendLockAmount() {
	s.createLock(alice, 1000, 10)
	s.advanceWeeks(2)

	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		ExtendLockAmount: &escrow.ExtendLockAmount{},
	}, sdktypes.NewInt64Coin(denom, 600))
	s.Require().NoError(err)

	// 1600 over the 8 remaining periods
	s.Equal("1600", s.userPower(alice))
	s.Equal("1600", s.totalPower())

	info, err := sim.Query[escrow.LockInfoResponse](s.host, escrowAddr, escrow.QueryMsg{
		LockInfo: &escrow.LockInfoQuery{User: alice},
	})
	s.Require().NoError(err)
	s.Equal("1600", info.Amount)
	s.Equal("200", info.Slope)
}

func (s *escrowTestSuite) Test_UnlockDropsPowerImmediately() {
	s.createLock(alice, 1000, 10)
	s.createLock(bob, 400, 4)
	s.advanceWeeks(2)

	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)

	s.Equal("0", s.userPower(alice))
	s.Equal("200", s.totalPower()) // bob only

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.ErrorIs(err, escrow.ErrAlreadyUnlocking)

	// amount operations are rejected while unlocking
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		ExtendLockAmount: &escrow.ExtendLockAmount{},
	}, sdktypes.NewInt64Coin(denom, 100))
	s.ErrorIs(err, escrow.ErrAlreadyUnlocking)
}

func (s *escrowTestSuite) Test_WithdrawAfterCooldown() {
	s.createLock(alice, 1000, 10)

	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}})
	s.ErrorIs(err, escrow.ErrNotUnlocking)

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}})
	s.ErrorContains(err, "unlock period has not expired")

	s.advanceWeeks(period.UnlockPeriods)
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}})
	s.Require().NoError(err)

	s.Require().Len(s.host.Transfers, 1)
	s.Equal(sim.BankTransfer{From: escrowAddr, To: alice, Denom: denom, Amount: "1000"}, s.host.Transfers[0])

	_, err = sim.Query[escrow.LockInfoResponse](s.host, escrowAddr, escrow.QueryMsg{
		LockInfo: &escrow.LockInfoQuery{User: alice},
	})
	s.ErrorIs(err, escrow.ErrLockNotFound)
}

func (s *escrowTestSuite) Test_RelockRestoresPower() {
	s.createLock(alice, 1000, 10)
	s.advanceWeeks(2)
	preUnlock := s.userPower(alice)
	s.Equal("800", preUnlock)

	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)
	s.Equal("0", s.userPower(alice))

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		Relock: &escrow.Relock{User: alice},
	})
	s.ErrorIs(err, escrow.ErrUnauthorized)

	_, err = s.host.Execute(owner, escrowAddr, escrow.ExecuteMsg{
		Relock: &escrow.Relock{User: alice},
	})
	s.Require().NoError(err)

	// the original slope is kept, so the position comes back at its
	// pre-unlock decayed value, not at the full locked amount
	s.Equal(preUnlock, s.userPower(alice))
	s.Equal(preUnlock, s.totalPower())

	// and keeps decaying on the original schedule
	s.advanceWeeks(1)
	s.Equal("700", s.userPower(alice))
	s.Equal("700", s.totalPower())

	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}})
	s.ErrorIs(err, escrow.ErrNotUnlocking)
}

func (s *escrowTestSuite) Test_TotalAggregatesScheduledExpiries() {
	s.createLock(alice, 1000, 10)
	s.createLock(bob, 600, 4)
	s.Equal("1600", s.totalPower())

	// bob expires after 4 weeks, alice keeps decaying
	s.advanceWeeks(4)
	s.Equal("600", s.totalPower())
	s.Equal("0", s.userPower(bob))

	s.advanceWeeks(6)
	s.Equal("0", s.totalPower())
}

func (s *escrowTestSuite) Test_HistoricalPowerIsStable() {
	base := period.FromTime(s.host.BlockTime)
	s.createLock(alice, 1000, 10)
	s.advanceWeeks(3)

	// later activity must not rewrite history
	s.createLock(bob, 500, 5)
	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		ExtendLockTime: &escrow.ExtendLockTime{Time: 2 * period.Week},
	})
	s.Require().NoError(err)

	s.Equal("1000", s.totalPowerAtPeriod(base))
	s.Equal("900", s.totalPowerAtPeriod(base+1))
	s.Equal("800", s.totalPowerAtPeriod(base+2))
	s.Equal("0", s.totalPowerAtPeriod(base-1))
}

func (s *escrowTestSuite) Test_BlacklistForceUnlocksAndBlocks() {
	s.createLock(alice, 1000, 10)

	_, err := s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{
		UpdateBlacklist: &escrow.UpdateBlacklist{Append: []string{alice}},
	})
	s.ErrorIs(err, escrow.ErrUnauthorized)

	_, err = s.host.Execute(owner, escrowAddr, escrow.ExecuteMsg{
		UpdateBlacklist: &escrow.UpdateBlacklist{Append: []string{alice, bob}},
	})
	s.Require().NoError(err)

	s.Equal("0", s.userPower(alice))
	s.Equal("0", s.totalPower())

	_, err = s.host.Execute(bob, escrowAddr, escrow.ExecuteMsg{
		CreateLock: &escrow.CreateLock{Time: 4 * period.Week},
	}, sdktypes.NewInt64Coin(denom, 100))
	s.ErrorIs(err, escrow.ErrBlacklisted)

	listed, err := sim.Query[escrow.BlacklistedVotersResponse](s.host, escrowAddr, escrow.QueryMsg{
		BlacklistedVoters: &escrow.BlacklistedVotersQuery{},
	})
	s.Require().NoError(err)
	s.Equal([]string{alice, bob}, listed.Voters)

	_, err = s.host.Execute(owner, escrowAddr, escrow.ExecuteMsg{
		UpdateBlacklist: &escrow.UpdateBlacklist{Remove: []string{bob}},
	})
	s.Require().NoError(err)
	listed, err = sim.Query[escrow.BlacklistedVotersResponse](s.host, escrowAddr, escrow.QueryMsg{
		BlacklistedVoters: &escrow.BlacklistedVotersQuery{},
	})
	s.Require().NoError(err)
	s.Equal([]string{alice}, listed.Voters)
}

func (s *escrowTestSuite) Test_UnlockKicksController() {
	const controller = "helix1controller"
	var kicked []json.RawMessage
	s.host.Register(&sim.Contract{
		Addr: controller,
		Execute: func(_ cw.Deps, _ cw.Env, _ cw.MessageInfo, msg json.RawMessage) (*cw.Response, error) {
			kicked = append(kicked, msg)
			return cw.NewResponse(), nil
		},
	})
	newController := controller
	_, err := s.host.Execute(owner, escrowAddr, escrow.ExecuteMsg{
		UpdateConfig: &escrow.UpdateConfig{NewController: &newController},
	})
	s.Require().NoError(err)

	s.createLock(alice, 1000, 10)
	_, err = s.host.Execute(alice, escrowAddr, escrow.ExecuteMsg{Unlock: &escrow.Unlock{}})
	s.Require().NoError(err)

	s.Require().Len(kicked, 1)
	s.JSONEq(`{"kick":{"user":"helix1alice"}}`, string(kicked[0]))
}

func (s *escrowTestSuite) Test_ForceUnlockOwnerOnly() {
	s.createLock(alice, 1000, 10)

	_, err := s.host.Execute(bob, escrowAddr, escrow.ExecuteMsg{
		ForceUnlock: &escrow.ForceUnlock{User: alice},
	})
	s.ErrorIs(err, escrow.ErrUnauthorized)

	_, err = s.host.Execute(owner, escrowAddr, escrow.ExecuteMsg{
		ForceUnlock: &escrow.ForceUnlock{User: alice},
	})
	s.Require().NoError(err)
	s.Equal("0", s.userPower(alice))
}
