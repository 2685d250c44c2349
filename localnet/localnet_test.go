package localnet

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"
)

type LocalnetTestSuite struct {
	suite.Suite
	Container *Container
}

func (s *LocalnetTestSuite) SetupSuite() {
	s.Container = Run(context.Background())
}

func (s *LocalnetTestSuite) TearDownSuite() {
	s.Require().NoError(s.Container.Container.Terminate(context.Background()))
}

func TestLocalnet(t *testing.T) {
	suite.Run(t, new(LocalnetTestSuite))
}

func (s *LocalnetTestSuite) TestRpcUri() {
	s.Regexp(`http://localhost:\d+`, s.Container.RpcUri)
}

func (s *LocalnetTestSuite) TestClientContext() {
	status, err := s.Container.ClientCtx.Client.Status(context.Background())
	s.NoError(err)
	s.GreaterOrEqual(status.SyncInfo.LatestBlockHeight, int64(1))
}

func (s *LocalnetTestSuite) TestGenerateAddress() {
	addr := s.Container.GenerateAddress("test-wallet")
	s.Regexp(`^helix1`, addr.String())
	s.Equal(addr, s.Container.GenerateAddress("test-wallet"))
}

func (s *LocalnetTestSuite) TestFundAddress() {
	addr := s.Container.GenerateAddress("funded-wallet")
	res := s.Container.FundAddress(addr.String(), sdk.NewCoin(Denom, math.NewInt(5000)))
	s.Equal(uint32(0), res.TxResult.Code)
}
