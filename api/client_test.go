package api

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTxOptions(t *testing.T) {
	opts := DefaultTxOptions("uhlx")
	assert.Equal(t, "uhlx", opts.GasPrice.Denom)
	assert.True(t, opts.GasPrice.Amount.Equal(math.LegacyMustNewDecFromStr("0.05")))
	assert.Equal(t, 1.2, opts.GasAdjustment)
	assert.Equal(t, uint64(200_000), opts.GasLimit)
	assert.True(t, opts.Simulate)
}

func TestEscrowCreateLockRejectsBadFunds(t *testing.T) {
	e := NewEscrow(client.Context{}, "helix1escrow", DefaultTxOptions("uhlx"))
	_, err := e.CreateLock(context.Background(), "helix1sender", "not-a-coin", 600)
	require.Error(t, err)
}

func TestExecuteRejectsUnencodableMsg(t *testing.T) {
	_, err := Execute(client.Context{}, context.Background(),
		"helix1sender", "helix1contract", make(chan int), nil, DefaultTxOptions("uhlx"))
	require.ErrorContains(t, err, "encoding execute message")
}
