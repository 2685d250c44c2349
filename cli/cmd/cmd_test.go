package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixswap/governance/emissions"
)

func TestParsePoolWeights(t *testing.T) {
	votes, err := parsePoolWeights([]string{"helix1poolalpha:7000", "osmo1pooldelta:3000"})
	require.NoError(t, err)
	assert.Equal(t, []emissions.PoolWeight{
		{Pool: "helix1poolalpha", Weight: 7000},
		{Pool: "osmo1pooldelta", Weight: 3000},
	}, votes)

	_, err = parsePoolWeights([]string{"helix1poolalpha"})
	assert.ErrorContains(t, err, "expected pool:bps")

	_, err = parsePoolWeights([]string{"helix1poolalpha:seventy"})
	assert.ErrorContains(t, err, "invalid weight")

	_, err = parsePoolWeights([]string{"helix1poolalpha:70000"})
	assert.Error(t, err)
}

func TestRootCmdWiring(t *testing.T) {
	rootCmd := RootCmd()

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["escrow"])
	assert.True(t, names["emissions"])
	assert.True(t, names["outpost"])
	assert.True(t, names["keeper"])

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("node"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("chain-id"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("keyring-backend"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("from"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("denom"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("gas-prices"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("gas-adjustment"))
}
