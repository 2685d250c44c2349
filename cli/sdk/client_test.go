package sdk

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestTxOptionsFromConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("denom", "uhlx")

	opts := TxOptions()
	assert.Equal(t, "uhlx", opts.GasPrice.Denom)
	assert.Equal(t, 1.2, opts.GasAdjustment)
	assert.True(t, opts.Simulate)

	viper.Set("gas-prices", "0.1uosmo")
	viper.Set("gas-adjustment", 1.5)

	opts = TxOptions()
	assert.Equal(t, "uosmo", opts.GasPrice.Denom)
	assert.Equal(t, 1.5, opts.GasAdjustment)
}
