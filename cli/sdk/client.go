// Package sdk builds client contexts for CLI commands from viper-bound
// configuration.
package sdk

import (
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"

	"github.com/helixswap/governance/api"
)

func NewClientCtx() client.Context {
	return api.NewClientCtx(
		viper.GetString("node"),
		viper.GetString("chain-id"),
	)
}

// WithKeyring attaches the configured keyring and resolves the from key to
// its address so transactions can be signed.
func WithKeyring(ctx client.Context) client.Context {
	keyringBackend := viper.GetString("keyring-backend")

	kr, err := keyring.New("helixswap", keyringBackend, ctx.KeyringDir, ctx.Input, ctx.Codec, ctx.KeyringOptions...)
	if err != nil {
		panic(err)
	}

	from := viper.GetString("from")
	record, err := kr.Key(from)
	if err != nil {
		panic(err)
	}
	addr, err := record.GetAddress()
	if err != nil {
		panic(err)
	}

	return ctx.WithKeyring(kr).WithFromName(from).WithFromAddress(addr)
}

// TxOptions builds broadcast fee settings from the bound configuration,
// starting from the defaults for the configured fee denom.
func TxOptions() api.TxOptions {
	opts := api.DefaultTxOptions(viper.GetString("denom"))
	if prices := viper.GetString("gas-prices"); prices != "" {
		coin, err := sdktypes.ParseDecCoin(prices)
		if err != nil {
			panic(err)
		}
		opts.GasPrice = coin
	}
	if adjustment := viper.GetFloat64("gas-adjustment"); adjustment > 0 {
		opts.GasAdjustment = adjustment
	}
	return opts
}
