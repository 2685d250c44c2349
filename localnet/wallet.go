package localnet

import (
	"context"
	"encoding/hex"

	"cosmossdk.io/math"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/client/tx"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
)

// GenerateAddress returns a stable per-uid address, creating and storing a
// fresh key on first use.
func (c *Container) GenerateAddress(uid string) sdk.AccAddress {
	record, err := c.ClientCtx.Keyring.Key(uid)
	if record == nil {
		privKey := secp256k1.GenPrivKey()
		err := c.ClientCtx.Keyring.ImportPrivKeyHex(uid, hex.EncodeToString(privKey.Bytes()), "secp256k1")
		if err != nil {
			panic(err)
		}

		record, err = c.ClientCtx.Keyring.Key(uid)
		if record == nil {
			panic(err)
		}
	} else if err != nil {
		panic(err)
	}

	address, err := record.GetAddress()
	if err != nil {
		panic(err)
	}
	return address
}

// FundAddress sends coins from the genesis account.
func (c *Container) FundAddress(address string, coin sdk.Coin) *coretypes.ResultBroadcastTxCommit {
	ctx := context.Background()

	genesis, err := c.ClientCtx.Keyring.Key("genesis")
	if err != nil {
		panic(err)
	}
	from, err := genesis.GetAddress()
	if err != nil {
		panic(err)
	}
	to, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		panic(err)
	}

	clientCtx := c.ClientCtx.WithFromName("genesis").WithFromAddress(from)
	txf, err := c.TxFactory.Prepare(clientCtx)
	if err != nil {
		panic(err)
	}

	txBuilder := clientCtx.TxConfig.NewTxBuilder()
	txBuilder.SetFeeAmount(sdk.NewCoins(sdk.NewCoin(Denom, math.NewInt(1000))))
	txBuilder.SetGasLimit(200000)
	msg := banktypes.NewMsgSend(from, to, sdk.NewCoins(coin))
	if err = txBuilder.SetMsgs(msg); err != nil {
		panic(err)
	}

	if err = tx.Sign(ctx, txf, clientCtx.FromName, txBuilder, true); err != nil {
		panic(err)
	}

	txBytes, err := clientCtx.TxConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		panic(err)
	}

	node, err := clientCtx.GetNode()
	if err != nil {
		panic(err)
	}
	result, err := node.BroadcastTxCommit(ctx, txBytes)
	if err != nil {
		panic(err)
	}

	return result
}

func (c *Container) FundAddressUhlx(address string, amount int64) *coretypes.ResultBroadcastTxCommit {
	return c.FundAddress(address, sdk.NewCoin(Denom, math.NewInt(amount)))
}

func (c *Container) ImportPrivKey(uid string, hexKey string) {
	if err := c.ClientCtx.Keyring.ImportPrivKeyHex(uid, hexKey, "secp256k1"); err != nil {
		panic(err)
	}
}
