// Package api is the Go client for the governance contracts: a thin
// client.Context factory, generic smart-query and execute helpers, and typed
// wrappers per contract.
package api

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/CosmWasm/wasmd/x/wasm"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	"github.com/cosmos/cosmos-sdk/std"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// NewClientCtx builds a client.Context wired to the given node, with the
// wasm module's codecs registered.
func NewClientCtx(nodeURI, chainID string) client.Context {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	authtypes.RegisterInterfaces(interfaceRegistry)
	cryptocodec.RegisterInterfaces(interfaceRegistry)
	std.RegisterInterfaces(interfaceRegistry)
	module.NewBasicManager(wasm.AppModuleBasic{}).RegisterInterfaces(interfaceRegistry)
	marshaler := codec.NewProtoCodec(interfaceRegistry)

	clientCtx := client.Context{}.
		WithChainID(chainID).
		WithOutputFormat("json").
		WithInterfaceRegistry(interfaceRegistry).
		WithTxConfig(authtx.NewTxConfig(marshaler, authtx.DefaultSignModes)).
		WithCodec(marshaler).
		WithAccountRetriever(authtypes.AccountRetriever{}).
		WithBroadcastMode(flags.BroadcastSync)

	rpcClient, err := client.NewClientFromNode(nodeURI)
	if err != nil {
		panic(err)
	}
	return clientCtx.WithClient(rpcClient)
}

func Query[Response interface{}](
	clientCtx client.Context, ctx context.Context, addr string, msg interface{},
) (Response, error) {
	var result Response
	queryClient := wasmtypes.NewQueryClient(clientCtx)

	queryBytes, err := json.Marshal(msg)
	if err != nil {
		return result, err
	}

	queryMsg := &wasmtypes.QuerySmartContractStateRequest{
		Address:   addr,
		QueryData: queryBytes,
	}

	response, err := queryClient.SmartContractState(ctx, queryMsg)
	if err != nil {
		return result, err
	}

	err = json.Unmarshal(response.Data, &result)
	return result, err
}

// TxOptions carries the fee and gas settings applied to every broadcast.
// GasLimit is only consulted when Simulate is off; otherwise the limit comes
// from a simulation scaled by GasAdjustment.
type TxOptions struct {
	GasPrice      sdktypes.DecCoin
	GasAdjustment float64
	GasLimit      uint64
	Simulate      bool
}

func DefaultTxOptions(denom string) TxOptions {
	return TxOptions{
		GasPrice:      sdktypes.NewDecCoinFromDec(denom, sdkmath.LegacyMustNewDecFromStr("0.05")),
		GasAdjustment: 1.2,
		GasLimit:      200_000,
		Simulate:      true,
	}
}

// Execute signs and broadcasts a contract execution for the sender.
func Execute(
	clientCtx client.Context, ctx context.Context, sender, contract string,
	msg any, funds sdktypes.Coins, opts TxOptions,
) (*coretypes.ResultBroadcastTx, error) {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding execute message: %w", err)
	}
	contractMsg := &wasmtypes.MsgExecuteContract{
		Sender:   sender,
		Contract: contract,
		Msg:      msgBytes,
		Funds:    funds,
	}

	txf := tx.Factory{}.
		WithChainID(clientCtx.ChainID).
		WithKeybase(clientCtx.Keyring).
		WithTxConfig(clientCtx.TxConfig).
		WithAccountRetriever(clientCtx.AccountRetriever).
		WithSimulateAndExecute(opts.Simulate).
		WithSignMode(signing.SignMode_SIGN_MODE_DIRECT).
		WithGas(opts.GasLimit).
		WithGasAdjustment(opts.GasAdjustment).
		WithGasPrices(opts.GasPrice.String()).
		WithFromName(clientCtx.FromName)

	txf, err = txf.Prepare(clientCtx)
	if err != nil {
		return nil, err
	}
	if txf.SimulateAndExecute() {
		_, adjusted, err := tx.CalculateGas(clientCtx, txf, contractMsg)
		if err != nil {
			return nil, err
		}
		txf = txf.WithGas(adjusted)
	}

	txBuilder, err := txf.BuildUnsignedTx(contractMsg)
	if err != nil {
		return nil, err
	}
	if err = tx.Sign(ctx, txf, clientCtx.FromName, txBuilder, true); err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	txBytes, err := clientCtx.TxConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("encoding transaction: %w", err)
	}

	node, err := clientCtx.GetNode()
	if err != nil {
		return nil, err
	}
	return node.BroadcastTxSync(ctx, txBytes)
}
