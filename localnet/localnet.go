// Package localnet starts a disposable wasmd chain in Docker for e2e tests
// of the client and CLI layers.
package localnet

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/tx"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/helixswap/governance/api"
)

const (
	apiPort  = "1317"
	grpcPort = "9090"
	rpcPort  = "26657"

	ChainId       = "helix-localnet"
	Denom         = "uhlx"
	Bech32Prefix  = "helix"
	localnetImage = "cosmwasm/wasmd:v0.53.0"

	// genesisMnemonic funds the localnet's genesis account; every test
	// wallet is topped up from it.
	genesisMnemonic = "clip hire initial neck maid actor venue client foam budget bar album " +
		"glance deposit nasty symptom dumb certain mixture scale hazard math amateur brave"

	homePath = "/root/.wasmd"
)

type Container struct {
	Ctx       context.Context
	Container testcontainers.Container
	RpcUri    string
	ClientCtx client.Context
	TxFactory tx.Factory
}

// Run starts a single-validator wasmd localnet and blocks until its RPC
// answers. The genesis key is recovered into an in-memory keyring so tests
// can sign without touching the host keyring.
func Run(ctx context.Context) *Container {
	initCmd := []string{
		"wasmd", "init", "localnet",
		"--chain-id", ChainId,
		"--home", homePath,
	}
	recoverCmd := fmt.Sprintf(
		`echo "%s" | wasmd keys add genesis --recover --keyring-backend test --home %s`,
		genesisMnemonic, homePath,
	)
	genesisCmds := []string{
		fmt.Sprintf(`wasmd genesis add-genesis-account genesis 100000000000%s --keyring-backend test --home %s`, Denom, homePath),
		fmt.Sprintf(`wasmd genesis gentx genesis 1000000000%s --chain-id %s --keyring-backend test --home %s`, Denom, ChainId, homePath),
		fmt.Sprintf(`wasmd genesis collect-gentxs --home %s`, homePath),
		fmt.Sprintf(`sed -i 's/"stake"/"%s"/g' %s/config/genesis.json`, Denom, homePath),
	}
	startCmd := fmt.Sprintf(
		`wasmd start --home %s --rpc.laddr tcp://0.0.0.0:%s --minimum-gas-prices 0%s`,
		homePath, rpcPort, Denom,
	)

	script := strings.Join(append(append([]string{strings.Join(initCmd, " "), recoverCmd}, genesisCmds...), startCmd), " && ")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:      localnetImage,
			Entrypoint: []string{"sh", "-c"},
			Cmd:        []string{script},
			ExposedPorts: []string{
				apiPort, grpcPort, rpcPort,
			},
			WaitingFor: wait.ForHTTP("/status").WithPort(rpcPort),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}

	setAddressPrefixes()

	c := &Container{
		Ctx:       ctx,
		Container: container,
	}
	c.RpcUri = fmt.Sprintf("http://%s", c.getHost(rpcPort))

	clientCtx := api.NewClientCtx(c.RpcUri, ChainId)
	kr := keyring.NewInMemory(clientCtx.Codec)
	hdPath := hd.CreateHDPath(sdk.CoinType, 0, 0).String()
	if _, err := kr.NewAccount("genesis", genesisMnemonic, "", hdPath, hd.Secp256k1); err != nil {
		panic(err)
	}
	c.ClientCtx = clientCtx.WithKeyring(kr)

	c.TxFactory = tx.Factory{}.
		WithChainID(ChainId).
		WithKeybase(kr).
		WithTxConfig(c.ClientCtx.TxConfig).
		WithAccountRetriever(c.ClientCtx.AccountRetriever).
		WithSignMode(signing.SignMode_SIGN_MODE_DIRECT).
		WithGasAdjustment(1.3)

	return c
}

func (c *Container) getHost(port nat.Port) string {
	host, err := c.Container.Host(c.Ctx)
	if err != nil {
		panic(err)
	}
	port, err = c.Container.MappedPort(c.Ctx, port)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func (c *Container) ApiUri() string {
	return fmt.Sprintf("http://%s", c.getHost(apiPort))
}

func (c *Container) GrpcUri() string {
	return fmt.Sprintf("grpc://%s", c.getHost(grpcPort))
}

func setAddressPrefixes() {
	config := sdk.GetConfig()
	defer func() {
		// Sealed config panics on a second Seal; prefixes are already ours.
		_ = recover()
	}()
	config.SetBech32PrefixForAccount(Bech32Prefix, Bech32Prefix+sdk.PrefixPublic)
	config.SetBech32PrefixForValidator(
		Bech32Prefix+sdk.PrefixValidator+sdk.PrefixOperator,
		Bech32Prefix+sdk.PrefixValidator+sdk.PrefixOperator+sdk.PrefixPublic,
	)
	config.Seal()
}
