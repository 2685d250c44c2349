package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helixswap/governance/api"
	"github.com/helixswap/governance/cli/sdk"
	"github.com/helixswap/governance/escrow"
)

func EscrowCommand() *cobra.Command {
	command := &cobra.Command{
		Use: "escrow",
	}

	command.AddCommand(escrowExecute())
	command.AddCommand(escrowQuery())
	return command
}

func escrowExecute() *cobra.Command {
	command := &cobra.Command{
		Use: "execute",
	}

	command.AddCommand(&cobra.Command{
		Use:   "create-lock <funds> <seconds>",
		Short: "Lock tokens for voting power, e.g. create-lock 1000uhlx 4838400",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			seconds, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				panic(err)
			}
			executeMsg := escrow.ExecuteMsg{
				CreateLock: &escrow.CreateLock{Time: seconds},
			}
			broadcastEscrow(executeMsg, args[0])
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "extend-lock-time <seconds>",
		Short: "Extend the lock end by the given duration.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			seconds, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				panic(err)
			}
			executeMsg := escrow.ExecuteMsg{
				ExtendLockTime: &escrow.ExtendLockTime{Time: seconds},
			}
			broadcastEscrow(executeMsg, "")
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "extend-lock-amount <funds>",
		Short: "Add tokens to an existing lock.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			executeMsg := escrow.ExecuteMsg{
				ExtendLockAmount: &escrow.ExtendLockAmount{},
			}
			broadcastEscrow(executeMsg, args[0])
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "unlock",
		Short: "Start the unlock cooldown; voting power drops immediately.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			broadcastEscrow(escrow.ExecuteMsg{Unlock: &escrow.Unlock{}}, "")
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw tokens after the unlock cooldown has expired.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			broadcastEscrow(escrow.ExecuteMsg{Withdraw: &escrow.Withdraw{}}, "")
		},
	})

	return command
}

func escrowQuery() *cobra.Command {
	command := &cobra.Command{
		Use: "query",
	}

	command.AddCommand(&cobra.Command{
		Use:   "lock-info <user>",
		Short: "Show a user's lock position.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := escrow.QueryMsg{
				LockInfo: &escrow.LockInfoQuery{User: args[0]},
			}
			queryEscrow[escrow.LockInfoResponse](queryMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "user-voting-power <user>",
		Short: "Show a user's current voting power.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := escrow.QueryMsg{
				UserVotingPower: &escrow.UserVotingPowerQuery{User: args[0]},
			}
			queryEscrow[escrow.VotingPowerResponse](queryMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "total-voting-power",
		Short: "Show the total voting power.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := escrow.QueryMsg{
				TotalVotingPower: &escrow.TotalVotingPowerQuery{},
			}
			queryEscrow[escrow.VotingPowerResponse](queryMsg)
		},
	})

	return command
}

func broadcastEscrow(executeMsg escrow.ExecuteMsg, funds string) {
	clientCtx := sdk.WithKeyring(sdk.NewClientCtx())

	coins, err := sdktypes.ParseCoinsNormalized(funds)
	if err != nil {
		panic(err)
	}

	response, err := api.Execute(
		clientCtx,
		context.Background(),
		clientCtx.GetFromAddress().String(),
		viper.GetString("contracts.escrow"),
		executeMsg,
		coins,
		sdk.TxOptions(),
	)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Transaction hash: %s\n", response.Hash.String())
}

func queryEscrow[Response any](queryMsg escrow.QueryMsg) {
	clientCtx := sdk.NewClientCtx()

	response, err := api.Query[Response](clientCtx, context.Background(),
		viper.GetString("contracts.escrow"),
		queryMsg,
	)
	if err != nil {
		panic(err)
	}

	printJSON(response)
}

func printJSON(response any) {
	out, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(out))
}
