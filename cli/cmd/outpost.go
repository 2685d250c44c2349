package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helixswap/governance/api"
	"github.com/helixswap/governance/cli/sdk"
	"github.com/helixswap/governance/outpost"
)

func OutpostCommand() *cobra.Command {
	command := &cobra.Command{
		Use: "outpost",
	}

	command.AddCommand(outpostExecute())
	command.AddCommand(outpostQuery())
	return command
}

func outpostExecute() *cobra.Command {
	command := &cobra.Command{
		Use: "execute",
	}

	command.AddCommand(&cobra.Command{
		Use:   "vote <pool:bps> [pool:bps ...]",
		Short: "Relay a gauge vote to the hub, e.g. vote osmo1pool:10000",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			votes, err := parsePoolWeights(args)
			if err != nil {
				panic(err)
			}
			executeMsg := outpost.ExecuteMsg{
				Vote: &outpost.Vote{Votes: votes},
			}
			broadcastOutpost(executeMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "governance-vote <proposal-id> <for|against>",
		Short: "Relay a governance vote to the hub assembly.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			proposalID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				panic(err)
			}
			executeMsg := outpost.ExecuteMsg{
				GovernanceVote: &outpost.GovernanceVote{ProposalID: proposalID, Vote: args[1]},
			}
			broadcastOutpost(executeMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "register-proposal <proposal-id>",
		Short: "Mirror a hub assembly proposal on this chain.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			proposalID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				panic(err)
			}
			executeMsg := outpost.ExecuteMsg{
				RegisterProposal: &outpost.RegisterProposal{ProposalID: proposalID},
			}
			broadcastOutpost(executeMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "clear-ibc-error",
		Short: "Acknowledge and clear your stored IBC error.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			broadcastOutpost(outpost.ExecuteMsg{ClearIBCError: &outpost.ClearIBCError{}})
		},
	})

	return command
}

func outpostQuery() *cobra.Command {
	command := &cobra.Command{
		Use: "query",
	}

	command.AddCommand(&cobra.Command{
		Use:   "pending-user <user>",
		Short: "Show whether a user has an IBC message in flight.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := outpost.QueryMsg{
				PendingUser: &outpost.PendingUserQuery{User: args[0]},
			}
			queryOutpost[outpost.PendingUserResponse](queryMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "ibc-error <user>",
		Short: "Show a user's stored IBC error, if any.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := outpost.QueryMsg{
				IBCError: &outpost.IBCErrorQuery{User: args[0]},
			}
			queryOutpost[outpost.UserIBCError](queryMsg)
		},
	})

	return command
}

func broadcastOutpost(executeMsg outpost.ExecuteMsg) {
	clientCtx := sdk.WithKeyring(sdk.NewClientCtx())

	response, err := api.Execute(
		clientCtx,
		context.Background(),
		clientCtx.GetFromAddress().String(),
		viper.GetString("contracts.outpost"),
		executeMsg,
		nil,
		sdk.TxOptions(),
	)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Transaction hash: %s\n", response.Hash.String())
}

func queryOutpost[Response any](queryMsg outpost.QueryMsg) {
	clientCtx := sdk.NewClientCtx()

	response, err := api.Query[Response](clientCtx, context.Background(),
		viper.GetString("contracts.outpost"),
		queryMsg,
	)
	if err != nil {
		panic(err)
	}

	printJSON(response)
}
