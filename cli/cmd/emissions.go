package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helixswap/governance/api"
	"github.com/helixswap/governance/cli/sdk"
	"github.com/helixswap/governance/emissions"
)

func EmissionsCommand() *cobra.Command {
	command := &cobra.Command{
		Use: "emissions",
	}

	command.AddCommand(emissionsExecute())
	command.AddCommand(emissionsQuery())
	return command
}

func emissionsExecute() *cobra.Command {
	command := &cobra.Command{
		Use: "execute",
	}

	command.AddCommand(&cobra.Command{
		Use:   "vote <pool:bps> [pool:bps ...]",
		Short: "Allocate voting power to pools in basis points, e.g. vote helix1pool:7000 osmo1pool:3000",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			votes, err := parsePoolWeights(args)
			if err != nil {
				panic(err)
			}
			executeMsg := emissions.ExecuteMsg{
				Vote: &emissions.Vote{Votes: votes},
			}
			broadcastEmissions(executeMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "tune-pools",
		Short: "Recompute emission allocations for the current epoch.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			broadcastEmissions(emissions.ExecuteMsg{TunePools: &emissions.TunePools{}})
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "retry-failed-outposts",
		Short: "Resend emission allocations to outposts whose relay failed.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			broadcastEmissions(emissions.ExecuteMsg{RetryFailedOutposts: &emissions.RetryFailedOutposts{}})
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "update-outpost <prefix> <channel>",
		Short: "Register or update an outpost channel, e.g. update-outpost osmo channel-3",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			executeMsg := emissions.ExecuteMsg{
				UpdateOutpost: &emissions.UpdateOutpost{Prefix: args[0], Channel: args[1]},
			}
			broadcastEmissions(executeMsg)
		},
	})

	whitelistCmd := &cobra.Command{
		Use:   "update-whitelist",
		Short: "Add or remove pools from the voting whitelist.",
		Run: func(cmd *cobra.Command, args []string) {
			add, _ := cmd.Flags().GetStringSlice("add")
			remove, _ := cmd.Flags().GetStringSlice("remove")
			executeMsg := emissions.ExecuteMsg{
				UpdateWhitelist: &emissions.UpdateWhitelist{Add: add, Remove: remove},
			}
			broadcastEmissions(executeMsg)
		},
	}
	whitelistCmd.Flags().StringSlice("add", nil, "Pools to whitelist")
	whitelistCmd.Flags().StringSlice("remove", nil, "Pools to remove from the whitelist")
	command.AddCommand(whitelistCmd)

	return command
}

func emissionsQuery() *cobra.Command {
	command := &cobra.Command{
		Use: "query",
	}

	command.AddCommand(&cobra.Command{
		Use:   "tune-info",
		Short: "Show the latest emission allocations and outpost statuses.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			queryEmissions[emissions.TuneInfo](emissions.QueryMsg{TuneInfo: &emissions.TuneInfoQuery{}})
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "user-info <user>",
		Short: "Show a voter's last recorded vote.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := emissions.QueryMsg{
				UserInfo: &emissions.UserInfoQuery{User: args[0]},
			}
			queryEmissions[emissions.UserInfoResponse](queryMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "pool-voting-power <pool>",
		Short: "Show a pool's current gauge power.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			queryMsg := emissions.QueryMsg{
				PoolVotingPower: &emissions.PoolVotingPowerQuery{Pool: args[0]},
			}
			queryEmissions[emissions.VotingPowerResponse](queryMsg)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "voted-pools",
		Short: "List pools with live gauge power.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			queryEmissions[emissions.VotedPoolsResponse](emissions.QueryMsg{VotedPools: &emissions.VotedPoolsQuery{}})
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "outposts",
		Short: "List registered outposts and their channels.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			queryEmissions[emissions.OutpostsResponse](emissions.QueryMsg{Outposts: &emissions.OutpostsQuery{}})
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "whitelist",
		Short: "List whitelisted pools.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			queryEmissions[emissions.WhitelistResponse](emissions.QueryMsg{Whitelist: &emissions.WhitelistQuery{}})
		},
	})

	return command
}

func parsePoolWeights(args []string) ([]emissions.PoolWeight, error) {
	votes := make([]emissions.PoolWeight, 0, len(args))
	for _, arg := range args {
		pool, weight, found := strings.Cut(arg, ":")
		if !found {
			return nil, fmt.Errorf("invalid vote %q, expected pool:bps", arg)
		}
		bps, err := strconv.ParseUint(weight, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", arg, err)
		}
		votes = append(votes, emissions.PoolWeight{Pool: pool, Weight: uint16(bps)})
	}
	return votes, nil
}

func broadcastEmissions(executeMsg emissions.ExecuteMsg) {
	clientCtx := sdk.WithKeyring(sdk.NewClientCtx())

	response, err := api.Execute(
		clientCtx,
		context.Background(),
		clientCtx.GetFromAddress().String(),
		viper.GetString("contracts.emissions"),
		executeMsg,
		nil,
		sdk.TxOptions(),
	)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Transaction hash: %s\n", response.Hash.String())
}

func queryEmissions[Response any](queryMsg emissions.QueryMsg) {
	clientCtx := sdk.NewClientCtx()

	response, err := api.Query[Response](clientCtx, context.Background(),
		viper.GetString("contracts.emissions"),
		queryMsg,
	)
	if err != nil {
		panic(err)
	}

	printJSON(response)
}
