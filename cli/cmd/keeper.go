package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helixswap/governance/api"
	"github.com/helixswap/governance/cli/sdk"
	"github.com/helixswap/governance/keeper"
	"github.com/helixswap/governance/logger"
)

func KeeperCommand() *cobra.Command {
	command := &cobra.Command{
		Use: "keeper",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tune keeper until interrupted.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			metricsAddr, _ := cmd.Flags().GetString("metrics-address")
			pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
			logLevel, _ := cmd.Flags().GetString("log-level")

			log := logger.NewZapLogger("governance-keeper")
			log.SetLogLevel(logLevel)

			clientCtx := sdk.WithKeyring(sdk.NewClientCtx())
			sender := clientCtx.GetFromAddress().String()
			client := api.NewEmissions(clientCtx,
				viper.GetString("contracts.emissions"),
				sdk.TxOptions())

			opts := keeper.DefaultOptions(sender)
			if pollInterval > 0 {
				opts.PollInterval = pollInterval
			}

			reg := prometheus.NewRegistry()
			indicators := keeper.NewPromIndicators(clientCtx.ChainID, reg)
			k := keeper.New(client, opts, clockwork.NewRealClock(), log, indicators)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metricsErr := keeper.ServeIndicators(ctx, metricsAddr, reg, log)
			go func() {
				for err := range metricsErr {
					log.Error("metrics server error", logger.WithField("error", err))
				}
			}()

			if err := k.Run(ctx); err != nil && ctx.Err() == nil {
				log.Fatal("keeper stopped", logger.WithField("error", err))
			}
		},
	}
	runCmd.Flags().String("metrics-address", "localhost:9091", "Listen address for the prometheus /metrics endpoint")
	runCmd.Flags().Duration("poll-interval", time.Minute, "How often to poll the emissions controller")
	runCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")

	command.AddCommand(runCmd)
	return command
}
