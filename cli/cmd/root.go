package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "helixgov",
	}

	rootCmd.PersistentFlags().String("node", "tcp://localhost:26657", "Node uri, endpoint to the node, e.g. tcp://localhost:26657")
	rootCmd.PersistentFlags().String("chain-id", "helix-1", "Chain id of the node, e.g. helix-1")
	rootCmd.PersistentFlags().String("keyring-backend", "os", "Backend of the keyring to use, options: os, test, file")
	rootCmd.PersistentFlags().String("from", "", "From key to use for signing transactions, e.g. key-name")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file, e.g. /path/to/config.yaml")
	rootCmd.PersistentFlags().String("denom", "uhlx", "Fee denom used for gas prices, e.g. uhlx")
	rootCmd.PersistentFlags().String("gas-prices", "", "Gas price override, e.g. 0.05uhlx")
	rootCmd.PersistentFlags().Float64("gas-adjustment", 0, "Gas adjustment override applied to simulated gas")

	_ = viper.BindPFlag("node", rootCmd.PersistentFlags().Lookup("node"))
	_ = viper.BindPFlag("chain-id", rootCmd.PersistentFlags().Lookup("chain-id"))
	_ = viper.BindPFlag("keyring-backend", rootCmd.PersistentFlags().Lookup("keyring-backend"))
	_ = viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("denom", rootCmd.PersistentFlags().Lookup("denom"))
	_ = viper.BindPFlag("gas-prices", rootCmd.PersistentFlags().Lookup("gas-prices"))
	_ = viper.BindPFlag("gas-adjustment", rootCmd.PersistentFlags().Lookup("gas-adjustment"))

	rootCmd.AddCommand(EscrowCommand())
	rootCmd.AddCommand(EmissionsCommand())
	rootCmd.AddCommand(OutpostCommand())
	rootCmd.AddCommand(KeeperCommand())
	return rootCmd
}
