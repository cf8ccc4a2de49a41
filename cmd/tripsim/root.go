package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"bettercommute/internal/config"
	"bettercommute/internal/infra"
	"bettercommute/internal/modules/driver"
	"bettercommute/internal/modules/trip"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tripsim",
	Short: "Simulates a driver approaching the pickup point",
	Long: `tripsim looks up a driver quote (or takes --eta), then advances a progress
bar once per tick until the driver arrives. Ctrl-C cancels the ride.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := infra.NewLogger(viper.GetString("env"))
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		quote, err := resolveQuote(ctx, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Driver: %s (%s), ETA %d min\n",
			orDash(quote.DriverName), orDash(quote.MobileNumber), quote.ETAMinutes)

		sim := trip.NewSimulator(viper.GetDuration("tick"), logger)
		arrived := simulate(ctx, sim, quote.ETAMinutes, cmd.OutOrStdout())
		if !arrived {
			fmt.Fprintln(cmd.OutOrStdout(), "Ride cancelled.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Your driver has arrived!")
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tripsim.yaml)")

	defaults := config.DefaultDriverAPI()
	rootCmd.Flags().Int("eta", 0, "ETA in minutes; 0 looks the driver up instead")
	rootCmd.Flags().String("driver-name", "", "driver name shown with --eta")
	rootCmd.Flags().Duration("tick", time.Second, "wall-clock length of one simulated second")
	rootCmd.Flags().String("driver-api-url", defaults.BaseURL, "driver lookup base URL")
	rootCmd.Flags().String("driver-api-path", defaults.Path, "driver lookup path")
	rootCmd.Flags().Duration("driver-api-timeout", defaults.Timeout, "driver lookup timeout")
	rootCmd.Flags().String("env", "production", "logging environment (development for console logs)")

	_ = viper.BindPFlags(rootCmd.Flags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tripsim")
	}

	viper.SetEnvPrefix("COMMUTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func resolveQuote(ctx context.Context, logger *zap.Logger) (trip.Quote, error) {
	if eta := viper.GetInt("eta"); eta > 0 {
		return trip.Quote{DriverName: viper.GetString("driver-name"), ETAMinutes: eta}, nil
	}
	client := driver.NewClient(
		viper.GetString("driver-api-url"),
		viper.GetString("driver-api-path"),
		viper.GetDuration("driver-api-timeout"),
		logger,
	)
	q, err := client.Lookup(ctx)
	if err != nil {
		return trip.Quote{}, fmt.Errorf("could not reach the driver service: %w", err)
	}
	return q, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
