package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	runOnStart bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Factor-scored portfolio weights and cluster breakout signals for crypto assets",
	Long: `sentinel scores a universe of crypto assets on valuation, momentum,
liquidity and risk factors, turns the scores into target portfolio weights, and scans
klines for cluster breakouts and retests.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler, Telegram bot and HTTP API until interrupted",
	RunE:  runServe,
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Run the factor pipeline once and print the allocation",
	RunE:  runPortfolioOnce,
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Scan every asset and timeframe once and print the signals",
	RunE:  runSignalsOnce,
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to the YAML config file")
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "Run the portfolio task once at startup")

	rootCmd.AddCommand(serveCmd, portfolioCmd, signalsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
