package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for skygrid.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skygrid",
		Short: "Search-grid construction for periodic-signal searches",
		Long: `skygrid covers a region of the sky with a search grid (fixed-step,
isotropic, metric-adapted or read from a file) and steps through the product of
that grid with frequency and spin-down ranges.

Settings are read from skygrid.yaml in the current directory or the XDG config
directory, then overridden by flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: skygrid.yaml in current or XDG config directory)")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	cmd.PersistentFlags().String("metrics-out", "",
		"Write Prometheus metrics to this file when the command finishes")

	cmd.AddCommand(NewGridCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCubeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
