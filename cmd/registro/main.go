package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "registro",
		Short: "Servicredit registration form service",
		Long: `registro serves the Servicredit registration forms (affiliation signup and
sweepstakes signup), validates the collected data and forwards it to the
registrar API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config YAML file (default: configs/config.yaml)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		validateCmd(&configPath),
		submitCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
