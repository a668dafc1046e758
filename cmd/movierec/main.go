package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/movierec/internal/config"
	"github.com/kailas-cloud/movierec/internal/version"
)

var envName string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "movierec",
	Short: "Movie recommendations from a precomputed similarity matrix",
	Long: `movierec serves item-to-item movie recommendations with an optional
release-year filter backed by TMDb metadata, and manages the local
credential table used to gate access.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "",
		"configuration environment (config/<env>.yaml); defaults to $ENV, then local")
	// Resolved after .env is loaded so ENV may come from there.
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		env, err := config.ResolveEnv(envName)
		if err != nil {
			return err
		}
		envName = env
		return nil
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(usersRootCmd())

	// If no command is specified, default to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
