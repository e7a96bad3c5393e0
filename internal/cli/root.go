// Package cli provides the cobra commands for the preview-pkg binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Version information (set at build time)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "preview-pkg",
		Short: "preview-pkg - publish preview packages under your GitHub identity",
		Long: `preview-pkg publishes local source packages to a content-addressed
preview registry under your verified GitHub identity, and serves them back
to consumers as versioned tarballs.

Dependencies between packages published in the same run are rewritten to
point at their preview registry URLs before packing, and every manifest is
restored byte-for-byte before anything touches the network.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.GetLogger().ConfigureFromEnv()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(newPublishCmd(&configPath))
	rootCmd.AddCommand(newLoginCmd(&configPath))
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd(&configPath))
	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the CLI with build-time version information.
func Execute(version, commit, date string) error {
	if version != "" {
		Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if date != "" {
		BuildDate = date
	}
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("preview-pkg %s\n", Version)
			cmd.Printf("Commit: %s\n", Commit)
			cmd.Printf("Build Date: %s\n", BuildDate)
		},
	}
}
