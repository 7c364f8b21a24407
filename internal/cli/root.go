package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackfinder/stackfinder/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "stackfinder",
	Short: "StackFinder - Operator CLI for the product directory backend",
	Long: `StackFinder CLI - Administer the StackFinder backend.

Authenticate with an admin session token, inspect your identity, and queue
maintenance jobs like sitemap rebuilds and image host audits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stackfinder version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewSitemapCmd())
	rootCmd.AddCommand(commands.NewImagesCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
