package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackfinder/stackfinder/internal/cli/userconfig"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the backend API URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				return fmt.Errorf("--api-url is required")
			}

			normalized, err := userconfig.SetAPIURL(apiURL)
			if err != nil {
				return err
			}

			fmt.Printf("API URL set to %s\n", normalized)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (e.g. https://api.stackfinder.io)")

	return cmd
}
