package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stackfinder/stackfinder/internal/cli/auth"
	"github.com/stackfinder/stackfinder/internal/cli/client"
	"github.com/stackfinder/stackfinder/internal/cli/userconfig"
)

// meClient is the slice of the API client login needs.
type meClient interface {
	Me(token string) (*client.MeResponse, error)
}

type loginOptions struct {
	client    meClient
	saveToken func(string) error
}

// LoginOption configures the login command for testing
type LoginOption func(*loginOptions)

// WithLoginClient sets a custom API client
func WithLoginClient(c meClient) LoginOption {
	return func(o *loginOptions) {
		o.client = c
	}
}

// WithLoginTokenSaver sets a custom token saver
func WithLoginTokenSaver(save func(string) error) LoginOption {
	return func(o *loginOptions) {
		o.saveToken = save
	}
}

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...LoginOption) *cobra.Command {
	var tokenFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a session token",
		Long: `Authenticate with a session token obtained from the admin console.

The token can be passed via --token, the STACKFINDER_TOKEN environment
variable, or entered at the hidden prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &loginOptions{
				saveToken: auth.SaveToken,
			}
			for _, opt := range opts {
				opt(options)
			}

			if options.client == nil {
				apiURL, err := userconfig.ResolveAPIURL()
				if err != nil {
					return err
				}
				options.client = client.New(apiURL)
			}

			token := tokenFlag
			if token == "" {
				token = os.Getenv("STACKFINDER_TOKEN")
			}
			if token == "" {
				fmt.Print("Session token: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}
				token = strings.TrimSpace(string(raw))
			}
			if token == "" {
				return fmt.Errorf("no token provided")
			}

			me, err := options.client.Me(token)
			if err != nil {
				return fmt.Errorf("could not verify token: %w", err)
			}
			if !me.Success || me.Data == nil {
				if me.Message != "" {
					return fmt.Errorf("login rejected: %s", me.Message)
				}
				return fmt.Errorf("login rejected")
			}

			if err := options.saveToken(token); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", me.Data.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenFlag, "token", "", "Session token (falls back to STACKFINDER_TOKEN)")

	return cmd
}
