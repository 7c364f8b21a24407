package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackfinder/stackfinder/internal/cli/auth"
	"github.com/stackfinder/stackfinder/internal/cli/client"
	"github.com/stackfinder/stackfinder/internal/cli/userconfig"
)

type whoamiOptions struct {
	client    meClient
	loadToken func() (string, error)
	out       io.Writer
}

// WhoamiOption configures the whoami command for testing
type WhoamiOption func(*whoamiOptions)

// WithWhoamiClient sets a custom API client
func WithWhoamiClient(c meClient) WhoamiOption {
	return func(o *whoamiOptions) {
		o.client = c
	}
}

// WithWhoamiTokenLoader sets a custom token loader
func WithWhoamiTokenLoader(load func() (string, error)) WhoamiOption {
	return func(o *whoamiOptions) {
		o.loadToken = load
	}
}

// WithWhoamiOutput sets a custom output writer
func WithWhoamiOutput(w io.Writer) WhoamiOption {
	return func(o *whoamiOptions) {
		o.out = w
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts ...WhoamiOption) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the admin identity behind the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &whoamiOptions{
				loadToken: auth.LoadToken,
				out:       os.Stdout,
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

			token, err := options.loadToken()
			if err != nil {
				return err
			}

			me, err := options.client.Me(token)
			if err != nil {
				return fmt.Errorf("could not reach backend: %w", err)
			}
			if !me.Success || me.Data == nil {
				if me.Message != "" {
					return fmt.Errorf("not authorized: %s", me.Message)
				}
				return fmt.Errorf("not authorized")
			}

			if me.Data.DisplayName != "" {
				fmt.Fprintf(options.out, "%s (%s)\n", me.Data.DisplayName, me.Data.Email)
			} else {
				fmt.Fprintln(options.out, me.Data.Email)
			}
			return nil
		},
	}
}
