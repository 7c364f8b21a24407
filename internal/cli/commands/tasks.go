package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackfinder/stackfinder/internal/cli/auth"
	"github.com/stackfinder/stackfinder/internal/cli/client"
	"github.com/stackfinder/stackfinder/internal/cli/userconfig"
)

// taskClient is the slice of the API client the maintenance commands need.
type taskClient interface {
	RebuildSitemap(token string) error
	AuditImages(token string) error
}

type taskOptions struct {
	client    taskClient
	loadToken func() (string, error)
}

// TaskOption configures the maintenance commands for testing
type TaskOption func(*taskOptions)

// WithTaskClient sets a custom API client
func WithTaskClient(c taskClient) TaskOption {
	return func(o *taskOptions) {
		o.client = c
	}
}

// WithTaskTokenLoader sets a custom token loader
func WithTaskTokenLoader(load func() (string, error)) TaskOption {
	return func(o *taskOptions) {
		o.loadToken = load
	}
}

func resolveTaskOptions(opts []TaskOption) (*taskOptions, error) {
	options := &taskOptions{
		loadToken: auth.LoadToken,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.client == nil {
		apiURL, err := userconfig.ResolveAPIURL()
		if err != nil {
			return nil, err
		}
		options.client = client.New(apiURL)
	}

	return options, nil
}

// NewSitemapCmd creates the sitemap command group
func NewSitemapCmd(opts ...TaskOption) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Sitemap maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Queue a rebuild of the cached sitemap",
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := resolveTaskOptions(opts)
			if err != nil {
				return err
			}

			token, err := options.loadToken()
			if err != nil {
				return err
			}

			if err := options.client.RebuildSitemap(token); err != nil {
				return err
			}

			fmt.Println("Sitemap rebuild queued")
			return nil
		},
	})

	return cmd
}

// NewImagesCmd creates the images command group
func NewImagesCmd(opts ...TaskOption) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Product image maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "audit",
		Short: "Queue an audit of product image hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := resolveTaskOptions(opts)
			if err != nil {
				return err
			}

			token, err := options.loadToken()
			if err != nil {
				return err
			}

			if err := options.client.AuditImages(token); err != nil {
				return err
			}

			fmt.Println("Image audit queued")
			return nil
		},
	})

	return cmd
}
