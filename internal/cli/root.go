// Package cli implements the catalogctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/client"
)

// EnvServerURL overrides the default API address.
const EnvServerURL = "CATALOG_API_URL"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	serverURL string
	output    string
	timeout   time.Duration
	verbose   bool

	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// NewRootCommand builds the catalogctl command tree writing to stdout and
// stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
	}

	defaultURL := os.Getenv(EnvServerURL)
	if defaultURL == "" {
		defaultURL = client.DefaultBaseURL
	}

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Command-line client for the catalog API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			if opts.verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("initializing logger: %w", err)
				}
				opts.logger = logger
			}
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.serverURL, "server", defaultURL, "catalog API base URL (env "+EnvServerURL+")")
	flags.StringVarP(&opts.output, "output", "o", outputAuto, "output format: auto, table or json")
	flags.DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(newItemsCommand(opts), newStatsCommand(opts))

	return rootCmd
}

// Execute runs catalogctl against the process arguments and reports
// failures on stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand(os.Stdout, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.serverURL,
		client.WithHTTPClient(newHTTPClient(o.timeout)),
		client.WithLogger(o.logger),
	)
}
