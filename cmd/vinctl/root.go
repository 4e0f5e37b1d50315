package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/vinlookup/internal/client"
	"github.com/okian/vinlookup/internal/domain/vin"
	"github.com/okian/vinlookup/pkg/logger"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	addr       string
	output     string
	checkDigit string
	timeout    time.Duration
	verbose    bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.addr, client.WithTimeout(o.timeout))
}

func (o *rootOptions) validator() (*vin.Validator, error) {
	mode, err := vin.ParseCheckDigitMode(o.checkDigit)
	if err != nil {
		return nil, err
	}
	return vin.NewValidator(vin.WithCheckDigitMode(mode)), nil
}

func (o *rootOptions) printer(cmd *cobra.Command) (*printer, error) {
	return newPrinter(cmd.OutOrStdout(), o.output)
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "vinctl",
		Short: "Validate, decode and manage Vehicle Identification Numbers",
		Long: `vinctl checks VINs offline and talks to a running vinlookup server
to decode, store, list, remove and export records.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), logger.FormatText); err != nil {
				return err
			}
			if opts.verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.addr, "addr", envOr("VINCTL_ADDR", client.DefaultBaseURL), "Base URL of the vinlookup server")
	flags.StringVarP(&opts.output, "output", "o", formatText, "Output format: text, json or yaml")
	flags.StringVar(&opts.checkDigit, "check-digit", string(vin.CheckDigitNorthAmerica), "Check digit policy for offline commands: always, north_america or never")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(
		newValidateCmd(opts),
		newDecodeCmd(opts),
		newLookupCmd(opts),
		newRemoveCmd(opts),
		newListCmd(opts),
		newExportCmd(opts),
		newGenCmd(opts),
		newLoadCmd(opts),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
