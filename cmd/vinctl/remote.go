package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/vinlookup/internal/domain/model"
)

func newLookupCmd(opts *rootOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "lookup VIN...",
		Short: "Decode VINs on the server and store the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c := opts.client()

			if len(args) == 1 {
				res, err := c.Lookup(cmd.Context(), args[0], refresh)
				if err != nil {
					return err
				}
				return p.print(res, func(w io.Writer) {
					printRecord(w, res.Record)
					kv(w, "Cached", fmt.Sprint(res.CachedResult))
				})
			}

			res, err := c.LookupBatch(cmd.Context(), args, refresh)
			if err != nil {
				return err
			}
			return p.print(res, func(w io.Writer) {
				for _, it := range res.Items {
					if it.Error != nil {
						fmt.Fprintf(w, "%s\terror\t%s\n", it.Input, it.Error.Message)
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s %s\n", it.Input, it.Result.Manufacturer, it.Result.ModelYear, it.Result.Model)
				}
				fmt.Fprintf(w, "succeeded=%d failed=%d\n", res.Succeeded, res.Failed)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Decode again even when the VIN is stored")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove VIN",
		Short: "Remove a stored record from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			res, err := opts.client().Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.print(res, func(w io.Writer) {
				fmt.Fprintf(w, "removed %s\n", res.VINRequested)
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the records stored on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			records, err := opts.client().List(cmd.Context())
			if err != nil {
				return err
			}
			if records == nil {
				records = []model.Record{}
			}
			return p.print(records, func(w io.Writer) {
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.VIN, r.Manufacturer, r.ModelYear, r.Model)
				}
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the stored records as csv, json, yaml or parquet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := opts.client().Export(cmd.Context(), format, "")
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(exp.Data)
				return err
			}
			if out == "" {
				out = exp.Filename
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory: %w", err)
				}
			}
			if err := os.WriteFile(out, exp.Data, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", exp.Rows, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (server default when empty)")
	cmd.Flags().StringVar(&out, "out", "", "Output file, - for stdout (default: server filename)")
	return cmd
}
