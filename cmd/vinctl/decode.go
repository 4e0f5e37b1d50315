package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/model"
)

func printRecord(w io.Writer, r model.Record) {
	decodedAt := ""
	if !r.DecodedAt.IsZero() {
		decodedAt = r.DecodedAt.Format("2006-01-02 15:04:05Z07:00")
	}
	kv(w,
		"VIN", r.VIN,
		"Manufacturer", r.Manufacturer,
		"Model", r.Model,
		"Model year", r.ModelYear,
		"Body class", r.BodyClass,
		"Region", r.Region,
		"Country", r.Country,
		"Plant", r.PlantCode,
		"Serial", r.Serial,
		"Source", r.Source,
		"Decoded at", decodedAt,
	)
}

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	var overrides map[string]string
	cmd := &cobra.Command{
		Use:   "decode VIN...",
		Short: "Decode VINs offline with the built-in manufacturer table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validator, err := opts.validator()
			if err != nil {
				return err
			}
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			dec := decoder.NewStatic(decoder.WithWMIOverrides(overrides))

			records := make([]model.Record, 0, len(args))
			for _, raw := range args {
				v, err := validator.Validate(raw)
				if err != nil {
					return err
				}
				rec, err := dec.Decode(cmd.Context(), v)
				if err != nil {
					return err
				}
				records = append(records, rec)
			}
			return p.print(records, func(w io.Writer) {
				for i, r := range records {
					if i > 0 {
						fmt.Fprintln(w)
					}
					printRecord(w, r)
				}
			})
		},
	}
	cmd.Flags().StringToStringVar(&overrides, "wmi", nil, "Extra WMI=Manufacturer entries, e.g. --wmi 9ZZ=Acme")
	return cmd
}
