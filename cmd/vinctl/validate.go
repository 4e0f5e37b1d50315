package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/vinlookup/internal/domain/vin"
)

type validateResult struct {
	VIN    string     `json:"vin" yaml:"vin"`
	Valid  bool       `json:"valid" yaml:"valid"`
	Reason string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	Detail string     `json:"detail,omitempty" yaml:"detail,omitempty"`
	Parts  *vin.Parts `json:"parts,omitempty" yaml:"parts,omitempty"`
}

// errInvalid makes the process exit non-zero when any VIN is invalid.
var errInvalid = errors.New("one or more VINs are invalid")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate VIN...",
		Short: "Check VINs offline without decoding them",
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

			results := make([]validateResult, 0, len(args))
			failed := false
			for _, raw := range args {
				res := validateResult{VIN: raw}
				v, err := validator.Validate(raw)
				var ve *vin.ValidationError
				switch {
				case err == nil:
					parts := vin.Parse(v)
					res.VIN, res.Valid, res.Parts = string(v), true, &parts
				case errors.As(err, &ve):
					res.Reason, res.Detail = string(ve.Reason), ve.Error()
					failed = true
				default:
					return err
				}
				results = append(results, res)
			}

			if err := p.print(results, func(w io.Writer) {
				for _, r := range results {
					if !r.Valid {
						fmt.Fprintf(w, "%s\tinvalid\t%s\n", r.VIN, r.Detail)
						continue
					}
					year := ""
					if r.Parts.ModelYear > 0 {
						year = strconv.Itoa(r.Parts.ModelYear)
					}
					fmt.Fprintf(w, "%s\tvalid\twmi=%s year=%s country=%s\n", r.VIN, r.Parts.WMI, year, r.Parts.Country)
				}
			}); err != nil {
				return err
			}
			if failed {
				return errInvalid
			}
			return nil
		},
	}
}
