package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/vinlookup/internal/client"
	"github.com/okian/vinlookup/pkg/logger"
)

type loadReport struct {
	Submitted int64   `json:"submitted" yaml:"submitted"`
	Decoded   int64   `json:"decoded" yaml:"decoded"`
	Cached    int64   `json:"cached" yaml:"cached"`
	Rejected  int64   `json:"rejected" yaml:"rejected"`
	Failed    int64   `json:"failed" yaml:"failed"`
	Duration  string  `json:"duration" yaml:"duration"`
	PerSecond float64 `json:"per_second" yaml:"per_second"`
}

// readVINs reads one VIN per line, skipping blanks and # comments.
func readVINs(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	var (
		file    string
		count   int
		seed    uint64
		workers int
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run a concurrent lookup load against the server",
		Long: `load looks up VINs read from --file (one per line, - for stdin) or
generated with --count, using --workers concurrent requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}

			var vins []string
			switch {
			case file == "-":
				vins, err = readVINs(cmd.InOrStdin())
			case file != "":
				var f *os.File
				if f, err = os.Open(file); err == nil {
					vins, err = readVINs(f)
					_ = f.Close()
				}
			default:
				var g *generator
				if g, err = newGenerator(seed, append([]string(nil), defaultWMIs...)); err == nil {
					vins, err = g.generate(count)
				}
			}
			if err != nil {
				return err
			}
			if len(vins) == 0 {
				return fmt.Errorf("no VINs to load")
			}

			ctx := cmd.Context()
			c := opts.client()
			if err := c.Healthz(ctx); err != nil {
				return fmt.Errorf("service health check failed: %w", err)
			}
			log := logger.Get()
			log.Info(ctx, "starting load",
				logger.String("addr", opts.addr),
				logger.Int("vins", len(vins)),
				logger.Int("workers", workers))

			stats := client.RunLoad(ctx, c, vins, client.LoadConfig{
				Workers: workers,
				Refresh: refresh,
				Progress: func(s client.LoadStats) {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(s.Submitted)),
						logger.Int("total", len(vins)))
				},
			})

			rep := loadReport{
				Submitted: stats.Submitted,
				Decoded:   stats.Decoded,
				Cached:    stats.Cached,
				Rejected:  stats.Rejected,
				Failed:    stats.Failed,
				Duration:  stats.Duration.String(),
				PerSecond: stats.PerSecond(),
			}
			return p.print(rep, func(w io.Writer) {
				kv(w,
					"Submitted", fmt.Sprint(rep.Submitted),
					"Decoded", fmt.Sprint(rep.Decoded),
					"Cached", fmt.Sprint(rep.Cached),
					"Rejected", fmt.Sprint(rep.Rejected),
					"Failed", fmt.Sprint(rep.Failed),
					"Duration", rep.Duration,
					"Per second", fmt.Sprintf("%.1f", rep.PerSecond),
				)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "File with one VIN per line, - for stdin")
	cmd.Flags().IntVarP(&count, "count", "n", 1000, "Number of generated VINs when no file is given")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for generated VINs")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU()*2, "Number of concurrent workers")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force re-decoding on the server")
	return cmd
}
