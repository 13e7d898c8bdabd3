package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lucasjlepore/har-normalizer/config"
	"github.com/lucasjlepore/har-normalizer/ledger"
	"github.com/lucasjlepore/har-normalizer/pipeline"
	"github.com/lucasjlepore/har-normalizer/readers"
)

type readFlags struct {
	root           string
	out            string
	format         string
	windowSize     int
	quality        bool
	positions      []string
	noResample     bool
	overwrite      bool
	dropUnknown    bool
	requireRecords bool
	noLedger       bool
}

func newReadCommand(ctx *commandContext) *cobra.Command {
	var flags readFlags

	cmd := &cobra.Command{
		Use:   "read <source>",
		Short: "Normalize one dataset into records, sessions, manifest and summary files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			opts, err := buildPipelineOptions(cmd, cfg, args[0], flags)
			if err != nil {
				return err
			}
			opts.Logger = logger

			if !flags.noLedger {
				l, err := ledger.Open(cfg.Paths.LedgerPath)
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer l.Close()
				opts.Ledger = l
			}

			res, err := pipeline.RunContext(cmd.Context(), opts)
			if res != nil {
				printReadResult(cmd, res)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Dataset root directory (default: sources.<name>.root)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output directory (default: <paths.output_dir>/<source>)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Records format: parquet|csv (default: output.format)")
	cmd.Flags().IntVar(&flags.windowSize, "window-size", 0, "Window length in samples (0 keeps the source default)")
	cmd.Flags().BoolVar(&flags.quality, "quality", false, "Drop windows that fail the signal quality checks")
	cmd.Flags().StringSliceVar(&flags.positions, "positions", nil, "RealWorld sensor positions to read")
	cmd.Flags().BoolVar(&flags.noResample, "no-resample", false, "WISDM: truncate instead of resampling to 20 Hz")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Allow writing into a non-empty output directory")
	cmd.Flags().BoolVar(&flags.dropUnknown, "drop-unknown", false, "Drop records labelled with the unknown activity")
	cmd.Flags().BoolVar(&flags.requireRecords, "require-records", false, "Fail when no session produced records")
	cmd.Flags().BoolVar(&flags.noLedger, "no-ledger", false, "Do not record the run in the ledger")
	return cmd
}

// buildPipelineOptions layers command-line flags over the configuration.
func buildPipelineOptions(cmd *cobra.Command, cfg *config.Config, source string, flags readFlags) (pipeline.Options, error) {
	name := strings.ToLower(strings.TrimSpace(source))
	readerOpts := cfg.ReaderOptions(name)

	root := cfg.Source(name).Root
	if strings.TrimSpace(flags.root) != "" {
		expanded, err := config.ExpandPath(flags.root)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("resolve --root: %w", err)
		}
		root = expanded
	}
	if root == "" {
		return pipeline.Options{}, fmt.Errorf("dataset root for %s is not set (use --root or sources.%s.root)", name, name)
	}

	out := cfg.OutputDirFor(name)
	if strings.TrimSpace(flags.out) != "" {
		expanded, err := config.ExpandPath(flags.out)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("resolve --out: %w", err)
		}
		out = expanded
	}

	format := cfg.Output.Format
	if flags.format != "" {
		format = flags.format
	}

	if cmd.Flags().Changed("window-size") {
		readerOpts.WindowSize = flags.windowSize
	}
	if flags.quality && readerOpts.Quality == nil {
		q := readers.DefaultQuality()
		readerOpts.Quality = &q
	}
	if len(flags.positions) > 0 {
		readerOpts.Positions = flags.positions
	}
	if flags.noResample {
		resample := false
		readerOpts.Resample = &resample
	}

	return pipeline.Options{
		Source:         name,
		Root:           root,
		OutDir:         out,
		Format:         format,
		Overwrite:      flags.overwrite || cfg.Output.Overwrite,
		DropUnknown:    flags.dropUnknown || cfg.Output.DropUnknown,
		RequireRecords: flags.requireRecords || cfg.Output.RequireRecords,
		MinFreeBytes:   cfg.MinFreeBytes(),
		Reader:         readerOpts,
	}, nil
}

func printReadResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "harnorm read %s\n", res.Source)
	fmt.Fprintf(out, "Run id:       %s\n", res.RunID)
	fmt.Fprintf(out, "Output dir:   %s\n", res.OutputDir)
	if res.RecordsPath != "" {
		fmt.Fprintf(out, "Records:      %s (%s)\n", humanize.Comma(int64(res.Records)), filepath.Base(res.RecordsPath))
	}
	fmt.Fprintf(out, "Windows:      %s\n", humanize.Comma(int64(res.Windows)))
	fmt.Fprintf(out, "Sessions:     %d read, %d skipped\n", res.SessionsOK, res.SessionsSkipped)
	if res.DroppedUnknown > 0 {
		fmt.Fprintf(out, "Dropped:      %s unknown-activity records\n", humanize.Comma(int64(res.DroppedUnknown)))
	}

	if len(res.Activities) > 0 {
		names := make([]string, 0, len(res.Activities))
		for name := range res.Activities {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{displayName(name), humanize.Comma(int64(res.Activities[name]))})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Activity", "Records"}, rows, 2))
	}

	if len(res.Skipped) > 0 {
		rows := make([][]string, 0, len(res.Skipped))
		for _, s := range res.Skipped {
			rows = append(rows, []string{s.Session, colorStatus(string(s.Status), colorize), s.Reason})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Session", "Status", "Reason"}, rows))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

func formatRate(hz float64) string {
	return strconv.FormatFloat(hz, 'f', -1, 64) + " Hz"
}
