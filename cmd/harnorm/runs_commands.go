package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lucasjlepore/har-normalizer/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(l *ledger.Ledger) error {
				runs, err := l.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.Source,
						humanize.Time(run.StartedAt),
						humanize.Comma(int64(run.Records)),
						fmt.Sprintf("%d/%d", run.SessionsOK, run.SessionsSkipped),
						run.Format,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Source", "Started", "Records", "OK/Skipped", "Format"},
					rows,
					4, 5,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-session outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(l *ledger.Ledger) error {
				run, err := l.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintf(out, "Run:        %s\n", run.ID)
				fmt.Fprintf(out, "Source:     %s\n", run.Source)
				fmt.Fprintf(out, "Root:       %s\n", run.Root)
				fmt.Fprintf(out, "Output:     %s (%s)\n", run.OutputDir, run.Format)
				fmt.Fprintf(out, "Started:    %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
				fmt.Fprintf(out, "Duration:   %s\n", run.Duration().Round(time.Millisecond))
				fmt.Fprintf(out, "Records:    %s in %s windows\n", humanize.Comma(int64(run.Records)), humanize.Comma(int64(run.Windows)))
				if run.RecordsSHA256 != "" {
					fmt.Fprintf(out, "SHA-256:    %s\n", run.RecordsSHA256)
				}

				if len(run.Sessions) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(run.Sessions))
				for _, s := range run.Sessions {
					rows = append(rows, []string{
						s.Session,
						s.User,
						colorStatus(string(s.Status), colorize),
						strconv.Itoa(s.Windows),
						humanize.Comma(int64(s.Samples)),
						s.Reason,
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"Session", "User", "Status", "Windows", "Samples", "Reason"},
					rows,
					4, 5,
				))
				return nil
			})
		},
	}
}
