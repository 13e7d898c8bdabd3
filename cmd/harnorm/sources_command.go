package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	harnorm "github.com/lucasjlepore/har-normalizer"
	"github.com/lucasjlepore/har-normalizer/readers"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "sources",
		Short:       "List the registered dataset sources and their default policies",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := readers.Sources()
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.Name,
					formatRate(info.RateHz),
					strconv.Itoa(info.WindowSize),
					info.Join.String(),
					info.Aligner,
					info.Position,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Rate", "Window", "Join", "Aligner", "Position"},
				rows,
				2, 3,
			))
			return nil
		},
	}
}

func newActivitiesCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:         "activities",
		Short:       "List canonical activity codes, or one source's label mapping",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if source == "" {
				var rows [][]string
				for code := harnorm.Unknown; code.Valid(); code++ {
					rows = append(rows, []string{strconv.Itoa(int(code)), displayName(code.String())})
				}
				fmt.Fprintln(out, renderTable([]string{"Code", "Activity"}, rows, 1))
				return nil
			}

			rd, err := readers.New(source, readers.Options{})
			if err != nil {
				return err
			}
			vocab := rd.Policy().Vocabulary
			var rows [][]string
			for _, token := range vocab.Tokens() {
				code, err := vocab.Resolve(token)
				if err != nil {
					return err
				}
				rows = append(rows, []string{token, strconv.Itoa(int(code)), displayName(code.String())})
			}
			fmt.Fprintln(out, renderTable([]string{"Label", "Code", "Activity"}, rows, 2))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Show the label vocabulary of one source")
	return cmd
}
