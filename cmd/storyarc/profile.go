package main

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oarkflow/storyarc/corpus"
	"github.com/oarkflow/storyarc/derive"
	"github.com/oarkflow/storyarc/nlp/tokenizer"
	"github.com/oarkflow/storyarc/position"
)

func newProfileCmd(a *app) *cobra.Command {
	var foldDiacritics bool
	cmd := &cobra.Command{
		Use:   "profile [word...]",
		Short: "Print the decile distribution of words",
		Long: "Print, for each word, the share of its occurrences falling in each decile of\n" +
			"story position. Without arguments the configured profile words are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fold-diacritics") {
				cfg.Analysis.FoldDiacritics = foldDiacritics
			}
			if len(args) > 0 {
				cfg.Analysis.ProfileWords = args
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			c, err := corpus.LoadFiles(cfg.Input.Plots, cfg.Input.Titles)
			if err != nil {
				return err
			}
			opt := tokenizer.Options{FoldDiacritics: cfg.Analysis.FoldDiacritics}
			words := opt.Normalize(cfg.Analysis.ProfileWords)
			res, err := position.Aggregate(cmd.Context(), c.Stories, position.Options{
				Threshold: cfg.Analysis.Threshold,
				Workers:   cfg.Analysis.Workers,
				Tokenizer: opt,
			})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			printProfiles(tw, derive.Profile(res.Vocabulary, words...))
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&foldDiacritics, "fold-diacritics", false, "strip diacritics from tokens")
	return cmd
}
