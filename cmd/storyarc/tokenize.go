package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oarkflow/storyarc/nlp/sentiment"
	"github.com/oarkflow/storyarc/nlp/streaming"
	"github.com/oarkflow/storyarc/nlp/tokenizer"
)

func newTokenizeCmd(a *app) *cobra.Command {
	var opt tokenizer.Options
	cmd := &cobra.Command{
		Use:   "tokenize [text...]",
		Short: "Print the tokens of text as one story",
		Long: "Print rank, word, position and decile of every token. Without arguments the\n" +
			"text is read from stdin. With a lexicon each token's score is shown as well.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			var lex *sentiment.Lexicon
			if cfg.Input.Lexicon != "" {
				if lex, err = sentiment.LoadFile(cfg.Input.Lexicon); err != nil {
					return err
				}
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				lines, err := streaming.ReadLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.Join(lines, " ")
			}
			words := opt.Tokenize(text)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := "RANK\tWORD\tPOSITION\tDECILE"
			if lex != nil {
				header += "\tSCORE"
			}
			fmt.Fprintln(tw, header)
			for i, w := range words {
				tok := tokenizer.Token{Word: w, Rank: i + 1, Length: len(words)}
				fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.1f", tok.Rank, tok.Word, tok.Position(), float64(tok.Decile())/10)
				if lex != nil {
					score := "-"
					if v, ok := lex.Score(w); ok {
						score = fmt.Sprint(v)
					}
					fmt.Fprintf(tw, "\t%s", score)
				}
				fmt.Fprintln(tw)
			}
			if lex != nil {
				fmt.Fprintf(tw, "\nsum\t%d\nsum with negation\t%d\n", lex.Sum(words), lex.SumNegated(words))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&opt.FoldDiacritics, "fold-diacritics", false, "strip diacritics from tokens")
	return cmd
}
