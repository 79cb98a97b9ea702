package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oarkflow/storyarc/derive"
	"github.com/oarkflow/storyarc/nlp/sentiment"
	"github.com/oarkflow/storyarc/nlp/stopwords"
	"github.com/oarkflow/storyarc/nlp/tokenizer"
	"github.com/oarkflow/storyarc/pipeline"
	"github.com/oarkflow/storyarc/pkg/config"
	"github.com/oarkflow/storyarc/pkg/export"
	"github.com/oarkflow/storyarc/pkg/logging"
	"github.com/oarkflow/storyarc/pkg/telemetry"
	"github.com/oarkflow/storyarc/position"
)

type runFlags struct {
	out            string
	formats        []string
	metricsFile    string
	threshold      int
	topK           int
	minCount       int
	workers        int
	foldDiacritics bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and export the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPipeline(cmd, cfg)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.out, "out", "", "output directory")
	fl.StringSliceVar(&f.formats, "format", nil, "export formats: json, csv, msgpack, sqlite")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	fl.IntVar(&f.threshold, "threshold", 0, "minimum occurrences for a word to be reported")
	fl.IntVar(&f.topK, "top", 0, "edge words per side")
	fl.IntVar(&f.minCount, "min-count", 0, "minimum occurrences for a lexicon word to count toward sentiment")
	fl.IntVar(&f.workers, "workers", 0, "aggregation shards")
	fl.BoolVar(&f.foldDiacritics, "fold-diacritics", false, "strip diacritics from tokens")
	return cmd
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("out") {
		cfg.Output.Dir = f.out
	}
	if fl.Changed("format") {
		cfg.Output.Formats = f.formats
	}
	if fl.Changed("metrics-file") {
		cfg.Output.MetricsFile = f.metricsFile
	}
	if fl.Changed("threshold") {
		cfg.Analysis.Threshold = f.threshold
	}
	if fl.Changed("top") {
		cfg.Analysis.TopK = f.topK
	}
	if fl.Changed("min-count") {
		cfg.Analysis.SentimentMinCount = f.minCount
	}
	if fl.Changed("workers") {
		cfg.Analysis.Workers = f.workers
	}
	if fl.Changed("fold-diacritics") {
		cfg.Analysis.FoldDiacritics = f.foldDiacritics
	}
}

func params(cfg *config.Config) pipeline.Params {
	return pipeline.Params{
		Threshold:         cfg.Analysis.Threshold,
		TopK:              cfg.Analysis.TopK,
		SentimentMinCount: cfg.Analysis.SentimentMinCount,
		Workers:           cfg.Analysis.Workers,
		Tokenizer:         tokenizer.Options{FoldDiacritics: cfg.Analysis.FoldDiacritics},
		ProfileWords:      cfg.Analysis.ProfileWords,
	}
}

func runPipeline(cmd *cobra.Command, cfg *config.Config) (err error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rec := telemetry.New()
	if cfg.Output.MetricsFile != "" {
		defer func() {
			if werr := rec.WriteFile(cfg.Output.MetricsFile); werr != nil {
				logger.Warn("write metrics", zap.Error(werr))
			}
		}()
	}

	writers, err := export.ForFormats(cfg.Output.Formats, cfg.Output.Dir)
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithRecorder(rec)}
	if cfg.Input.Lexicon != "" {
		lex, err := sentiment.LoadFile(cfg.Input.Lexicon)
		if err != nil {
			return err
		}
		lo, hi := lex.Range()
		logger.Info("lexicon loaded", zap.Int("words", lex.Len()), zap.Int("min_score", lo), zap.Int("max_score", hi))
		opts = append(opts, pipeline.WithLexicon(lex))
	}
	if cfg.Input.StopWords != "" {
		stop, err := stopwords.LoadFile(cfg.Input.StopWords)
		if err != nil {
			return err
		}
		logger.Info("stop words loaded", zap.Int("words", len(stop)))
		opts = append(opts, pipeline.WithStopWords(stop))
	}

	ctx := cmd.Context()
	report, err := pipeline.New(params(cfg), opts...).Run(ctx, pipeline.Inputs{
		PlotsPath:  cfg.Input.Plots,
		TitlesPath: cfg.Input.Titles,
	})
	if err != nil {
		return err
	}
	if err := export.WriteAll(ctx, writers, report); err != nil {
		return err
	}
	logger.Info("exported", zap.String("dir", cfg.Output.Dir), zap.Strings("formats", cfg.Output.Formats))
	return printReport(cmd.OutOrStdout(), report)
}

// peaksPerDecile caps the words listed per decile in the run summary.
const peaksPerDecile = 5

func printReport(w io.Writer, r *pipeline.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "stories\t%d (%d empty)\n", r.Corpus.Stories, r.Corpus.EmptyStories)
	fmt.Fprintf(tw, "tokens\t%d\n", r.Tokens)
	fmt.Fprintf(tw, "words\t%d of %d at threshold %d\n", len(r.Words), r.Vocabulary, r.Params.Threshold)

	fmt.Fprintln(tw, "\nBEGINNING\tMEDIAN\tEND\tMEDIAN")
	for i := range max(len(r.Edges.Beginning), len(r.Edges.End)) {
		var b, bm, e, em string
		if i < len(r.Edges.Beginning) {
			b, bm = r.Edges.Beginning[i].Word, fmt.Sprintf("%.3f", r.Edges.Beginning[i].Median)
		}
		if i < len(r.Edges.End) {
			e, em = r.Edges.End[i].Word, fmt.Sprintf("%.3f", r.Edges.End[i].Median)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b, bm, e, em)
	}

	if r.Sentiment != nil {
		fmt.Fprintln(tw, "\nDECILE\tSENTIMENT\tCOVERAGE")
		for _, p := range r.Sentiment {
			fmt.Fprintf(tw, "%.1f\t%s\t%d\n", p.Decile, formatFloat(p.Mean), p.Coverage)
		}
	}

	if len(r.Peaks) > 0 {
		fmt.Fprintln(tw, "\nDECILE\tPEAKING WORDS")
		for d := range position.Deciles {
			peaks := derive.PeaksIn(r.Peaks, position.DecileValue(d))
			names := make([]string, 0, peaksPerDecile)
			for _, p := range peaks[:min(len(peaks), peaksPerDecile)] {
				names = append(names, p.Word)
			}
			fmt.Fprintf(tw, "%.1f\t%s\n", position.DecileValue(d), strings.Join(names, " "))
		}
	}

	if len(r.Profiles) > 0 {
		fmt.Fprintln(tw)
		printProfiles(tw, r.Profiles)
	}
	return tw.Flush()
}

func printProfiles(w io.Writer, profiles []derive.WordProfile) {
	fmt.Fprint(w, "WORD\tCOUNT")
	for d := range position.Deciles {
		fmt.Fprintf(w, "\t%.1f", position.DecileValue(d))
	}
	fmt.Fprintln(w)
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%d", p.Word, p.Count)
		for _, f := range p.Fractions {
			fmt.Fprintf(w, "\t%s", formatFloat(f))
		}
		fmt.Fprintln(w)
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}
