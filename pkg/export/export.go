// Package export writes a pipeline report to disk. Every format except
// msgpack is driven by the same flat tables, so a column added here shows
// up in JSON, CSV and SQLite alike.
package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/oarkflow/storyarc/pipeline"
	"github.com/oarkflow/storyarc/position"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Writer persists one report.
type Writer interface {
	Format() string
	Write(ctx context.Context, r *pipeline.Report) error
}

// ForFormats returns a writer per format name, all targeting dir.
func ForFormats(formats []string, dir string) ([]Writer, error) {
	var out []Writer
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "json":
			out = append(out, JSON{Dir: dir})
		case "csv":
			out = append(out, CSV{Dir: dir})
		case "msgpack":
			out = append(out, Msgpack{Dir: dir})
		case "sqlite":
			out = append(out, SQLite{Path: filepath.Join(dir, DatabaseFile)})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}
	return out, nil
}

// WriteAll runs every writer, stopping at the first failure.
func WriteAll(ctx context.Context, writers []Writer, r *pipeline.Report) error {
	for _, w := range writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(ctx, r); err != nil {
			return fmt.Errorf("export %s: %w", w.Format(), err)
		}
	}
	return nil
}

type column struct {
	name    string
	sqlType string
}

// table is one query result. Cells hold string, int, bool, float64 or nil;
// nil marks an undefined value.
type table struct {
	name    string
	columns []column
	rows    [][]any
}

// Table names shared by all tabular formats.
const (
	TableRuns      = "runs"
	TableWords     = "word_stats"
	TableEdges     = "edge_words"
	TablePeaks     = "peak_deciles"
	TableSentiment = "sentiment_curve"
	TableProfiles  = "profiles"
)

func number(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func tables(r *pipeline.Report) []table {
	runs := table{
		name: TableRuns,
		columns: []column{
			{"run_id", "TEXT"}, {"created_at", "TEXT"},
			{"threshold", "INTEGER"}, {"top_k", "INTEGER"}, {"sentiment_min_count", "INTEGER"},
			{"stories", "INTEGER"}, {"empty_stories", "INTEGER"}, {"lines", "INTEGER"},
			{"tokens", "INTEGER"}, {"vocabulary", "INTEGER"}, {"words", "INTEGER"},
		},
		rows: [][]any{{
			r.RunID, r.CreatedAt.UTC().Format(time.RFC3339),
			r.Params.Threshold, r.Params.TopK, r.Params.SentimentMinCount,
			r.Corpus.Stories, r.Corpus.EmptyStories, r.Corpus.Lines,
			r.Tokens, r.Vocabulary, len(r.Words),
		}},
	}

	words := table{
		name:    TableWords,
		columns: []column{{"run_id", "TEXT"}, {"word", "TEXT"}, {"count", "INTEGER"}, {"median", "REAL"}},
	}
	for d := range position.Deciles {
		words.columns = append(words.columns, column{fmt.Sprintf("d%02d", d+1), "INTEGER"})
	}
	for _, w := range r.Words {
		row := []any{r.RunID, w.Word, w.Count, w.Median}
		for _, c := range w.Deciles {
			row = append(row, c)
		}
		words.rows = append(words.rows, row)
	}

	edges := table{
		name: TableEdges,
		columns: []column{
			{"run_id", "TEXT"}, {"side", "TEXT"}, {"ordinal", "INTEGER"},
			{"word", "TEXT"}, {"count", "INTEGER"}, {"median", "REAL"},
		},
	}
	for i, w := range r.Edges.Beginning {
		edges.rows = append(edges.rows, []any{r.RunID, "beginning", i + 1, w.Word, w.Count, w.Median})
	}
	for i, w := range r.Edges.End {
		edges.rows = append(edges.rows, []any{r.RunID, "end", i + 1, w.Word, w.Count, w.Median})
	}

	peaks := table{
		name: TablePeaks,
		columns: []column{
			{"run_id", "TEXT"}, {"word", "TEXT"}, {"count", "INTEGER"},
			{"decile", "REAL"}, {"fraction", "REAL"}, {"over_representation", "REAL"},
		},
	}
	for _, p := range r.Peaks {
		peaks.rows = append(peaks.rows, []any{r.RunID, p.Word, p.Count, p.Decile, p.Fraction, p.OverRepresentation})
	}

	profiles := table{
		name: TableProfiles,
		columns: []column{
			{"run_id", "TEXT"}, {"word", "TEXT"}, {"count", "INTEGER"},
			{"decile", "REAL"}, {"fraction", "REAL"},
		},
	}
	for _, p := range r.Profiles {
		for d, f := range p.Fractions {
			profiles.rows = append(profiles.rows, []any{r.RunID, p.Word, p.Count, position.DecileValue(d), number(f)})
		}
	}

	out := []table{runs, words, edges, peaks, profiles}
	if r.Sentiment != nil {
		curve := table{
			name: TableSentiment,
			columns: []column{
				{"run_id", "TEXT"}, {"decile", "REAL"}, {"mean", "REAL"},
				{"defined", "INTEGER"}, {"coverage", "INTEGER"}, {"words", "INTEGER"},
			},
		}
		for _, p := range r.Sentiment {
			curve.rows = append(curve.rows, []any{r.RunID, p.Decile, number(p.Mean), p.Defined, p.Coverage, p.Words})
		}
		out = append(out, curve)
	}
	return out
}
