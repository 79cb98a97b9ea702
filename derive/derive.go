// Package derive answers read-only queries over aggregated word positions:
// edge words, peak deciles, sentiment by decile and per-word profiles.
package derive

import (
	"maps"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/oarkflow/storyarc/nlp/sentiment"
	"github.com/oarkflow/storyarc/position"
)

const (
	DefaultTopK = 15
	// Uniform is the share of a word's occurrences in any one decile when
	// the word is spread evenly through stories.
	Uniform = 1.0 / position.Deciles
)

// Edges holds the words most shifted toward either end of a story.
type Edges struct {
	// Beginning is ordered earliest first.
	Beginning []position.WordStat `json:"beginning" msgpack:"beginning"`
	// End is ordered latest first.
	End []position.WordStat `json:"end" msgpack:"end"`
}

// EdgeWords keeps words with Count >= threshold. Beginning is the first k
// by ascending median position (earliest occurring first); End is the first
// k by descending median. Equal medians are ordered by word on both sides.
func EdgeWords(words []position.WordStat, threshold, k int) Edges {
	var kept []position.WordStat
	for _, w := range words {
		if w.Count >= threshold {
			kept = append(kept, w)
		}
	}
	k = min(max(k, 0), len(kept))
	var e Edges
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Median != kept[j].Median {
			return kept[i].Median < kept[j].Median
		}
		return kept[i].Word < kept[j].Word
	})
	e.Beginning = append(e.Beginning, kept[:k]...)
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Median != kept[j].Median {
			return kept[i].Median > kept[j].Median
		}
		return kept[i].Word < kept[j].Word
	})
	e.End = append(e.End, kept[:k]...)
	return e
}

// Peak is the decile in which a word is most concentrated.
type Peak struct {
	Word  string `json:"word" msgpack:"word"`
	Count int    `json:"count" msgpack:"count"`
	// Decile is the label 0.1 .. 1.0.
	Decile             float64 `json:"decile" msgpack:"decile"`
	Fraction           float64 `json:"fraction" msgpack:"fraction"`
	OverRepresentation float64 `json:"over_representation" msgpack:"over_representation"`
}

// PeakOf returns the decile maximizing Deciles[d]/Count, preferring the
// earlier decile on ties.
func PeakOf(w position.WordStat) Peak {
	best := 0
	for d := 1; d < position.Deciles; d++ {
		if w.Deciles[d] > w.Deciles[best] {
			best = d
		}
	}
	p := Peak{Word: w.Word, Count: w.Count, Decile: position.DecileValue(best)}
	if w.Count > 0 {
		p.Fraction = float64(w.Deciles[best]) / float64(w.Count)
	}
	p.OverRepresentation = p.Fraction - Uniform
	return p
}

// PeakDeciles computes PeakOf for every word with Count >= threshold,
// ordered by over-representation descending, then word.
func PeakDeciles(words []position.WordStat, threshold int) []Peak {
	var out []Peak
	for _, w := range words {
		if w.Count >= threshold {
			out = append(out, PeakOf(w))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OverRepresentation != out[j].OverRepresentation {
			return out[i].OverRepresentation > out[j].OverRepresentation
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// PeaksIn filters peaks to those falling in the given decile label.
func PeaksIn(peaks []Peak, decile float64) []Peak {
	var out []Peak
	for _, p := range peaks {
		if math.Abs(p.Decile-decile) < 1e-9 {
			out = append(out, p)
		}
	}
	return out
}

// CurvePoint is the occurrence weighted mean sentiment of one decile. Mean
// is NaN and Defined false when no lexicon word occurs in the decile; a
// zero would read as neutral sentiment.
type CurvePoint struct {
	Decile   float64 `json:"decile" msgpack:"decile"`
	Mean     float64 `json:"mean" msgpack:"mean"`
	Defined  bool    `json:"defined" msgpack:"defined"`
	Coverage int     `json:"coverage" msgpack:"coverage"`
	Words    int     `json:"words" msgpack:"words"`
}

type Curve [position.Deciles]CurvePoint

// SentimentCurve inner joins the decile table with the lexicon. Words whose
// total count is below minCount do not take part. For each decile the mean
// is sum(score*count)/sum(count) over the joined words.
func SentimentCurve(table position.DecileTable, lex *sentiment.Lexicon, minCount int) Curve {
	var (
		scores  [position.Deciles][]float64
		weights [position.Deciles][]float64
	)
	// Sorted so that float sums are reproducible across runs.
	for _, w := range slices.Sorted(maps.Keys(table)) {
		counts := table[w]
		score, ok := lex.Score(w)
		if !ok || counts.Total() < minCount {
			continue
		}
		for d, c := range counts {
			if c == 0 {
				continue
			}
			scores[d] = append(scores[d], float64(score))
			weights[d] = append(weights[d], float64(c))
		}
	}
	var curve Curve
	for d := range curve {
		p := CurvePoint{Decile: position.DecileValue(d), Mean: math.NaN(), Words: len(scores[d])}
		for _, wt := range weights[d] {
			p.Coverage += int(wt)
		}
		if p.Coverage > 0 {
			p.Mean = stat.Mean(scores[d], weights[d])
			p.Defined = true
		}
		curve[d] = p
	}
	return curve
}

// WordProfile is the share of a word's occurrences per decile.
type WordProfile struct {
	Word      string                    `json:"word" msgpack:"word"`
	Count     int                       `json:"count" msgpack:"count"`
	Fractions [position.Deciles]float64 `json:"fractions" msgpack:"fractions"`
}

// Profile returns the decile distribution of each requested word. Words
// that never occur have a zero count and NaN fractions.
func Profile(table position.DecileTable, words ...string) []WordProfile {
	out := make([]WordProfile, 0, len(words))
	for _, w := range words {
		counts := table[w]
		p := WordProfile{Word: w, Count: counts.Total()}
		for d, c := range counts {
			if p.Count == 0 {
				p.Fractions[d] = math.NaN()
				continue
			}
			p.Fractions[d] = float64(c) / float64(p.Count)
		}
		out = append(out, p)
	}
	return out
}
