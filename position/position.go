// Package position computes where in a story each word tends to occur.
//
// Every token has a normalized position rank/length in (0, 1]. For words
// occurring at least Threshold times the aggregator keeps every position,
// because an exact median cannot be rebuilt from counts and sums. On the
// reference corpus (about 40M tokens) those lists dominate memory: roughly
// one float64 per surviving token. Decile counts are kept for the whole
// vocabulary, ten integers per word.
package position

import (
	"context"
	"runtime"
	"slices"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oarkflow/storyarc/corpus"
	"github.com/oarkflow/storyarc/nlp/tokenizer"
)

const (
	Deciles          = 10
	DefaultThreshold = 2500
)

// DecileCounts holds occurrences per decile; index 0 is decile 0.1.
type DecileCounts [Deciles]int

func (d DecileCounts) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// DecileValue is the label of decile index i (0-based), 0.1 .. 1.0.
func DecileValue(i int) float64 {
	return float64(i+1) / Deciles
}

// DecileTable maps every word of the vocabulary to its decile counts.
type DecileTable map[string]DecileCounts

// WordStat summarizes one word that passed the threshold.
type WordStat struct {
	Word    string       `json:"word" msgpack:"word"`
	Count   int          `json:"count" msgpack:"count"`
	Median  float64      `json:"median_position" msgpack:"median_position"`
	Deciles DecileCounts `json:"deciles" msgpack:"deciles"`
}

type Options struct {
	// Threshold values below 1 select DefaultThreshold. Use 1 to keep
	// positions for every word.
	Threshold int
	Workers   int
	Tokenizer tokenizer.Options
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result is built once and only read afterwards.
type Result struct {
	Threshold    int
	Stories      int // stories with at least one token
	EmptyStories int // stories with no tokens, punctuation only ones included
	Tokens       int
	Vocabulary   DecileTable
	Words        []WordStat // sorted by word

	index map[string]int
}

// Lookup returns the stats of a word that passed the threshold.
func (r *Result) Lookup(word string) (WordStat, bool) {
	i, ok := r.index[word]
	if !ok {
		return WordStat{}, false
	}
	return r.Words[i], true
}

// shard is the partial state of one group of stories. Partial position
// lists are merged by concatenation; medians are only taken afterwards.
type shard struct {
	stories   []corpus.Story
	nonEmpty  int
	tokens    int
	deciles   DecileTable
	positions map[string][]float64
}

// Aggregate runs both passes over the stories. Pass one counts every word
// per decile; pass two collects positions of the words whose total count
// reaches the threshold. Shards run concurrently and are merged in order.
func Aggregate(ctx context.Context, stories []corpus.Story, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	shards := split(stories, opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for _, sh := range shards {
		g.Go(func() error { return sh.count(gctx, opts.Tokenizer) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Threshold: opts.Threshold, Vocabulary: make(DecileTable)}
	for _, sh := range shards {
		res.Stories += sh.nonEmpty
		res.EmptyStories += len(sh.stories) - sh.nonEmpty
		res.Tokens += sh.tokens
		for w, d := range sh.deciles {
			acc := res.Vocabulary[w]
			for i, c := range d {
				acc[i] += c
			}
			res.Vocabulary[w] = acc
		}
	}
	keep := make(map[string]struct{})
	for w, d := range res.Vocabulary {
		if d.Total() >= opts.Threshold {
			keep[w] = struct{}{}
		}
	}
	opts.Logger.Debug("counting pass done",
		zap.Int("stories", res.Stories),
		zap.Int("tokens", res.Tokens),
		zap.Int("vocabulary", len(res.Vocabulary)),
		zap.Int("kept", len(keep)))

	g, gctx = errgroup.WithContext(ctx)
	for _, sh := range shards {
		g.Go(func() error { return sh.collect(gctx, opts.Tokenizer, keep) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string][]float64, len(keep))
	for _, sh := range shards {
		for w, ps := range sh.positions {
			merged[w] = append(merged[w], ps...)
		}
	}
	res.Words = make([]WordStat, 0, len(merged))
	for w, ps := range merged {
		res.Words = append(res.Words, WordStat{
			Word:    w,
			Count:   len(ps),
			Median:  sortedMedian(ps),
			Deciles: res.Vocabulary[w],
		})
	}
	sort.Slice(res.Words, func(i, j int) bool { return res.Words[i].Word < res.Words[j].Word })
	res.index = make(map[string]int, len(res.Words))
	for i, ws := range res.Words {
		res.index[ws.Word] = i
	}
	return res, nil
}

func split(stories []corpus.Story, n int) []*shard {
	if n > len(stories) {
		n = len(stories)
	}
	if n < 1 {
		n = 1
	}
	size := (len(stories) + n - 1) / n
	var out []*shard
	for start := 0; start < len(stories) || len(out) == 0; start += size {
		end := min(start+size, len(stories))
		out = append(out, &shard{stories: stories[start:end]})
		if end == len(stories) {
			break
		}
	}
	return out
}

func (s *shard) count(ctx context.Context, tok tokenizer.Options) error {
	s.deciles = make(DecileTable)
	for _, story := range s.stories {
		if err := ctx.Err(); err != nil {
			return err
		}
		words := tok.Tokenize(story.Body())
		if len(words) == 0 {
			continue
		}
		s.nonEmpty++
		s.tokens += len(words)
		for i, w := range words {
			d := s.deciles[w]
			d[tokenizer.DecileOf(i+1, len(words))-1]++
			s.deciles[w] = d
		}
	}
	return nil
}

func (s *shard) collect(ctx context.Context, tok tokenizer.Options, keep map[string]struct{}) error {
	s.positions = make(map[string][]float64)
	for _, story := range s.stories {
		if err := ctx.Err(); err != nil {
			return err
		}
		for t := range tok.Stream([]corpus.Story{story}) {
			if _, ok := keep[t.Word]; ok {
				s.positions[t.Word] = append(s.positions[t.Word], t.Position())
			}
		}
	}
	return nil
}

// Median returns the 50th percentile of values, averaging the two middle
// values for an even count. It returns 0 for an empty slice. values is not
// modified.
func Median(values []float64) float64 {
	return sortedMedian(slices.Clone(values))
}

// sortedMedian sorts values in place.
func sortedMedian(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	slices.Sort(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
