package position

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/storyarc/corpus"
)

func twoStories() []corpus.Story {
	return []corpus.Story{
		{ID: 1, Title: "A", Lines: []string{"the old king died quietly"}},
		{ID: 2, Title: "B", Lines: []string{"the hero shoots the villain and wins"}},
	}
}

func TestAggregateWorkedExample(t *testing.T) {
	res, err := Aggregate(context.Background(), twoStories(), Options{Threshold: 1, Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stories)
	assert.Equal(t, 12, res.Tokens)

	the, ok := res.Lookup("the")
	require.True(t, ok)
	assert.Equal(t, 3, the.Count)
	// positions 1/5, 1/7 and 4/7
	assert.InDelta(t, 0.2, the.Median, 1e-12)
	assert.Equal(t, DecileCounts{0, 2, 0, 0, 0, 1, 0, 0, 0, 0}, the.Deciles)

	quietly, ok := res.Lookup("quietly")
	require.True(t, ok)
	assert.Equal(t, 1.0, quietly.Median)
	assert.Equal(t, 1, quietly.Deciles[9])

	assert.Len(t, res.Words, 10)
	for i := 1; i < len(res.Words); i++ {
		assert.Less(t, res.Words[i-1].Word, res.Words[i].Word)
	}
}

func TestAggregateThresholdFilters(t *testing.T) {
	res, err := Aggregate(context.Background(), twoStories(), Options{Threshold: 2, Workers: 2})
	require.NoError(t, err)
	require.Len(t, res.Words, 1)
	assert.Equal(t, "the", res.Words[0].Word)

	_, ok := res.Lookup("king")
	assert.False(t, ok)
	// Vocabulary keeps words below the threshold.
	assert.Equal(t, 1, res.Vocabulary["king"].Total())
	assert.Len(t, res.Vocabulary, 10)
}

func TestAggregateDefaultThreshold(t *testing.T) {
	res, err := Aggregate(context.Background(), twoStories(), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, res.Threshold)
	assert.Empty(t, res.Words)

	res, err = Aggregate(context.Background(), twoStories(), Options{Threshold: -3})
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, res.Threshold)

	res, err = Aggregate(context.Background(), twoStories(), Options{Threshold: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Threshold)
	assert.Len(t, res.Words, len(res.Vocabulary))
}

func TestAggregateSkipsEmptyStories(t *testing.T) {
	stories := append(twoStories(), corpus.Story{ID: 3, Lines: []string{"  --  "}}, corpus.Story{ID: 4})
	res, err := Aggregate(context.Background(), stories, Options{Threshold: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stories)
	assert.Equal(t, 2, res.EmptyStories)
	assert.Equal(t, 12, res.Tokens)
}

func TestAggregateEmptyInput(t *testing.T) {
	res, err := Aggregate(context.Background(), nil, Options{Threshold: 1})
	require.NoError(t, err)
	assert.Zero(t, res.Tokens)
	assert.Empty(t, res.Words)
}

func randomStories(n int, seed int64) []corpus.Story {
	rng := rand.New(rand.NewSource(seed))
	vocab := []string{"love", "war", "king", "dies", "marry", "the", "a", "and", "home", "returns"}
	stories := make([]corpus.Story, n)
	for i := range stories {
		words := make([]string, 1+rng.Intn(40))
		for j := range words {
			words[j] = vocab[rng.Intn(len(vocab))]
		}
		stories[i] = corpus.Story{ID: i + 1, Lines: []string{strings.Join(words, " ")}}
	}
	return stories
}

func TestDecileCountsSumToCount(t *testing.T) {
	res, err := Aggregate(context.Background(), randomStories(200, 1), Options{Threshold: 1, Workers: 4})
	require.NoError(t, err)
	require.NotEmpty(t, res.Words)
	total := 0
	for _, ws := range res.Words {
		assert.Equal(t, ws.Count, ws.Deciles.Total(), ws.Word)
		total += ws.Count
	}
	assert.Equal(t, res.Tokens, total)
}

func TestShardedMatchesSingleWorker(t *testing.T) {
	stories := randomStories(300, 7)
	single, err := Aggregate(context.Background(), stories, Options{Threshold: 5, Workers: 1})
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 8, 1000} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			sharded, err := Aggregate(context.Background(), stories, Options{Threshold: 5, Workers: workers})
			require.NoError(t, err)
			assert.Equal(t, single.Words, sharded.Words)
			assert.Equal(t, single.Vocabulary, sharded.Vocabulary)
			assert.Equal(t, single.Tokens, sharded.Tokens)
		})
	}
}

func TestMedianUnchangedByDuplication(t *testing.T) {
	stories := randomStories(150, 3)
	once, err := Aggregate(context.Background(), stories, Options{Threshold: 1})
	require.NoError(t, err)

	doubled := append(append([]corpus.Story{}, stories...), stories...)
	twice, err := Aggregate(context.Background(), doubled, Options{Threshold: 1})
	require.NoError(t, err)

	require.Len(t, twice.Words, len(once.Words))
	for i, ws := range once.Words {
		assert.Equal(t, 2*ws.Count, twice.Words[i].Count)
		assert.InDelta(t, ws.Median, twice.Words[i].Median, 1e-12, ws.Word)
	}
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Aggregate(ctx, randomStories(10, 1), Options{Threshold: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{0.5}, 0.5},
		{[]float64{0.2, 1.0 / 7, 4.0 / 7}, 0.2},
		{[]float64{0.4, 0.1, 0.3, 0.2}, 0.25},
		{[]float64{1, 1, 1, 1}, 1},
	}
	for _, tt := range tests {
		in := append([]float64(nil), tt.in...)
		assert.InDelta(t, tt.want, Median(in), 1e-12, "%v", tt.in)
		assert.Equal(t, tt.in, in, "input must not be reordered")
	}
}

func TestSplit(t *testing.T) {
	stories := randomStories(10, 1)
	shards := split(stories, 3)
	require.Len(t, shards, 3)
	n := 0
	for _, s := range shards {
		n += len(s.stories)
	}
	assert.Equal(t, 10, n)
	assert.Len(t, split(nil, 4), 1)
	assert.Len(t, split(stories, 50), 10)
}

func TestDecileValue(t *testing.T) {
	assert.InDelta(t, 0.1, DecileValue(0), 1e-12)
	assert.Equal(t, 1.0, DecileValue(9))
}
