package tokenizer

import (
	"iter"
	"regexp"

	"github.com/oarkflow/storyarc/corpus"
	"github.com/oarkflow/storyarc/nlp/normalizer"
)

// A word is a maximal run of letters and digits. Combining marks stay with
// the letter they follow; everything else separates words and is dropped.
var reWord = regexp.MustCompile(`[\pL\pN][\pL\pM\pN]*`)

type Options struct {
	// FoldDiacritics maps "café" and "cafe" to the same word.
	FoldDiacritics bool `json:"fold_diacritics" yaml:"fold_diacritics" bcl:"fold_diacritics"`
}

// Token is one word occurrence. Rank is 1-based within its story and
// Length is the story's total token count.
type Token struct {
	StoryID int
	Word    string
	Rank    int
	Length  int
}

// Position is Rank/Length, in (0, 1].
func (t Token) Position() float64 {
	return float64(t.Rank) / float64(t.Length)
}

// Decile is ceil(10*Rank/Length) in 1..10, computed on integers so that
// boundary positions never drift into the next decile.
func (t Token) Decile() int {
	return DecileOf(t.Rank, t.Length)
}

// DecileOf returns the decile index of rank r in a story of n tokens.
func DecileOf(r, n int) int {
	return (10*r + n - 1) / n
}

// Tokenize lowercases text and splits it into words.
func Tokenize(text string) []string {
	return Options{}.Tokenize(text)
}

func (o Options) Tokenize(text string) []string {
	text = normalizer.Lower(text)
	if o.FoldDiacritics {
		text = normalizer.RemoveDiacritics(text)
	}
	return reWord.FindAllString(text, -1)
}

// Stream yields the tokens of every story in order. A story is tokenized
// whole before its first token is emitted, since each token carries the
// story length. Empty stories yield nothing.
func (o Options) Stream(stories []corpus.Story) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, s := range stories {
			words := o.Tokenize(s.Body())
			for i, w := range words {
				if !yield(Token{StoryID: s.ID, Word: w, Rank: i + 1, Length: len(words)}) {
					return
				}
			}
		}
	}
}

// Stream uses the default options.
func Stream(stories []corpus.Story) iter.Seq[Token] {
	return Options{}.Stream(stories)
}

// Normalize maps query words onto the vocabulary Tokenize produces, so a
// lookup for "Love," finds "love". Words that normalize to nothing are
// dropped.
func (o Options) Normalize(words []string) []string {
	if o.FoldDiacritics {
		return normalizer.NormalizeTokens(words)
	}
	return normalizer.RemovePunct(normalizer.LowerTokens(words))
}
