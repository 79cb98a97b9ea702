package sentiment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/oarkflow/storyarc/nlp/streaming"
)

var ErrEmptyLexicon = errors.New("lexicon has no entries")

// Lexicon maps a word to an integer score on the AFINN scale (-5..+5).
// It is read-only after loading.
type Lexicon struct {
	scores   map[string]int
	min, max int
}

// New builds a lexicon from a word to score map.
func New(scores map[string]int) (*Lexicon, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyLexicon
	}
	l := &Lexicon{scores: make(map[string]int, len(scores))}
	first := true
	for w, v := range scores {
		l.scores[w] = v
		if first || v < l.min {
			l.min = v
		}
		if first || v > l.max {
			l.max = v
		}
		first = false
	}
	return l, nil
}

// Load reads "word<TAB>score" lines. Lines that do not parse are skipped.
func Load(r io.Reader) (*Lexicon, error) {
	scores := make(map[string]int)
	err := streaming.ProcessLines(r, func(_ int, line string) error {
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			return nil
		}
		v, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil
		}
		scores[strings.TrimSpace(parts[0])] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return New(scores)
}

func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Score returns the word's score and whether the lexicon knows it.
func (l *Lexicon) Score(word string) (int, bool) {
	v, ok := l.scores[word]
	return v, ok
}

func (l *Lexicon) Len() int { return len(l.scores) }

// Range returns the smallest and largest score.
func (l *Lexicon) Range() (min, max int) { return l.min, l.max }

// Sum adds the scores of the tokens the lexicon knows.
func (l *Lexicon) Sum(tokens []string) int {
	sum := 0
	for _, t := range tokens {
		if v, ok := l.scores[t]; ok {
			sum += v
		}
	}
	return sum
}

// SumNegated flips the score of the word following "not" or "never".
func (l *Lexicon) SumNegated(tokens []string) int {
	score, negated := 0, false
	for _, t := range tokens {
		if t == "not" || t == "never" {
			negated = true
			continue
		}
		v := l.scores[t]
		if negated {
			v = -v
			negated = false
		}
		score += v
	}
	return score
}
