package stopwords

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oarkflow/storyarc/nlp/normalizer"
	"github.com/oarkflow/storyarc/nlp/streaming"
	"github.com/oarkflow/storyarc/nlp/tokenizer"
)

// Set holds words to leave out of ranked output. Words are stored
// lowercased, the way the tokenizer emits them.
type Set map[string]struct{}

func New(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			s[normalizer.Lower(w)] = struct{}{}
		}
	}
	return s
}

// Load reads one word per line. Blank lines and lines starting with # are
// ignored.
func Load(r io.Reader) (Set, error) {
	s := make(Set)
	err := streaming.ProcessLines(r, func(_ int, line string) error {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			return nil
		}
		s[normalizer.Lower(line)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read stop words: %w", err)
	}
	return s, nil
}

func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Contains is safe on a nil Set.
func (s Set) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Normalize maps every entry the way opt maps tokens, so "Café" matches
// "cafe" when diacritics are folded.
func (s Set) Normalize(opt tokenizer.Options) Set {
	if len(s) == 0 {
		return s
	}
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	return New(opt.Normalize(words)...)
}
