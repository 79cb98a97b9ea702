package stopwords

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/storyarc/nlp/tokenizer"
)

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader("# articles\nThe\n\n  a \nand\n"))
	require.NoError(t, err)
	assert.Len(t, s, 3)
	assert.True(t, s.Contains("the"))
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("# articles"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestNew(t *testing.T) {
	s := New("the", "AND", " ")
	assert.Len(t, s, 2)
	assert.True(t, s.Contains("and"))

	var none Set
	assert.False(t, none.Contains("the"))
}

func TestNormalizeFoldsDiacritics(t *testing.T) {
	s := New("Café", "naïve")
	assert.True(t, s.Normalize(tokenizer.Options{}).Contains("café"))

	folded := s.Normalize(tokenizer.Options{FoldDiacritics: true})
	assert.True(t, folded.Contains("cafe"))
	assert.True(t, folded.Contains("naive"))
	assert.False(t, folded.Contains("café"))

	var none Set
	assert.Empty(t, none.Normalize(tokenizer.Options{FoldDiacritics: true}))
}
