package sentiment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const afinn = "abandon\t-2\nlove\t3\nkill\t-3\ncool stuff\t3\nbroken line\nodd\tx\nsuperb\t5\n"

func TestLoad(t *testing.T) {
	lex, err := Load(strings.NewReader(afinn))
	require.NoError(t, err)
	assert.Equal(t, 5, lex.Len())

	v, ok := lex.Score("love")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = lex.Score("odd")
	assert.False(t, ok)

	min, max := lex.Range()
	assert.Equal(t, -3, min)
	assert.Equal(t, 5, max)
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(strings.NewReader("nothing here\n"))
	assert.ErrorIs(t, err, ErrEmptyLexicon)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AFINN-111.txt")
	require.NoError(t, os.WriteFile(path, []byte(afinn), 0o644))
	lex, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, lex.Len())
}

func TestSum(t *testing.T) {
	lex, err := New(map[string]int{"good": 3, "bad": -3, "love": 3})
	require.NoError(t, err)

	tests := []struct {
		tokens  []string
		sum     int
		negated int
	}{
		{[]string{"a", "good", "day"}, 3, 3},
		{[]string{"not", "good"}, 3, -3},
		{[]string{"never", "bad", "love"}, 0, 6},
		{nil, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.sum, lex.Sum(tt.tokens), "%v", tt.tokens)
		assert.Equal(t, tt.negated, lex.SumNegated(tt.tokens), "%v", tt.tokens)
	}
}
