package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/storyarc/pkg/config"
	"github.com/oarkflow/storyarc/pkg/export"
)

type fixture struct {
	dir, plots, titles, lexicon string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		plots:   filepath.Join(dir, "plots"),
		titles:  filepath.Join(dir, "titles"),
		lexicon: filepath.Join(dir, "lexicon.tsv"),
	}
	require.NoError(t, os.WriteFile(f.plots, []byte("the old king died quietly\n<EOS>\nthe hero shoots the villain and wins\n<EOS>\n"), 0o644))
	require.NoError(t, os.WriteFile(f.titles, []byte("A\nB\n"), 0o644))
	require.NoError(t, os.WriteFile(f.lexicon, []byte("died\t-3\nwins\t4\n"), 0o644))
	return f
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func lineFields(out string) [][]string {
	var rows [][]string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		rows = append(rows, strings.Fields(l))
	}
	return rows
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t)
	outDir := filepath.Join(f.dir, "out")
	metrics := filepath.Join(f.dir, "metrics", "storyarc.prom")

	out, err := execute(t, "", "run",
		"--plots", f.plots, "--titles", f.titles, "--lexicon", f.lexicon,
		"--threshold", "1", "--top", "2", "--workers", "2",
		"--format", "json,csv,msgpack,sqlite", "--out", outDir, "--metrics-file", metrics,
		"--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "BEGINNING")
	assert.Contains(t, out, "quietly")
	assert.Contains(t, out, "SENTIMENT")
	assert.Contains(t, out, "PEAKING WORDS")
	assert.FileExists(t, filepath.Join(outDir, export.SummaryFile))
	assert.FileExists(t, filepath.Join(outDir, export.DatabaseFile))
	assert.FileExists(t, filepath.Join(outDir, export.MsgpackFile))
	assert.FileExists(t, filepath.Join(outDir, export.TableEdges+".csv"))

	db, err := sql.Open("sqlite", filepath.Join(outDir, export.DatabaseFile))
	require.NoError(t, err)
	defer db.Close()
	var words int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM word_stats").Scan(&words))
	assert.Equal(t, 10, words)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `storyarc_runs_total{outcome="success"} 1`)
}

func TestRunCommandRequiresInputs(t *testing.T) {
	_, err := execute(t, "", "run", "--log-level", "error")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunCommandRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)
	_, err := execute(t, "", "run", "--plots", f.plots, "--titles", f.titles, "--format", "xml")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestProfileCommand(t *testing.T) {
	f := newFixture(t)
	out, err := execute(t, "", "profile", "--plots", f.plots, "--titles", f.titles, "The", "dragon")
	require.NoError(t, err)

	rows := lineFields(out)
	require.Len(t, rows, 3)
	assert.Equal(t, "WORD", rows[0][0])
	assert.Equal(t, []string{"the", "3", "0.000", "0.667", "0.000", "0.000", "0.000", "0.333", "0.000", "0.000", "0.000", "0.000"}, rows[1])
	assert.Equal(t, "dragon", rows[2][0])
	assert.Equal(t, "0", rows[2][1])
	assert.Equal(t, "-", rows[2][2])
}

func TestTokenizeCommand(t *testing.T) {
	out, err := execute(t, "", "tokenize", "The old-King")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"RANK", "WORD", "POSITION", "DECILE"},
		{"1", "the", "0.333", "0.4"},
		{"2", "old", "0.667", "0.7"},
		{"3", "king", "1.000", "1.0"},
	}, lineFields(out))

	out, err = execute(t, "Hello\nWorld\n", "tokenize")
	require.NoError(t, err)
	rows := lineFields(out)
	require.Len(t, rows, 3)
	assert.Equal(t, "hello", rows[1][1])
	assert.Equal(t, "world", rows[2][1])
}

func TestTokenizeCommandScores(t *testing.T) {
	f := newFixture(t)
	out, err := execute(t, "", "tokenize", "--lexicon", f.lexicon, "the hero never died")
	require.NoError(t, err)
	rows := lineFields(out)
	require.Len(t, rows, 8)
	assert.Equal(t, "SCORE", rows[0][4])
	assert.Equal(t, "-", rows[1][4])
	assert.Equal(t, "-3", rows[4][4])
	assert.Equal(t, []string{"sum", "-3"}, rows[6])
	assert.Equal(t, []string{"sum", "with", "negation", "3"}, rows[7])
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "storyarc dev\n", out)
}
