// Package corpus rebuilds stories from a flat plot stream in which every
// story ends with a sentinel line, and a parallel file of titles.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oarkflow/storyarc/nlp/streaming"
)

// Sentinel closes the current story. It is never part of a story body.
const Sentinel = "<EOS>"

// ErrMalformedCorpus reports plots and titles that are out of sync.
var ErrMalformedCorpus = errors.New("malformed corpus")

// Story is immutable once loaded. ID is 1-based and equals the index of its
// title in the titles file.
type Story struct {
	ID    int
	Title string
	Lines []string
}

// Body joins the story lines with a single space.
func (s Story) Body() string {
	return strings.Join(s.Lines, " ")
}

// Empty reports whether the story has no text at all. A story of
// punctuation only is not Empty yet yields no tokens; the aggregator counts
// those.
func (s Story) Empty() bool {
	for _, l := range s.Lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// Line is one plot line tagged with its story.
type Line struct {
	StoryID int    `json:"story_id"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

type Corpus struct {
	Stories []Story
}

// Summary describes a loaded corpus. EmptyStories counts stories without
// text; a pipeline report replaces it with the count of stories without
// tokens.
type Summary struct {
	Stories      int `json:"stories"`
	Lines        int `json:"lines"`
	EmptyStories int `json:"empty_stories"`
}

// Load reads all titles, then scans plot lines. The story counter starts at
// 1 and is incremented by every sentinel. A line whose counter has no title
// fails the whole load with ErrMalformedCorpus.
func Load(plots, titles io.Reader) (*Corpus, error) {
	names, err := streaming.ReadLines(titles)
	if err != nil {
		return nil, fmt.Errorf("read titles: %w", err)
	}
	c := &Corpus{}
	current := 1
	var open *Story
	err = streaming.ProcessLines(plots, func(lineNo int, text string) error {
		if text == Sentinel {
			if open == nil && current <= len(names) {
				// Two sentinels in a row still consume a title.
				c.Stories = append(c.Stories, Story{ID: current, Title: names[current-1]})
			}
			open = nil
			current++
			return nil
		}
		if current > len(names) {
			return fmt.Errorf("%w: line %d belongs to story %d but only %d titles were given",
				ErrMalformedCorpus, lineNo, current, len(names))
		}
		if open == nil {
			c.Stories = append(c.Stories, Story{ID: current, Title: names[current-1]})
			open = &c.Stories[len(c.Stories)-1]
		}
		open.Lines = append(open.Lines, text)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMalformedCorpus) {
			return nil, err
		}
		return nil, fmt.Errorf("read plots: %w", err)
	}
	return c, nil
}

// LoadFiles opens both inputs and calls Load.
func LoadFiles(plotsPath, titlesPath string) (*Corpus, error) {
	plots, err := os.Open(plotsPath)
	if err != nil {
		return nil, err
	}
	defer plots.Close()
	titles, err := os.Open(titlesPath)
	if err != nil {
		return nil, err
	}
	defer titles.Close()
	return Load(plots, titles)
}

// Lines returns every plot line in input order, grouped by story.
func (c *Corpus) Lines() []Line {
	var out []Line
	for _, s := range c.Stories {
		for _, l := range s.Lines {
			out = append(out, Line{StoryID: s.ID, Title: s.Title, Text: l})
		}
	}
	return out
}

// Story returns the story with the given ID.
func (c *Corpus) Story(id int) (Story, bool) {
	// IDs are contiguous from 1.
	if id < 1 || id > len(c.Stories) {
		return Story{}, false
	}
	return c.Stories[id-1], true
}

func (c *Corpus) Summary() Summary {
	sum := Summary{Stories: len(c.Stories)}
	for _, s := range c.Stories {
		sum.Lines += len(s.Lines)
		if s.Empty() {
			sum.EmptyStories++
		}
	}
	return sum
}
