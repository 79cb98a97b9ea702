package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

var ErrInvalid = errors.New("invalid config")

// Formats understood by the export package.
var Formats = []string{"json", "csv", "msgpack", "sqlite"}

type Input struct {
	Plots     string `json:"plots" yaml:"plots" bcl:"plots"`
	Titles    string `json:"titles" yaml:"titles" bcl:"titles"`
	Lexicon   string `json:"lexicon" yaml:"lexicon" bcl:"lexicon"`
	StopWords string `json:"stop_words" yaml:"stop_words" bcl:"stop_words"`
}

type Analysis struct {
	Threshold         int      `json:"threshold" yaml:"threshold" bcl:"threshold"`
	TopK              int      `json:"top_k" yaml:"top_k" bcl:"top_k"`
	SentimentMinCount int      `json:"sentiment_min_count" yaml:"sentiment_min_count" bcl:"sentiment_min_count"`
	Workers           int      `json:"workers" yaml:"workers" bcl:"workers"`
	FoldDiacritics    bool     `json:"fold_diacritics" yaml:"fold_diacritics" bcl:"fold_diacritics"`
	ProfileWords      []string `json:"profile_words" yaml:"profile_words" bcl:"profile_words"`
}

type Output struct {
	Dir         string   `json:"dir" yaml:"dir" bcl:"dir"`
	Formats     []string `json:"formats" yaml:"formats" bcl:"formats"`
	MetricsFile string   `json:"metrics_file" yaml:"metrics_file" bcl:"metrics_file"`
}

type Log struct {
	Level      string `json:"level" yaml:"level" bcl:"level"`
	Format     string `json:"format" yaml:"format" bcl:"format"`
	File       string `json:"file" yaml:"file" bcl:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" bcl:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" bcl:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" bcl:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress" bcl:"compress"`
}

type Config struct {
	Env      Environment `json:"env" yaml:"env" bcl:"env"`
	Input    Input       `json:"input" yaml:"input" bcl:"input"`
	Analysis Analysis    `json:"analysis" yaml:"analysis" bcl:"analysis"`
	Output   Output      `json:"output" yaml:"output" bcl:"output"`
	Log      Log         `json:"log" yaml:"log" bcl:"log"`
}

func Default() *Config {
	return &Config{
		Env: Development,
		Analysis: Analysis{
			Threshold:         2500,
			TopK:              15,
			SentimentMinCount: 1,
			Workers:           runtime.NumCPU(),
			ProfileWords:      []string{"love", "marry", "kill", "dies", "war", "escape"},
		},
		Output: Output{
			Dir:     "out",
			Formats: []string{"json", "csv"},
		},
		Log: Log{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// LoadEnv reads .env style files, if present, into the process
// environment. Missing files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from STORYARC_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("STORYARC_ENV"); v != "" {
		c.Env = parseEnvironment(v)
	}
	c.Input.Plots = getEnv("STORYARC_PLOTS", c.Input.Plots)
	c.Input.Titles = getEnv("STORYARC_TITLES", c.Input.Titles)
	c.Input.Lexicon = getEnv("STORYARC_LEXICON", c.Input.Lexicon)
	c.Input.StopWords = getEnv("STORYARC_STOP_WORDS", c.Input.StopWords)
	c.Analysis.Threshold = getEnvInt("STORYARC_THRESHOLD", c.Analysis.Threshold)
	c.Analysis.TopK = getEnvInt("STORYARC_TOP_K", c.Analysis.TopK)
	c.Analysis.SentimentMinCount = getEnvInt("STORYARC_SENTIMENT_MIN_COUNT", c.Analysis.SentimentMinCount)
	c.Analysis.Workers = getEnvInt("STORYARC_WORKERS", c.Analysis.Workers)
	c.Output.Dir = getEnv("STORYARC_OUT", c.Output.Dir)
	if v := os.Getenv("STORYARC_FORMATS"); v != "" {
		c.Output.Formats = splitList(v)
	}
	c.Output.MetricsFile = getEnv("STORYARC_METRICS_FILE", c.Output.MetricsFile)
	c.Log.Level = getEnv("STORYARC_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("STORYARC_LOG_FILE", c.Log.File)
}

// Validate checks what a run needs. The lexicon is optional: without it
// the sentiment curve is skipped.
func (c *Config) Validate() error {
	var errs []error
	if c.Input.Plots == "" || c.Input.Titles == "" {
		errs = append(errs, errors.New("input plots and titles are required"))
	}
	if c.Analysis.Threshold < 1 {
		errs = append(errs, fmt.Errorf("threshold must be positive, got %d", c.Analysis.Threshold))
	}
	if c.Analysis.TopK < 1 {
		errs = append(errs, fmt.Errorf("top_k must be positive, got %d", c.Analysis.TopK))
	}
	if c.Analysis.SentimentMinCount < 0 {
		errs = append(errs, fmt.Errorf("sentiment_min_count must not be negative, got %d", c.Analysis.SentimentMinCount))
	}
	for _, f := range c.Output.Formats {
		if !slices.Contains(Formats, f) {
			errs = append(errs, fmt.Errorf("unknown output format %q", f))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))
	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
