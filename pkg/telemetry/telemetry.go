// Package telemetry collects run metrics. A batch run cannot be scraped, so
// the registry is written once to a file in the node_exporter textfile
// format when the run ends.
package telemetry

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry *prometheus.Registry

	stories      prometheus.Gauge
	emptyStories prometheus.Gauge
	tokens       prometheus.Gauge
	vocabulary   prometheus.Gauge
	words        prometheus.Gauge
	stageSeconds *prometheus.GaugeVec
	runs         *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stories: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storyarc_stories",
			Help: "Stories with at least one token.",
		}),
		emptyStories: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storyarc_empty_stories",
			Help: "Stories excluded because they have no tokens.",
		}),
		tokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storyarc_tokens",
			Help: "Tokens across the corpus.",
		}),
		vocabulary: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storyarc_vocabulary_words",
			Help: "Distinct words across the corpus.",
		}),
		words: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storyarc_threshold_words",
			Help: "Distinct words at or above the occurrence threshold.",
		}),
		stageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "storyarc_stage_duration_seconds",
			Help: "Wall time of each pipeline stage.",
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyarc_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(r.stories, r.emptyStories, r.tokens, r.vocabulary, r.words, r.stageSeconds, r.runs)
	return r
}

// Corpus records the size of the loaded and aggregated corpus.
func (r *Recorder) Corpus(stories, empty, tokens, vocabulary, words int) {
	if r == nil {
		return
	}
	r.stories.Set(float64(stories))
	r.emptyStories.Set(float64(empty))
	r.tokens.Set(float64(tokens))
	r.vocabulary.Set(float64(vocabulary))
	r.words.Set(float64(words))
}

// Stage returns a func that records the stage's duration when called.
func (r *Recorder) Stage(name string) func() {
	if r == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		r.stageSeconds.WithLabelValues(name).Set(time.Since(start).Seconds())
	}
}

func (r *Recorder) Outcome(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.runs.WithLabelValues("failure").Inc()
		return
	}
	r.runs.WithLabelValues("success").Inc()
}

// WriteFile writes all metrics to path atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
